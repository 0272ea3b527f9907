package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// CatalogService serves the read-only reference data (ingredients and tags)
// and the bulk loaders the manage CLI uses to seed it.
type CatalogService struct {
	repo   repository.CatalogRepository
	logger *slog.Logger
}

func NewCatalogService(repo repository.CatalogRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// ListIngredients returns every ingredient whose name starts with prefix,
// ignoring case. An empty prefix lists the whole catalog.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]model.Ingredient, error) {
	items, err := s.repo.ListIngredients(ctx, strings.TrimSpace(prefix))
	if err != nil {
		return nil, fmt.Errorf("listing ingredients: %w", err)
	}
	return items, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	return s.repo.GetIngredient(ctx, strings.TrimSpace(id))
}

// ImportIngredients validates every entry first and stores nothing if any
// is invalid. Pairs already in the catalog are skipped. Returns how many
// were added.
func (s *CatalogService) ImportIngredients(ctx context.Context, items []model.Ingredient) (int, error) {
	var f fieldErrors
	for i := range items {
		items[i].Name = strings.TrimSpace(items[i].Name)
		items[i].MeasurementUnit = strings.TrimSpace(items[i].MeasurementUnit)

		f.validateLength(fmt.Sprintf("[%d].name", i), items[i].Name, MaxNameLength, true)
		f.validateLength(fmt.Sprintf("[%d].measurement_unit", i), items[i].MeasurementUnit, MaxUnitLength, true)
	}
	if err := f.err(); err != nil {
		return 0, err
	}

	inserted, err := s.repo.CreateIngredients(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("importing ingredients: %w", err)
	}

	s.logger.Info("ingredients imported",
		slog.Int("submitted", len(items)),
		slog.Int("inserted", inserted),
	)
	return inserted, nil
}

func (s *CatalogService) ListTags(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	return s.repo.GetTag(ctx, strings.TrimSpace(id))
}

// CreateTag validates and stores a tag. A name or slug clash is a
// DuplicateError.
func (s *CatalogService) CreateTag(ctx context.Context, tag model.Tag) (*model.Tag, error) {
	tag.Name = strings.TrimSpace(tag.Name)
	tag.Color = strings.TrimSpace(tag.Color)
	tag.Slug = strings.TrimSpace(tag.Slug)
	if err := ValidateTag(tag); err != nil {
		return nil, err
	}

	if err := s.repo.CreateTag(ctx, &tag); err != nil {
		return nil, err
	}

	s.logger.Info("tag created",
		slog.String("id", tag.ID),
		slog.String("slug", tag.Slug),
	)
	return &tag, nil
}
