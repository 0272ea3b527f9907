package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// ShoppingListHeader is the first line of every shopping list.
const ShoppingListHeader = "Shopping list:"

// AggregateShoppingList groups rows by (name, unit) and sums the amounts.
// The result is sorted by name, then unit, so it does not depend on the
// order of rows.
func AggregateShoppingList(rows []model.ShoppingRow) []model.ShoppingItem {
	type key struct{ name, unit string }
	totals := make(map[key]int)
	for _, r := range rows {
		totals[key{r.Name, r.MeasurementUnit}] += r.Amount
	}

	items := make([]model.ShoppingItem, 0, len(totals))
	for k, sum := range totals {
		items = append(items, model.ShoppingItem{Name: k.name, MeasurementUnit: k.unit, Amount: sum})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items
}

// FormatShoppingList renders the header followed by one
// "name (unit) — amount" line per item.
func FormatShoppingList(items []model.ShoppingItem) string {
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, ShoppingListHeader)
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s (%s) — %d", it.Name, it.MeasurementUnit, it.Amount))
	}
	return strings.Join(lines, "\n")
}

type ShoppingListService struct {
	repo   repository.RelationRepository
	logger *slog.Logger
}

func NewShoppingListService(repo repository.RelationRepository, logger *slog.Logger) *ShoppingListService {
	return &ShoppingListService{repo: repo, logger: logger}
}

// BuildShoppingList returns the caller's aggregated shopping list as text.
func (s *ShoppingListService) BuildShoppingList(ctx context.Context, caller model.Caller) (string, error) {
	if !caller.Authenticated() {
		return "", apperror.Unauthenticated("authentication is required to download a shopping list")
	}
	rows, err := s.repo.BuyListRows(ctx, caller.UserID)
	if err != nil {
		return "", fmt.Errorf("building shopping list: %w", err)
	}
	items := AggregateShoppingList(rows)

	s.logger.Debug("shopping list built",
		slog.String("user", caller.UserID),
		slog.Int("rows", len(rows)),
		slog.Int("items", len(items)),
	)
	return FormatShoppingList(items), nil
}
