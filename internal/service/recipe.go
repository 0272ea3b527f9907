package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/imagestore"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// RecipeInput is a new recipe as submitted. Image is a base64 data URI.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	Image       string
	Tags        []string
	Ingredients []model.IngredientAmount
}

// RecipePatch carries the fields of a partial update. A nil field is left
// unchanged. A non-nil empty Tags or Ingredients is a validation error.
type RecipePatch struct {
	Name        *string
	Text        *string
	CookingTime *int
	Image       *string
	Tags        []string
	Ingredients []model.IngredientAmount
}

// RecipeQuery is a listing request. Favorited and InShoppingCart restrict
// the list to the caller's own relations.
type RecipeQuery struct {
	AuthorID       string
	TagSlugs       []string
	Favorited      bool
	InShoppingCart bool
}

// RecipeService owns the recipe lifecycle.
//
// PERMISSIONS:
// The caller is always an explicit argument. Reads are open to anyone,
// including anonymous callers. Create needs an authenticated caller;
// update and delete need the author or a superuser.
type RecipeService struct {
	store     repository.Store
	images    imagestore.Store
	presenter *Presenter
	limits    RecipeLimits
	logger    *slog.Logger
}

func NewRecipeService(store repository.Store, images imagestore.Store, limits RecipeLimits, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		store:     store,
		images:    images,
		presenter: NewPresenter(store),
		limits:    limits,
		logger:    logger,
	}
}

// Create validates the input, stores the image and inserts the recipe with
// its tags and ingredients in one transaction.
func (s *RecipeService) Create(ctx context.Context, caller model.Caller, in RecipeInput) (*RecipeView, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthenticated("authentication is required to create a recipe")
	}

	// === VALIDATION ===
	in.Name = strings.TrimSpace(in.Name)
	in.Text = strings.TrimSpace(in.Text)
	tagIDs := trimIDs(in.Tags)

	var f fieldErrors
	f.validateLength("name", in.Name, MaxRecipeNameLength, true)
	f.validateLength("text", in.Text, MaxRecipeTextLength, true)
	f.validateBounds("cooking_time", in.CookingTime, MinCookingTime, s.limits.MaxCookingTime)
	f.validateTagIDs(tagIDs)
	f.validateIngredientList(in.Ingredients, s.limits)

	var img *imagestore.Image
	if strings.TrimSpace(in.Image) == "" {
		f.add("image", "this field is required")
	} else {
		var err error
		if img, err = imagestore.DecodeDataURI(in.Image); err != nil {
			f.add("image", err.Error())
		}
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	// === RESOLVE REFERENCES ===
	tags, ingredients, err := s.resolve(ctx, tagIDs, in.Ingredients)
	if err != nil {
		return nil, err
	}

	if err := s.checkDuplicate(ctx, caller.UserID, in.Name, tagIDs, ""); err != nil {
		return nil, err
	}

	imageURL, err := s.images.Save(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("storing recipe image: %w", err)
	}

	recipe := &model.Recipe{
		AuthorID:    caller.UserID,
		Name:        in.Name,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Image:       imageURL,
		Tags:        tags,
		Ingredients: ingredients,
	}
	if err := s.store.CreateRecipe(ctx, recipe); err != nil {
		s.logger.Error("failed to create recipe",
			slog.String("author", caller.UserID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("recipe created",
		slog.String("id", recipe.ID),
		slog.String("author", recipe.AuthorID),
		slog.String("name", recipe.Name),
	)
	return s.Get(ctx, caller, recipe.ID)
}

// Update applies a partial update. FullReplace is never allowed: clients
// must send only the fields they change.
func (s *RecipeService) Update(ctx context.Context, caller model.Caller, id string, mode model.UpdateMode, patch RecipePatch) (*RecipeView, error) {
	if mode == model.FullReplace {
		return nil, apperror.MethodNotAllowed("PUT")
	}
	if !caller.Authenticated() {
		return nil, apperror.Unauthenticated("authentication is required to change a recipe")
	}

	recipe, err := s.store.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanModify(recipe.AuthorID) {
		return nil, apperror.Forbidden("only the author can change this recipe")
	}

	// === VALIDATION ===
	var f fieldErrors
	if patch.Name != nil {
		recipe.Name = strings.TrimSpace(*patch.Name)
		f.validateLength("name", recipe.Name, MaxRecipeNameLength, true)
	}
	if patch.Text != nil {
		recipe.Text = strings.TrimSpace(*patch.Text)
		f.validateLength("text", recipe.Text, MaxRecipeTextLength, true)
	}
	if patch.CookingTime != nil {
		recipe.CookingTime = *patch.CookingTime
		f.validateBounds("cooking_time", recipe.CookingTime, MinCookingTime, s.limits.MaxCookingTime)
	}

	var tagIDs []string
	if patch.Tags != nil {
		tagIDs = trimIDs(patch.Tags)
		f.validateTagIDs(tagIDs)
	}
	if patch.Ingredients != nil {
		f.validateIngredientList(patch.Ingredients, s.limits)
	}

	var img *imagestore.Image
	if patch.Image != nil {
		if img, err = imagestore.DecodeDataURI(*patch.Image); err != nil {
			f.add("image", err.Error())
		}
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	// === RESOLVE REFERENCES ===
	upd := repository.RecipeUpdate{
		ReplaceTags:        patch.Tags != nil,
		ReplaceIngredients: patch.Ingredients != nil,
	}
	tags, ingredients, err := s.resolve(ctx, tagIDs, patch.Ingredients)
	if err != nil {
		return nil, err
	}
	if upd.ReplaceTags {
		recipe.Tags = tags
	}
	if upd.ReplaceIngredients {
		recipe.Ingredients = ingredients
	}

	if patch.Name != nil || upd.ReplaceTags {
		if err := s.checkDuplicate(ctx, recipe.AuthorID, recipe.Name, tagIDsOf(recipe.Tags), recipe.ID); err != nil {
			return nil, err
		}
	}

	if img != nil {
		if recipe.Image, err = s.images.Save(ctx, img); err != nil {
			return nil, fmt.Errorf("storing recipe image: %w", err)
		}
	}

	if err := s.store.UpdateRecipe(ctx, recipe, upd); err != nil {
		return nil, err
	}

	s.logger.Info("recipe updated",
		slog.String("id", recipe.ID),
		slog.String("by", caller.UserID),
		slog.Bool("tags_replaced", upd.ReplaceTags),
		slog.Bool("ingredients_replaced", upd.ReplaceIngredients),
	)
	return s.Get(ctx, caller, recipe.ID)
}

// Delete removes the recipe together with its ingredients, tag links,
// favorites and buy list entries.
func (s *RecipeService) Delete(ctx context.Context, caller model.Caller, id string) error {
	if !caller.Authenticated() {
		return apperror.Unauthenticated("authentication is required to delete a recipe")
	}
	recipe, err := s.store.GetRecipe(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanModify(recipe.AuthorID) {
		return apperror.Forbidden("only the author can delete this recipe")
	}

	if err := s.store.DeleteRecipe(ctx, recipe.ID); err != nil {
		return err
	}

	s.logger.Info("recipe deleted",
		slog.String("id", recipe.ID),
		slog.String("by", caller.UserID),
	)
	return nil
}

func (s *RecipeService) Get(ctx context.Context, caller model.Caller, id string) (*RecipeView, error) {
	recipe, err := s.store.GetRecipe(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return s.presenter.RecipeView(ctx, recipe, caller)
}

// List returns one page of recipes, newest first. The favorite and
// shopping cart filters need an authenticated caller.
func (s *RecipeService) List(ctx context.Context, caller model.Caller, q RecipeQuery, opts repository.ListOptions) (*Page[RecipeView], error) {
	filter := model.RecipeFilter{
		AuthorID: strings.TrimSpace(q.AuthorID),
		TagSlugs: q.TagSlugs,
	}
	if q.Favorited || q.InShoppingCart {
		if !caller.Authenticated() {
			return nil, apperror.Unauthenticated("authentication is required to filter by favorites or shopping cart")
		}
		if q.Favorited {
			filter.FavoritedBy = caller.UserID
		}
		if q.InShoppingCart {
			filter.InShoppingCartOf = caller.UserID
		}
	}

	recipes, total, err := s.store.ListRecipes(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	views, err := s.presenter.RecipeViews(ctx, recipes, caller)
	if err != nil {
		return nil, err
	}
	return &Page[RecipeView]{Count: total, Results: views}, nil
}

// resolve loads the referenced tags and ingredients, keeping the submitted
// order, and reports every unknown id in one ValidationError.
func (s *RecipeService) resolve(ctx context.Context, tagIDs []string, items []model.IngredientAmount) ([]model.Tag, []model.RecipeIngredient, error) {
	var f fieldErrors

	var tags []model.Tag
	if len(tagIDs) > 0 {
		found, err := s.store.FindTags(ctx, tagIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving tags: %w", err)
		}
		byID := make(map[string]model.Tag, len(found))
		for _, t := range found {
			byID[t.ID] = t
		}
		for _, id := range tagIDs {
			t, ok := byID[id]
			if !ok {
				f.addf("tags", "tag %s does not exist", id)
				continue
			}
			tags = append(tags, t)
		}
	}

	var ingredients []model.RecipeIngredient
	if len(items) > 0 {
		ids := make([]string, len(items))
		for i, item := range items {
			ids[i] = strings.TrimSpace(item.ID)
		}
		found, err := s.store.FindIngredients(ctx, ids)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving ingredients: %w", err)
		}
		byID := make(map[string]model.Ingredient, len(found))
		for _, ing := range found {
			byID[ing.ID] = ing
		}
		for i, id := range ids {
			ing, ok := byID[id]
			if !ok {
				f.addf(fmt.Sprintf("ingredients[%d].id", i), "ingredient %s does not exist", id)
				continue
			}
			ingredients = append(ingredients, model.RecipeIngredient{Ingredient: ing, Amount: items[i].Amount})
		}
	}

	if err := f.err(); err != nil {
		return nil, nil, err
	}
	return tags, ingredients, nil
}

// checkDuplicate enforces that one author never has two recipes with the
// same name and an overlapping tag set.
func (s *RecipeService) checkDuplicate(ctx context.Context, authorID, name string, tagIDs []string, excludeID string) error {
	exists, err := s.store.AuthorHasRecipe(ctx, authorID, name, tagIDs, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.Duplicate(fmt.Sprintf("you already have a recipe named %q with one of these tags", name))
	}
	return nil
}

func trimIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strings.TrimSpace(id)
	}
	return out
}

func tagIDsOf(tags []model.Tag) []string {
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}
