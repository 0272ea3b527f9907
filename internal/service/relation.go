package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// RecipeRelation is a per-user recipe collection. Favorites and the
// shopping cart behave identically and differ only in kind, so there is
// one implementation instantiated once per kind.
//
// OWNERSHIP:
// Every lookup is keyed by the caller's id. A client can only ever name a
// recipe, never a relation row, so it cannot touch another user's entries.
type RecipeRelation struct {
	kind   model.RelationKind
	store  repository.Store
	logger *slog.Logger
}

func NewRecipeRelation(kind model.RelationKind, store repository.Store, logger *slog.Logger) *RecipeRelation {
	if !kind.Valid() {
		panic(fmt.Sprintf("service: unknown relation kind %q", kind))
	}
	return &RecipeRelation{kind: kind, store: store, logger: logger}
}

func NewFavorites(store repository.Store, logger *slog.Logger) *RecipeRelation {
	return NewRecipeRelation(model.RelationFavorite, store, logger)
}

func NewCart(store repository.Store, logger *slog.Logger) *RecipeRelation {
	return NewRecipeRelation(model.RelationBuyList, store, logger)
}

func (r *RecipeRelation) Kind() model.RelationKind { return r.kind }

// Add puts the recipe into the caller's collection. Adding it twice is a
// DuplicateError, whether the second attempt is caught by the pre-check or
// by the storage constraint.
func (r *RecipeRelation) Add(ctx context.Context, caller model.Caller, recipeID string) (*RecipeSummary, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthenticated(fmt.Sprintf("authentication is required to change your %s", r.kind.Label()))
	}
	recipe, err := r.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	exists, err := r.store.HasRecipeRelation(ctx, r.kind, caller.UserID, recipe.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Duplicate(fmt.Sprintf("recipe %s is already in your %s", recipe.ID, r.kind.Label()))
	}
	if err := r.store.AddRecipeRelation(ctx, r.kind, caller.UserID, recipe.ID); err != nil {
		return nil, err
	}

	r.logger.Info(string(r.kind)+" added",
		slog.String("user", caller.UserID),
		slog.String("recipe", recipe.ID),
	)
	summary := summarize(recipe)
	return &summary, nil
}

// Remove takes the recipe out of the caller's collection. Removing a recipe
// that is not there is a NotFoundError.
func (r *RecipeRelation) Remove(ctx context.Context, caller model.Caller, recipeID string) error {
	if !caller.Authenticated() {
		return apperror.Unauthenticated(fmt.Sprintf("authentication is required to change your %s", r.kind.Label()))
	}
	recipe, err := r.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if err := r.store.RemoveRecipeRelation(ctx, r.kind, caller.UserID, recipe.ID); err != nil {
		return err
	}

	r.logger.Info(string(r.kind)+" removed",
		slog.String("user", caller.UserID),
		slog.String("recipe", recipe.ID),
	)
	return nil
}
