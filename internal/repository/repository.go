// Package repository declares the storage contracts the service layer
// depends on. internal/repository/sqlite is the only implementation; tests
// run it against an in-memory database.
package repository

import (
	"context"

	"github.com/sakif/foodgram/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, opts ListOptions) ([]model.User, int, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetSuperuser(ctx context.Context, email string, isSuperuser bool) error
	// Upsert creates or refreshes an account keyed by its GitHub ID.
	Upsert(ctx context.Context, user *model.User) error
}

type CatalogRepository interface {
	ListIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error)
	GetIngredient(ctx context.Context, id string) (*model.Ingredient, error)
	FindIngredients(ctx context.Context, ids []string) ([]model.Ingredient, error)
	CreateIngredients(ctx context.Context, items []model.Ingredient) (int, error)

	ListTags(ctx context.Context) ([]model.Tag, error)
	GetTag(ctx context.Context, id string) (*model.Tag, error)
	FindTags(ctx context.Context, ids []string) ([]model.Tag, error)
	CreateTag(ctx context.Context, tag *model.Tag) error
}

// RecipeUpdate says which associations an UpdateRecipe call replaces.
type RecipeUpdate struct {
	ReplaceTags        bool
	ReplaceIngredients bool
}

type RecipeRepository interface {
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
	GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *model.Recipe, upd RecipeUpdate) error
	DeleteRecipe(ctx context.Context, id string) error
	ListRecipes(ctx context.Context, filter model.RecipeFilter, opts ListOptions) ([]model.Recipe, int, error)
	// ListRecipesByAuthor returns recipes without tags or ingredients.
	// A negative limit means no limit.
	ListRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]model.Recipe, error)
	CountRecipesByAuthor(ctx context.Context, authorID string) (int, error)
	// AuthorHasRecipe reports whether authorID already has a recipe called
	// name that carries any of tagIDs, ignoring excludeID.
	AuthorHasRecipe(ctx context.Context, authorID, name string, tagIDs []string, excludeID string) (bool, error)
}

type RelationRepository interface {
	AddRecipeRelation(ctx context.Context, kind model.RelationKind, userID, recipeID string) error
	RemoveRecipeRelation(ctx context.Context, kind model.RelationKind, userID, recipeID string) error
	HasRecipeRelation(ctx context.Context, kind model.RelationKind, userID, recipeID string) (bool, error)

	AddSubscription(ctx context.Context, userID, authorID string) error
	RemoveSubscription(ctx context.Context, userID, authorID string) error
	HasSubscription(ctx context.Context, userID, authorID string) (bool, error)
	ListSubscriptions(ctx context.Context, userID string, opts ListOptions) ([]model.User, int, error)

	// BuyListRows returns every junction row of every recipe in the user's buy list.
	BuyListRows(ctx context.Context, userID string) ([]model.ShoppingRow, error)
}

// Store is everything the services need from storage.
type Store interface {
	UserRepository
	CatalogRepository
	RecipeRepository
	RelationRepository
}
