package model

import "time"

// Recipe is owned by its author. Tags and Ingredients are never empty for a
// stored recipe.
type Recipe struct {
	ID          string
	AuthorID    string
	Name        string
	Text        string
	CookingTime int
	Image       string // URL of the stored image
	Tags        []Tag
	Ingredients []RecipeIngredient
	CreatedAt   time.Time
}

// RecipeIngredient is the junction row between a recipe and an ingredient,
// carrying the per-recipe amount.
type RecipeIngredient struct {
	Ingredient Ingredient
	Amount     int
}

// IngredientAmount is one submitted (ingredient id, amount) pair, before the
// ingredient is resolved.
type IngredientAmount struct {
	ID     string `json:"id"`
	Amount int    `json:"amount"`
}

// RecipeFilter narrows a recipe listing. Empty fields do not filter.
type RecipeFilter struct {
	AuthorID         string
	TagSlugs         []string
	FavoritedBy      string
	InShoppingCartOf string
}

// UpdateMode distinguishes a partial update from a full replacement.
type UpdateMode int

const (
	PartialUpdate UpdateMode = iota
	FullReplace
)
