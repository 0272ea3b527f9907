package service

import (
	"context"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// VIEW MODELS:
// The service layer returns these plain records instead of storage models.
// Caller-relative flags (is_subscribed, is_favorited, is_in_shopping_cart)
// are computed here, once per entity, by explicit existence checks against
// the caller passed in. Anonymous callers always get false.

type UserView struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type IngredientView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeView struct {
	ID               string           `json:"id"`
	Tags             []model.Tag      `json:"tags"`
	Author           UserView         `json:"author"`
	Ingredients      []IngredientView `json:"ingredients"`
	IsFavorited      bool             `json:"is_favorited"`
	IsInShoppingCart bool             `json:"is_in_shopping_cart"`
	Name             string           `json:"name"`
	Image            string           `json:"image"`
	Text             string           `json:"text"`
	CookingTime      int              `json:"cooking_time"`
}

// RecipeSummary is the short form used in relation responses and inside
// subscriptions.
type RecipeSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionView is a followed author with a preview of their recipes.
type SubscriptionView struct {
	UserView
	Recipes      []RecipeSummary `json:"recipes"`
	RecipesCount int             `json:"recipes_count"`
}

// Page is one page of a list plus the total number of matches.
type Page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func summarize(r *model.Recipe) RecipeSummary {
	return RecipeSummary{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// Presenter builds view models for a given caller.
type Presenter struct {
	store repository.Store
}

func NewPresenter(store repository.Store) *Presenter {
	return &Presenter{store: store}
}

func (p *Presenter) UserView(ctx context.Context, user *model.User, caller model.Caller) (UserView, error) {
	v := UserView{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	if !caller.Authenticated() || caller.UserID == user.ID {
		return v, nil
	}
	subscribed, err := p.store.HasSubscription(ctx, caller.UserID, user.ID)
	if err != nil {
		return UserView{}, err
	}
	v.IsSubscribed = subscribed
	return v, nil
}

func (p *Presenter) UserViews(ctx context.Context, users []model.User, caller model.Caller) ([]UserView, error) {
	views := make([]UserView, 0, len(users))
	for i := range users {
		v, err := p.UserView(ctx, &users[i], caller)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (p *Presenter) RecipeView(ctx context.Context, recipe *model.Recipe, caller model.Caller) (*RecipeView, error) {
	views, err := p.RecipeViews(ctx, []model.Recipe{*recipe}, caller)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// RecipeViews builds views for a page of recipes. Each author is loaded
// once per call.
func (p *Presenter) RecipeViews(ctx context.Context, recipes []model.Recipe, caller model.Caller) ([]RecipeView, error) {
	authors := make(map[string]UserView)
	views := make([]RecipeView, 0, len(recipes))

	for i := range recipes {
		r := &recipes[i]

		author, ok := authors[r.AuthorID]
		if !ok {
			user, err := p.store.GetUserByID(ctx, r.AuthorID)
			if err != nil {
				return nil, err
			}
			if author, err = p.UserView(ctx, user, caller); err != nil {
				return nil, err
			}
			authors[r.AuthorID] = author
		}

		v := RecipeView{
			ID:          r.ID,
			Tags:        r.Tags,
			Author:      author,
			Ingredients: make([]IngredientView, 0, len(r.Ingredients)),
			Name:        r.Name,
			Image:       r.Image,
			Text:        r.Text,
			CookingTime: r.CookingTime,
		}
		if v.Tags == nil {
			v.Tags = []model.Tag{}
		}
		for _, ri := range r.Ingredients {
			v.Ingredients = append(v.Ingredients, IngredientView{
				ID:              ri.Ingredient.ID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			})
		}

		if caller.Authenticated() {
			var err error
			if v.IsFavorited, err = p.store.HasRecipeRelation(ctx, model.RelationFavorite, caller.UserID, r.ID); err != nil {
				return nil, err
			}
			if v.IsInShoppingCart, err = p.store.HasRecipeRelation(ctx, model.RelationBuyList, caller.UserID, r.ID); err != nil {
				return nil, err
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// SubscriptionView includes at most recipesLimit of the author's newest
// recipes. A negative recipesLimit includes all of them.
func (p *Presenter) SubscriptionView(ctx context.Context, author *model.User, caller model.Caller, recipesLimit int) (*SubscriptionView, error) {
	uv, err := p.UserView(ctx, author, caller)
	if err != nil {
		return nil, err
	}
	recipes, err := p.store.ListRecipesByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return nil, err
	}
	count, err := p.store.CountRecipesByAuthor(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	v := &SubscriptionView{
		UserView:     uv,
		Recipes:      make([]RecipeSummary, 0, len(recipes)),
		RecipesCount: count,
	}
	for i := range recipes {
		v.Recipes = append(v.Recipes, summarize(&recipes[i]))
	}
	return v, nil
}
