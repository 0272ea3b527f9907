package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

var firstPage = repository.ListOptions{Limit: 10}

// =========================================================================
// CREATE
// =========================================================================

func TestCreateRecipe(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "chef")
	breakfast := env.tag(t, "breakfast")
	eggs := env.ingredient(t, "Eggs", "pcs")
	milk := env.ingredient(t, "Milk", "ml")

	v, err := env.recipes.Create(context.Background(), author,
		recipeInput("  Omelette  ", []model.Tag{breakfast}, amount(milk, 50), amount(eggs, 3)))
	require.NoError(t, err)

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "Omelette", v.Name)
	assert.Equal(t, testImageURL, v.Image)
	assert.Equal(t, 30, v.CookingTime)
	assert.Equal(t, author.UserID, v.Author.ID)
	assert.Equal(t, "chef", v.Author.Username)
	assert.False(t, v.Author.IsSubscribed)
	assert.False(t, v.IsFavorited)
	assert.False(t, v.IsInShoppingCart)

	require.Len(t, v.Tags, 1)
	assert.Equal(t, "breakfast", v.Tags[0].Slug)
	assert.Equal(t, []IngredientView{
		{ID: milk.ID, Name: "Milk", MeasurementUnit: "ml", Amount: 50},
		{ID: eggs.ID, Name: "Eggs", MeasurementUnit: "pcs", Amount: 3},
	}, v.Ingredients, "submission order is kept")

	env.images.AssertNumberOfCalls(t, "Save", 1)
}

func TestCreateRecipe_ReportsEveryInvalidField(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "chef")

	_, err := env.recipes.Create(context.Background(), author, RecipeInput{
		Name:        "",
		Text:        "text",
		CookingTime: 0,
		Image:       "not-a-data-uri",
	})

	assert.ElementsMatch(t, []string{"name", "cooking_time", "tags", "ingredients", "image"}, fieldsOf(t, err))
	env.images.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateRecipe_Bounds(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "chef")
	tag := env.tag(t, "soup")
	water := env.ingredient(t, "Water", "ml")

	tests := []struct {
		name    string
		cooking int
		amount  int
		field   string
	}{
		{"cooking time too long", 1001, 10, "cooking_time"},
		{"amount zero", 10, 0, "ingredients[0].amount"},
		{"amount above maximum", 10, 3001, "ingredients[0].amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := recipeInput("Soup "+tt.name, []model.Tag{tag}, amount(water, tt.amount))
			in.CookingTime = tt.cooking
			_, err := env.recipes.Create(context.Background(), author, in)
			assert.Equal(t, []string{tt.field}, fieldsOf(t, err))
		})
	}
}

func TestCreateRecipe_UnknownReferences(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "chef")
	tag := env.tag(t, "soup")
	water := env.ingredient(t, "Water", "ml")

	in := recipeInput("Soup", []model.Tag{tag}, amount(water, 1), model.IngredientAmount{ID: "missing", Amount: 1})
	in.Tags = append(in.Tags, "no-such-tag")

	_, err := env.recipes.Create(context.Background(), author, in)
	assert.Equal(t, []string{"tags", "ingredients[1].id"}, fieldsOf(t, err))

	page, err := env.recipes.List(context.Background(), author, RecipeQuery{}, firstPage)
	require.NoError(t, err)
	assert.Zero(t, page.Count, "nothing is stored")
}

func TestCreateRecipe_RequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.recipes.Create(context.Background(), model.Anonymous(), RecipeInput{})
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	assert.True(t, apperror.IsPermission(err))
}

func TestCreateRecipe_DuplicateGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	breakfast := env.tag(t, "breakfast")
	lunch := env.tag(t, "lunch")
	dinner := env.tag(t, "dinner")
	eggs := env.ingredient(t, "Eggs", "pcs")

	env.recipe(t, alice, recipeInput("Omelette", []model.Tag{breakfast, lunch}, amount(eggs, 2)))

	// Same author, same name, overlapping tags.
	_, err := env.recipes.Create(ctx, alice, recipeInput("Omelette", []model.Tag{lunch, dinner}, amount(eggs, 3)))
	assert.ErrorIs(t, err, apperror.ErrDuplicate)

	// Same author, same name, disjoint tags.
	_, err = env.recipes.Create(ctx, alice, recipeInput("Omelette", []model.Tag{dinner}, amount(eggs, 3)))
	assert.NoError(t, err)

	// Another author may reuse the combination.
	_, err = env.recipes.Create(ctx, bob, recipeInput("Omelette", []model.Tag{breakfast, lunch}, amount(eggs, 2)))
	assert.NoError(t, err)
}

func TestCreateRecipe_ImageStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "chef")
	tag := env.tag(t, "soup")
	water := env.ingredient(t, "Water", "ml")

	env.images.ExpectedCalls = nil
	env.images.On("Save", mock.Anything, mock.Anything).Return("", errors.New("disk full"))

	_, err := env.recipes.Create(context.Background(), author, recipeInput("Soup", []model.Tag{tag}, amount(water, 1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

// =========================================================================
// UPDATE
// =========================================================================

func TestUpdateRecipe_PutRejectedPatchAllowed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "chef")
	tag := env.tag(t, "soup")
	water := env.ingredient(t, "Water", "ml")
	v := env.recipe(t, author, recipeInput("Soup", []model.Tag{tag}, amount(water, 1)))

	patch := RecipePatch{Name: strPtr("Better soup"), CookingTime: intPtr(45)}

	_, err := env.recipes.Update(ctx, author, v.ID, model.FullReplace, patch)
	assert.ErrorIs(t, err, apperror.ErrMethodNotAllowed)
	assert.True(t, apperror.IsPermission(err))

	got, err := env.recipes.Update(ctx, author, v.ID, model.PartialUpdate, patch)
	require.NoError(t, err)
	assert.Equal(t, "Better soup", got.Name)
	assert.Equal(t, 45, got.CookingTime)
	assert.Equal(t, v.Text, got.Text, "absent fields are unchanged")
	assert.Equal(t, v.Ingredients, got.Ingredients)
	assert.Equal(t, v.Tags, got.Tags)
}

func TestUpdateRecipe_Permissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "chef")
	other := env.user(t, "other")
	admin := env.user(t, "admin")
	require.NoError(t, env.users.Promote(ctx, "admin@example.com"))
	admin, err := env.users.Caller(ctx, admin.UserID)
	require.NoError(t, err)
	require.True(t, admin.IsSuperuser)

	tag := env.tag(t, "soup")
	water := env.ingredient(t, "Water", "ml")
	v := env.recipe(t, author, recipeInput("Soup", []model.Tag{tag}, amount(water, 1)))
	patch := RecipePatch{Text: strPtr("Boil longer.")}

	_, err = env.recipes.Update(ctx, other, v.ID, model.PartialUpdate, patch)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.NotErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = env.recipes.Update(ctx, model.Anonymous(), v.ID, model.PartialUpdate, patch)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	got, err := env.recipes.Update(ctx, admin, v.ID, model.PartialUpdate, patch)
	require.NoError(t, err)
	assert.Equal(t, "Boil longer.", got.Text)

	_, err = env.recipes.Update(ctx, author, "missing", model.PartialUpdate, patch)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateRecipe_ReplacesIngredients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "chef")
	tag := env.tag(t, "soup")
	water := env.ingredient(t, "Water", "ml")
	salt := env.ingredient(t, "Salt", "g")
	v := env.recipe(t, author, recipeInput("Soup", []model.Tag{tag}, amount(water, 500)))

	got, err := env.recipes.Update(ctx, author, v.ID, model.PartialUpdate, RecipePatch{
		Ingredients: []model.IngredientAmount{amount(salt, 5), amount(water, 750)},
	})
	require.NoError(t, err)
	assert.Equal(t, []IngredientView{
		{ID: salt.ID, Name: "Salt", MeasurementUnit: "g", Amount: 5},
		{ID: water.ID, Name: "Water", MeasurementUnit: "ml", Amount: 750},
	}, got.Ingredients)
}

func TestUpdateRecipe_InvalidPatchKeepsRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "chef")
	tag := env.tag(t, "soup")
	water := env.ingredient(t, "Water", "ml")
	v := env.recipe(t, author, recipeInput("Soup", []model.Tag{tag}, amount(water, 500)))

	tests := []struct {
		name  string
		patch RecipePatch
	}{
		{"empty tags", RecipePatch{Tags: []string{}}},
		{"empty ingredients", RecipePatch{Ingredients: []model.IngredientAmount{}}},
		{"unknown ingredient", RecipePatch{Ingredients: []model.IngredientAmount{{ID: "missing", Amount: 1}}}},
		{"duplicate ingredient", RecipePatch{Ingredients: []model.IngredientAmount{amount(water, 1), amount(water, 2)}}},
		{"blank name", RecipePatch{Name: strPtr("   "), Ingredients: []model.IngredientAmount{amount(water, 1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.recipes.Update(ctx, author, v.ID, model.PartialUpdate, tt.patch)
			assert.ErrorIs(t, err, apperror.ErrValidation)

			stored, err := env.recipes.Get(ctx, author, v.ID)
			require.NoError(t, err)
			assert.Equal(t, v.Name, stored.Name)
			assert.Equal(t, v.Tags, stored.Tags)
			assert.Equal(t, v.Ingredients, stored.Ingredients)
		})
	}
}

func TestUpdateRecipe_DuplicateGuardExcludesSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "chef")
	tag := env.tag(t, "soup")
	water := env.ingredient(t, "Water", "ml")
	soup := env.recipe(t, author, recipeInput("Soup", []model.Tag{tag}, amount(water, 1)))
	stew := env.recipe(t, author, recipeInput("Stew", []model.Tag{tag}, amount(water, 1)))

	_, err := env.recipes.Update(ctx, author, soup.ID, model.PartialUpdate, RecipePatch{Name: strPtr("Soup")})
	assert.NoError(t, err, "renaming a recipe to its own name is not a duplicate")

	_, err = env.recipes.Update(ctx, author, stew.ID, model.PartialUpdate, RecipePatch{Name: strPtr("Soup")})
	assert.ErrorIs(t, err, apperror.ErrDuplicate)
}

// =========================================================================
// DELETE, GET, LIST
// =========================================================================

func TestDeleteRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "chef")
	other := env.user(t, "other")
	tag := env.tag(t, "soup")
	water := env.ingredient(t, "Water", "ml")
	v := env.recipe(t, author, recipeInput("Soup", []model.Tag{tag}, amount(water, 1)))

	_, err := env.favorites.Add(ctx, other, v.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.recipes.Delete(ctx, other, v.ID), apperror.ErrForbidden)
	assert.ErrorIs(t, env.recipes.Delete(ctx, model.Anonymous(), v.ID), apperror.ErrUnauthenticated)

	require.NoError(t, env.recipes.Delete(ctx, author, v.ID))

	_, err = env.recipes.Get(ctx, author, v.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, env.recipes.Delete(ctx, author, v.ID), apperror.ErrNotFound)

	page, err := env.recipes.List(ctx, other, RecipeQuery{Favorited: true}, firstPage)
	require.NoError(t, err)
	assert.Zero(t, page.Count, "favorites of a deleted recipe are gone")
}

func TestGetRecipe_CallerFlags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "chef")
	reader := env.user(t, "reader")
	tag := env.tag(t, "soup")
	water := env.ingredient(t, "Water", "ml")
	v := env.recipe(t, author, recipeInput("Soup", []model.Tag{tag}, amount(water, 1)))

	_, err := env.favorites.Add(ctx, reader, v.ID)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, reader, v.ID)
	require.NoError(t, err)
	_, err = env.subs.Subscribe(ctx, reader, author.UserID, -1)
	require.NoError(t, err)

	got, err := env.recipes.Get(ctx, reader, v.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorited)
	assert.True(t, got.IsInShoppingCart)
	assert.True(t, got.Author.IsSubscribed)

	got, err = env.recipes.Get(ctx, model.Anonymous(), v.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFavorited)
	assert.False(t, got.IsInShoppingCart)
	assert.False(t, got.Author.IsSubscribed)

	got, err = env.recipes.Get(ctx, author, v.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFavorited, "flags are per caller")
}

func TestListRecipes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	breakfast := env.tag(t, "breakfast")
	lunch := env.tag(t, "lunch")
	water := env.ingredient(t, "Water", "ml")

	r1 := env.recipe(t, alice, recipeInput("First", []model.Tag{breakfast, lunch}, amount(water, 1)))
	r2 := env.recipe(t, bob, recipeInput("Second", []model.Tag{lunch}, amount(water, 1)))
	r3 := env.recipe(t, alice, recipeInput("Third", []model.Tag{breakfast}, amount(water, 1)))

	ids := func(p *Page[RecipeView]) []string {
		out := make([]string, 0, len(p.Results))
		for _, v := range p.Results {
			out = append(out, v.ID)
		}
		return out
	}

	page, err := env.recipes.List(ctx, model.Anonymous(), RecipeQuery{}, firstPage)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	assert.Equal(t, []string{r3.ID, r2.ID, r1.ID}, ids(page), "newest first")

	page, err = env.recipes.List(ctx, model.Anonymous(), RecipeQuery{}, repository.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	assert.Equal(t, []string{r2.ID}, ids(page))

	page, err = env.recipes.List(ctx, model.Anonymous(), RecipeQuery{AuthorID: alice.UserID}, firstPage)
	require.NoError(t, err)
	assert.Equal(t, []string{r3.ID, r1.ID}, ids(page))

	page, err = env.recipes.List(ctx, model.Anonymous(), RecipeQuery{TagSlugs: []string{"breakfast", "lunch"}}, firstPage)
	require.NoError(t, err)
	assert.Equal(t, []string{r3.ID, r2.ID, r1.ID}, ids(page), "any tag matches, each recipe once")

	_, err = env.favorites.Add(ctx, bob, r1.ID)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, bob, r3.ID)
	require.NoError(t, err)

	page, err = env.recipes.List(ctx, bob, RecipeQuery{Favorited: true}, firstPage)
	require.NoError(t, err)
	assert.Equal(t, []string{r1.ID}, ids(page))
	assert.True(t, page.Results[0].IsFavorited)

	page, err = env.recipes.List(ctx, bob, RecipeQuery{InShoppingCart: true}, firstPage)
	require.NoError(t, err)
	assert.Equal(t, []string{r3.ID}, ids(page))

	page, err = env.recipes.List(ctx, alice, RecipeQuery{Favorited: true}, firstPage)
	require.NoError(t, err)
	assert.Zero(t, page.Count, "filters use the caller's own relations")
}

func TestListRecipes_RelationFiltersNeedAuthentication(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.recipes.List(ctx, model.Anonymous(), RecipeQuery{Favorited: true}, firstPage)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = env.recipes.List(ctx, model.Anonymous(), RecipeQuery{InShoppingCart: true}, firstPage)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}
