package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/imagestore"
	"github.com/sakif/foodgram/internal/logging"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository/sqlite"
)

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================
//
// Services run against a real in-memory SQLite database so that the
// transactional paths (recipe create/update, cascades) are exercised for
// real. Only the image store is mocked.

const testImageURL = "/media/recipes/images/test.png"

var testPNG = append([]byte("\x89PNG\r\n\x1a\n"), []byte("fake-image-body")...)

func testImageURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG)
}

type mockImageStore struct {
	mock.Mock
}

func (m *mockImageStore) Save(ctx context.Context, img *imagestore.Image) (string, error) {
	args := m.Called(ctx, img)
	return args.String(0), args.Error(1)
}

type testEnv struct {
	db        *sqlite.DB
	images    *mockImageStore
	tokens    *auth.TokenService
	users     *UserService
	auth      *AuthService
	catalog   *CatalogService
	recipes   *RecipeService
	favorites *RecipeRelation
	cart      *RecipeRelation
	subs      *SubscriptionService
	shopping  *ShoppingListService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars", time.Hour)
	require.NoError(t, err)

	images := new(mockImageStore)
	images.On("Save", mock.Anything, mock.Anything).Return(testImageURL, nil).Maybe()

	logger := logging.Discard()
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)

	return &testEnv{
		db:        db,
		images:    images,
		tokens:    tokens,
		users:     NewUserService(db, passwords, logger),
		auth:      NewAuthService(db, tokens, passwords, logger),
		catalog:   NewCatalogService(db, logger),
		recipes:   NewRecipeService(db, images, DefaultRecipeLimits(), logger),
		favorites: NewFavorites(db, logger),
		cart:      NewCart(db, logger),
		subs:      NewSubscriptionService(db, logger),
		shopping:  NewShoppingListService(db, logger),
	}
}

// user registers an account and returns its caller identity.
func (e *testEnv) user(t *testing.T, username string) model.Caller {
	t.Helper()
	v, err := e.users.Register(context.Background(), RegisterInput{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "correct-horse",
	})
	require.NoError(t, err)
	return model.Caller{UserID: v.ID}
}

func (e *testEnv) tag(t *testing.T, slug string) model.Tag {
	t.Helper()
	tag, err := e.catalog.CreateTag(context.Background(), model.Tag{Name: "Tag " + slug, Color: "#49B64E", Slug: slug})
	require.NoError(t, err)
	return *tag
}

func (e *testEnv) ingredient(t *testing.T, name, unit string) model.Ingredient {
	t.Helper()
	items := []model.Ingredient{{Name: name, MeasurementUnit: unit}}
	n, err := e.catalog.ImportIngredients(context.Background(), items)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	return items[0]
}

func amount(ing model.Ingredient, n int) model.IngredientAmount {
	return model.IngredientAmount{ID: ing.ID, Amount: n}
}

func recipeInput(name string, tags []model.Tag, items ...model.IngredientAmount) RecipeInput {
	in := RecipeInput{
		Name:        name,
		Text:        "Mix everything and bake.",
		CookingTime: 30,
		Image:       testImageURI(),
		Ingredients: items,
	}
	for _, t := range tags {
		in.Tags = append(in.Tags, t.ID)
	}
	return in
}

func (e *testEnv) recipe(t *testing.T, caller model.Caller, in RecipeInput) *RecipeView {
	t.Helper()
	v, err := e.recipes.Create(context.Background(), caller, in)
	require.NoError(t, err)
	return v
}

// fieldsOf returns the field names of an aggregated ValidationError.
func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected *apperror.AppError, got %T: %v", err, err)
	require.ErrorIs(t, err, apperror.ErrValidation)
	names := make([]string, 0, len(appErr.Fields))
	for _, f := range appErr.Fields {
		names = append(names, f.Field)
	}
	return names
}
