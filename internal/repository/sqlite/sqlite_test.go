package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/sakif/foodgram/internal/model"
)

// newTestDB opens a fresh in-memory database for one test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	u := &model.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

func createTestTag(t *testing.T, db *DB, slug string) model.Tag {
	t.Helper()
	tag := &model.Tag{Name: "Tag " + slug, Color: "#E26C2D", Slug: slug}
	if err := db.CreateTag(context.Background(), tag); err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return *tag
}

func createTestIngredient(t *testing.T, db *DB, name, unit string) model.Ingredient {
	t.Helper()
	items := []model.Ingredient{{Name: name, MeasurementUnit: unit}}
	if _, err := db.CreateIngredients(context.Background(), items); err != nil {
		t.Fatalf("failed to create test ingredient: %v", err)
	}
	if items[0].ID == "" {
		t.Fatalf("ingredient %s (%s) already existed", name, unit)
	}
	return items[0]
}

// createTestRecipe stores a recipe with the given tags and one unit of
// each ingredient.
func createTestRecipe(t *testing.T, db *DB, author *model.User, name string, tags []model.Tag, ings ...model.Ingredient) *model.Recipe {
	t.Helper()
	r := &model.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        "Mix and serve.",
		CookingTime: 10,
		Image:       "/media/recipes/images/test.png",
		Tags:        tags,
	}
	for _, ing := range ings {
		r.Ingredients = append(r.Ingredients, model.RecipeIngredient{Ingredient: ing, Amount: 1})
	}
	if err := db.CreateRecipe(context.Background(), r); err != nil {
		t.Fatalf("failed to create test recipe %q: %v", name, err)
	}
	return r
}

// =========================================================================
// MIGRATION TESTS
// =========================================================================

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "?"},
		{3, "?, ?, ?"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			if got := placeholders(tt.n); got != tt.want {
				t.Errorf("placeholders(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Errorf("escapeLike() = %q", got)
	}
}
