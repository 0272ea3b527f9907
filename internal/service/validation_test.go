package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/model"
)

func TestValidateIngredientList(t *testing.T) {
	limits := RecipeLimits{MaxCookingTime: 1000, MaxIngredientAmount: 3000}

	tests := []struct {
		name   string
		items  []model.IngredientAmount
		fields []string
	}{
		{
			name:  "valid",
			items: []model.IngredientAmount{{ID: "a", Amount: 1}, {ID: "b", Amount: 3000}},
		},
		{
			name:   "empty",
			items:  nil,
			fields: []string{"ingredients"},
		},
		{
			name:   "duplicate id",
			items:  []model.IngredientAmount{{ID: "a", Amount: 1}, {ID: "a", Amount: 2}},
			fields: []string{"ingredients"},
		},
		{
			name:   "amount below minimum",
			items:  []model.IngredientAmount{{ID: "a", Amount: 0}},
			fields: []string{"ingredients[0].amount"},
		},
		{
			name:   "amount above maximum",
			items:  []model.IngredientAmount{{ID: "a", Amount: 1}, {ID: "b", Amount: 3001}},
			fields: []string{"ingredients[1].amount"},
		},
		{
			name:   "missing id",
			items:  []model.IngredientAmount{{ID: " ", Amount: 1}},
			fields: []string{"ingredients[0].id"},
		},
		{
			name:   "every violation is reported",
			items:  []model.IngredientAmount{{ID: "a", Amount: -1}, {ID: "a", Amount: 5000}},
			fields: []string{"ingredients[0].amount", "ingredients[1].amount", "ingredients"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIngredientList(tt.items, limits)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.fields, fieldsOf(t, err))
		})
	}
}

func TestValidateIngredientList_UsesConfiguredMaximum(t *testing.T) {
	items := []model.IngredientAmount{{ID: "a", Amount: 4000}}

	assert.Error(t, ValidateIngredientList(items, RecipeLimits{MaxIngredientAmount: 3000}))
	assert.NoError(t, ValidateIngredientList(items, RecipeLimits{MaxIngredientAmount: 5000}))
}

func TestValidateTag(t *testing.T) {
	tests := []struct {
		name   string
		tag    model.Tag
		fields []string
	}{
		{"long color", model.Tag{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}, nil},
		{"short color", model.Tag{Name: "Lunch", Color: "#abc", Slug: "lunch_2"}, nil},
		{"color without hash", model.Tag{Name: "Dinner", Color: "E26C2D", Slug: "dinner"}, []string{"color"}},
		{"color of wrong length", model.Tag{Name: "Dinner", Color: "#E26C", Slug: "dinner"}, []string{"color"}},
		{"non-hex color", model.Tag{Name: "Dinner", Color: "#GGGGGG", Slug: "dinner"}, []string{"color"}},
		{"bad slug", model.Tag{Name: "Dinner", Color: "#fff", Slug: "din ner"}, []string{"slug"}},
		{"everything wrong", model.Tag{Color: "red", Slug: ""}, []string{"name", "color", "slug"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTag(tt.tag)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.fields, fieldsOf(t, err))
		})
	}
}

func TestFieldErrors(t *testing.T) {
	var f fieldErrors
	assert.NoError(t, f.err(), "zero value has no errors")

	f.validateBounds("cooking_time", 0, 1, 1000)
	f.validateBounds("cooking_time", 1, 1, 1000)
	f.validateLength("name", "", 200, true)
	f.validateLength("last_name", "", 150, false)
	f.validateLength("name", "ёжик", 3, true)
	f.validateUniqueIDs("tags", []string{"x", "y", "x", "x"})
	f.validateUsername("username", "bad name!")

	assert.Equal(t, []string{"cooking_time", "name", "name", "tags", "username"}, fieldsOf(t, f.err()))
}

func TestValidatePassword(t *testing.T) {
	var f fieldErrors
	f.validatePassword("password", "short")
	f.validatePassword("password", "long-enough")
	f.validatePassword("password", string(make([]byte, 73)))
	assert.Len(t, f, 2)
}
