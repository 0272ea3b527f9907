package service

// VALIDATION LAYER:
// Every input check in the service package goes through fieldErrors. A
// method keeps adding violations and returns them together at the end, so
// a client sees every broken field in one response instead of fixing them
// one round trip at a time.
//
// There is exactly one ingredient list validator, ValidateIngredientList.
// Recipe create, recipe update and any other entry point that accepts an
// ingredient list must call it.

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/model"
)

// Field length limits, counted in characters.
const (
	MaxRecipeNameLength = 200
	MaxRecipeTextLength = 5000
	MaxNameLength       = 150 // tag, ingredient, username, first and last name
	MaxUnitLength       = 20
	MaxEmailLength      = 254

	MinPasswordLength = 8

	MinCookingTime      = 1
	MinIngredientAmount = 1
)

var (
	hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// RecipeLimits are the configurable numeric bounds of a recipe.
type RecipeLimits struct {
	MaxCookingTime      int
	MaxIngredientAmount int
}

// DefaultRecipeLimits matches the config defaults.
func DefaultRecipeLimits() RecipeLimits {
	return RecipeLimits{MaxCookingTime: 1000, MaxIngredientAmount: 3000}
}

// fieldErrors collects violations. The zero value is ready to use.
type fieldErrors []apperror.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, apperror.FieldError{Field: field, Message: message})
}

func (f *fieldErrors) addf(field, format string, args ...any) {
	f.add(field, fmt.Sprintf(format, args...))
}

// err returns nil when nothing was collected.
func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperror.Validation(f)
}

func (f *fieldErrors) validateBounds(field string, value, min, max int) {
	if value < min || value > max {
		f.addf(field, "must be between %d and %d", min, max)
	}
}

// validateUniqueIDs reports every id that is listed more than once.
func (f *fieldErrors) validateUniqueIDs(field string, ids []string) {
	seen := make(map[string]int, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		seen[id]++
		if seen[id] == 2 {
			f.addf(field, "%s is listed more than once", id)
		}
	}
}

// validateLength checks a trimmed string. An empty value is only reported
// when required is set.
func (f *fieldErrors) validateLength(field, value string, max int, required bool) {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0 && required:
		f.add(field, "this field is required")
	case n > max:
		f.addf(field, "must be at most %d characters", max)
	}
}

func (f *fieldErrors) validateHexColor(field, value string) {
	if !hexColorPattern.MatchString(value) {
		f.add(field, "must be a hex color like #RGB or #RRGGBB")
	}
}

func (f *fieldErrors) validateSlug(field, value string) {
	if !slugPattern.MatchString(value) {
		f.add(field, "may contain only letters, digits, hyphens and underscores")
	}
}

func (f *fieldErrors) validateUsername(field, value string) {
	f.validateLength(field, value, MaxNameLength, true)
	if value != "" && !usernamePattern.MatchString(value) {
		f.add(field, "may contain only letters, digits and @/./+/-/_")
	}
}

func (f *fieldErrors) validateEmail(field, value string) {
	f.validateLength(field, value, MaxEmailLength, true)
	if value != "" && !emailPattern.MatchString(value) {
		f.add(field, "must be a valid email address")
	}
}

// validatePassword counts bytes because bcrypt does.
func (f *fieldErrors) validatePassword(field, value string) {
	switch {
	case len(value) < MinPasswordLength:
		f.addf(field, "must be at least %d characters", MinPasswordLength)
	case len(value) > auth.MaxPasswordBytes:
		f.addf(field, "must be at most %d bytes", auth.MaxPasswordBytes)
	}
}

func (f *fieldErrors) validateIngredientList(items []model.IngredientAmount, limits RecipeLimits) {
	if len(items) == 0 {
		f.add("ingredients", "at least one ingredient is required")
		return
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = strings.TrimSpace(item.ID)
		if ids[i] == "" {
			f.add(fmt.Sprintf("ingredients[%d].id", i), "this field is required")
		}
		f.validateBounds(fmt.Sprintf("ingredients[%d].amount", i),
			item.Amount, MinIngredientAmount, limits.MaxIngredientAmount)
	}
	f.validateUniqueIDs("ingredients", ids)
}

// ValidateIngredientList checks a submitted ingredient list: it must be
// non-empty, name each ingredient once, and keep every amount in bounds.
func ValidateIngredientList(items []model.IngredientAmount, limits RecipeLimits) error {
	var f fieldErrors
	f.validateIngredientList(items, limits)
	return f.err()
}

func (f *fieldErrors) validateTagIDs(ids []string) {
	if len(ids) == 0 {
		f.add("tags", "at least one tag is required")
		return
	}
	f.validateUniqueIDs("tags", ids)
}

// ValidateTag checks a tag before it is stored.
func ValidateTag(tag model.Tag) error {
	var f fieldErrors
	f.validateLength("name", tag.Name, MaxNameLength, true)
	f.validateHexColor("color", tag.Color)
	f.validateSlug("slug", tag.Slug)
	return f.err()
}
