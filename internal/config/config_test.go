package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable parse() reads so the host environment
// cannot leak into a test. t.Setenv restores the old values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "JWT_SECRET", "TOKEN_TTL",
		"GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET", "GITHUB_CALLBACK_URL",
		"PAGE_SIZE", "MAX_PAGE_SIZE", "MAX_INGREDIENT_AMOUNT", "MAX_COOKING_TIME",
		"MEDIA_DIR", "MEDIA_URL", "S3_BUCKET", "AWS_REGION", "S3_PUBLIC_URL",
		"REDIS_URL", "RECIPE_CREATE_LIMIT", "RECIPE_CREATE_WINDOW",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/foodgram.db", cfg.DBPath)
	assert.Equal(t, 6, cfg.PageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, 3000, cfg.MaxIngredientAmount)
	assert.Equal(t, 1000, cfg.MaxCookingTime)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "/media/", cfg.MediaURL)
	assert.False(t, cfg.PersistentTokens())
	assert.False(t, cfg.GitHubEnabled())
}

func TestParse_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "a-long-enough-secret")
	t.Setenv("MAX_INGREDIENT_AMOUNT", "5000")
	t.Setenv("RECIPE_CREATE_WINDOW", "10m")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("GITHUB_CLIENT_ID", "id")
	t.Setenv("GITHUB_CLIENT_SECRET", "secret")

	cfg, err := parse()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5000, cfg.MaxIngredientAmount)
	assert.Equal(t, 10*time.Minute, cfg.RecipeCreateWindow)
	assert.True(t, cfg.PersistentTokens())
	assert.True(t, cfg.GitHubEnabled())
}

func TestParse_CollectsEveryProblem(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "70000")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("PAGE_SIZE", "0")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := parse()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{"PORT", "JWT_SECRET", "PAGE_SIZE", "LOG_FORMAT"} {
		assert.True(t, strings.Contains(msg, want), "error %q should mention %s", msg, want)
	}
}

func TestParse_BadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_TTL", "forever")

	_, err := parse()
	assert.Error(t, err)
}
