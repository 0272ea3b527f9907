// Package config loads the server and CLI settings from the environment.
//
// LOAD ORDER:
//  1. An optional .env file in the working directory (godotenv). Variables
//     already present in the process environment win over the file.
//  2. Struct tags parsed by caarlos0/env, with envDefault for every setting
//     that has a sensible default.
//  3. validate() collects every problem into one error, so a misconfigured
//     deployment reports all of its mistakes at once.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port      int    `env:"PORT" envDefault:"8080"`
	DBPath    string `env:"DB_PATH" envDefault:"data/foodgram.db"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Auth. With an empty JWTSecret the server signs tokens with a random
	// per-process secret, so every token dies with the process.
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`

	// Pagination and recipe limits
	PageSize            int `env:"PAGE_SIZE" envDefault:"6"`
	MaxPageSize         int `env:"MAX_PAGE_SIZE" envDefault:"100"`
	MaxIngredientAmount int `env:"MAX_INGREDIENT_AMOUNT" envDefault:"3000"`
	MaxCookingTime      int `env:"MAX_COOKING_TIME" envDefault:"1000"`

	// Images go to S3 when S3Bucket is set, to MediaDir otherwise.
	MediaDir    string `env:"MEDIA_DIR" envDefault:"data/media"`
	MediaURL    string `env:"MEDIA_URL" envDefault:"/media/"`
	S3Bucket    string `env:"S3_BUCKET"`
	AWSRegion   string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`

	// Recipe creation rate limit. Disabled when RedisURL is empty.
	RedisURL           string        `env:"REDIS_URL"`
	RecipeCreateLimit  int           `env:"RECIPE_CREATE_LIMIT" envDefault:"20"`
	RecipeCreateWindow time.Duration `env:"RECIPE_CREATE_WINDOW" envDefault:"1h"`
}

// Load reads .env (if present) and the environment, then validates.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PersistentTokens reports whether tokens outlive the process.
func (c *Config) PersistentTokens() bool { return c.JWTSecret != "" }

// GitHubEnabled reports whether the OAuth routes should be mounted.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func (c *Config) validate() error {
	var problems []string
	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT must be 1..65535, got %d", c.Port))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "DB_PATH must not be empty")
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, "TOKEN_TTL must be positive")
	}
	if c.PageSize < 1 {
		problems = append(problems, "PAGE_SIZE must be at least 1")
	}
	if c.MaxPageSize < c.PageSize {
		problems = append(problems, "MAX_PAGE_SIZE must not be smaller than PAGE_SIZE")
	}
	if c.MaxIngredientAmount < 1 {
		problems = append(problems, "MAX_INGREDIENT_AMOUNT must be at least 1")
	}
	if c.MaxCookingTime < 1 {
		problems = append(problems, "MAX_COOKING_TIME must be at least 1")
	}
	if c.S3Bucket == "" && strings.TrimSpace(c.MediaDir) == "" {
		problems = append(problems, "either S3_BUCKET or MEDIA_DIR must be set")
	}
	if c.RedisURL != "" {
		if c.RecipeCreateLimit < 1 {
			problems = append(problems, "RECIPE_CREATE_LIMIT must be at least 1")
		}
		if c.RecipeCreateWindow <= 0 {
			problems = append(problems, "RECIPE_CREATE_WINDOW must be positive")
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	if len(problems) > 0 {
		return errors.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}
