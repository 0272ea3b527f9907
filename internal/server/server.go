// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It decides:
//   - which URL patterns map to which handler functions
//   - what middleware runs on which routes
//   - how the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  sqlite.DB ─┬→ services (users, auth, catalog, recipes, relations, subscriptions, shopping)
//	  imagestore ┘        └→ handlers → routes
//	  redis (optional) → ratelimit.Limiter → middleware.RateLimit on POST /api/recipes/
//
// This is the "composition root": every dependency is wired here and
// nowhere else.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/config"
	"github.com/sakif/foodgram/internal/handler"
	"github.com/sakif/foodgram/internal/imagestore"
	"github.com/sakif/foodgram/internal/middleware"
	"github.com/sakif/foodgram/internal/ratelimit"
	sqliteRepo "github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and, when rate limiting is on,
// the Redis client. Close releases both; Start calls it on the way out.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	redis  *redis.Client // nil when rate limiting is off
}

// New opens the database, builds every service and handler, and registers
// the routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	// === CREATE DATABASE ===
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		s.Close() // Clean up DB (and Redis) if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the database and the Redis client.
func (s *Server) Close() error {
	if s.redis != nil {
		s.redis.Close()
	}
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE (trailing slashes are part of every API path):
//
//	GET           /api/ingredients/                  catalog
//	GET           /api/ingredients/{id}/
//	GET           /api/tags/
//	GET           /api/tags/{id}/
//	GET, POST     /api/recipes/                      list / create (rate limited)
//	GET           /api/recipes/download_shopping_cart/
//	GET, PATCH, PUT, DELETE /api/recipes/{id}/      PUT always answers 405
//	POST, DELETE  /api/recipes/{id}/favorite/
//	POST, DELETE  /api/recipes/{id}/shopping_cart/
//	GET, POST     /api/users/                        list / register
//	GET           /api/users/me/
//	POST          /api/users/set_password/
//	GET           /api/users/subscriptions/
//	GET           /api/users/{id}/
//	POST, DELETE  /api/users/{id}/subscribe/
//	POST          /api/auth/token/login/
//	POST          /api/auth/token/logout/
//	GET           /auth/github/login, /auth/github/callback   (when configured)
//	GET           /media/*                           (local image store only)
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: assigns a unique id to each request (for tracing)
//  2. RealIP: extracts the real client IP from proxy headers
//  3. Recoverer: catches panics and returns 500 instead of crashing
//  4. Logger: logs each request with timing info and the request id
//  5. OptionalAuth (on /api): attaches the user id when a valid token is sent
//
// Routes that always need a user sit behind RequireAuth as well. PUT on a
// recipe does not, so it answers 405 to anonymous callers too.
func (s *Server) setupRoutes() error {
	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Auth utilities ===
	secret := s.config.JWTSecret
	if !s.config.PersistentTokens() {
		generated, err := ephemeralSecret()
		if err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		secret = generated
		s.logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	tokens, err := auth.NewTokenService(secret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// === Image storage ===
	images, err := s.imageStore()
	if err != nil {
		return err
	}

	// === Services ===
	limits := service.RecipeLimits{
		MaxCookingTime:      s.config.MaxCookingTime,
		MaxIngredientAmount: s.config.MaxIngredientAmount,
	}
	userService := service.NewUserService(s.db, passwords, s.logger)
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	catalogService := service.NewCatalogService(s.db, s.logger)
	recipeService := service.NewRecipeService(s.db, images, limits, s.logger)
	subscriptionService := service.NewSubscriptionService(s.db, s.logger)
	shoppingService := service.NewShoppingListService(s.db, s.logger)

	// === Handlers ===
	pagination := handler.Pagination{PageSize: s.config.PageSize, MaxPageSize: s.config.MaxPageSize}
	catalogHandler := handler.NewCatalogHandler(catalogService, s.logger)
	recipeHandler := handler.NewRecipeHandler(recipeService, userService, pagination, s.logger)
	favoriteHandler := handler.NewRelationHandler(service.NewFavorites(s.db, s.logger), userService, s.logger)
	cartHandler := handler.NewRelationHandler(service.NewCart(s.db, s.logger), userService, s.logger)
	shoppingHandler := handler.NewShoppingHandler(shoppingService, userService, s.logger)
	userHandler := handler.NewUserHandler(userService, subscriptionService, pagination, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		callbackURL := s.config.GitHubCallbackURL
		if callbackURL == "" {
			callbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", s.config.Port)
		}
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, callbackURL)
	}
	authHandler := handler.NewAuthHandler(authService, github, tokens.TTL(), s.logger)

	// === Recipe creation rate limit ===
	createLimit, err := s.recipeCreateLimit()
	if err != nil {
		return err
	}

	requireAuth := auth.RequireAuth(tokens)

	// === API Routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))

		r.Get("/ingredients/", catalogHandler.HandleListIngredients)
		r.Get("/ingredients/{id}/", catalogHandler.HandleGetIngredient)
		r.Get("/tags/", catalogHandler.HandleListTags)
		r.Get("/tags/{id}/", catalogHandler.HandleGetTag)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.HandleList)
			r.Get("/{id}/", recipeHandler.HandleGet)
			r.Put("/{id}/", recipeHandler.HandlePut)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.With(createLimit).Post("/", recipeHandler.HandleCreate)
				r.Get("/download_shopping_cart/", shoppingHandler.HandleDownload)
				r.Patch("/{id}/", recipeHandler.HandlePatch)
				r.Delete("/{id}/", recipeHandler.HandleDelete)
				r.Post("/{id}/favorite/", favoriteHandler.HandleAdd)
				r.Delete("/{id}/favorite/", favoriteHandler.HandleRemove)
				r.Post("/{id}/shopping_cart/", cartHandler.HandleAdd)
				r.Delete("/{id}/shopping_cart/", cartHandler.HandleRemove)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.HandleList)
			r.Post("/", userHandler.HandleRegister)
			r.Get("/{id}/", userHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me/", userHandler.HandleMe)
				r.Post("/set_password/", userHandler.HandleSetPassword)
				r.Get("/subscriptions/", userHandler.HandleSubscriptions)
				r.Post("/{id}/subscribe/", userHandler.HandleSubscribe)
				r.Delete("/{id}/subscribe/", userHandler.HandleUnsubscribe)
			})
		})

		r.Post("/auth/token/login/", authHandler.HandleLogin)
		r.With(requireAuth).Post("/auth/token/logout/", authHandler.HandleLogout)
	})

	// === OAuth Routes ===
	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	} else {
		s.logger.Info("GitHub OAuth not configured, /auth/github routes disabled")
	}

	// === Media ===
	if local, ok := images.(*imagestore.LocalStore); ok && strings.HasPrefix(local.BaseURL, "/") {
		fileServer := http.FileServer(http.Dir(local.Dir))
		s.router.Handle(local.BaseURL+"*", http.StripPrefix(local.BaseURL, fileServer))
	}

	return nil
}

// imageStore picks S3 when a bucket is configured and the local directory
// otherwise.
func (s *Server) imageStore() (imagestore.Store, error) {
	if s.config.S3Bucket != "" {
		store, err := imagestore.NewS3Store(context.Background(), s.config.S3Bucket, s.config.AWSRegion, s.config.S3PublicURL)
		if err != nil {
			return nil, fmt.Errorf("creating S3 image store: %w", err)
		}
		s.logger.Info("storing images in S3", slog.String("bucket", s.config.S3Bucket))
		return store, nil
	}
	if err := os.MkdirAll(s.config.MediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	return imagestore.NewLocalStore(s.config.MediaDir, s.config.MediaURL), nil
}

// recipeCreateLimit connects to Redis when REDIS_URL is set. Without it the
// returned middleware passes every request through.
func (s *Server) recipeCreateLimit() (func(http.Handler) http.Handler, error) {
	if s.config.RedisURL == "" {
		s.logger.Info("REDIS_URL not set, recipe creation is not rate limited")
		return func(next http.Handler) http.Handler { return next }, nil
	}

	client, err := ratelimit.Connect(context.Background(), s.config.RedisURL)
	if err != nil {
		return nil, err
	}
	s.redis = client

	limiter := ratelimit.NewRecipeCreation(client, s.config.RecipeCreateLimit, s.config.RecipeCreateWindow)
	s.logger.Info("recipe creation rate limited",
		slog.Int("limit", limiter.Limit()),
		slog.Duration("window", s.config.RecipeCreateWindow),
	)
	return middleware.RateLimit(limiter, s.logger), nil
}

func ephemeralSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database and Redis connections
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
