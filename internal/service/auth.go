// Package service holds the business logic behind every HTTP endpoint.
//
// AuthService issues access tokens. It sits between the HTTP handlers and
// the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Email/password login: verify the bcrypt hash, issue a token
//   - GitHub OAuth callback: upsert the user, issue a token
//   - Keep auth rules in one place, away from HTTP concerns
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// LoginFailedMessage is deliberately the same for an unknown email and a
// wrong password.
const LoginFailedMessage = "unable to log in with provided credentials"

var notUsernameChars = regexp.MustCompile(`[^\w.@+-]`)

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → generate/validate JWTs
//   - passwords  *auth.PasswordService      → bcrypt verification
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Login checks an email and password and issues a token.
//
// Every failure a client could cause (unknown email, GitHub-only account,
// wrong password) yields the same ValidationError, so the response does
// not reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", LoginFailedMessage)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("", LoginFailedMessage)
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", slog.String("userID", user.ID))
			return nil, apperror.ValidationFailed("", LoginFailedMessage)
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	return s.issue(user, "password")
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback.
//
// GitHub's numeric id is stable, so the account is upserted on github_id:
// first login → INSERT, later logins → refresh the display name. The GitHub
// login becomes the username. Accounts without a public email get a
// placeholder address under users.noreply.github.com.
//
// WHAT THIS METHOD DOES NOT DO:
//   - It does NOT set cookies (the handler owns HTTP concerns)
//   - It does NOT read HTTP requests
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	githubID := ghUser.ID
	email := strings.ToLower(strings.TrimSpace(ghUser.Email))
	if email == "" {
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", ghUser.ID, strings.ToLower(ghUser.Login))
	}
	username := notUsernameChars.ReplaceAllString(ghUser.Login, "")
	if username == "" {
		username = fmt.Sprintf("github-%d", ghUser.ID)
	}
	firstName, lastName, _ := strings.Cut(strings.TrimSpace(ghUser.Name), " ")
	if firstName == "" {
		firstName = username
	}

	user := &model.User{
		GitHubID:  &githubID,
		Email:     email,
		Username:  username,
		FirstName: firstName,
		LastName:  strings.TrimSpace(lastName),
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	return s.issue(user, "github")
}

// ValidateToken returns the user id a token was issued for.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

func (s *AuthService) issue(user *model.User, method string) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
		slog.String("method", method),
	)
	return &AuthResult{User: user, Token: token}, nil
}
