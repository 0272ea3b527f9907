package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// UserService manages accounts: registration, profiles and passwords.
// Token issuing lives in AuthService.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	presenter *Presenter
	logger    *slog.Logger
}

func NewUserService(store repository.Store, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{
		users:     store,
		passwords: passwords,
		presenter: NewPresenter(store),
		logger:    logger,
	}
}

// Register validates and creates a password account. An email or username
// that is already taken is a DuplicateError.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*UserView, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	var f fieldErrors
	f.validateEmail("email", in.Email)
	f.validateUsername("username", in.Username)
	f.validateLength("first_name", in.FirstName, MaxNameLength, true)
	f.validateLength("last_name", in.LastName, MaxNameLength, true)
	f.validatePassword("password", in.Password)
	if err := f.err(); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("id", user.ID),
		slog.String("username", user.Username),
	)
	v, err := s.presenter.UserView(ctx, user, model.Anonymous())
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// SetPassword changes the caller's password after checking the current one.
func (s *UserService) SetPassword(ctx context.Context, caller model.Caller, current, next string) error {
	if !caller.Authenticated() {
		return apperror.Unauthenticated("authentication is required to change a password")
	}
	user, err := s.users.GetUserByID(ctx, caller.UserID)
	if err != nil {
		return err
	}

	var f fieldErrors
	if err := s.passwords.Verify(user.PasswordHash, current); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			return fmt.Errorf("verifying password: %w", err)
		}
		f.add("current_password", "the current password is wrong")
	}
	f.validatePassword("new_password", next)
	if err := f.err(); err != nil {
		return err
	}

	hash, err := s.passwords.Hash(next)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", slog.String("id", user.ID))
	return nil
}

func (s *UserService) List(ctx context.Context, caller model.Caller, opts repository.ListOptions) (*Page[UserView], error) {
	users, total, err := s.users.ListUsers(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	views, err := s.presenter.UserViews(ctx, users, caller)
	if err != nil {
		return nil, err
	}
	return &Page[UserView]{Count: total, Results: views}, nil
}

func (s *UserService) Get(ctx context.Context, caller model.Caller, id string) (*UserView, error) {
	user, err := s.users.GetUserByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	v, err := s.presenter.UserView(ctx, user, caller)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Me returns the caller's own profile.
func (s *UserService) Me(ctx context.Context, caller model.Caller) (*UserView, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthenticated("authentication is required")
	}
	return s.Get(ctx, caller, caller.UserID)
}

// Caller resolves a token subject into the identity the other services take.
// An empty userID is the anonymous caller. A token for an account that no
// longer exists is treated as unauthenticated.
func (s *UserService) Caller(ctx context.Context, userID string) (model.Caller, error) {
	if userID == "" {
		return model.Anonymous(), nil
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return model.Anonymous(), apperror.Unauthenticated("the account for this token no longer exists")
		}
		return model.Anonymous(), err
	}
	return model.Caller{UserID: user.ID, IsSuperuser: user.IsSuperuser}, nil
}

// Promote grants superuser rights to the account with this email.
func (s *UserService) Promote(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperror.ValidationFailed("email", "this field is required")
	}
	if err := s.users.SetSuperuser(ctx, email, true); err != nil {
		return err
	}
	s.logger.Info("user promoted to superuser", slog.String("email", email))
	return nil
}
