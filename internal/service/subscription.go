package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// SubscriptionService manages who follows whom.
type SubscriptionService struct {
	store     repository.Store
	presenter *Presenter
	logger    *slog.Logger
}

func NewSubscriptionService(store repository.Store, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		store:     store,
		presenter: NewPresenter(store),
		logger:    logger,
	}
}

// Subscribe makes the caller follow authorID. The returned view previews at
// most recipesLimit recipes; a negative limit previews all of them.
func (s *SubscriptionService) Subscribe(ctx context.Context, caller model.Caller, authorID string, recipesLimit int) (*SubscriptionView, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthenticated("authentication is required to subscribe")
	}
	author, err := s.store.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author.ID == caller.UserID {
		return nil, apperror.SelfReference("you cannot subscribe to yourself")
	}

	exists, err := s.store.HasSubscription(ctx, caller.UserID, author.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Duplicate(fmt.Sprintf("you are already subscribed to %s", author.Username))
	}
	if err := s.store.AddSubscription(ctx, caller.UserID, author.ID); err != nil {
		return nil, err
	}

	s.logger.Info("subscription added",
		slog.String("user", caller.UserID),
		slog.String("author", author.ID),
	)
	return s.presenter.SubscriptionView(ctx, author, caller, recipesLimit)
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, caller model.Caller, authorID string) error {
	if !caller.Authenticated() {
		return apperror.Unauthenticated("authentication is required to unsubscribe")
	}
	author, err := s.store.GetUserByID(ctx, authorID)
	if err != nil {
		return err
	}
	if err := s.store.RemoveSubscription(ctx, caller.UserID, author.ID); err != nil {
		return err
	}

	s.logger.Info("subscription removed",
		slog.String("user", caller.UserID),
		slog.String("author", author.ID),
	)
	return nil
}

// ListSubscriptions returns one page of the authors the caller follows.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, caller model.Caller, opts repository.ListOptions, recipesLimit int) (*Page[SubscriptionView], error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthenticated("authentication is required to list subscriptions")
	}
	authors, total, err := s.store.ListSubscriptions(ctx, caller.UserID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}

	results := make([]SubscriptionView, 0, len(authors))
	for i := range authors {
		v, err := s.presenter.SubscriptionView(ctx, &authors[i], caller, recipesLimit)
		if err != nil {
			return nil, err
		}
		results = append(results, *v)
	}
	return &Page[SubscriptionView]{Count: total, Results: results}, nil
}
