package handler

import (
	"context"
	"net/http"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/model"
)

// CallerResolver turns the user id the auth middleware left in the context
// into the identity services take. *service.UserService implements it.
type CallerResolver interface {
	Caller(ctx context.Context, userID string) (model.Caller, error)
}

// callerOf returns the anonymous caller when the request carries no valid
// token.
func callerOf(r *http.Request, callers CallerResolver) (model.Caller, error) {
	userID, _ := auth.UserIDFromContext(r.Context())
	return callers.Caller(r.Context(), userID)
}
