package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodgram/internal/service"
)

// UserHandler serves accounts, profiles and subscriptions.
type UserHandler struct {
	users      *service.UserService
	subs       *service.SubscriptionService
	pagination Pagination
	logger     *slog.Logger
}

func NewUserHandler(users *service.UserService, subs *service.SubscriptionService, pagination Pagination, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:      users,
		subs:       subs,
		pagination: pagination,
		logger:     logger,
	}
}

type registerRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password"`
	CurrentPassword string `json:"current_password"`
}

// HTTP: POST /api/users/
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.users.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HTTP: GET /api/users/?page=1&limit=6
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}
	pageReq, err := h.pagination.parse(r)
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := h.users.List(r.Context(), caller, pageReq.options())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageResponse(r, pageReq, page))
}

// HTTP: GET /api/users/{id}/
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.users.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HTTP: GET /api/users/me/
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.users.Me(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HTTP: POST /api/users/set_password/
func (h *UserHandler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}
	var req setPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.users.SetPassword(r.Context(), caller, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSubscriptions lists the authors the caller follows.
//
// HTTP: GET /api/users/subscriptions/?page=1&limit=6&recipes_limit=3
//
// Without a usable recipes_limit every recipe of each author is included.
func (h *UserHandler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}
	pageReq, err := h.pagination.parse(r)
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := h.subs.ListSubscriptions(r.Context(), caller, pageReq.options(), recipesLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageResponse(r, pageReq, page))
}

// HTTP: POST /api/users/{id}/subscribe/?recipes_limit=3
func (h *UserHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.subs.Subscribe(r.Context(), caller, chi.URLParam(r, "id"), recipesLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HTTP: DELETE /api/users/{id}/subscribe/
func (h *UserHandler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.subs.Unsubscribe(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
