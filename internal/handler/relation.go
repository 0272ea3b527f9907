package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodgram/internal/service"
)

// RelationHandler exposes one recipe relation (favorites or the shopping
// cart) as POST/DELETE on /api/recipes/{id}/<relation>/. Both relations are
// served by two instances of this type.
type RelationHandler struct {
	relation *service.RecipeRelation
	callers  CallerResolver
	logger   *slog.Logger
}

func NewRelationHandler(relation *service.RecipeRelation, callers CallerResolver, logger *slog.Logger) *RelationHandler {
	return &RelationHandler{relation: relation, callers: callers, logger: logger}
}

// HandleAdd answers 201 with the recipe summary.
func (h *RelationHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.callers)
	if err != nil {
		writeError(w, err)
		return
	}
	summary, err := h.relation.Add(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (h *RelationHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.callers)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.relation.Remove(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ShoppingHandler serves the aggregated shopping list as a text download.
type ShoppingHandler struct {
	shopping *service.ShoppingListService
	callers  CallerResolver
	logger   *slog.Logger
}

func NewShoppingHandler(shopping *service.ShoppingListService, callers CallerResolver, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{shopping: shopping, callers: callers, logger: logger}
}

// HandleDownload returns the caller's cart as ingredients.txt.
//
// HTTP: GET /api/recipes/download_shopping_cart/
func (h *ShoppingHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.callers)
	if err != nil {
		writeError(w, err)
		return
	}
	text, err := h.shopping.BuildShoppingList(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ingredients.txt"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(text)); err != nil {
		h.logger.Error("failed to write shopping list", slog.String("error", err.Error()))
	}
}
