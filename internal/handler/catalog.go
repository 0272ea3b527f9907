package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/service"
)

// CatalogHandler serves the read-only ingredient and tag catalog. The lists
// are small reference sets and are not paginated.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// HandleListIngredients returns the ingredients whose name starts with
// ?name=, ignoring case.
//
// HTTP: GET /api/ingredients/?name=sug
func (h *CatalogHandler) HandleListIngredients(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListIngredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []model.Ingredient{}
	}
	writeJSON(w, http.StatusOK, items)
}

// HTTP: GET /api/ingredients/{id}/
func (h *CatalogHandler) HandleGetIngredient(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.GetIngredient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HTTP: GET /api/tags/
func (h *CatalogHandler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.ListTags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

// HTTP: GET /api/tags/{id}/
func (h *CatalogHandler) HandleGetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.catalog.GetTag(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}
