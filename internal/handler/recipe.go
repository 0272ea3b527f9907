package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/service"
)

// RecipeHandler manages the recipe endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - decode the request and resolve the caller
//   - call RecipeService, which owns validation and permissions
//   - encode the view or map the error
type RecipeHandler struct {
	recipes    *service.RecipeService
	callers    CallerResolver
	pagination Pagination
	logger     *slog.Logger
}

func NewRecipeHandler(recipes *service.RecipeService, callers CallerResolver, pagination Pagination, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes:    recipes,
		callers:    callers,
		pagination: pagination,
		logger:     logger,
	}
}

// recipeRequest is the create body.
//
//	{"name": "Pancakes", "text": "...", "cooking_time": 20,
//	 "image": "data:image/png;base64,...",
//	 "tags": ["<tag id>"], "ingredients": [{"id": "<ingredient id>", "amount": 200}]}
type recipeRequest struct {
	Name        string                   `json:"name"`
	Text        string                   `json:"text"`
	CookingTime int                      `json:"cooking_time"`
	Image       string                   `json:"image"`
	Tags        []string                 `json:"tags"`
	Ingredients []model.IngredientAmount `json:"ingredients"`
}

// recipePatchRequest distinguishes an absent field (nil) from a present one.
// An explicit empty list decodes to a non-nil empty slice.
type recipePatchRequest struct {
	Name        *string                  `json:"name"`
	Text        *string                  `json:"text"`
	CookingTime *int                     `json:"cooking_time"`
	Image       *string                  `json:"image"`
	Tags        []string                 `json:"tags"`
	Ingredients []model.IngredientAmount `json:"ingredients"`
}

// HandleList returns a page of recipes, newest first.
//
// HTTP: GET /api/recipes/?page=1&limit=6&author=<id>&tags=lunch&tags=dinner&is_favorited=1&is_in_shopping_cart=1
//
// Repeated tags match a recipe carrying any of them. The two relation
// filters need an authenticated caller.
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.callers)
	if err != nil {
		writeError(w, err)
		return
	}
	pageReq, err := h.pagination.parse(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	query := service.RecipeQuery{
		AuthorID:       q.Get("author"),
		TagSlugs:       q["tags"],
		Favorited:      boolQuery(r, "is_favorited"),
		InShoppingCart: boolQuery(r, "is_in_shopping_cart"),
	}

	page, err := h.recipes.List(r.Context(), caller, query, pageReq.options())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageResponse(r, pageReq, page))
}

// HTTP: POST /api/recipes/
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.callers)
	if err != nil {
		writeError(w, err)
		return
	}
	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.recipes.Create(r.Context(), caller, service.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Image:       req.Image,
		Tags:        req.Tags,
		Ingredients: req.Ingredients,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HTTP: GET /api/recipes/{id}/
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.callers)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.recipes.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandlePatch applies a partial update.
//
// HTTP: PATCH /api/recipes/{id}/
func (h *RecipeHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, model.PartialUpdate)
}

// HandlePut is routed so that full replacement is answered with 405 by the
// service rather than by the router.
//
// HTTP: PUT /api/recipes/{id}/
func (h *RecipeHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, model.FullReplace)
}

func (h *RecipeHandler) update(w http.ResponseWriter, r *http.Request, mode model.UpdateMode) {
	caller, err := callerOf(r, h.callers)
	if err != nil {
		writeError(w, err)
		return
	}

	var req recipePatchRequest
	if mode == model.PartialUpdate {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	view, err := h.recipes.Update(r.Context(), caller, chi.URLParam(r, "id"), mode, service.RecipePatch{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Image:       req.Image,
		Tags:        req.Tags,
		Ingredients: req.Ingredients,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HTTP: DELETE /api/recipes/{id}/
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r, h.callers)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.recipes.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
