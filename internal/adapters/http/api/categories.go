package api

import (
	"context"
	"net/http"

	"github.com/okian/stockroom/internal/domain/model"
	"github.com/okian/stockroom/internal/domain/types"
)

// CategoryDependencies defines the category read operations.
type CategoryDependencies interface {
	Categories(ctx context.Context) []string
	ListByCategory(ctx context.Context, category string) []model.Item
}

// CategoriesHandler handles category requests.
type CategoriesHandler struct {
	deps CategoryDependencies
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(deps CategoryDependencies) *CategoriesHandler {
	return &CategoriesHandler{deps: deps}
}

// HandleListCategories handles GET /categories requests.
func (h *CategoriesHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	cats := h.deps.Categories(r.Context())
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// HandleListItems handles GET /categories/{category}/items requests.
// An unknown category yields an empty list.
func (h *CategoriesHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items := h.deps.ListByCategory(r.Context(), r.PathValue("category"))
	writeJSON(w, http.StatusOK, types.FromItems(items))
}
