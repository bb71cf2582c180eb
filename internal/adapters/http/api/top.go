package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/stockroom/internal/domain/model"
	"github.com/okian/stockroom/internal/domain/types"
)

// TopDependencies defines the interface for global ranking reads.
type TopDependencies interface {
	TopK(ctx context.Context, k int) []model.Item
}

// TopHandler handles top-k requests.
type TopHandler struct {
	deps    TopDependencies
	maxTopK int
}

// NewTopHandler creates a new top-k handler.
func NewTopHandler(deps TopDependencies, maxTopK int) *TopHandler {
	return &TopHandler{
		deps:    deps,
		maxTopK: maxTopK,
	}
}

// HandleGetTop handles GET /top?k=N requests.
func (h *TopHandler) HandleGetTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_top"
	k, err := strconv.Atoi(r.URL.Query().Get("k"))
	if err != nil || k < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if k > h.maxTopK {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, types.FromItems(h.deps.TopK(r.Context(), k)))
}
