package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/stockroom/internal/domain/model"
	"github.com/okian/stockroom/internal/domain/types"
)

// ItemDependencies defines the item operations the handlers need.
type ItemDependencies interface {
	Upsert(ctx context.Context, item model.Item) (model.Outcome, model.Item, error)
	SetQuantity(ctx context.Context, id string, quantity int) (model.Item, error)
	Delete(ctx context.Context, id string) bool
	Get(ctx context.Context, id string) (model.Item, error)
}

// itemRequest mirrors the OpenAPI schema for POST /items.
type itemRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity *int   `json:"quantity"`
}

func (r itemRequest) validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return errors.New("missing name")
	case strings.TrimSpace(r.Category) == "":
		return errors.New("missing category")
	case r.Quantity == nil:
		return errors.New("missing quantity")
	}
	return nil
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

// ItemsHandler handles item requests.
type ItemsHandler struct {
	deps  ItemDependencies
	newID func() string
}

// NewItemsHandler creates a new items handler. Items posted without an id
// are named by newID, a random UUID when nil.
func NewItemsHandler(deps ItemDependencies, newID func() string) *ItemsHandler {
	if newID == nil {
		newID = uuid.NewString
	}
	return &ItemsHandler{deps: deps, newID: newID}
}

// HandlePostItem handles POST /items requests.
func (h *ItemsHandler) HandlePostItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_item"
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		req.ID = h.newID()
	}

	outcome, stored, err := h.deps.Upsert(r.Context(), model.Item{
		ID:       req.ID,
		Name:     req.Name,
		Category: req.Category,
		Quantity: *req.Quantity,
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}

	status := http.StatusOK
	if outcome == model.OutcomeCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, types.UpsertResult{Outcome: outcome.String(), Item: types.FromItem(stored)})
}

// HandleGetItem handles GET /items/{id} requests.
func (h *ItemsHandler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_item"
	it, err := h.deps.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromItem(it))
}

// HandlePutQuantity handles PUT /items/{id}/quantity requests.
func (h *ItemsHandler) HandlePutQuantity(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_quantity"
	var req quantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing quantity")))
		return
	}
	it, err := h.deps.SetQuantity(r.Context(), r.PathValue("id"), *req.Quantity)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromItem(it))
}

// HandleDeleteItem handles DELETE /items/{id} requests. Deleting an unknown
// id is not an error.
func (h *ItemsHandler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	h.deps.Delete(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}
