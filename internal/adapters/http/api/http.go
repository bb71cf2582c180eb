// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	repository "github.com/okian/stockroom/internal/adapters/repository"
	"github.com/okian/stockroom/internal/domain/model"
)

const (
	defaultMaxTopK  = 100
	maxRequestBytes = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ItemDependencies
	CategoryDependencies
	TopDependencies
	AlertDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	itemsHandler      *ItemsHandler
	categoriesHandler *CategoriesHandler
	topHandler        *TopHandler
	alertsHandler     *AlertsHandler
}

// Option configures the Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxTopK int
	newID   func() string
}

// WithMaxTopK caps GET /top?k.
func WithMaxTopK(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxTopK = n
		}
	}
}

// WithIDGenerator sets how POST /items names items submitted without an id.
func WithIDGenerator(gen func() string) Option {
	return func(o *serverOptions) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{maxTopK: defaultMaxTopK}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		itemsHandler:      NewItemsHandler(deps, o.newID),
		categoriesHandler: NewCategoriesHandler(deps),
		topHandler:        NewTopHandler(deps, o.maxTopK),
		alertsHandler:     NewAlertsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /items", MetricsMiddleware(s.itemsHandler.HandlePostItem, "items"))
	mux.HandleFunc("GET /items/{id}", MetricsMiddleware(s.itemsHandler.HandleGetItem, "item"))
	mux.HandleFunc("PUT /items/{id}/quantity", MetricsMiddleware(s.itemsHandler.HandlePutQuantity, "item_quantity"))
	mux.HandleFunc("DELETE /items/{id}", MetricsMiddleware(s.itemsHandler.HandleDeleteItem, "item"))

	mux.HandleFunc("GET /categories", MetricsMiddleware(s.categoriesHandler.HandleListCategories, "categories"))
	mux.HandleFunc("GET /categories/{category}/items", MetricsMiddleware(s.categoriesHandler.HandleListItems, "category_items"))

	mux.HandleFunc("GET /top", MetricsMiddleware(s.topHandler.HandleGetTop, "top"))
	mux.HandleFunc("GET /alerts", MetricsMiddleware(s.alertsHandler.HandleGetAlerts, "alerts"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a single JSON object from the request body, rejecting
// unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

// writeDomainError maps store and validation errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, model.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
