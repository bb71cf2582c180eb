package api

import (
	"context"
	"net/http"

	"github.com/okian/stockroom/internal/domain/model"
	"github.com/okian/stockroom/internal/domain/types"
)

// AlertDependencies exposes the recently delivered restocking alerts.
type AlertDependencies interface {
	RecentAlerts(ctx context.Context) []model.Alert
}

// AlertsHandler handles alert requests.
type AlertsHandler struct {
	deps AlertDependencies
}

// NewAlertsHandler creates a new alerts handler.
func NewAlertsHandler(deps AlertDependencies) *AlertsHandler {
	return &AlertsHandler{deps: deps}
}

// HandleGetAlerts handles GET /alerts requests, newest first.
func (h *AlertsHandler) HandleGetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.deps.RecentAlerts(r.Context())
	out := make([]types.Alert, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, types.FromAlert(a))
	}
	writeJSON(w, http.StatusOK, out)
}
