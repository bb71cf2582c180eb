package service

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/stockroom/internal/domain/model"
	"github.com/okian/stockroom/pkg/logger"
)

// recentAlerts is a fixed-size ring of the latest delivered alerts.
type recentAlerts struct {
	mu    sync.Mutex
	buf   []model.Alert
	next  int
	count int
}

func newRecentAlerts(limit int) *recentAlerts {
	return &recentAlerts{buf: make([]model.Alert, limit)}
}

// Handle records a; it implements the dispatcher's Sink.
func (r *recentAlerts) Handle(_ context.Context, a model.Alert) error { //nolint:gocritic // hugeParam
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.buf) == 0 {
		return nil
	}
	r.buf[r.next] = a
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	return nil
}

// Snapshot copies the ring, newest write first. Alerts delivered out of
// order are put back in write order by Seq.
func (r *recentAlerts) Snapshot() []model.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Alert, 0, r.count)
	for i := 1; i <= r.count; i++ {
		out = append(out, r.buf[(r.next-i+len(r.buf))%len(r.buf)])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	return out
}

func (r *recentAlerts) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// logSink writes every alert to the log at warn level.
type logSink struct {
	logger logger.Logger
}

func (l logSink) Handle(ctx context.Context, a model.Alert) error { //nolint:gocritic // hugeParam
	l.logger.Warn(ctx, "restocking needed",
		logger.String("item_id", a.ItemID),
		logger.String("name", a.Name),
		logger.String("category", a.Category),
		logger.Int("quantity", a.Quantity),
		logger.Int("threshold", a.Threshold),
	)
	return nil
}
