// Package service wires the inventory store, its alert pipeline and the
// sample data into the operations the HTTP API and console depend on.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	alertqueue "github.com/okian/stockroom/internal/adapters/mq/queue"
	alertworker "github.com/okian/stockroom/internal/adapters/mq/worker"
	repository "github.com/okian/stockroom/internal/adapters/repository"
	"github.com/okian/stockroom/internal/domain/model"
	"github.com/okian/stockroom/pkg/logger"
	"github.com/okian/stockroom/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// Service implements the API dependencies for the inventory system.
type Service struct {
	mu sync.RWMutex

	store  *repository.HeapStore
	queue  *alertqueue.InMemoryQueue
	pool   *alertworker.Pool
	recent *recentAlerts

	threshold   int
	queueSize   int
	workerCount int
	recentLimit int
	seed        bool
	sinks       []alertworker.Sink
	clock       func() time.Time
	metrics     *metrics.Manager

	started bool
	stopped bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRestockThreshold sets the quantity below which items raise alerts.
func WithRestockThreshold(threshold int) Option {
	return func(s *Service) {
		s.threshold = threshold
	}
}

// WithAlertQueueSize sets the capacity of the alert queue.
func WithAlertQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithAlertWorkerCount sets the number of alert dispatch workers.
func WithAlertWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithRecentAlertLimit sets how many delivered alerts RecentAlerts keeps.
func WithRecentAlertLimit(limit int) Option {
	return func(s *Service) {
		if limit >= 0 {
			s.recentLimit = limit
		}
	}
}

// WithSampleData seeds the demo inventory on Start.
func WithSampleData(enabled bool) Option {
	return func(s *Service) {
		s.seed = enabled
	}
}

// WithAlertSinks adds sinks that receive every dispatched alert.
func WithAlertSinks(sinks ...alertworker.Sink) Option {
	return func(s *Service) {
		for _, sink := range sinks {
			if sink != nil {
				s.sinks = append(s.sinks, sink)
			}
		}
	}
}

// WithClock overrides the alert timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithMetrics records on m instead of the global metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. The store is usable immediately; alerts raised
// before Start wait in the queue until the dispatcher runs.
func New(opts ...Option) *Service {
	s := &Service{
		threshold:   10,
		queueSize:   1024,
		workerCount: 1,
		recentLimit: 100,
		clock:       time.Now,
		metrics:     metrics.Global(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.OrNop().Named("service")
	}

	s.queue = alertqueue.NewInMemoryQueue(
		alertqueue.WithCapacity(s.queueSize),
		alertqueue.WithMetrics(s.metrics),
	)
	s.store = repository.NewHeapStore(s.threshold,
		repository.WithNotifier(s.queue),
		repository.WithLogger(s.logger.Named("store")),
		repository.WithMetrics(s.metrics),
		repository.WithClock(s.clock),
	)
	s.recent = newRecentAlerts(s.recentLimit)

	sinks := append([]alertworker.Sink{s.recent, logSink{logger: s.logger.Named("alerts")}}, s.sinks...)
	s.pool = alertworker.NewPool(s.workerCount, s.queue, sinks,
		alertworker.WithLogger(s.logger.Named("alert-worker")),
		alertworker.WithMetrics(s.metrics),
	)
	return s
}

// Start runs the alert dispatcher and seeds the sample inventory if enabled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("start: %w", ErrStopped)
	}
	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting inventory service...")

	s.pool.Start(context.WithoutCancel(ctx))
	if s.seed {
		s.seedSampleData(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "inventory service started",
		logger.Int("restock_threshold", s.threshold),
		logger.Int("alert_workers", s.pool.Size()),
		logger.Int("alert_queue_size", s.queueSize),
		logger.Int("items", s.store.Count(ctx)),
	)
	return nil
}

// Stop drains pending alerts and stops the dispatcher. The store stays
// readable and writable; alerts raised afterwards are dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping inventory service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "alert dispatcher shutdown", logger.Error(err))
	}

	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "inventory service stopped")
}

// Upsert creates the item or merges it into the existing one with the same id.
// It returns the outcome and the record as stored afterwards.
func (s *Service) Upsert(ctx context.Context, item model.Item) (model.Outcome, model.Item, error) {
	if err := item.Validate(); err != nil {
		return 0, model.Item{}, fmt.Errorf("upsert: %w", err)
	}
	outcome, stored := s.store.Upsert(ctx, item)
	s.logger.Debug(ctx, "item upserted",
		logger.String("item_id", item.ID),
		logger.String("outcome", outcome.String()),
		logger.Int("quantity", stored.Quantity),
	)
	return outcome, stored, nil
}

// SetQuantity overwrites the quantity of an existing item and returns it.
func (s *Service) SetQuantity(ctx context.Context, id string, quantity int) (model.Item, error) {
	return s.store.SetQuantity(ctx, id, quantity)
}

// Delete removes an item; it reports whether anything was removed.
func (s *Service) Delete(ctx context.Context, id string) bool {
	return s.store.Delete(ctx, id)
}

// Get returns the item with the given id.
func (s *Service) Get(ctx context.Context, id string) (model.Item, error) {
	return s.store.Get(ctx, id)
}

// ListByCategory returns the category's items by quantity, highest first.
func (s *Service) ListByCategory(ctx context.Context, category string) []model.Item {
	return s.store.ListByCategory(ctx, category)
}

// TopK returns the k items with the highest quantity.
func (s *Service) TopK(ctx context.Context, k int) []model.Item {
	return s.store.TopK(ctx, k)
}

// Categories lists the categories that currently hold items.
func (s *Service) Categories(ctx context.Context) []string {
	return s.store.Categories(ctx)
}

// RecentAlerts returns the latest delivered alerts, newest first.
func (s *Service) RecentAlerts(_ context.Context) []model.Alert {
	return s.recent.Snapshot()
}

// Threshold returns the restocking threshold.
func (s *Service) Threshold() int {
	return s.threshold
}

// Verify checks the store's index consistency.
func (s *Service) Verify(ctx context.Context) error {
	return s.store.Verify(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	items, categories := s.store.Count(ctx), len(s.store.Categories(ctx))
	queueLen := s.queue.Len(ctx)

	s.metrics.UpdateStoreSize(items, categories)
	s.metrics.UpdateAlertQueue(queueLen, s.queue.Capacity())

	return map[string]interface{}{
		"started":            s.started,
		"restockThreshold":   s.threshold,
		"items":              items,
		"categories":         categories,
		"alertQueueLength":   queueLen,
		"alertQueueCapacity": s.queue.Capacity(),
		"alertWorkers":       s.pool.Size(),
		"recentAlerts":       s.recent.Len(),
	}
}

// IsNotFound reports whether err means the item does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
