package repository

import (
	"time"

	"github.com/okian/stockroom/pkg/logger"
	"github.com/okian/stockroom/pkg/metrics"
)

// Option applies a configuration option to the HeapStore.
type Option func(*HeapStore)

// WithNotifier sets where restocking alerts go.
func WithNotifier(n Notifier) Option {
	return func(s *HeapStore) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *HeapStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records store metrics on m instead of the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *HeapStore) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the time source used to stamp alerts.
func WithClock(now func() time.Time) Option {
	return func(s *HeapStore) {
		if now != nil {
			s.now = now
		}
	}
}
