// Package queue buffers restocking alerts between the store and their sinks.
//
// The store must never block on an alert, so Enqueue is non-blocking and
// drops the alert when the buffer is full.
package queue

import (
	"context"
	"sync"

	"github.com/okian/stockroom/internal/domain/model"
	"github.com/okian/stockroom/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Alert is the payload type flowing through the queue.
type Alert = model.Alert

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an alert to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, a Alert) bool

	// Dequeue returns the channel alerts are delivered on.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Alert

	// Len returns the current number of queued alerts.
	Len(ctx context.Context) int

	// Close stops accepting alerts. Already queued alerts stay readable.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	alerts   chan Alert
	capacity int
	metrics  *metrics.Manager

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		metrics:  metrics.Global(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.alerts = make(chan Alert, q.capacity)
	q.metrics.UpdateAlertQueue(0, q.capacity)
	return q
}

// Enqueue adds an alert without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, a Alert) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.metrics.RecordErrorByComponent("alert_queue", "closed")
		return false
	}

	select {
	case <-ctx.Done():
		q.metrics.RecordErrorByComponent("alert_queue", "context_cancelled")
		return false
	default:
	}

	select {
	case q.alerts <- a:
		q.metrics.UpdateAlertQueue(len(q.alerts), q.capacity)
		return true
	default:
		q.metrics.RecordErrorByComponent("alert_queue", "queue_full")
		return false
	}
}

// Notify lets the queue stand in as the store's alert notifier.
// A full or closed queue drops the alert.
func (q *InMemoryQueue) Notify(ctx context.Context, a Alert) { //nolint:gocritic // hugeParam: see Enqueue
	if !q.Enqueue(ctx, a) {
		q.metrics.RecordAlertDropped()
	}
}

// Dequeue returns the channel alerts are delivered on.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Alert {
	return q.alerts
}

// Len returns the current number of queued alerts.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.alerts)
	q.metrics.UpdateAlertQueue(size, q.capacity)
	return size
}

// Capacity returns the maximum number of buffered alerts.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close stops accepting alerts and closes the delivery channel.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.alerts)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
