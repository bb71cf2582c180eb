// Package worker dispatches queued restocking alerts to their sinks.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/stockroom/internal/domain/model"
	"github.com/okian/stockroom/pkg/logger"
	"github.com/okian/stockroom/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Alert abstracts what workers read off the queue.
type Alert = model.Alert

// Sink consumes a dispatched alert: a log line, a console print, a recent-alerts buffer.
type Sink interface {
	Handle(ctx context.Context, a Alert) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, a Alert) error

// Handle calls f.
func (f SinkFunc) Handle(ctx context.Context, a Alert) error { return f(ctx, a) }

// Queue defines how workers receive alerts.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Alert
}

// Worker delivers alerts from the queue to every sink.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called or
	// the queue channel is closed.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining the queue.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	sinks   []Sink
	name    string
	metrics *metrics.Manager

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, sinks []Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		sinks:    sinks,
		name:     "alert-worker",
		metrics:  metrics.Global(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.OrNop().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	alerts := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case a, ok := <-alerts:
			if !ok {
				return
			}
			w.deliver(ctx, a)
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// deliver hands one alert to every sink. A failing sink does not stop the others.
func (w *InMemoryWorker) deliver(ctx context.Context, a Alert) { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	for _, s := range w.sinks {
		if err := s.Handle(ctx, a); err != nil {
			w.metrics.RecordErrorByComponent("alert_worker", "sink_error")
			w.logger.Error(ctx, "alert sink failed",
				logger.String("item_id", a.ItemID),
				logger.Error(err),
			)
		}
	}
	w.metrics.RecordAlertDelivered(time.Since(start))
}

// Pool manages multiple alert workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
	metrics *metrics.Manager
}

// NewPool creates a pool of workerCount workers delivering to sinks.
func NewPool(workerCount int, queue Queue, sinks []Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.OrNop().Named("alert-pool"),
		metrics: metrics.Global(),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("alert-worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(queue, sinks, workerOpts...)
	}
	if len(p.workers) > 0 {
		p.metrics = p.workers[0].metrics
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.metrics.UpdateAlertWorkers(len(p.workers))
}

// Shutdown closes the queue, lets the workers drain what is already queued
// and waits for them. Workers still busy when ctx expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing alert queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "alert worker did not drain in time", logger.Int("worker_id", i))
			if err := w.Shutdown(context.Background()); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	p.metrics.UpdateAlertWorkers(0)
	return firstErr
}
