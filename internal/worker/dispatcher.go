// Package worker runs post-commit notifications off the request path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/telemetry"
)

// NotificationOrderPaid labels OrderPaid jobs in metrics.
const NotificationOrderPaid = "order_paid"

// ErrClosed is returned by Close when called twice.
var ErrClosed = errors.New("worker: dispatcher closed")

// Handler processes one OrderPaid event. Errors are logged and counted.
type Handler interface {
	HandleOrderPaid(ctx context.Context, event domain.OrderPaid) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event domain.OrderPaid) error

func (f HandlerFunc) HandleOrderPaid(ctx context.Context, event domain.OrderPaid) error {
	return f(ctx, event)
}

// Config holds dispatcher configuration
type Config struct {
	// WorkerID identifies this dispatcher in logs
	WorkerID string

	// Concurrency is the number of jobs processed at once
	Concurrency int

	// QueueSize bounds the number of waiting jobs. Events beyond it are
	// dropped.
	QueueSize int

	// JobTimeout caps a single handler run
	JobTimeout time.Duration
}

type job struct {
	ctx   context.Context
	event domain.OrderPaid
}

// Dispatcher is a domain.Notifier that hands events to a bounded pool of
// goroutines. OrderPaid never blocks the caller.
type Dispatcher struct {
	config  Config
	handler Handler
	logger  *slog.Logger

	queue chan job
	wg    sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewDispatcher creates a dispatcher. Call Start before publishing.
func NewDispatcher(handler Handler, config Config, logger *slog.Logger) *Dispatcher {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("notify-%s", uuid.New().String()[:8])
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}
	if config.JobTimeout == 0 {
		config.JobTimeout = 60 * time.Second
	}

	return &Dispatcher{
		config:  config,
		handler: handler,
		logger:  logger.With("component", "dispatcher", "worker_id", config.WorkerID),
		queue:   make(chan job, config.QueueSize),
	}
}

// Start launches the worker goroutines. Calling it more than once is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	d.logger.Info("dispatcher starting",
		"concurrency", d.config.Concurrency,
		"queue_size", d.config.QueueSize,
	)

	for i := 0; i < d.config.Concurrency; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for j := range d.queue {
				d.process(j)
			}
		}()
	}
}

// OrderPaid enqueues the event. The request context is detached so the job
// survives the response being written; its values are kept.
func (d *Dispatcher) OrderPaid(ctx context.Context, event domain.OrderPaid) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "closed")
		return
	}

	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		d.drop(event, "queue_full")
	}
}

func (d *Dispatcher) drop(event domain.OrderPaid, reason string) {
	d.logger.Error("notification dropped",
		"order_id", event.OrderID,
		"reason", reason,
	)
	if telemetry.Business != nil {
		telemetry.Business.NotificationsFailed.WithLabelValues(NotificationOrderPaid, reason).Inc()
	}
}

func (d *Dispatcher) process(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.config.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification handler panicked",
				"order_id", j.event.OrderID,
				"panic", r,
			)
			telemetry.CaptureError(fmt.Errorf("notification handler panic: %v", r), map[string]interface{}{
				"order_id": j.event.OrderID.String(),
			})
			if telemetry.Business != nil {
				telemetry.Business.NotificationsFailed.WithLabelValues(NotificationOrderPaid, "panic").Inc()
			}
		}
	}()

	start := time.Now()
	if err := d.handler.HandleOrderPaid(ctx, j.event); err != nil {
		d.logger.Error("notification failed",
			"order_id", j.event.OrderID,
			"source", j.event.Source,
			"error", err,
		)
		if telemetry.Business != nil {
			telemetry.Business.NotificationsFailed.WithLabelValues(NotificationOrderPaid, errorType(err)).Inc()
		}
		return
	}

	d.logger.Info("notification processed",
		"order_id", j.event.OrderID,
		"duration", time.Since(start),
	)
	if telemetry.Business != nil {
		telemetry.Business.NotificationsSent.WithLabelValues(NotificationOrderPaid).Inc()
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	if code := domain.ErrorCode(err); code != domain.EINTERNAL {
		return code
	}
	return "error"
}

// Close stops accepting events and waits for queued jobs to finish, or for
// ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("dispatcher stop timed out", "pending", len(d.queue))
		return ctx.Err()
	}
}

var _ domain.Notifier = (*Dispatcher)(nil)
