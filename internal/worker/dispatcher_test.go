package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dynamite/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ctxKey struct{}

func TestDispatcher_ProcessesEvents(t *testing.T) {
	var mu sync.Mutex
	var got []uuid.UUID
	var wg sync.WaitGroup

	handler := HandlerFunc(func(ctx context.Context, ev domain.OrderPaid) error {
		defer wg.Done()
		mu.Lock()
		got = append(got, ev.OrderID)
		mu.Unlock()
		return nil
	})

	d := NewDispatcher(handler, Config{Concurrency: 3, QueueSize: 10}, discardLogger())
	d.Start()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	wg.Add(len(ids))
	for _, id := range ids {
		d.OrderPaid(context.Background(), domain.OrderPaid{OrderID: id})
	}
	wg.Wait()

	require.NoError(t, d.Close(context.Background()))
	assert.ElementsMatch(t, ids, got)
}

func TestDispatcher_DetachesFromCallerContext(t *testing.T) {
	type result struct {
		err   error
		value any
	}
	results := make(chan result, 1)

	handler := HandlerFunc(func(ctx context.Context, ev domain.OrderPaid) error {
		results <- result{err: ctx.Err(), value: ctx.Value(ctxKey{})}
		return nil
	})

	d := NewDispatcher(handler, Config{Concurrency: 1, QueueSize: 1}, discardLogger())

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-1"))
	d.OrderPaid(ctx, domain.OrderPaid{OrderID: uuid.New()})
	cancel()

	d.Start()
	r := <-results
	assert.NoError(t, r.err, "job context must outlive the request")
	assert.Equal(t, "req-1", r.value)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	var calls atomic.Int32
	handler := HandlerFunc(func(ctx context.Context, ev domain.OrderPaid) error {
		calls.Add(1)
		return nil
	})

	// Not started, so nothing drains the queue.
	d := NewDispatcher(handler, Config{Concurrency: 1, QueueSize: 2}, discardLogger())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			d.OrderPaid(context.Background(), domain.OrderPaid{OrderID: uuid.New()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OrderPaid blocked on a full queue")
	}

	d.Start()
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDispatcher_HandlerFailureDoesNotStopPool(t *testing.T) {
	var ok atomic.Int32
	var wg sync.WaitGroup
	fail := uuid.New()

	handler := HandlerFunc(func(ctx context.Context, ev domain.OrderPaid) error {
		defer wg.Done()
		if ev.OrderID == fail {
			return errors.New("smtp down")
		}
		ok.Add(1)
		return nil
	})

	d := NewDispatcher(handler, Config{Concurrency: 1, QueueSize: 4}, discardLogger())
	d.Start()

	wg.Add(3)
	d.OrderPaid(context.Background(), domain.OrderPaid{OrderID: fail})
	d.OrderPaid(context.Background(), domain.OrderPaid{OrderID: uuid.New()})
	d.OrderPaid(context.Background(), domain.OrderPaid{OrderID: uuid.New()})
	wg.Wait()

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(2), ok.Load())
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	var wg sync.WaitGroup
	var after atomic.Bool
	first := true

	handler := HandlerFunc(func(ctx context.Context, ev domain.OrderPaid) error {
		defer wg.Done()
		if first {
			first = false
			panic("boom")
		}
		after.Store(true)
		return nil
	})

	d := NewDispatcher(handler, Config{Concurrency: 1, QueueSize: 2}, discardLogger())
	d.Start()

	wg.Add(2)
	d.OrderPaid(context.Background(), domain.OrderPaid{OrderID: uuid.New()})
	d.OrderPaid(context.Background(), domain.OrderPaid{OrderID: uuid.New()})
	wg.Wait()

	require.NoError(t, d.Close(context.Background()))
	assert.True(t, after.Load())
}

func TestDispatcher_JobTimeout(t *testing.T) {
	errs := make(chan error, 1)
	handler := HandlerFunc(func(ctx context.Context, ev domain.OrderPaid) error {
		<-ctx.Done()
		errs <- ctx.Err()
		return ctx.Err()
	})

	d := NewDispatcher(handler, Config{Concurrency: 1, QueueSize: 1, JobTimeout: 20 * time.Millisecond}, discardLogger())
	d.Start()
	d.OrderPaid(context.Background(), domain.OrderPaid{OrderID: uuid.New()})

	assert.ErrorIs(t, <-errs, context.DeadlineExceeded)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_Close(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	handler := HandlerFunc(func(ctx context.Context, ev domain.OrderPaid) error {
		close(started)
		<-release
		return nil
	})

	d := NewDispatcher(handler, Config{Concurrency: 1, QueueSize: 1}, discardLogger())
	d.Start()
	d.OrderPaid(context.Background(), domain.OrderPaid{OrderID: uuid.New()})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	// Events after close are dropped, not panicking on the closed channel.
	d.OrderPaid(context.Background(), domain.OrderPaid{OrderID: uuid.New()})

	close(release)
	assert.ErrorIs(t, d.Close(context.Background()), ErrClosed)
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "timeout", errorType(context.DeadlineExceeded))
	assert.Equal(t, "canceled", errorType(context.Canceled))
	assert.Equal(t, domain.ECONFLICT, errorType(domain.Conflict("op", "x")))
	assert.Equal(t, "error", errorType(errors.New("x")))
}
