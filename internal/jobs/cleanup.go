package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/dynamite/internal/session"
)

// DefaultCleanupInterval is how often expired sessions are purged.
const DefaultCleanupInterval = 15 * time.Minute

// SessionCleanup deletes expired sessions on a ticker.
type SessionCleanup struct {
	store    session.Store
	interval time.Duration
	logger   *slog.Logger
}

func NewSessionCleanup(store session.Store, interval time.Duration, logger *slog.Logger) *SessionCleanup {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &SessionCleanup{
		store:    store,
		interval: interval,
		logger:   logger.With("job", "session_cleanup"),
	}
}

// Run blocks until ctx is cancelled.
func (c *SessionCleanup) Run(ctx context.Context) error {
	c.logger.Info("session cleanup starting", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("session cleanup stopped")
			return ctx.Err()
		case <-ticker.C:
			// Errors are logged by RunOnce; the next tick retries.
			_, _ = c.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single purge and returns the number of rows removed.
func (c *SessionCleanup) RunOnce(ctx context.Context) (int64, error) {
	n, err := c.store.DeleteExpired(ctx)
	if err != nil {
		c.logger.Error("failed to delete expired sessions", "error", err)
		return 0, err
	}
	if n > 0 {
		c.logger.Info("expired sessions deleted", "count", n)
	}
	return n, nil
}
