package repository_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"math"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dynamite/internal"
	"github.com/dukerupert/dynamite/internal/repository"
)

// openStore migrates the database named by TEST_DATABASE_URL and returns a
// store over it. The test is skipped when the variable is unset.
func openStore(t *testing.T) *repository.SQLStore {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, internal.RunMigrations(ctx, db, slog.New(slog.NewTextHandler(io.Discard, nil))))

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return repository.NewStore(pool)
}

func TestSQLStore_MarkOrderPaidOnce(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id := uuid.New()
	_, err := store.CreateOrder(ctx, repository.CreateOrderParams{
		ID:         repository.UUID(id),
		SessionRef: "it-" + id.String(),
		Total:      1500,
	})
	require.NoError(t, err)

	params := repository.MarkOrderPaidParams{
		PaymentIntentID: repository.Text("pi_it"),
		StripeSessionID: repository.Text("cs_it_" + id.String()),
		CustomerEmail:   repository.Text("buyer@example.com"),
		ID:              repository.UUID(id),
	}
	n, err := store.MarkOrderPaid(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.MarkOrderPaid(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	order, err := store.GetOrder(ctx, repository.UUID(id))
	require.NoError(t, err)
	assert.Equal(t, "paid", order.Status)
}

func TestSQLStore_SecondPendingOrderViolatesIndex(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	ref := "it-pending-" + uuid.NewString()

	_, err := store.CreateOrder(ctx, repository.CreateOrderParams{ID: repository.UUID(uuid.New()), SessionRef: ref, Total: 100})
	require.NoError(t, err)

	_, err = store.CreateOrder(ctx, repository.CreateOrderParams{ID: repository.UUID(uuid.New()), SessionRef: ref, Total: 100})
	require.Error(t, err)
	assert.True(t, repository.IsUniqueViolation(err, repository.PendingSessionIndex))
}

func TestSQLStore_InvoiceCounterIsContiguous(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	// A year far from any real data; reruns may reuse it, so only the
	// spacing of the drawn values is checked.
	year := int32(3000 + uuid.New().ID()%5000)
	require.NoError(t, store.EnsureInvoiceCounter(ctx, year))

	const n = 20
	got := make(chan int32, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.ExecTx(ctx, func(q repository.Querier) error {
				v, err := q.IncrementInvoiceCounter(ctx, year)
				if err != nil {
					return err
				}
				got <- v
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(got)

	seen := make(map[int32]bool, n)
	low := int32(math.MaxInt32)
	for v := range got {
		assert.False(t, seen[v], "duplicate counter %d", v)
		seen[v] = true
		low = min(low, v)
	}
	for i := low; i < low+n; i++ {
		assert.True(t, seen[i], "missing counter %d", i)
	}
}
