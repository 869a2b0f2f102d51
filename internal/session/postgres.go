package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/dynamite/internal/repository"
)

// PostgresStore keeps sessions in the sessions table.
type PostgresStore struct {
	q repository.Querier
}

func NewPostgresStore(q repository.Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

func (p *PostgresStore) Load(ctx context.Context, ref string) (State, bool, error) {
	row, err := p.q.GetSessionByToken(ctx, ref)
	if err != nil {
		if repository.IsNotFound(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("load session: %w", err)
	}
	var st State
	if err := json.Unmarshal(row.Data, &st); err != nil {
		return State{}, false, fmt.Errorf("decode session: %w", err)
	}
	return st, true, nil
}

func (p *PostgresStore) Save(ctx context.Context, ref string, state State, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return p.q.UpsertSession(ctx, repository.UpsertSessionParams{
		Token:     ref,
		Data:      data,
		ExpiresAt: pgtype.Timestamptz{Time: time.Now().Add(ttl), Valid: true},
	})
}

func (p *PostgresStore) Delete(ctx context.Context, ref string) error {
	return p.q.DeleteSession(ctx, ref)
}

func (p *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	return p.q.DeleteExpiredSessions(ctx)
}
