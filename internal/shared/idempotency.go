package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict indicates a key that was already processed.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore persists processed keys so replayed requests (payment
// references, refund submissions) are rejected instead of double-applied.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// Reserve records module:key, failing with ErrIdempotencyConflict on replay.
func (s *IdempotencyStore) Reserve(ctx context.Context, module, key string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if module == "" || key == "" {
		return errors.New("idempotency module and key required")
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)`,
		scopedKey(module, key), module, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// Release removes a reservation, typically after the guarded work failed.
func (s *IdempotencyStore) Release(ctx context.Context, module, key string) error {
	if s == nil || key == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key=$1`, scopedKey(module, key))
	return err
}

// Cleanup removes entries older than retention.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	cutoff := time.Now().Add(-olderThan)
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	return err
}

func scopedKey(module, key string) string {
	return fmt.Sprintf("%s:%s", module, key)
}
