package shared

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*IdempotencyStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	store := NewIdempotencyStore(mock)
	store.now = func() time.Time { return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC) }
	return store, mock
}

func TestCheckAndInsert(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO idempotency_keys`).
		WithArgs("k1", "cbucbo", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, store.CheckAndInsert(ctx, "k1", "cbucbo"))

	mock.ExpectExec(`INSERT INTO idempotency_keys`).
		WithArgs("k1", "cbucbo", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, store.CheckAndInsert(ctx, "k1", "cbucbo"), ErrIdempotencyConflict)

	assert.Error(t, store.CheckAndInsert(ctx, "", "cbucbo"))
	assert.Error(t, store.CheckAndInsert(ctx, "k2", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupAndDelete(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM idempotency_keys WHERE created_at`).
		WithArgs(time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC)).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	n, err := store.Cleanup(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	mock.ExpectExec(`DELETE FROM idempotency_keys WHERE key`).
		WithArgs("k1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, store.Delete(ctx, "k1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
