package session_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-guard/internal/persistence"
	"github.com/spec-kit/storefront-guard/internal/session"
)

// postgresKV returns a migrated, empty Postgres backend when POSTGRES_TEST_DSN is set.
func postgresKV(t *testing.T) *session.PostgresKV {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE session_records, session_activity`)
	require.NoError(t, err)

	return session.NewPostgresKV(pool)
}

func TestPostgresKV_ExpiredRecordIsMissing(t *testing.T) {
	kv := postgresKV(t)
	if kv == nil {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "short", "v", 50*time.Millisecond))
	require.NoError(t, kv.Set(ctx, "long", "v", time.Hour))

	time.Sleep(100 * time.Millisecond)

	_, err := kv.Get(ctx, "short")
	assert.ErrorIs(t, err, session.ErrNotFound)

	got, err := kv.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestPostgresKV_DeleteCoversBothTables(t *testing.T) {
	kv := postgresKV(t)
	if kv == nil {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", 0))
	require.NoError(t, kv.Append(ctx, "log", "entry", 10))

	require.NoError(t, kv.Delete(ctx, "k", "log"))

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, session.ErrNotFound)
	entries, err := kv.List(ctx, "log")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
