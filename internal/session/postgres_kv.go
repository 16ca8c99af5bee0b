package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresKV stores session keys in the session_records and session_activity tables.
type PostgresKV struct {
	pool *pgxpool.Pool
}

// NewPostgresKV returns a Postgres-backed KV.
func NewPostgresKV(pool *pgxpool.Pool) *PostgresKV {
	return &PostgresKV{pool: pool}
}

func (p *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	const query = `
        SELECT value FROM session_records
        WHERE key=$1 AND (expires_at IS NULL OR expires_at > NOW())`

	var value string
	if err := p.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const query = `
        INSERT INTO session_records (key, value, expires_at, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, expires_at=EXCLUDED.expires_at, updated_at=NOW()`

	var expiresAt *time.Time
	if ttl > 0 {
		at := time.Now().Add(ttl)
		expiresAt = &at
	}
	_, err := p.pool.Exec(ctx, query, key, value, expiresAt)
	return err
}

func (p *PostgresKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM session_records WHERE key = ANY($1)`, keys)
	batch.Queue(`DELETE FROM session_activity WHERE key = ANY($1)`, keys)
	return p.pool.SendBatch(ctx, batch).Close()
}

func (p *PostgresKV) Append(ctx context.Context, key, value string, max int) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO session_activity (key, value) VALUES ($1, $2)`, key, value); err != nil {
		return err
	}
	if max > 0 {
		const trim = `
            DELETE FROM session_activity WHERE key=$1 AND id NOT IN (
                SELECT id FROM session_activity WHERE key=$1 ORDER BY id DESC LIMIT $2
            )`
		if _, err := tx.Exec(ctx, trim, key, max); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (p *PostgresKV) List(ctx context.Context, key string) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT value FROM session_activity WHERE key=$1 ORDER BY id DESC`, key)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
