package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG keeps counters in the login_attempts table so they survive restarts.
type PG struct {
	db  pgxQuerier
	cfg Config
	now func() time.Time
}

var _ Limiter = (*PG)(nil)

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPG constructs a PostgreSQL-backed limiter.
func NewPG(pool *pgxpool.Pool, cfg Config) *PG {
	return NewPGWithQuerier(pool, cfg)
}

// NewPGWithQuerier constructs a limiter over any pgx querier (pool, conn or mock).
func NewPGWithQuerier(q pgxQuerier, cfg Config) *PG {
	return &PG{db: q, cfg: cfg, now: time.Now}
}

func (l *PG) Allow(ctx context.Context, identifier string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM login_attempts WHERE identifier=$1 AND ip_hash=$2`
	var blockedUntil time.Time
	err := l.db.QueryRow(ctx, q, identifier, ipHash).Scan(&blockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if now := l.now(); blockedUntil.After(now) {
		return false, blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

func (l *PG) Success(ctx context.Context, identifier string, ipHash []byte) error {
	const q = `DELETE FROM login_attempts WHERE identifier=$1 AND ip_hash=$2`
	_, err := l.db.Exec(ctx, q, identifier, ipHash)
	return err
}

// Failure restarts the count when the previous failure is older than the window.
func (l *PG) Failure(ctx context.Context, identifier string, ipHash []byte) (bool, time.Duration, error) {
	now := l.now()

	const q = `
INSERT INTO login_attempts (identifier, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 1, 'epoch', $4)
ON CONFLICT (identifier, ip_hash) DO UPDATE
SET fail_count = CASE WHEN login_attempts.updated_at < $3 THEN 1 ELSE login_attempts.fail_count + 1 END,
    updated_at = $4
RETURNING fail_count`
	var fails int
	if err := l.db.QueryRow(ctx, q, identifier, ipHash, now.Add(-l.cfg.Window), now).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.cfg.MaxFails {
		return false, 0, nil
	}

	const block = `UPDATE login_attempts SET blocked_until=$3 WHERE identifier=$1 AND ip_hash=$2`
	if _, err := l.db.Exec(ctx, block, identifier, ipHash, now.Add(l.cfg.BlockFor)); err != nil {
		return false, 0, err
	}
	return true, l.cfg.BlockFor, nil
}
