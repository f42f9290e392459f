package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newPG(t *testing.T) (*PG, pgxmock.PgxPoolIface, time.Time) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewPGWithQuerier(mock, policy)
	l.now = func() time.Time { return now }
	return l, mock, now
}

func TestPG_Allow(t *testing.T) {
	t.Parallel()

	l, mock, now := newPG(t)
	ip := HashIP("10.0.0.1")
	ctx := context.Background()

	mock.ExpectQuery("SELECT blocked_until FROM login_attempts").
		WithArgs("devuser", ip).
		WillReturnError(pgx.ErrNoRows)
	ok, _, err := l.Allow(ctx, "devuser", ip)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectQuery("SELECT blocked_until FROM login_attempts").
		WithArgs("devuser", ip).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(now.Add(time.Minute)))
	ok, left, err := l.Allow(ctx, "devuser", ip)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, time.Minute, left)

	mock.ExpectQuery("SELECT blocked_until FROM login_attempts").
		WithArgs("devuser", ip).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(now.Add(-time.Minute)))
	ok, _, err = l.Allow(ctx, "devuser", ip)
	require.NoError(t, err)
	require.True(t, ok)

	boom := errors.New("db down")
	mock.ExpectQuery("SELECT blocked_until FROM login_attempts").WillReturnError(boom)
	ok, _, err = l.Allow(ctx, "devuser", ip)
	require.ErrorIs(t, err, boom)
	require.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_Success(t *testing.T) {
	t.Parallel()

	l, mock, _ := newPG(t)
	ip := HashIP("10.0.0.1")

	mock.ExpectExec("DELETE FROM login_attempts").
		WithArgs("devuser", ip).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, l.Success(context.Background(), "devuser", ip))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_FailureBelowThreshold(t *testing.T) {
	t.Parallel()

	l, mock, now := newPG(t)
	ip := HashIP("10.0.0.1")

	mock.ExpectQuery("INSERT INTO login_attempts").
		WithArgs("devuser", ip, now.Add(-policy.Window), now).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(1))
	blocked, dur, err := l.Failure(context.Background(), "devuser", ip)
	require.NoError(t, err)
	require.False(t, blocked)
	require.Zero(t, dur)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_FailureBlocksAtThreshold(t *testing.T) {
	t.Parallel()

	l, mock, now := newPG(t)
	ip := HashIP("10.0.0.1")

	mock.ExpectQuery("INSERT INTO login_attempts").
		WithArgs("devuser", ip, now.Add(-policy.Window), now).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(policy.MaxFails))
	mock.ExpectExec("UPDATE login_attempts SET blocked_until").
		WithArgs("devuser", ip, now.Add(policy.BlockFor)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	blocked, dur, err := l.Failure(context.Background(), "devuser", ip)
	require.NoError(t, err)
	require.True(t, blocked)
	require.Equal(t, policy.BlockFor, dur)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_FailureErrors(t *testing.T) {
	t.Parallel()

	l, mock, _ := newPG(t)
	ip := HashIP("10.0.0.1")
	boom := errors.New("db down")

	mock.ExpectQuery("INSERT INTO login_attempts").WillReturnError(boom)
	_, _, err := l.Failure(context.Background(), "devuser", ip)
	require.ErrorIs(t, err, boom)

	mock.ExpectQuery("INSERT INTO login_attempts").
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(policy.MaxFails + 1))
	mock.ExpectExec("UPDATE login_attempts").WillReturnError(boom)
	_, _, err = l.Failure(context.Background(), "devuser", ip)
	require.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}
