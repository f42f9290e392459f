package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/model"
	"github.com/and161185/movie-mate/internal/repository"
)

// AccountRepo implements AccountRepository using PostgreSQL.
type AccountRepo struct{ db *DB }

var _ repository.AccountRepository = (*AccountRepo)(nil)

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts a new account row. Usernames and emails are unique case-insensitively.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, username, email, roles, full_name, enabled, not_banned, pwd_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	p := a.Profile
	_, err := r.db.Pool.Exec(ctx, q, p.ID, p.Username, p.Email, p.Roles, p.FullName, p.Enabled, p.NotBanned, a.PasswordHash)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByLogin selects an account by username or email.
func (r *AccountRepo) GetByLogin(ctx context.Context, identifier string) (*model.Account, error) {
	const q = `
SELECT id, username, email, roles, full_name, enabled, not_banned, pwd_hash, created_at
FROM accounts WHERE lower(username) = lower($1) OR lower(email) = lower($1)
LIMIT 1`
	var a model.Account
	p := &a.Profile
	err := r.db.Pool.QueryRow(ctx, q, identifier).
		Scan(&p.ID, &p.Username, &p.Email, &p.Roles, &p.FullName, &p.Enabled, &p.NotBanned, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
