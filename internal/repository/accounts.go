// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/movie-mate/internal/model"
)

// AccountRepository stores dev server accounts.
type AccountRepository interface {
	// Create inserts an account; a taken username or email yields errs.ErrAlreadyExists.
	Create(ctx context.Context, a *model.Account) error
	// GetByLogin loads an account by username or email, case-insensitively.
	GetByLogin(ctx context.Context, identifier string) (*model.Account, error)
}
