package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/model"
)

// MemoryAccounts keeps accounts in process memory.
type MemoryAccounts struct {
	mu       sync.RWMutex
	accounts []*model.Account
}

var _ AccountRepository = (*MemoryAccounts)(nil)

func NewMemoryAccounts() *MemoryAccounts { return &MemoryAccounts{} }

func (r *MemoryAccounts) find(identifier string) *model.Account {
	for _, a := range r.accounts {
		if strings.EqualFold(a.Profile.Username, identifier) || strings.EqualFold(a.Profile.Email, identifier) {
			return a
		}
	}
	return nil
}

func cloneAccount(a *model.Account) *model.Account {
	c := *a
	c.Profile.Roles = slices.Clone(a.Profile.Roles)
	return &c
}

func (r *MemoryAccounts) Create(_ context.Context, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(a.Profile.Username) != nil || (a.Profile.Email != "" && r.find(a.Profile.Email) != nil) {
		return errs.ErrAlreadyExists
	}
	c := cloneAccount(a)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.accounts = append(r.accounts, c)
	return nil
}

func (r *MemoryAccounts) GetByLogin(_ context.Context, identifier string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a := r.find(strings.TrimSpace(identifier))
	if a == nil {
		return nil, errs.ErrNotFound
	}
	return cloneAccount(a), nil
}
