// Package memory holds in-memory repository implementations used by
// unit tests and local experiments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// AccountRepository implements domain.AccountRepository using in-memory storage
type AccountRepository struct {
	mu       sync.RWMutex
	nextID   uint
	accounts map[uint]*domain.Account
}

// NewAccountRepository creates a new in-memory account repository
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		nextID:   1,
		accounts: make(map[uint]*domain.Account),
	}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account.ID = r.nextID
	r.nextID++
	account.CreatedAt = time.Now()
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uint) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, domain.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (r *AccountRepository) GetActive(ctx context.Context) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if account.IsActive {
			cp := *account
			return &cp, nil
		}
	}
	return nil, domain.ErrNoActiveAccount
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		accounts = append(accounts, *account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *AccountRepository) UpdateSessionFile(ctx context.Context, id uint, sessionFile string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, exists := r.accounts[id]
	if !exists {
		return domain.ErrAccountNotFound
	}
	account.SessionFile = sessionFile
	return nil
}

func (r *AccountRepository) SetActive(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[id]; !exists {
		return domain.ErrAccountNotFound
	}
	for _, account := range r.accounts {
		account.IsActive = false
	}
	r.accounts[id].IsActive = true
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[id]; !exists {
		return domain.ErrAccountNotFound
	}
	delete(r.accounts, id)
	return nil
}
