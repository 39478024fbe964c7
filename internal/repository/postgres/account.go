package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// AccountRepository implements domain.AccountRepository using gorm
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &AccountRepository{db: db}
}

// Create persists a new account
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uint) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetActive retrieves the account currently marked active
func (r *AccountRepository) GetActive(ctx context.Context) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoActiveAccount
		}
		return nil, fmt.Errorf("failed to get active account: %w", err)
	}
	return &account, nil
}

// List retrieves all accounts
func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := r.db.WithContext(ctx).Order("id").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateSessionFile stores the session artifact path for an account
func (r *AccountRepository) UpdateSessionFile(ctx context.Context, id uint, sessionFile string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", id).
		Update("session_file", sessionFile)
	if result.Error != nil {
		return fmt.Errorf("failed to update session file: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// SetActive marks one account active and clears the flag everywhere else.
// Both updates run in one transaction so exactly one account ends up active.
func (r *AccountRepository) SetActive(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Account{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to clear active flags: %w", err)
		}

		result := tx.Model(&domain.Account{}).
			Where("id = ?", id).
			Update("is_active", true)
		if result.Error != nil {
			return fmt.Errorf("failed to set active account: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrAccountNotFound
		}
		return nil
	})
}

// Delete removes an account
func (r *AccountRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Account{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
