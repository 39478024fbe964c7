package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/omniores3/pythonGroupTools/config"
	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/logger"
)

// AccountStatus is an account record decorated with live session state
type AccountStatus struct {
	domain.Account
	Authorized bool `json:"authorized"`
}

// AccountService manages Telegram accounts and their login lifecycle
type AccountService struct {
	accounts domain.AccountRepository
	sessions domain.SessionRegistry
	cfg      *config.TelegramConfig
	logger   zerolog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	accounts domain.AccountRepository,
	sessions domain.SessionRegistry,
	cfg *config.TelegramConfig,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		sessions: sessions,
		cfg:      cfg,
		logger:   log.With().Str("component", "account_service").Logger(),
	}
}

// StartLogin registers the account (service credentials fill in missing
// API id/hash) and begins the auth flow. A fresh account whose code
// challenge cannot even be started is rolled back so no dead record
// lingers.
func (s *AccountService) StartLogin(ctx context.Context, phone string, apiID int, apiHash string) (*domain.Account, *domain.AuthResult, error) {
	if phone == "" {
		return nil, nil, fmt.Errorf("phone is required")
	}
	if apiID == 0 {
		apiID = s.cfg.APIID
	}
	if apiHash == "" {
		apiHash = s.cfg.APIHash
	}

	account := s.findByPhone(ctx, phone)
	fresh := account == nil
	if fresh {
		account = &domain.Account{
			APIID:   apiID,
			APIHash: apiHash,
			Phone:   phone,
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, nil, err
		}
	}

	result, err := s.sessions.Login(ctx, account)
	if err != nil {
		if fresh {
			if delErr := s.accounts.Delete(ctx, account.ID); delErr != nil {
				s.logger.Warn().Err(delErr).Msg("failed to roll back account after login failure")
			}
		}
		return nil, nil, err
	}

	if result.Phase == domain.AuthPhaseAuthorized {
		s.persistSession(ctx, account.ID, result.SessionFile)
	}

	s.logger.Info().
		Str("phone", logger.MaskPhone(phone)).
		Str("phase", string(result.Phase)).
		Msg("login started")
	return account, result, nil
}

// VerifyCode completes a pending code challenge for the account
func (s *AccountService) VerifyCode(ctx context.Context, accountID uint, code string) (*domain.AuthResult, error) {
	result, err := s.sessions.VerifyCode(ctx, accountID, code)
	if err != nil {
		return nil, err
	}
	if result.Phase == domain.AuthPhaseAuthorized {
		s.persistSession(ctx, accountID, result.SessionFile)
	}
	return result, nil
}

// VerifyPassword completes a pending 2FA challenge for the account
func (s *AccountService) VerifyPassword(ctx context.Context, accountID uint, password string) (*domain.AuthResult, error) {
	result, err := s.sessions.VerifyPassword(ctx, accountID, password)
	if err != nil {
		return nil, err
	}
	if result.Phase == domain.AuthPhaseAuthorized {
		s.persistSession(ctx, accountID, result.SessionFile)
	}
	return result, nil
}

// List returns all accounts decorated with their live auth state
func (s *AccountService) List(ctx context.Context) ([]AccountStatus, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]AccountStatus, len(accounts))
	for i, account := range accounts {
		statuses[i] = AccountStatus{
			Account:    account,
			Authorized: s.sessions.IsAuthorized(ctx, account.ID),
		}
	}
	return statuses, nil
}

// Activate marks the account as the one Acquire(0) resolves to
func (s *AccountService) Activate(ctx context.Context, accountID uint) error {
	return s.accounts.SetActive(ctx, accountID)
}

// Delete logs the account out and removes its record
func (s *AccountService) Delete(ctx context.Context, accountID uint) error {
	if err := s.sessions.Logout(ctx, accountID); err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		s.logger.Warn().Err(err).Uint("account_id", accountID).Msg("logout failed during delete")
	}
	return s.accounts.Delete(ctx, accountID)
}

// persistSession stores the session artifact path on the account record
func (s *AccountService) persistSession(ctx context.Context, accountID uint, sessionFile string) {
	if sessionFile == "" {
		return
	}
	if err := s.accounts.UpdateSessionFile(ctx, accountID, sessionFile); err != nil {
		s.logger.Warn().Err(err).Uint("account_id", accountID).Msg("failed to persist session file path")
	}
}

// findByPhone looks an account up by phone, nil when absent
func (s *AccountService) findByPhone(ctx context.Context, phone string) *domain.Account {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil
	}
	for i := range accounts {
		if accounts[i].Phone == phone {
			return &accounts[i]
		}
	}
	return nil
}
