package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/omniores3/pythonGroupTools/config"
	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/logger"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/metrics"
)

const connectTimeout = 30 * time.Second

// clientFactory creates protocol clients; overridable for testing
type clientFactory func(cfg MTProtoClientConfig) (*MTProtoClient, error)

// handle is one account's live session plus pending auth state
type handle struct {
	client        *MTProtoClient
	phoneCodeHash string // non-empty while a code challenge is pending
}

// Registry implements domain.SessionRegistry. It owns at most one live
// MTProto client per account and serializes handle creation, so two
// concurrent tasks on the same account share one session.
type Registry struct {
	accountRepo domain.AccountRepository
	cfg         *config.TelegramConfig
	logger      zerolog.Logger
	metrics     *metrics.Metrics

	mu      sync.Mutex
	handles map[uint]*handle

	factory clientFactory
}

// NewRegistry creates a new session registry
func NewRegistry(
	accountRepo domain.AccountRepository,
	cfg *config.TelegramConfig,
	log zerolog.Logger,
	m *metrics.Metrics,
) *Registry {
	return &Registry{
		accountRepo: accountRepo,
		cfg:         cfg,
		logger:      log.With().Str("component", "session_registry").Logger(),
		metrics:     m,
		handles:     make(map[uint]*handle),
		factory:     NewMTProtoClient,
	}
}

// resolveAccount loads the account record; ID 0 means the active one
func (r *Registry) resolveAccount(ctx context.Context, accountID uint) (*domain.Account, error) {
	if accountID == 0 {
		return r.accountRepo.GetActive(ctx)
	}
	return r.accountRepo.GetByID(ctx, accountID)
}

// newClient builds a protocol client for the account, falling back to
// service-level API credentials when the account carries none
func (r *Registry) newClient(account *domain.Account) (*MTProtoClient, error) {
	apiID := account.APIID
	apiHash := account.APIHash
	if apiID == 0 {
		apiID = r.cfg.APIID
	}
	if apiHash == "" {
		apiHash = r.cfg.APIHash
	}

	return r.factory(MTProtoClientConfig{
		APIID:      apiID,
		APIHash:    apiHash,
		Phone:      account.Phone,
		SessionDir: r.cfg.SessionDir,
		Logger:     r.logger,
	})
}

// Acquire returns a connected, authorized client for the account,
// reviving it from the persisted session artifact when needed.
func (r *Registry) Acquire(ctx context.Context, accountID uint) (domain.TelegramClient, error) {
	account, err := r.resolveAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h, exists := r.handles[account.ID]
	if !exists {
		client, err := r.newClient(account)
		if err != nil {
			return nil, fmt.Errorf("failed to create client: %w", err)
		}
		h = &handle{client: client}
		r.handles[account.ID] = h
	}

	if !h.client.IsConnected() {
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := h.client.Connect(connectCtx)
		cancel()
		if err != nil {
			delete(r.handles, account.ID)
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		r.metrics.UpdateActiveSessions(r.connectedLocked())
	}

	authorized, err := h.client.IsAuthorized(ctx)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, domain.ErrNotAuthorized
	}

	return h.client, nil
}

// Login opens a fresh handle for the account, discarding any stale
// handle and the persisted session artifact for the phone first, then
// starts a code challenge.
func (r *Registry) Login(ctx context.Context, account *domain.Account) (*domain.AuthResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.handles[account.ID]; exists {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = old.client.Disconnect(disconnectCtx)
		cancel()
		delete(r.handles, account.ID)
	}

	client, err := r.newClient(account)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	// a fresh login starts from a clean slate
	if err := client.DiscardSession(); err != nil {
		r.logger.Warn().Err(err).Str("phone", logger.MaskPhone(account.Phone)).Msg("failed to discard stale session artifact")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	err = client.Connect(connectCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	h := &handle{client: client}
	r.handles[account.ID] = h
	r.metrics.UpdateActiveSessions(r.connectedLocked())

	authorized, err := client.IsAuthorized(ctx)
	if err != nil {
		return nil, err
	}
	if authorized {
		r.logger.Info().Str("phone", logger.MaskPhone(account.Phone)).Msg("session restored")
		return &domain.AuthResult{
			Phase:       domain.AuthPhaseAuthorized,
			SessionFile: client.SessionFile(),
		}, nil
	}

	hash, err := client.SendCode(ctx)
	if err != nil {
		r.metrics.RecordAuthError("send_code")
		return nil, err
	}
	h.phoneCodeHash = hash

	r.logger.Info().Str("phone", logger.MaskPhone(account.Phone)).Msg("code challenge started")
	return &domain.AuthResult{Phase: domain.AuthPhaseCodeSent}, nil
}

// VerifyCode completes a pending code challenge. A 2FA-protected
// account yields AuthPhasePasswordRequired and keeps the handle open
// for VerifyPassword.
func (r *Registry) VerifyCode(ctx context.Context, accountID uint, code string) (*domain.AuthResult, error) {
	r.mu.Lock()
	h, exists := r.handles[accountID]
	r.mu.Unlock()

	if !exists || h.phoneCodeHash == "" {
		return nil, domain.ErrNoPendingLogin
	}

	err := h.client.SignIn(ctx, code, h.phoneCodeHash)
	if errors.Is(err, ErrPasswordRequired) {
		return &domain.AuthResult{Phase: domain.AuthPhasePasswordRequired}, nil
	}
	if err != nil {
		r.metrics.RecordAuthError("sign_in")
		return nil, err
	}

	r.mu.Lock()
	h.phoneCodeHash = ""
	r.mu.Unlock()

	return &domain.AuthResult{
		Phase:       domain.AuthPhaseAuthorized,
		SessionFile: h.client.SessionFile(),
	}, nil
}

// VerifyPassword completes a pending 2FA challenge
func (r *Registry) VerifyPassword(ctx context.Context, accountID uint, password string) (*domain.AuthResult, error) {
	r.mu.Lock()
	h, exists := r.handles[accountID]
	r.mu.Unlock()

	if !exists {
		return nil, domain.ErrNoPendingLogin
	}

	if err := h.client.Password(ctx, password); err != nil {
		r.metrics.RecordAuthError("password")
		return nil, err
	}

	r.mu.Lock()
	h.phoneCodeHash = ""
	r.mu.Unlock()

	return &domain.AuthResult{
		Phase:       domain.AuthPhaseAuthorized,
		SessionFile: h.client.SessionFile(),
	}, nil
}

// IsAuthorized reports whether the account has a usable session
func (r *Registry) IsAuthorized(ctx context.Context, accountID uint) bool {
	client, err := r.Acquire(ctx, accountID)
	if err != nil {
		return false
	}
	authorized, err := client.IsAuthorized(ctx)
	return err == nil && authorized
}

// Logout signs the account out server-side, discards the session
// artifact and drops the handle
func (r *Registry) Logout(ctx context.Context, accountID uint) error {
	account, err := r.resolveAccount(ctx, accountID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	h, exists := r.handles[account.ID]
	if exists {
		delete(r.handles, account.ID)
	}
	r.mu.Unlock()

	if !exists {
		client, err := r.newClient(account)
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err = client.Connect(connectCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		h = &handle{client: client}
	}

	if err := h.client.LogOut(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("server-side logout failed")
	}

	disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.client.Disconnect(disconnectCtx); err != nil {
		r.logger.Warn().Err(err).Msg("disconnect failed during logout")
	}

	if err := h.client.sessionStorage.DeleteSession(); err != nil {
		r.logger.Warn().Err(err).Msg("failed to delete session artifact")
	}

	r.mu.Lock()
	r.metrics.UpdateActiveSessions(r.connectedLocked())
	r.mu.Unlock()

	r.logger.Info().Str("phone", logger.MaskPhone(account.Phone)).Msg("logged out")
	return nil
}

// Release closes the account's handle without signing out
func (r *Registry) Release(accountID uint) {
	r.mu.Lock()
	h, exists := r.handles[accountID]
	if exists {
		delete(r.handles, accountID)
	}
	count := r.connectedLocked()
	r.mu.Unlock()

	if !exists {
		return
	}

	disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.client.Disconnect(disconnectCtx); err != nil {
		r.logger.Warn().Err(err).Uint("account_id", accountID).Msg("disconnect failed during release")
	}
	r.metrics.UpdateActiveSessions(count)
}

// ActiveSessions reports how many handles hold a live connection
func (r *Registry) ActiveSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectedLocked()
}

// connectedLocked counts connected handles; caller holds r.mu
func (r *Registry) connectedLocked() int {
	count := 0
	for _, h := range r.handles {
		if h.client.IsConnected() {
			count++
		}
	}
	return count
}

// Ensure Registry implements domain.SessionRegistry
var _ domain.SessionRegistry = (*Registry)(nil)
