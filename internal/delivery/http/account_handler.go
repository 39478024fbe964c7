package http

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/usecase"
	"github.com/omniores3/pythonGroupTools/pkg/httputil"
)

// StartLoginRequest starts a login flow for a phone number.
// APIID/APIHash override the service credentials when set.
type StartLoginRequest struct {
	Phone   string `json:"phone"`
	APIID   int    `json:"api_id,omitempty"`
	APIHash string `json:"api_hash,omitempty"`
}

// VerifyRequest carries either a login code or a 2FA password
type VerifyRequest struct {
	Code     string `json:"code,omitempty"`
	Password string `json:"password,omitempty"`
}

// AuthStepResponse reports where the login flow stands after a step
type AuthStepResponse struct {
	AccountID   uint   `json:"account_id"`
	Phase       string `json:"phase"`
	SessionFile string `json:"session_file,omitempty"`
}

// AccountHandler handles account and authentication HTTP requests
type AccountHandler struct {
	accounts *usecase.AccountService
	logger   zerolog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *usecase.AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logger.With().Str("handler", "account").Logger(),
	}
}

// StartLogin handles POST /api/auth/accounts
func (h *AccountHandler) StartLogin(ctx *fasthttp.RequestCtx) {
	var req StartLoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		httputil.WriteErrorResponse(ctx, "invalid request body", fasthttp.StatusBadRequest)
		return
	}

	if req.Phone == "" {
		httputil.WriteErrorResponse(ctx, "phone is required", fasthttp.StatusBadRequest)
		return
	}

	account, result, err := h.accounts.StartLogin(ctx, req.Phone, req.APIID, req.APIHash)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to start login")
		h.handleError(ctx, err)
		return
	}

	httputil.WriteResponseWithStatus(ctx, AuthStepResponse{
		AccountID:   account.ID,
		Phase:       string(result.Phase),
		SessionFile: result.SessionFile,
	}, fasthttp.StatusCreated)
}

// List handles GET /api/auth/accounts
func (h *AccountHandler) List(ctx *fasthttp.RequestCtx) {
	accounts, err := h.accounts.List(ctx)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, accounts)
}

// Verify handles POST /api/auth/accounts/{id}/verify.
// A code advances a code challenge, a password completes 2FA.
func (h *AccountHandler) Verify(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}

	var req VerifyRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		httputil.WriteErrorResponse(ctx, "invalid request body", fasthttp.StatusBadRequest)
		return
	}

	var result *domain.AuthResult
	switch {
	case req.Code != "":
		result, err = h.accounts.VerifyCode(ctx, id, req.Code)
	case req.Password != "":
		result, err = h.accounts.VerifyPassword(ctx, id, req.Password)
	default:
		httputil.WriteErrorResponse(ctx, "code or password is required", fasthttp.StatusBadRequest)
		return
	}

	if err != nil {
		h.logger.Warn().Err(err).Uint("account_id", id).Msg("verification failed")
		h.handleError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, AuthStepResponse{
		AccountID:   id,
		Phase:       string(result.Phase),
		SessionFile: result.SessionFile,
	})
}

// Activate handles POST /api/auth/accounts/{id}/activate
func (h *AccountHandler) Activate(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}

	if err := h.accounts.Activate(ctx, id); err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, map[string]uint{"active_account_id": id})
}

// Delete handles DELETE /api/auth/accounts/{id}
func (h *AccountHandler) Delete(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}

	if err := h.accounts.Delete(ctx, id); err != nil {
		h.handleError(ctx, err)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

// handleError maps domain errors to HTTP status codes
func (h *AccountHandler) handleError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		httputil.WriteErrorResponse(ctx, "account not found", fasthttp.StatusNotFound)
	case errors.Is(err, domain.ErrNoPendingLogin):
		httputil.WriteErrorResponse(ctx, "no pending login for account", fasthttp.StatusConflict)
	case errors.Is(err, domain.ErrNotAuthorized):
		httputil.WriteErrorResponse(ctx, "account is not authorized", fasthttp.StatusUnauthorized)
	case errors.Is(err, domain.ErrNotConnected):
		httputil.WriteErrorResponse(ctx, "not connected to Telegram", fasthttp.StatusBadGateway)
	default:
		httputil.WriteError(ctx, err, fasthttp.StatusInternalServerError)
	}
}
