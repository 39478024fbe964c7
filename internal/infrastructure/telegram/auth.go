package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// ErrPasswordRequired signals that the account has 2FA enabled and the
// sign-in must continue with VerifyPassword.
var ErrPasswordRequired = errors.New("two-factor password required")

// SendCode starts a phone-code challenge and returns the code hash the
// eventual SignIn call must echo back.
func (c *MTProtoClient) SendCode(ctx context.Context) (string, error) {
	c.mu.RLock()
	client := c.client
	connected := c.connected
	c.mu.RUnlock()

	if !connected || client == nil {
		return "", domain.ErrNotConnected
	}

	sent, err := client.Auth().SendCode(ctx, c.phone, auth.SendCodeOptions{})
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to send code")
		return "", classifyAuthError(err)
	}

	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("unexpected sent code type %T", sent)
	}

	c.logger.Info().Msg("authentication code sent")
	return code.PhoneCodeHash, nil
}

// SignIn completes a phone-code challenge. ErrPasswordRequired means
// the account has 2FA enabled and the session stays pending.
func (c *MTProtoClient) SignIn(ctx context.Context, code, phoneCodeHash string) error {
	c.mu.RLock()
	client := c.client
	connected := c.connected
	c.mu.RUnlock()

	if !connected || client == nil {
		return domain.ErrNotConnected
	}

	_, err := client.Auth().SignIn(ctx, c.phone, code, phoneCodeHash)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordAuthNeeded) {
			c.logger.Info().Msg("2FA is enabled, password required")
			return ErrPasswordRequired
		}
		c.logger.Error().Err(err).Msg("sign in failed")
		return classifyAuthError(err)
	}

	c.logger.Info().Msg("signed in")
	return nil
}

// Password completes a pending 2FA challenge
func (c *MTProtoClient) Password(ctx context.Context, password string) error {
	c.mu.RLock()
	client := c.client
	connected := c.connected
	c.mu.RUnlock()

	if !connected || client == nil {
		return domain.ErrNotConnected
	}

	if _, err := client.Auth().Password(ctx, password); err != nil {
		c.logger.Error().Err(err).Msg("2FA authentication failed")
		return classifyAuthError(err)
	}

	c.logger.Info().Msg("2FA authentication successful")
	return nil
}

// LogOut signs the session out on the server side
func (c *MTProtoClient) LogOut(ctx context.Context) error {
	api, err := c.checkReady()
	if err != nil {
		return err
	}

	if _, err := api.AuthLogOut(ctx); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}

	c.logger.Info().Msg("logged out")
	return nil
}

// classifyAuthError maps raw Telegram RPC errors onto stable,
// user-reportable errors
func classifyAuthError(err error) error {
	var rpcErr *tgerr.Error
	if errors.As(err, &rpcErr) && rpcErr.Code == 420 {
		return fmt.Errorf("rate limited, retry in %d seconds: %w", rpcErr.Argument, err)
	}

	switch {
	case tgerr.Is(err, "PHONE_CODE_INVALID"):
		return fmt.Errorf("invalid verification code: %w", err)
	case tgerr.Is(err, "PHONE_CODE_EXPIRED"):
		return fmt.Errorf("verification code expired: %w", err)
	case tgerr.Is(err, "PASSWORD_HASH_INVALID"):
		return fmt.Errorf("invalid two-factor password: %w", err)
	case tgerr.Is(err, "PHONE_NUMBER_INVALID"):
		return fmt.Errorf("invalid phone number: %w", err)
	case tgerr.Is(err, "PHONE_NUMBER_BANNED"):
		return fmt.Errorf("phone number banned: %w", err)
	case tgerr.Is(err, "SESSION_REVOKED"):
		return fmt.Errorf("session revoked, log in again: %w", err)
	default:
		return err
	}
}
