package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/logger"
)

// MTProtoClient implements domain.TelegramClient using gotd/td library.
// One instance owns one live MTProto session for one account.
type MTProtoClient struct {
	client *telegram.Client

	// API credentials
	apiID   int
	apiHash string
	phone   string

	sessionStorage *FileSessionStorage

	// Connection state
	connected     bool
	disconnecting bool
	mu            sync.RWMutex
	cancelFunc    context.CancelFunc
	runDone       chan struct{} // Signals when client.Run() completes

	logger zerolog.Logger

	// API client for making requests
	api    *tg.Client
	sender *message.Sender

	// Rate limiter for API calls
	rateLimiter *rate.Limiter

	// Resolved peer cache, keyed by Telegram numeric ID and by username
	peerMu      sync.RWMutex
	peersByID   map[int64]tg.InputPeerClass
	peersByName map[string]tg.InputPeerClass

	// Live message listeners, keyed by group Telegram ID
	listenerMu sync.RWMutex
	listeners  map[int64]map[uint64]func(domain.CollectedMessage)
	nextHandle uint64
}

// MTProtoClientConfig holds configuration for MTProtoClient
type MTProtoClientConfig struct {
	APIID      int
	APIHash    string
	Phone      string
	SessionDir string
	Logger     zerolog.Logger
}

// NewMTProtoClient creates a new MTProto client instance
func NewMTProtoClient(cfg MTProtoClientConfig) (*MTProtoClient, error) {
	if cfg.APIID == 0 {
		return nil, fmt.Errorf("APIID is required")
	}
	if cfg.APIHash == "" {
		return nil, fmt.Errorf("APIHash is required")
	}
	if cfg.Phone == "" {
		return nil, fmt.Errorf("Phone is required")
	}
	if cfg.SessionDir == "" {
		cfg.SessionDir = "./data/sessions"
	}

	sessionStorage, err := NewFileSessionStorage(cfg.SessionDir, cfg.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to create session storage: %w", err)
	}

	return &MTProtoClient{
		apiID:          cfg.APIID,
		apiHash:        cfg.APIHash,
		phone:          cfg.Phone,
		sessionStorage: sessionStorage,
		logger: cfg.Logger.With().
			Str("component", "mtproto_client").
			Str("phone", logger.MaskPhone(cfg.Phone)).
			Logger(),
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 10),
		peersByID:   make(map[int64]tg.InputPeerClass),
		peersByName: make(map[string]tg.InputPeerClass),
		listeners:   make(map[int64]map[uint64]func(domain.CollectedMessage)),
	}, nil
}

// SessionFile returns the path of the persisted session artifact
func (c *MTProtoClient) SessionFile() string {
	return c.sessionStorage.FilePath()
}

// DiscardSession removes the persisted session artifact so the next
// connection starts unauthorized
func (c *MTProtoClient) DiscardSession() error {
	return c.sessionStorage.DeleteSession()
}

// Connect establishes the MTProto transport. It does not sign the
// account in: authorization either carries over from the persisted
// session or is driven step by step through SendCode/SignIn/Password.
// The caller should provide a context with timeout to prevent
// indefinite hanging.
func (c *MTProtoClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		c.logger.Debug().Msg("already connected")
		return nil
	}
	if c.disconnecting {
		c.mu.Unlock()
		return fmt.Errorf("disconnect in progress, cannot connect")
	}
	// Keep the lock to prevent concurrent connection attempts
	defer c.mu.Unlock()

	c.logger.Info().Msg("connecting to Telegram")

	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewChannelMessage(c.onNewChannelMessage)
	dispatcher.OnNewMessage(c.onNewMessage)

	c.client = telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		SessionStorage: c.sessionStorage,
		UpdateHandler:  dispatcher,
	})

	clientCtx, cancel := context.WithCancel(context.Background())
	c.cancelFunc = cancel

	readyChan := make(chan struct{})
	errChan := make(chan error, 1)
	c.runDone = make(chan struct{})

	go func() {
		defer close(c.runDone)
		err := c.client.Run(clientCtx, func(ctx context.Context) error {
			c.api = c.client.API()
			c.sender = message.NewSender(c.api)
			c.connected = true
			close(readyChan)

			// Keep connection alive until Disconnect cancels the context
			<-ctx.Done()
			return ctx.Err()
		})
		select {
		case errChan <- err:
		default:
		}
	}()

	select {
	case <-readyChan:
		c.logger.Info().Msg("connected to Telegram")
		return nil
	case err := <-errChan:
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// Disconnect tears the transport down gracefully. The session is saved
// by the underlying gotd/td client before shutdown. Safe to call more
// than once and safe for concurrent use.
func (c *MTProtoClient) Disconnect(ctx context.Context) error {
	c.mu.Lock()

	if c.disconnecting {
		c.mu.Unlock()
		return nil
	}
	if !c.connected {
		c.mu.Unlock()
		return nil
	}

	c.logger.Info().Msg("disconnecting from Telegram")
	c.disconnecting = true
	cancelFunc := c.cancelFunc
	runDone := c.runDone
	c.mu.Unlock()

	if cancelFunc != nil {
		cancelFunc()
		if runDone != nil {
			select {
			case <-runDone:
				c.logger.Debug().Msg("client stopped gracefully")
			case <-ctx.Done():
				c.logger.Warn().Msg("disconnect timeout reached while waiting for client shutdown")
			}
		}
	}

	c.mu.Lock()
	c.client = nil
	c.api = nil
	c.sender = nil
	c.connected = false
	c.cancelFunc = nil
	c.runDone = nil
	c.disconnecting = false
	c.mu.Unlock()

	c.logger.Info().Msg("disconnected from Telegram")
	return nil
}

// IsConnected checks if client is connected to Telegram
func (c *MTProtoClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// IsAuthorized reports whether the underlying session is signed in
func (c *MTProtoClient) IsAuthorized(ctx context.Context) (bool, error) {
	c.mu.RLock()
	client := c.client
	connected := c.connected
	c.mu.RUnlock()

	if !connected || client == nil {
		return false, domain.ErrNotConnected
	}

	status, err := client.Auth().Status(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check auth status: %w", err)
	}
	return status.Authorized, nil
}

// checkReady returns the API handle if the client is connected
func (c *MTProtoClient) checkReady() (*tg.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected || c.api == nil {
		return nil, domain.ErrNotConnected
	}
	return c.api, nil
}

// SendText sends a plain text message to a peer (bot or group)
func (c *MTProtoClient) SendText(ctx context.Context, peer string, body string) error {
	if _, err := c.checkReady(); err != nil {
		return err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	inputPeer, err := c.resolvePeer(ctx, peer)
	if err != nil {
		return err
	}

	c.mu.RLock()
	sender := c.sender
	c.mu.RUnlock()
	if sender == nil {
		return domain.ErrNotConnected
	}

	if _, err := sender.To(inputPeer).Text(ctx, body); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	c.logger.Debug().Str("peer", peer).Msg("message sent")
	return nil
}

// FetchRecent reads the most recent messages of a dialog, newest first
func (c *MTProtoClient) FetchRecent(ctx context.Context, peer string, limit int) ([]domain.BotReply, error) {
	api, err := c.checkReady()
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	inputPeer, err := c.resolvePeer(ctx, peer)
	if err != nil {
		return nil, err
	}

	result, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  inputPeer,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	var replies []domain.BotReply
	for _, msg := range extractMessages(result) {
		replies = append(replies, domain.BotReply{
			MessageID: int64(msg.ID),
			Text:      msg.Message,
			Date:      time.Unix(int64(msg.Date), 0),
		})
	}

	c.logger.Debug().Str("peer", peer).Int("count", len(replies)).Msg("fetched recent messages")
	return replies, nil
}

// FetchHistory reads up to limit past messages of a group, newest first.
// Telegram caps one request at 100 messages, so larger limits page
// through the history with a moving offset.
func (c *MTProtoClient) FetchHistory(ctx context.Context, groupID int64, limit int) ([]domain.CollectedMessage, error) {
	api, err := c.checkReady()
	if err != nil {
		return nil, err
	}

	inputPeer, err := c.peerByID(groupID)
	if err != nil {
		return nil, err
	}

	const pageSize = 100

	var collected []domain.CollectedMessage
	offsetID := 0
	for len(collected) < limit {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}

		want := limit - len(collected)
		if want > pageSize {
			want = pageSize
		}

		result, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     inputPeer,
			OffsetID: offsetID,
			Limit:    want,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get history: %w", err)
		}

		batch := extractMessages(result)
		if len(batch) == 0 {
			break
		}

		users := extractUsers(result)
		for _, msg := range batch {
			collected = append(collected, convertMessage(msg, users))
			offsetID = msg.ID
		}

		if len(batch) < want {
			break
		}
	}

	c.logger.Debug().Int64("group_id", groupID).Int("count", len(collected)).Msg("fetched history")
	return collected, nil
}

// extractMessages pulls concrete messages out of a history response
func extractMessages(result tg.MessagesMessagesClass) []*tg.Message {
	var raw []tg.MessageClass
	switch messages := result.(type) {
	case *tg.MessagesChannelMessages:
		raw = messages.Messages
	case *tg.MessagesMessagesSlice:
		raw = messages.Messages
	case *tg.MessagesMessages:
		raw = messages.Messages
	}

	out := make([]*tg.Message, 0, len(raw))
	for _, m := range raw {
		if msg, ok := m.(*tg.Message); ok {
			out = append(out, msg)
		}
	}
	return out
}

// extractUsers indexes the users attached to a history response by ID
func extractUsers(result tg.MessagesMessagesClass) map[int64]*tg.User {
	var raw []tg.UserClass
	switch messages := result.(type) {
	case *tg.MessagesChannelMessages:
		raw = messages.Users
	case *tg.MessagesMessagesSlice:
		raw = messages.Users
	case *tg.MessagesMessages:
		raw = messages.Users
	}

	users := make(map[int64]*tg.User, len(raw))
	for _, u := range raw {
		if user, ok := u.(*tg.User); ok {
			users[user.ID] = user
		}
	}
	return users
}

// Ensure MTProtoClient implements domain.TelegramClient interface
var _ domain.TelegramClient = (*MTProtoClient)(nil)
