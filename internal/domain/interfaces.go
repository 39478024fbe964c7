package domain

import "context"

// TelegramClient defines the narrow protocol-client surface the pipelines
// drive. One implementation wraps a live gotd MTProto session; tests use
// in-memory fakes.
type TelegramClient interface {
	// IsAuthorized reports whether the underlying session is signed in
	IsAuthorized(ctx context.Context) (bool, error)

	// SendText sends a plain text message to a peer (bot or group)
	SendText(ctx context.Context, peer string, body string) error

	// FetchRecent reads the most recent messages of a dialog, newest first
	FetchRecent(ctx context.Context, peer string, limit int) ([]BotReply, error)

	// Resolve resolves a group identifier (URL, @handle, bare name or
	// invite hash) without joining it
	Resolve(ctx context.Context, identifier string) (*GroupInfo, error)

	// Join resolves a group identifier and joins it when not already a
	// member; invite-hash identifiers are imported
	Join(ctx context.Context, identifier string) (*GroupInfo, error)

	// FetchHistory reads up to limit past messages of a group, newest first
	FetchHistory(ctx context.Context, groupID int64, limit int) ([]CollectedMessage, error)

	// RegisterMessageHandler installs a live callback for new messages in
	// the given group; the callback runs until the handle is closed
	RegisterMessageHandler(groupID int64, fn func(CollectedMessage)) (ListenerHandle, error)
}

// ListenerHandle identifies one installed live listener
type ListenerHandle interface {
	// Close removes the listener; safe to call more than once
	Close()
}

// SessionRegistry owns at most one live client handle per account
type SessionRegistry interface {
	// Acquire returns a connected, authorized client for the account.
	// accountID 0 resolves the currently active account.
	Acquire(ctx context.Context, accountID uint) (TelegramClient, error)

	// Login opens a fresh handle for the account, discarding any stale
	// in-memory handle, and either confirms prior authorization or
	// triggers a one-time-code challenge
	Login(ctx context.Context, account *Account) (*AuthResult, error)

	// VerifyCode completes a pending code challenge on the handle opened
	// by Login; a 2FA account yields AuthPhasePasswordRequired and keeps
	// the handle open
	VerifyCode(ctx context.Context, accountID uint, code string) (*AuthResult, error)

	// VerifyPassword completes a pending 2FA challenge
	VerifyPassword(ctx context.Context, accountID uint, password string) (*AuthResult, error)

	// IsAuthorized reports whether the account has a usable session,
	// reconnecting from the persisted artifact when needed
	IsAuthorized(ctx context.Context, accountID uint) bool

	// Logout signs the account out and discards its handle
	Logout(ctx context.Context, accountID uint) error

	// Release closes the account's handle without signing out
	Release(accountID uint)
}

// AccountRepository stores Account records
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uint) (*Account, error)
	GetActive(ctx context.Context) (*Account, error)
	List(ctx context.Context) ([]Account, error)
	UpdateSessionFile(ctx context.Context, id uint, sessionFile string) error
	SetActive(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

// TaskRepository stores Task records
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id uint) (*Task, error)
	List(ctx context.Context, page, pageSize int) ([]Task, int64, error)
	Update(ctx context.Context, task *Task) error
	UpdateStatus(ctx context.Context, id uint, status TaskStatus) error
	Delete(ctx context.Context, id uint) error
}

// CollectionStore persists discovered groups and captured messages.
// Create operations are idempotent on the natural key: a conflicting
// insert reports created=false and loads the existing record into the
// passed struct.
type CollectionStore interface {
	CreateGroup(ctx context.Context, group *Group) (created bool, err error)
	GetGroupByTelegramID(ctx context.Context, telegramID int64) (*Group, error)
	ListGroups(ctx context.Context, filter GroupFilter, page, pageSize int) ([]Group, int64, error)
	CreateMessage(ctx context.Context, message *Message) (created bool, err error)
	ListMessages(ctx context.Context, filter MessageFilter, page, pageSize int) ([]Message, int64, error)
}

// DeliveryLogRepository stores outbound push outcomes
type DeliveryLogRepository interface {
	Create(ctx context.Context, log *DeliveryLog) error
	ListByTask(ctx context.Context, taskID uint, page, pageSize int) ([]DeliveryLog, int64, error)
}

// Pusher forwards one captured message to an external API target.
// It never returns an error: delivery failures are bounded-retried,
// recorded, and reported as a boolean.
type Pusher interface {
	Push(ctx context.Context, msg *CollectedMessage, cfg *APIConfig, taskID, messageID uint) bool
}

// EventPublisher streams freshly persisted messages to an event bus.
// Implementations must tolerate being absent (nil dependency).
type EventPublisher interface {
	PublishMessage(ctx context.Context, group *Group, message *Message) error
	Close() error
}
