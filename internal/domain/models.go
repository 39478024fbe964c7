package domain

import "time"

// TaskType discriminates the two collection pipelines
type TaskType string

const (
	TaskTypeBotSearch     TaskType = "bot_search"
	TaskTypeDirectCollect TaskType = "direct_collect"
)

// TaskStatus is the externally visible task lifecycle state
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusStopped   TaskStatus = "stopped"
)

// CollectMode selects which collection phases a direct_collect task runs
type CollectMode string

const (
	CollectModeBoth         CollectMode = "both"
	CollectModeHistoryOnly  CollectMode = "history_only"
	CollectModeRealtimeOnly CollectMode = "realtime_only"
)

// MediaType classifies a captured message's attachment
type MediaType string

const (
	MediaTypeText     MediaType = "text"
	MediaTypePhoto    MediaType = "photo"
	MediaTypeVideo    MediaType = "video"
	MediaTypeDocument MediaType = "document"
	MediaTypeAudio    MediaType = "audio"
	MediaTypeOther    MediaType = "other"
)

// Account represents a Telegram account managed by the service
type Account struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	APIID       int       `gorm:"not null" json:"api_id"`
	APIHash     string    `gorm:"size:64;not null" json:"-"`
	Phone       string    `gorm:"size:32;not null;index" json:"phone"`
	SessionFile string    `gorm:"size:512" json:"session_file"`
	IsActive    bool      `gorm:"not null;default:false;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PaginationConfig drives bot reply paging during bot_search
type PaginationConfig struct {
	NextButtonText string `json:"next_button_text"`
	MaxPages       int    `json:"max_pages"`
}

// APIConfig describes the outbound push target for captured messages
type APIConfig struct {
	URL          string            `json:"url"`
	Method       string            `json:"method"`
	ParamMapping map[string]string `json:"param_mapping"`
}

// Task is a durable collection job definition
type Task struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	AccountID        uint              `gorm:"not null;index" json:"account_id"`
	Name             string            `gorm:"size:255;not null" json:"name"`
	TaskType         TaskType          `gorm:"size:32;not null;default:bot_search" json:"task_type"`
	BotUsername      string            `gorm:"size:255" json:"bot_username"`
	SearchKeywords   []string          `gorm:"serializer:json" json:"search_keywords"`
	TargetGroups     []string          `gorm:"serializer:json" json:"target_groups"`
	GroupRegex       string            `gorm:"size:512" json:"group_regex"`
	MessageRegex     string            `gorm:"size:512" json:"message_regex"`
	CollectMode      CollectMode       `gorm:"size:32;not null;default:both" json:"collect_mode"`
	HistoryLimit     int               `gorm:"not null;default:1000" json:"history_limit"`
	PaginationConfig *PaginationConfig `gorm:"serializer:json" json:"pagination_config"`
	APIConfig        *APIConfig        `gorm:"serializer:json" json:"api_config"`
	Status           TaskStatus        `gorm:"size:32;not null;default:pending;index" json:"status"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// Group is a discovered or targeted channel/group
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TaskID      uint      `gorm:"not null;index" json:"task_id"`
	TelegramID  int64     `gorm:"not null;uniqueIndex" json:"telegram_id"`
	Title       string    `gorm:"size:255" json:"title"`
	Username    string    `gorm:"size:255" json:"username"`
	Description string    `gorm:"type:text" json:"description"`
	MemberCount int       `gorm:"not null;default:0" json:"member_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Message is one captured unit of content
type Message struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	GroupID           uint      `gorm:"not null;uniqueIndex:uq_group_message;index" json:"group_id"`
	TelegramMessageID int64     `gorm:"not null;uniqueIndex:uq_group_message" json:"telegram_message_id"`
	SenderID          int64     `json:"sender_id"`
	SenderName        string    `gorm:"size:255" json:"sender_name"`
	Content           string    `gorm:"type:text" json:"content"`
	MediaType         MediaType `gorm:"size:16;not null;default:text" json:"media_type"`
	MessageDate       time.Time `json:"message_date"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Populated on joined reads only
	GroupTitle    string `gorm:"->;-:migration" json:"group_title,omitempty"`
	GroupUsername string `gorm:"->;-:migration" json:"group_username,omitempty"`
}

// DeliveryLog records one outbound push outcome
type DeliveryLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TaskID      uint      `gorm:"not null;index" json:"task_id"`
	MessageID   uint      `gorm:"index" json:"message_id"`
	URL         string    `gorm:"size:1024;not null" json:"url"`
	Method      string    `gorm:"size:8;not null" json:"method"`
	RequestData string    `gorm:"type:text" json:"request_data"`
	StatusCode  int       `json:"status_code"`
	Response    string    `gorm:"type:text" json:"response"`
	Success     bool      `gorm:"not null;default:false;index" json:"success"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// GroupInfo is what the protocol client reports after resolving a group
type GroupInfo struct {
	TelegramID  int64
	Title       string
	Username    string
	Description string
	MemberCount int
}

// CollectedMessage is the wire-independent shape of one fetched or
// pushed-in message, shared by history backfill and the live listener
type CollectedMessage struct {
	TelegramMessageID int64     `json:"telegram_message_id"`
	SenderID          int64     `json:"sender_id"`
	SenderName        string    `json:"sender_name"`
	Content           string    `json:"content"`
	MediaType         MediaType `json:"media_type"`
	Date              time.Time `json:"message_date"`
}

// BotReply is one message read back from a search bot
type BotReply struct {
	MessageID int64
	Text      string
	Date      time.Time
}

// AuthPhase is the discriminated outcome of a login/verify step
type AuthPhase string

const (
	AuthPhaseAuthorized       AuthPhase = "authorized"
	AuthPhaseCodeSent         AuthPhase = "code_sent"
	AuthPhasePasswordRequired AuthPhase = "password_required"
)

// AuthResult reports the outcome of a Session Registry auth step
type AuthResult struct {
	Phase       AuthPhase
	SessionFile string
}

// TaskRunState is the orchestrator's externally queryable view of one task
type TaskRunState struct {
	TaskID    uint       `json:"task_id"`
	Status    TaskStatus `json:"status"`
	IsRunning bool       `json:"is_running"`
	Listening bool       `json:"listening"`
}

// GroupFilter narrows group list queries
type GroupFilter struct {
	TaskID  uint
	Keyword string
}

// MessageFilter narrows message list queries
type MessageFilter struct {
	GroupID   uint
	Keyword   string
	StartDate *time.Time
	EndDate   *time.Time
}
