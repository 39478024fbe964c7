package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// ExportResult carries a rendered export file
type ExportResult struct {
	ContentType string
	Filename    string
	Data        []byte
}

// SearchResult bundles the matches of a cross-entity keyword search
type SearchResult struct {
	Groups   []domain.Group   `json:"groups"`
	Messages []domain.Message `json:"messages"`
}

// DataService serves collected data: listing, search, export and
// delivery logs
type DataService struct {
	store        domain.CollectionStore
	deliveryRepo domain.DeliveryLogRepository
	logger       zerolog.Logger
}

// NewDataService creates a new data service
func NewDataService(
	store domain.CollectionStore,
	deliveryRepo domain.DeliveryLogRepository,
	log zerolog.Logger,
) *DataService {
	return &DataService{
		store:        store,
		deliveryRepo: deliveryRepo,
		logger:       log.With().Str("component", "data_service").Logger(),
	}
}

// ListGroups returns groups matching the filter, paginated
func (s *DataService) ListGroups(ctx context.Context, filter domain.GroupFilter, page, pageSize int) ([]domain.Group, int64, error) {
	return s.store.ListGroups(ctx, filter, page, pageSize)
}

// ListMessages returns messages matching the filter, paginated
func (s *DataService) ListMessages(ctx context.Context, filter domain.MessageFilter, page, pageSize int) ([]domain.Message, int64, error) {
	return s.store.ListMessages(ctx, filter, page, pageSize)
}

// Search runs one keyword across both groups and messages
func (s *DataService) Search(ctx context.Context, keyword string, page, pageSize int) (*SearchResult, error) {
	groups, _, err := s.store.ListGroups(ctx, domain.GroupFilter{Keyword: keyword}, page, pageSize)
	if err != nil {
		return nil, err
	}
	messages, _, err := s.store.ListMessages(ctx, domain.MessageFilter{Keyword: keyword}, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Groups: groups, Messages: messages}, nil
}

// DeliveryLogs returns push outcomes for one task, newest first
func (s *DataService) DeliveryLogs(ctx context.Context, taskID uint, page, pageSize int) ([]domain.DeliveryLog, int64, error) {
	return s.deliveryRepo.ListByTask(ctx, taskID, page, pageSize)
}

// exportPageSize bounds how much one export reads per store round trip
const exportPageSize = 1000

// Export renders all groups or messages as CSV or JSON
func (s *DataService) Export(ctx context.Context, dataType, format string) (*ExportResult, error) {
	switch dataType {
	case "groups":
		groups, err := s.allGroups(ctx)
		if err != nil {
			return nil, err
		}
		return s.renderGroups(groups, format)
	case "messages":
		messages, err := s.allMessages(ctx)
		if err != nil {
			return nil, err
		}
		return s.renderMessages(messages, format)
	default:
		return nil, fmt.Errorf("unsupported export type: %s", dataType)
	}
}

func (s *DataService) allGroups(ctx context.Context) ([]domain.Group, error) {
	var all []domain.Group
	for page := 1; ; page++ {
		batch, _, err := s.store.ListGroups(ctx, domain.GroupFilter{}, page, exportPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < exportPageSize {
			return all, nil
		}
	}
}

func (s *DataService) allMessages(ctx context.Context) ([]domain.Message, error) {
	var all []domain.Message
	for page := 1; ; page++ {
		batch, _, err := s.store.ListMessages(ctx, domain.MessageFilter{}, page, exportPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < exportPageSize {
			return all, nil
		}
	}
}

func (s *DataService) renderGroups(groups []domain.Group, format string) (*ExportResult, error) {
	timestamp := time.Now().Format("20060102_150405")

	switch format {
	case "json":
		data, err := json.MarshalIndent(groups, "", "  ")
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			ContentType: "application/json",
			Filename:    "groups_" + timestamp + ".json",
			Data:        data,
		}, nil

	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"id", "task_id", "telegram_id", "title", "username", "description", "member_count", "created_at"})
		for _, g := range groups {
			_ = w.Write([]string{
				strconv.FormatUint(uint64(g.ID), 10),
				strconv.FormatUint(uint64(g.TaskID), 10),
				strconv.FormatInt(g.TelegramID, 10),
				g.Title,
				g.Username,
				g.Description,
				strconv.Itoa(g.MemberCount),
				g.CreatedAt.Format(time.RFC3339),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return &ExportResult{
			ContentType: "text/csv",
			Filename:    "groups_" + timestamp + ".csv",
			Data:        buf.Bytes(),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func (s *DataService) renderMessages(messages []domain.Message, format string) (*ExportResult, error) {
	timestamp := time.Now().Format("20060102_150405")

	switch format {
	case "json":
		data, err := json.MarshalIndent(messages, "", "  ")
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			ContentType: "application/json",
			Filename:    "messages_" + timestamp + ".json",
			Data:        data,
		}, nil

	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"id", "group_id", "group_title", "telegram_message_id", "sender_id", "sender_name", "content", "media_type", "message_date"})
		for _, m := range messages {
			_ = w.Write([]string{
				strconv.FormatUint(uint64(m.ID), 10),
				strconv.FormatUint(uint64(m.GroupID), 10),
				m.GroupTitle,
				strconv.FormatInt(m.TelegramMessageID, 10),
				strconv.FormatInt(m.SenderID, 10),
				m.SenderName,
				m.Content,
				string(m.MediaType),
				m.MessageDate.Format(time.RFC3339),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return &ExportResult{
			ContentType: "text/csv",
			Filename:    "messages_" + timestamp + ".csv",
			Data:        buf.Bytes(),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}
