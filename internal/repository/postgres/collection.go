package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// CollectionStore implements domain.CollectionStore using gorm.
// Group and message inserts are idempotent on their natural keys:
// conflicting rows are left untouched and the existing record is
// loaded back, so re-running a task never duplicates data.
type CollectionStore struct {
	db *gorm.DB
}

// NewCollectionStore creates a new collection store
func NewCollectionStore(db *gorm.DB) domain.CollectionStore {
	return &CollectionStore{db: db}
}

// CreateGroup inserts a group unless its telegram_id already exists
func (s *CollectionStore) CreateGroup(ctx context.Context, group *domain.Group) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "telegram_id"}},
			DoNothing: true,
		}).
		Create(group)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create group: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var existing domain.Group
		if err := s.db.WithContext(ctx).
			Where("telegram_id = ?", group.TelegramID).
			First(&existing).Error; err != nil {
			return false, fmt.Errorf("failed to load existing group: %w", err)
		}
		*group = existing
		return false, nil
	}

	return true, nil
}

// GetGroupByTelegramID retrieves a group by its Telegram numeric ID
func (s *CollectionStore) GetGroupByTelegramID(ctx context.Context, telegramID int64) (*domain.Group, error) {
	var group domain.Group
	if err := s.db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

// ListGroups retrieves groups matching the filter, paginated
func (s *CollectionStore) ListGroups(ctx context.Context, filter domain.GroupFilter, page, pageSize int) ([]domain.Group, int64, error) {
	query := s.db.WithContext(ctx).Model(&domain.Group{})
	if filter.TaskID != 0 {
		query = query.Where("task_id = ?", filter.TaskID)
	}
	if filter.Keyword != "" {
		pattern := "%" + filter.Keyword + "%"
		query = query.Where("title LIKE ? OR username LIKE ? OR description LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	var groups []domain.Group
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&groups).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}

	return groups, total, nil
}

// CreateMessage inserts a message unless (group_id, telegram_message_id)
// already exists
func (s *CollectionStore) CreateMessage(ctx context.Context, message *domain.Message) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "telegram_message_id"}},
			DoNothing: true,
		}).
		Create(message)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create message: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var existing domain.Message
		if err := s.db.WithContext(ctx).
			Where("group_id = ? AND telegram_message_id = ?", message.GroupID, message.TelegramMessageID).
			First(&existing).Error; err != nil {
			return false, fmt.Errorf("failed to load existing message: %w", err)
		}
		*message = existing
		return false, nil
	}

	return true, nil
}

// ListMessages retrieves messages matching the filter, newest first,
// with group title and username joined in
func (s *CollectionStore) ListMessages(ctx context.Context, filter domain.MessageFilter, page, pageSize int) ([]domain.Message, int64, error) {
	query := s.db.WithContext(ctx).Model(&domain.Message{})
	if filter.GroupID != 0 {
		query = query.Where("messages.group_id = ?", filter.GroupID)
	}
	if filter.Keyword != "" {
		query = query.Where("messages.content LIKE ?", "%"+filter.Keyword+"%")
	}
	if filter.StartDate != nil {
		query = query.Where("messages.message_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("messages.message_date <= ?", *filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []domain.Message
	if err := query.
		Select("messages.*, groups.title AS group_title, groups.username AS group_username").
		Joins("LEFT JOIN groups ON groups.id = messages.group_id").
		Order("messages.message_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, total, nil
}
