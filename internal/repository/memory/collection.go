package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// CollectionStore implements domain.CollectionStore using in-memory
// storage, mirroring the idempotent insert semantics of the gorm store.
type CollectionStore struct {
	mu            sync.RWMutex
	nextGroupID   uint
	nextMessageID uint
	groups        map[uint]*domain.Group
	byTelegramID  map[int64]uint
	messages      map[uint]*domain.Message
	byNaturalKey  map[[2]int64]uint // (groupID, telegramMessageID) -> messageID
}

// NewCollectionStore creates a new in-memory collection store
func NewCollectionStore() *CollectionStore {
	return &CollectionStore{
		nextGroupID:   1,
		nextMessageID: 1,
		groups:        make(map[uint]*domain.Group),
		byTelegramID:  make(map[int64]uint),
		messages:      make(map[uint]*domain.Message),
		byNaturalKey:  make(map[[2]int64]uint),
	}
}

func (s *CollectionStore) CreateGroup(ctx context.Context, group *domain.Group) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.byTelegramID[group.TelegramID]; exists {
		*group = *s.groups[id]
		return false, nil
	}

	group.ID = s.nextGroupID
	s.nextGroupID++
	group.CreatedAt = time.Now()
	cp := *group
	s.groups[group.ID] = &cp
	s.byTelegramID[group.TelegramID] = group.ID
	return true, nil
}

func (s *CollectionStore) GetGroupByTelegramID(ctx context.Context, telegramID int64) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byTelegramID[telegramID]
	if !exists {
		return nil, domain.ErrGroupNotFound
	}
	cp := *s.groups[id]
	return &cp, nil
}

func (s *CollectionStore) ListGroups(ctx context.Context, filter domain.GroupFilter, page, pageSize int) ([]domain.Group, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []domain.Group
	for _, group := range s.groups {
		if filter.TaskID != 0 && group.TaskID != filter.TaskID {
			continue
		}
		if filter.Keyword != "" {
			kw := strings.ToLower(filter.Keyword)
			if !strings.Contains(strings.ToLower(group.Title), kw) &&
				!strings.Contains(strings.ToLower(group.Username), kw) &&
				!strings.Contains(strings.ToLower(group.Description), kw) {
				continue
			}
		}
		all = append(all, *group)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	return paginateGroups(all, page, pageSize)
}

func (s *CollectionStore) CreateMessage(ctx context.Context, message *domain.Message) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]int64{int64(message.GroupID), message.TelegramMessageID}
	if id, exists := s.byNaturalKey[key]; exists {
		*message = *s.messages[id]
		return false, nil
	}

	message.ID = s.nextMessageID
	s.nextMessageID++
	message.CreatedAt = time.Now()
	cp := *message
	s.messages[message.ID] = &cp
	s.byNaturalKey[key] = message.ID
	return true, nil
}

func (s *CollectionStore) ListMessages(ctx context.Context, filter domain.MessageFilter, page, pageSize int) ([]domain.Message, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []domain.Message
	for _, message := range s.messages {
		if filter.GroupID != 0 && message.GroupID != filter.GroupID {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(message.Content), strings.ToLower(filter.Keyword)) {
			continue
		}
		if filter.StartDate != nil && message.MessageDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && message.MessageDate.After(*filter.EndDate) {
			continue
		}
		cp := *message
		if group, exists := s.groups[cp.GroupID]; exists {
			cp.GroupTitle = group.Title
			cp.GroupUsername = group.Username
		}
		all = append(all, cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].MessageDate.After(all[j].MessageDate) })

	return paginateMessages(all, page, pageSize)
}

func paginateGroups(all []domain.Group, page, pageSize int) ([]domain.Group, int64, error) {
	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func paginateMessages(all []domain.Message, page, pageSize int) ([]domain.Message, int64, error) {
	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}
