package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// DeliveryLogRepository implements domain.DeliveryLogRepository using
// in-memory storage
type DeliveryLogRepository struct {
	mu     sync.RWMutex
	nextID uint
	logs   map[uint]*domain.DeliveryLog
}

// NewDeliveryLogRepository creates a new in-memory delivery log repository
func NewDeliveryLogRepository() *DeliveryLogRepository {
	return &DeliveryLogRepository{
		nextID: 1,
		logs:   make(map[uint]*domain.DeliveryLog),
	}
}

func (r *DeliveryLogRepository) Create(ctx context.Context, log *domain.DeliveryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log.ID = r.nextID
	r.nextID++
	log.CreatedAt = time.Now()
	cp := *log
	r.logs[log.ID] = &cp
	return nil
}

func (r *DeliveryLogRepository) ListByTask(ctx context.Context, taskID uint, page, pageSize int) ([]domain.DeliveryLog, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []domain.DeliveryLog
	for _, log := range r.logs {
		if log.TaskID == taskID {
			all = append(all, *log)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

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
