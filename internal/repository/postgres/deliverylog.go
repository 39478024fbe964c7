package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// DeliveryLogRepository implements domain.DeliveryLogRepository using gorm
type DeliveryLogRepository struct {
	db *gorm.DB
}

// NewDeliveryLogRepository creates a new delivery log repository
func NewDeliveryLogRepository(db *gorm.DB) domain.DeliveryLogRepository {
	return &DeliveryLogRepository{db: db}
}

// Create persists one push outcome
func (r *DeliveryLogRepository) Create(ctx context.Context, log *domain.DeliveryLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to create delivery log: %w", err)
	}
	return nil
}

// ListByTask retrieves push outcomes for one task, newest first
func (r *DeliveryLogRepository) ListByTask(ctx context.Context, taskID uint, page, pageSize int) ([]domain.DeliveryLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.DeliveryLog{}).Where("task_id = ?", taskID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count delivery logs: %w", err)
	}

	var logs []domain.DeliveryLog
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list delivery logs: %w", err)
	}

	return logs, total, nil
}
