package repository

import (
	"context"

	"github.com/yukikurage/timesheet-api/internal/database"
	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/utils"
	"gorm.io/gorm"
)

// GormTimeLogRepository is a GORM implementation of TimeLogRepository
type GormTimeLogRepository struct {
	db *gorm.DB
}

// NewTimeLogRepository creates a new TimeLogRepository
func NewTimeLogRepository(db *gorm.DB) TimeLogRepository {
	return &GormTimeLogRepository{db: db}
}

// ListByTask returns one page of ledger rows in append order
func (r *GormTimeLogRepository) ListByTask(ctx context.Context, taskID uint64, params utils.PaginationParams) ([]models.TaskTimeLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TaskTimeLog{}).Where("task_id = ?", taskID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.TaskTimeLog
	if err := query.
		Scopes(database.LedgerOrder, database.Paginate(params)).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// ListAllByTask returns every ledger row of a task in append order
func (r *GormTimeLogRepository) ListAllByTask(ctx context.Context, taskID uint64) ([]models.TaskTimeLog, error) {
	var logs []models.TaskTimeLog
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Scopes(database.LedgerOrder).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// SumDurationByTask sums duration_seconds over the task's ledger
func (r *GormTimeLogRepository) SumDurationByTask(ctx context.Context, taskID uint64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.TaskTimeLog{}).
		Where("task_id = ?", taskID).
		Select("COALESCE(SUM(duration_seconds), 0)").
		Scan(&total).Error
	return total, err
}
