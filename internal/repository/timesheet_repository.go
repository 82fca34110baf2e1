package repository

import (
	"context"

	"github.com/yukikurage/timesheet-api/internal/models"
	"gorm.io/gorm"
)

// GormTimesheetRepository is a GORM implementation of TimesheetRepository
type GormTimesheetRepository struct {
	db *gorm.DB
}

// NewTimesheetRepository creates a new TimesheetRepository
func NewTimesheetRepository(db *gorm.DB) TimesheetRepository {
	return &GormTimesheetRepository{db: db}
}

// FindByUserAndDate returns the timesheet or nil when none exists
func (r *GormTimesheetRepository) FindByUserAndDate(ctx context.Context, userID uint64, workDate string) (*models.Timesheet, error) {
	return findTimesheet(r.db.WithContext(ctx), userID, workDate)
}

// ListEntries returns the entries recorded on a timesheet
func (r *GormTimesheetRepository) ListEntries(ctx context.Context, timesheetID uint64) ([]models.TimesheetEntry, error) {
	var entries []models.TimesheetEntry
	if err := r.db.WithContext(ctx).
		Where("timesheet_id = ?", timesheetID).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func findTimesheet(db *gorm.DB, userID uint64, workDate string) (*models.Timesheet, error) {
	return findOptional[models.Timesheet](db.Where("user_id = ? AND work_date = ?", userID, workDate))
}
