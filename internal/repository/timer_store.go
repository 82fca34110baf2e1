package repository

import (
	"context"
	"time"

	"github.com/yukikurage/timesheet-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// timerStateColumns are the only task columns a timer transition may write.
var timerStateColumns = []string{
	"status",
	"started_at",
	"completed_at",
	"total_tracked_seconds",
	"active_timer_started_at",
	"last_paused_at",
	"updated_at",
}

// GormTimerStore is a GORM implementation of TimerStore
type GormTimerStore struct {
	db *gorm.DB
}

// NewTimerStore creates a new TimerStore
func NewTimerStore(db *gorm.DB) TimerStore {
	return &GormTimerStore{db: db}
}

// WithinTransaction runs fn inside one transaction
func (s *GormTimerStore) WithinTransaction(ctx context.Context, fn func(tx TimerTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTimerTx{tx: tx})
	})
}

type gormTimerTx struct {
	tx *gorm.DB
}

func (t *gormTimerTx) forUpdate() *gorm.DB {
	return t.tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *gormTimerTx) LockUser(userID uint64) error {
	var user models.User
	return t.forUpdate().Select("id").First(&user, userID).Error
}

func (t *gormTimerTx) LockTask(taskID uint64) (*models.Task, error) {
	var task models.Task
	if err := t.forUpdate().First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (t *gormTimerTx) FindRunningTask(userID, excludeTaskID uint64) (*models.Task, error) {
	return findOptional[models.Task](t.tx.
		Where("assigned_to = ? AND active_timer_started_at IS NOT NULL AND id <> ?", userID, excludeTaskID))
}

func (t *gormTimerTx) FindRunningTaskInOrganization(userID, organizationID uint64) (*models.Task, error) {
	return findOptional[models.Task](t.tx.
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("tasks.assigned_to = ? AND tasks.active_timer_started_at IS NOT NULL AND projects.organization_id = ?", userID, organizationID))
}

func (t *gormTimerTx) IsMember(organizationID, userID uint64) (bool, error) {
	var count int64
	err := t.tx.Model(&models.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Count(&count).Error
	return count > 0, err
}

func (t *gormTimerTx) RemoveMember(organizationID, userID uint64) error {
	return t.tx.
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Delete(&models.OrganizationMember{}).Error
}

func (t *gormTimerTx) SaveTimerState(task *models.Task) error {
	return t.tx.Model(task).Select(timerStateColumns).Updates(task).Error
}

func (t *gormTimerTx) AppendLog(log *models.TaskTimeLog) error {
	return t.tx.Omit(clause.Associations).Create(log).Error
}

func (t *gormTimerTx) ListLogsEndedBetween(taskID uint64, from, to time.Time) ([]models.TaskTimeLog, error) {
	var logs []models.TaskTimeLog
	if err := t.tx.
		Where("task_id = ? AND end_at >= ? AND end_at < ?", taskID, from, to).
		Order("created_at ASC").Order("id ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (t *gormTimerTx) FindProject(projectID uint64) (*models.Project, error) {
	var project models.Project
	if err := t.tx.First(&project, projectID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (t *gormTimerTx) FindTimesheet(userID uint64, workDate string) (*models.Timesheet, error) {
	return findTimesheet(t.forUpdate(), userID, workDate)
}

func (t *gormTimerTx) LockTimesheet(timesheetID uint64) (*models.Timesheet, error) {
	var ts models.Timesheet
	if err := t.forUpdate().First(&ts, timesheetID).Error; err != nil {
		return nil, err
	}
	return &ts, nil
}

func (t *gormTimerTx) CreateTimesheet(ts *models.Timesheet) error {
	return t.tx.Omit(clause.Associations).Create(ts).Error
}

func (t *gormTimerTx) SaveTimesheet(ts *models.Timesheet) error {
	return t.tx.Omit(clause.Associations).Save(ts).Error
}

func (t *gormTimerTx) UpsertTimesheetEntry(entry *models.TimesheetEntry) error {
	return t.tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "timesheet_id"}, {Name: "task_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"hours_worked", "description", "is_billable", "updated_at"}),
		}).
		Create(entry).Error
}

func (t *gormTimerTx) FindTimesheetEntry(entryID uint64) (*models.TimesheetEntry, error) {
	return findOptional[models.TimesheetEntry](t.tx.Where("id = ?", entryID))
}

func (t *gormTimerTx) SaveTimesheetEntry(entry *models.TimesheetEntry) error {
	return t.tx.Model(entry).Select("hours_worked", "description", "is_billable", "updated_at").Updates(entry).Error
}

func (t *gormTimerTx) DeleteTimesheetEntry(entryID uint64) error {
	return t.tx.Delete(&models.TimesheetEntry{}, entryID).Error
}
