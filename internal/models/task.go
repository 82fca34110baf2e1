package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusPaused     TaskStatus = "paused"
	TaskStatusStopped    TaskStatus = "stopped"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusPaused,
		TaskStatusStopped, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

type AcceptanceStatus string

const (
	AcceptancePending  AcceptanceStatus = "pending"
	AcceptanceAccepted AcceptanceStatus = "accepted"
	AcceptanceRejected AcceptanceStatus = "rejected"
)

// Task carries both the task lifecycle and the timer cache columns.
// The cache columns (StartedAt .. LastPausedAt) are a projection of the
// task_time_logs ledger and are only written by timer transitions.
type Task struct {
	ID               uint64           `gorm:"primarykey" json:"id"`
	ProjectID        uint64           `gorm:"not null;index" json:"project_id"`
	Name             string           `gorm:"type:varchar(255);not null" json:"name"`
	Description      string           `gorm:"type:text" json:"description"`
	CreatedBy        uint64           `gorm:"not null" json:"created_by"`
	AssignedTo       *uint64          `gorm:"index:idx_tasks_assignee_timer,priority:1" json:"assigned_to"`
	Status           TaskStatus       `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AcceptanceStatus AcceptanceStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"acceptance_status"`

	StartedAt            *time.Time `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at"`
	TotalTrackedSeconds  int64      `gorm:"not null;default:0" json:"total_tracked_seconds"`
	ActiveTimerStartedAt *time.Time `gorm:"index:idx_tasks_assignee_timer,priority:2" json:"active_timer_started_at"`
	LastPausedAt         *time.Time `json:"last_paused_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project  Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Creator  User          `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Assignee *User         `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	TimeLogs []TaskTimeLog `gorm:"foreignKey:TaskID" json:"time_logs,omitempty"`
}

// IsRunning reports whether a timer is currently running on the task.
func (t *Task) IsRunning() bool {
	return t.ActiveTimerStartedAt != nil
}

// IsAssignedTo reports whether userID is the task's assignee.
func (t *Task) IsAssignedTo(userID uint64) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
