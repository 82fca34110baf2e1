package models

import "time"

type TimesheetStatus string

const (
	TimesheetPending   TimesheetStatus = "pending"
	TimesheetSubmitted TimesheetStatus = "submitted"
)

// Timesheet is a user's attendance record for one work date.
type Timesheet struct {
	ID        uint64          `gorm:"primarykey" json:"id"`
	UserID    uint64          `gorm:"not null;uniqueIndex:ux_timesheets_user_date,priority:1" json:"user_id"`
	WorkDate  string          `gorm:"type:varchar(10);not null;uniqueIndex:ux_timesheets_user_date,priority:2" json:"work_date"`
	ClockIn   *time.Time      `json:"clock_in"`
	ClockOut  *time.Time      `json:"clock_out"`
	Status    TimesheetStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Relations
	User    User             `gorm:"foreignKey:UserID" json:"-"`
	Entries []TimesheetEntry `gorm:"foreignKey:TimesheetID" json:"entries,omitempty"`
}

// IsOpen reports whether the user is clocked in on this timesheet.
func (t *Timesheet) IsOpen() bool {
	return t.ClockIn != nil && t.ClockOut == nil
}

// TimesheetEntry is the per-task line of a timesheet, filled when a task completes.
type TimesheetEntry struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	TimesheetID uint64    `gorm:"not null;uniqueIndex:ux_timesheet_entries_task,priority:1" json:"timesheet_id"`
	TaskID      uint64    `gorm:"not null;uniqueIndex:ux_timesheet_entries_task,priority:2" json:"task_id"`
	ProjectID   uint64    `gorm:"not null;index" json:"project_id"`
	HoursWorked float64   `gorm:"not null;default:0" json:"hours_worked"`
	Description string    `gorm:"type:text" json:"description"`
	IsBillable  bool      `gorm:"not null;default:false" json:"is_billable"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
