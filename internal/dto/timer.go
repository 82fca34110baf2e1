package dto

import (
	"time"

	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/services"
	"github.com/yukikurage/timesheet-api/internal/utils"
)

// TimeLogDTO is one ledger row
type TimeLogDTO struct {
	ID              uint64             `json:"id"`
	TaskID          uint64             `json:"task_id"`
	UserID          uint64             `json:"user_id"`
	Action          models.TimerAction `json:"action"`
	StartAt         *time.Time         `json:"start_at"`
	EndAt           *time.Time         `json:"end_at"`
	DurationSeconds int64              `json:"duration_seconds"`
	Note            string             `json:"note,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// TimeLogListResponse is one page of a task's ledger
type TimeLogListResponse struct {
	Logs       []TimeLogDTO             `json:"logs"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// TimeBucketDTO is the tracked time of one period
type TimeBucketDTO struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Seconds int64  `json:"seconds"`
}

// TimeSummaryDTO aggregates a task's ledger
type TimeSummaryDTO struct {
	TaskID        uint64                     `json:"task_id"`
	GroupBy       services.GroupBy           `json:"group_by"`
	LedgerSeconds int64                      `json:"ledger_seconds"`
	CachedSeconds int64                      `json:"cached_seconds"`
	Consistent    bool                       `json:"consistent"`
	RunningSince  *time.Time                 `json:"running_since"`
	ActionCounts  map[models.TimerAction]int `json:"action_counts"`
	Buckets       []TimeBucketDTO            `json:"buckets"`
}

// ReconciliationDTO compares a task's ledger with its cache
type ReconciliationDTO struct {
	TaskID        uint64 `json:"task_id"`
	LedgerSeconds int64  `json:"ledger_seconds"`
	CachedSeconds int64  `json:"cached_seconds"`
	DriftSeconds  int64  `json:"drift_seconds"`
}

// TimesheetDTO is a user's attendance record for one day
type TimesheetDTO struct {
	ID       uint64                 `json:"id"`
	WorkDate string                 `json:"work_date"`
	ClockIn  *time.Time             `json:"clock_in"`
	ClockOut *time.Time             `json:"clock_out"`
	Status   models.TimesheetStatus `json:"status"`
}

// TimesheetEntryDTO is a per-task line of a timesheet
type TimesheetEntryDTO struct {
	ID          uint64  `json:"id"`
	TaskID      uint64  `json:"task_id"`
	ProjectID   uint64  `json:"project_id"`
	HoursWorked float64 `json:"hours_worked"`
	Description string  `json:"description"`
	IsBillable  bool    `json:"is_billable"`
}

// TimesheetDayDTO is one work date with its entries
type TimesheetDayDTO struct {
	TimesheetID *uint64                `json:"timesheet_id"`
	WorkDate    string                 `json:"work_date"`
	Status      models.TimesheetStatus `json:"status"`
	Entries     []TimesheetEntryDTO    `json:"entries"`
	TotalHours  float64                `json:"total_hours"`
}

// ClockOutResponse is returned by clock-out
type ClockOutResponse struct {
	Timesheet  TimesheetDTO  `json:"timesheet"`
	PausedTask *TaskTimerDTO `json:"paused_task,omitempty"`
}

// TimesheetStatusDTO reports where the user is today
type TimesheetStatusDTO struct {
	State         services.ClockState `json:"state"`
	WorkDate      string              `json:"work_date"`
	ClockIn       *time.Time          `json:"clock_in"`
	ClockOut      *time.Time          `json:"clock_out"`
	RunningTaskID *uint64             `json:"running_task_id"`
}

// ToTimeLogDTO converts a ledger row
func ToTimeLogDTO(log models.TaskTimeLog) TimeLogDTO {
	return TimeLogDTO{
		ID:              log.ID,
		TaskID:          log.TaskID,
		UserID:          log.UserID,
		Action:          log.Action,
		StartAt:         log.StartAt,
		EndAt:           log.EndAt,
		DurationSeconds: log.DurationSeconds,
		Note:            log.Note,
		CreatedAt:       log.CreatedAt,
	}
}

// ToTimeLogListResponse converts one page of ledger rows
func ToTimeLogListResponse(logs []models.TaskTimeLog, params utils.PaginationParams, total int64) TimeLogListResponse {
	items := make([]TimeLogDTO, len(logs))
	for i, l := range logs {
		items[i] = ToTimeLogDTO(l)
	}
	return TimeLogListResponse{
		Logs:       items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// ToTimeSummaryDTO converts a ledger summary
func ToTimeSummaryDTO(summary *services.TimeSummary) TimeSummaryDTO {
	buckets := make([]TimeBucketDTO, len(summary.Buckets))
	for i, b := range summary.Buckets {
		buckets[i] = TimeBucketDTO{Key: b.Key, Title: b.Title, Seconds: b.Seconds}
	}
	return TimeSummaryDTO{
		TaskID:        summary.TaskID,
		GroupBy:       summary.GroupBy,
		LedgerSeconds: summary.LedgerSeconds,
		CachedSeconds: summary.CachedSeconds,
		Consistent:    summary.Consistent,
		RunningSince:  summary.RunningSince,
		ActionCounts:  summary.ActionCounts,
		Buckets:       buckets,
	}
}

// ToReconciliationDTO converts a reconciliation report
func ToReconciliationDTO(rec *services.Reconciliation) ReconciliationDTO {
	return ReconciliationDTO{
		TaskID:        rec.TaskID,
		LedgerSeconds: rec.LedgerSeconds,
		CachedSeconds: rec.CachedSeconds,
		DriftSeconds:  rec.Drift(),
	}
}

// ToTimesheetDTO converts a timesheet
func ToTimesheetDTO(ts models.Timesheet) TimesheetDTO {
	return TimesheetDTO{
		ID:       ts.ID,
		WorkDate: ts.WorkDate,
		ClockIn:  ts.ClockIn,
		ClockOut: ts.ClockOut,
		Status:   ts.Status,
	}
}

// ToTimesheetEntryDTOs converts timesheet entries
func ToTimesheetEntryDTOs(entries []models.TimesheetEntry) []TimesheetEntryDTO {
	out := make([]TimesheetEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = ToTimesheetEntryDTO(e)
	}
	return out
}

// ToTimesheetEntryDTO converts a timesheet entry
func ToTimesheetEntryDTO(e models.TimesheetEntry) TimesheetEntryDTO {
	return TimesheetEntryDTO{
		ID:          e.ID,
		TaskID:      e.TaskID,
		ProjectID:   e.ProjectID,
		HoursWorked: e.HoursWorked,
		Description: e.Description,
		IsBillable:  e.IsBillable,
	}
}

// ToTimesheetDayDTO converts a timesheet day
func ToTimesheetDayDTO(day *services.TimesheetDay) TimesheetDayDTO {
	out := TimesheetDayDTO{
		WorkDate:   day.WorkDate,
		Status:     day.Status(),
		Entries:    ToTimesheetEntryDTOs(day.Entries),
		TotalHours: day.TotalHours(),
	}
	if day.Timesheet != nil {
		out.TimesheetID = &day.Timesheet.ID
	}
	return out
}

// ToTimesheetStatusDTO converts a clock status
func ToTimesheetStatusDTO(status *services.ClockStatus) TimesheetStatusDTO {
	return TimesheetStatusDTO{
		State:         status.State,
		WorkDate:      status.WorkDate,
		ClockIn:       status.ClockIn,
		ClockOut:      status.ClockOut,
		RunningTaskID: status.RunningTaskID,
	}
}
