package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yukikurage/timesheet-api/internal/constants"
	"github.com/yukikurage/timesheet-api/internal/metrics"
	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrAlreadyClockedIn       = errors.New("user is already clocked in")
	ErrAlreadyClockedOut      = errors.New("user has already clocked out today")
	ErrInvalidWorkDate        = errors.New("date must be formatted as YYYY-MM-DD")
	ErrFutureWorkDate         = errors.New("cannot submit a timesheet for a future date")
	ErrTimesheetOpen          = errors.New("clock out before submitting the timesheet")
	ErrTimesheetSubmitted     = errors.New("timesheet has already been submitted")
	ErrTimesheetEntryNotFound = errors.New("timesheet entry not found")
	ErrInvalidHoursWorked     = errors.New("hours worked must be between 0 and 24")
)

// ClockState is the attendance tri-state of a user for the current work date.
type ClockState string

const (
	ClockStateNotClockedIn ClockState = "not_clocked_in"
	ClockStateClockedIn    ClockState = "clocked_in"
	ClockStateClockedOut   ClockState = "clocked_out"
)

// ClockStatus is the answer to "where is this user today".
type ClockStatus struct {
	State         ClockState
	WorkDate      string
	ClockIn       *time.Time
	ClockOut      *time.Time
	RunningTaskID *uint64
}

// ClockOutResult is the closed timesheet and the task paused on the way out, if any.
type ClockOutResult struct {
	Timesheet  *models.Timesheet
	PausedTask *models.Task
}

// TimesheetService handles the attendance clock. It shares the clock, zone
// and transition machinery of the TimerService so that clocking out pauses a
// running timer through the same ledger.
type TimesheetService struct {
	timer         *TimerService
	timesheetRepo repository.TimesheetRepository
	taskRepo      repository.TaskRepository
}

// NewTimesheetService creates a new TimesheetService.
func NewTimesheetService(timer *TimerService, timesheetRepo repository.TimesheetRepository, taskRepo repository.TaskRepository) *TimesheetService {
	return &TimesheetService{
		timer:         timer,
		timesheetRepo: timesheetRepo,
		taskRepo:      taskRepo,
	}
}

// ClockIn opens the user's timesheet for today.
func (s *TimesheetService) ClockIn(ctx context.Context, userID uint64) (*models.Timesheet, error) {
	now := s.timer.clock()
	workDate := s.timer.workDate(now)

	var result *models.Timesheet
	err := s.timer.store.WithinTransaction(ctx, func(tx repository.TimerTx) error {
		if err := tx.LockUser(userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		ts, err := tx.FindTimesheet(userID, workDate)
		if err != nil {
			return fmt.Errorf("failed to find timesheet: %w", err)
		}

		switch {
		case ts != nil && ts.Status == models.TimesheetSubmitted:
			return ErrTimesheetSubmitted
		case ts == nil:
			ts = &models.Timesheet{
				UserID:   userID,
				WorkDate: workDate,
				ClockIn:  &now,
				Status:   models.TimesheetPending,
			}
			if err := tx.CreateTimesheet(ts); err != nil {
				return fmt.Errorf("failed to create timesheet: %w", err)
			}
		case ts.IsOpen():
			return ErrAlreadyClockedIn
		case ts.ClockOut != nil:
			return ErrAlreadyClockedOut
		default:
			ts.ClockIn = &now
			if err := tx.SaveTimesheet(ts); err != nil {
				return fmt.Errorf("failed to update timesheet: %w", err)
			}
		}

		result = ts
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveClockEvent("clock_in")
	s.timer.log.Info("User clocked in", zap.Uint64("user_id", userID), zap.String("work_date", workDate))
	return result, nil
}

// ClockOut closes today's timesheet. A running timer of the user is paused in
// the same transaction with a fixed note.
func (s *TimesheetService) ClockOut(ctx context.Context, userID uint64) (*ClockOutResult, error) {
	now := s.timer.clock()
	workDate := s.timer.workDate(now)

	result := &ClockOutResult{}
	var pausePlan *transitionPlan
	err := s.timer.store.WithinTransaction(ctx, func(tx repository.TimerTx) error {
		if err := tx.LockUser(userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		ts, err := tx.FindTimesheet(userID, workDate)
		if err != nil {
			return fmt.Errorf("failed to find timesheet: %w", err)
		}
		if ts == nil || !ts.IsOpen() {
			return ErrNotClockedIn
		}

		running, err := tx.FindRunningTask(userID, 0)
		if err != nil {
			return fmt.Errorf("failed to check running timers: %w", err)
		}
		if running != nil {
			task, err := tx.LockTask(running.ID)
			if err != nil {
				return fmt.Errorf("failed to lock running task: %w", err)
			}
			pausePlan, err = s.timer.transitionLocked(tx, task, models.TimerActionPause, userID, constants.AutoPauseClockOutNote, now)
			if err != nil {
				return err
			}
			result.PausedTask = &pausePlan.task
		}

		ts.ClockOut = &now
		if err := tx.SaveTimesheet(ts); err != nil {
			return fmt.Errorf("failed to update timesheet: %w", err)
		}
		result.Timesheet = ts
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveClockEvent("clock_out")
	if pausePlan != nil {
		s.timer.observe(models.TimerActionPause, TransitionInput{TaskID: pausePlan.task.ID, UserID: userID}, pausePlan, nil)
	}
	s.timer.log.Info("User clocked out", zap.Uint64("user_id", userID), zap.String("work_date", workDate))
	return result, nil
}

// Status reports the user's clock state for today and their running task.
func (s *TimesheetService) Status(ctx context.Context, userID uint64) (*ClockStatus, error) {
	now := s.timer.clock()
	status := &ClockStatus{
		State:    ClockStateNotClockedIn,
		WorkDate: s.timer.workDate(now),
	}

	ts, err := s.timesheetRepo.FindByUserAndDate(ctx, userID, status.WorkDate)
	if err != nil {
		return nil, fmt.Errorf("failed to find timesheet: %w", err)
	}
	if ts != nil && ts.ClockIn != nil {
		status.ClockIn = ts.ClockIn
		status.ClockOut = ts.ClockOut
		status.State = ClockStateClockedIn
		if ts.ClockOut != nil {
			status.State = ClockStateClockedOut
		}
	}

	running, err := s.taskRepo.FindRunningByAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find running task: %w", err)
	}
	if running != nil {
		status.RunningTaskID = &running.ID
	}

	return status, nil
}

// TimesheetDay is one work date of a user's timesheet. Timesheet is nil when
// the user has no record for that date.
type TimesheetDay struct {
	WorkDate  string
	Timesheet *models.Timesheet
	Entries   []models.TimesheetEntry
}

// Status is the submission status of the day, pending when there is no record.
func (d *TimesheetDay) Status() models.TimesheetStatus {
	if d.Timesheet == nil {
		return models.TimesheetPending
	}
	return d.Timesheet.Status
}

// TotalHours sums the day's entries.
func (d *TimesheetDay) TotalHours() float64 {
	var total float64
	for _, e := range d.Entries {
		total += e.HoursWorked
	}
	return math.Round(total*100) / 100
}

// UpdateEntryInput holds the editable fields of a timesheet entry. Nil fields
// are left unchanged.
type UpdateEntryInput struct {
	HoursWorked *float64
	Description *string
	IsBillable  *bool
}

// Entries returns the user's timesheet entries for date, or for today when
// date is empty.
func (s *TimesheetService) Entries(ctx context.Context, userID uint64, date string) (*TimesheetDay, error) {
	workDate, err := s.resolveWorkDate(date)
	if err != nil {
		return nil, err
	}

	day := &TimesheetDay{WorkDate: workDate, Entries: []models.TimesheetEntry{}}
	ts, err := s.timesheetRepo.FindByUserAndDate(ctx, userID, workDate)
	if err != nil {
		return nil, fmt.Errorf("failed to find timesheet: %w", err)
	}
	if ts == nil {
		return day, nil
	}
	day.Timesheet = ts

	entries, err := s.timesheetRepo.ListEntries(ctx, ts.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheet entries: %w", err)
	}
	day.Entries = entries
	return day, nil
}

// Submit marks the user's timesheet for date as submitted. A day without a
// record gets one. Submitted days take no further entries, edits or clock-ins.
func (s *TimesheetService) Submit(ctx context.Context, userID uint64, date string) (*models.Timesheet, error) {
	if date == "" {
		return nil, ErrInvalidWorkDate
	}
	workDate, err := s.resolveWorkDate(date)
	if err != nil {
		return nil, err
	}
	if workDate > s.timer.workDate(s.timer.clock()) {
		return nil, ErrFutureWorkDate
	}

	var result *models.Timesheet
	err = s.timer.store.WithinTransaction(ctx, func(tx repository.TimerTx) error {
		if err := tx.LockUser(userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		ts, err := tx.FindTimesheet(userID, workDate)
		if err != nil {
			return fmt.Errorf("failed to find timesheet: %w", err)
		}

		switch {
		case ts == nil:
			ts = &models.Timesheet{
				UserID:   userID,
				WorkDate: workDate,
				Status:   models.TimesheetSubmitted,
			}
			if err := tx.CreateTimesheet(ts); err != nil {
				return fmt.Errorf("failed to create timesheet: %w", err)
			}
		case ts.Status == models.TimesheetSubmitted:
			return ErrTimesheetSubmitted
		case ts.IsOpen():
			return ErrTimesheetOpen
		default:
			ts.Status = models.TimesheetSubmitted
			if err := tx.SaveTimesheet(ts); err != nil {
				return fmt.Errorf("failed to update timesheet: %w", err)
			}
		}

		result = ts
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveClockEvent("submit")
	s.timer.log.Info("Timesheet submitted", zap.Uint64("user_id", userID), zap.String("work_date", workDate))
	return result, nil
}

// UpdateEntry edits one of the user's timesheet entries on a day that is not
// submitted.
func (s *TimesheetService) UpdateEntry(ctx context.Context, userID, entryID uint64, input UpdateEntryInput) (*models.TimesheetEntry, error) {
	if input.HoursWorked != nil && (*input.HoursWorked < 0 || *input.HoursWorked > constants.MaxEntryHours) {
		return nil, ErrInvalidHoursWorked
	}

	var result *models.TimesheetEntry
	err := s.withEditableEntry(ctx, userID, entryID, func(tx repository.TimerTx, entry *models.TimesheetEntry) error {
		if input.HoursWorked != nil {
			entry.HoursWorked = math.Round(*input.HoursWorked*100) / 100
		}
		if input.Description != nil {
			entry.Description = strings.TrimSpace(*input.Description)
		}
		if input.IsBillable != nil {
			entry.IsBillable = *input.IsBillable
		}
		entry.UpdatedAt = s.timer.clock()
		if err := tx.SaveTimesheetEntry(entry); err != nil {
			return fmt.Errorf("failed to update timesheet entry: %w", err)
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteEntry removes one of the user's timesheet entries on a day that is
// not submitted.
func (s *TimesheetService) DeleteEntry(ctx context.Context, userID, entryID uint64) error {
	return s.withEditableEntry(ctx, userID, entryID, func(tx repository.TimerTx, entry *models.TimesheetEntry) error {
		if err := tx.DeleteTimesheetEntry(entry.ID); err != nil {
			return fmt.Errorf("failed to delete timesheet entry: %w", err)
		}
		return nil
	})
}

// withEditableEntry runs fn on the entry inside a transaction holding the
// lock on its timesheet. Entries of other users are reported as not found.
func (s *TimesheetService) withEditableEntry(ctx context.Context, userID, entryID uint64, fn func(tx repository.TimerTx, entry *models.TimesheetEntry) error) error {
	return s.timer.store.WithinTransaction(ctx, func(tx repository.TimerTx) error {
		if err := tx.LockUser(userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		entry, err := tx.FindTimesheetEntry(entryID)
		if err != nil {
			return fmt.Errorf("failed to find timesheet entry: %w", err)
		}
		if entry == nil {
			return ErrTimesheetEntryNotFound
		}

		ts, err := tx.LockTimesheet(entry.TimesheetID)
		if err != nil {
			return fmt.Errorf("failed to lock timesheet: %w", err)
		}
		if ts.UserID != userID {
			return ErrTimesheetEntryNotFound
		}
		if ts.Status == models.TimesheetSubmitted {
			return ErrTimesheetSubmitted
		}

		return fn(tx, entry)
	})
}

// resolveWorkDate validates a YYYY-MM-DD date, defaulting to today.
func (s *TimesheetService) resolveWorkDate(date string) (string, error) {
	if date == "" {
		return s.timer.workDate(s.timer.clock()), nil
	}
	d, err := time.ParseInLocation(constants.WorkDateLayout, date, s.timer.location)
	if err != nil {
		return "", ErrInvalidWorkDate
	}
	return d.Format(constants.WorkDateLayout), nil
}
