package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/timesheet-api/internal/constants"
	applog "github.com/yukikurage/timesheet-api/internal/logger"
	"github.com/yukikurage/timesheet-api/internal/metrics"
	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TimerService applies timer transitions. Every transition is one database
// transaction that locks the acting user and the task, validates the action,
// writes the task's cache columns and appends exactly one ledger row.
type TimerService struct {
	store          repository.TimerStore
	log            *applog.Logger
	now            func() time.Time
	location       *time.Location
	requireClockIn bool
	summarizer     NoteSummarizer
}

// TimerOption configures a TimerService.
type TimerOption func(*TimerService)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) TimerOption {
	return func(s *TimerService) { s.now = now }
}

// WithLocation sets the zone used to decide a timestamp's work date.
func WithLocation(loc *time.Location) TimerOption {
	return func(s *TimerService) { s.location = loc }
}

// WithRequireClockIn makes start and resume require an open timesheet.
func WithRequireClockIn(require bool) TimerOption {
	return func(s *TimerService) { s.requireClockIn = require }
}

// WithLogger sets the logger.
func WithLogger(log *applog.Logger) TimerOption {
	return func(s *TimerService) { s.log = log }
}

// WithNoteSummarizer sets the summarizer used for timesheet entry descriptions.
func WithNoteSummarizer(summarizer NoteSummarizer) TimerOption {
	return func(s *TimerService) { s.summarizer = summarizer }
}

// NewTimerService creates a TimerService. Without options it uses the wall
// clock in UTC, does not require clock-in and discards logs.
func NewTimerService(store repository.TimerStore, opts ...TimerOption) *TimerService {
	s := &TimerService{
		store:    store,
		log:      applog.Nop(),
		now:      time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TransitionInput identifies the task, the acting user and an optional note.
type TransitionInput struct {
	TaskID uint64
	UserID uint64
	Note   string
}

// Start starts the timer of a task that is not running.
func (s *TimerService) Start(ctx context.Context, input TransitionInput) (*models.Task, error) {
	return s.apply(ctx, models.TimerActionStart, input)
}

// Pause folds the running interval into the total and stops the clock.
func (s *TimerService) Pause(ctx context.Context, input TransitionInput) (*models.Task, error) {
	return s.apply(ctx, models.TimerActionPause, input)
}

// Resume restarts the timer of a previously started task.
func (s *TimerService) Resume(ctx context.Context, input TransitionInput) (*models.Task, error) {
	return s.apply(ctx, models.TimerActionResume, input)
}

// Stop folds the running interval and leaves the task stopped but not completed.
func (s *TimerService) Stop(ctx context.Context, input TransitionInput) (*models.Task, error) {
	return s.apply(ctx, models.TimerActionStop, input)
}

// Complete folds any running interval and marks the task completed. This is terminal.
func (s *TimerService) Complete(ctx context.Context, input TransitionInput) (*models.Task, error) {
	return s.apply(ctx, models.TimerActionComplete, input)
}

// Apply runs the named action. It is the entry point for callers holding a
// parsed TimerAction, such as the HTTP layer.
func (s *TimerService) Apply(ctx context.Context, action models.TimerAction, input TransitionInput) (*models.Task, error) {
	return s.apply(ctx, action, input)
}

func (s *TimerService) apply(ctx context.Context, action models.TimerAction, input TransitionInput) (*models.Task, error) {
	now := s.clock()

	var plan *transitionPlan
	err := s.store.WithinTransaction(ctx, func(tx repository.TimerTx) error {
		if err := tx.LockUser(input.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAuthorized
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		task, err := tx.LockTask(input.TaskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to load task: %w", err)
		}

		if !task.IsAssignedTo(input.UserID) {
			return ErrNotAuthorized
		}

		plan, err = s.transitionLocked(tx, task, action, input.UserID, input.Note, now)
		return err
	})
	if err != nil {
		err = s.resolveConflict(ctx, err, input)
		s.observe(action, input, nil, err)
		return nil, err
	}

	s.observe(action, input, plan, nil)
	if action == models.TimerActionComplete {
		s.refineTimesheetEntry(ctx, &plan.task, input.UserID, now)
	}
	return &plan.task, nil
}

// transitionLocked plans and persists one transition on a task already locked
// inside tx.
func (s *TimerService) transitionLocked(tx repository.TimerTx, task *models.Task, action models.TimerAction, userID uint64, note string, now time.Time) (*transitionPlan, error) {
	plan, err := planTransition(*task, action, userID, now, note)
	if err != nil {
		return nil, err
	}

	if action == models.TimerActionStart || action == models.TimerActionResume {
		project, err := tx.FindProject(task.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to find project: %w", err)
		}
		member, err := tx.IsMember(project.OrganizationID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}
		if !member {
			return nil, ErrNotAuthorized
		}

		if s.requireClockIn {
			ts, err := tx.FindTimesheet(userID, s.workDate(now))
			if err != nil {
				return nil, fmt.Errorf("failed to check clock-in: %w", err)
			}
			if ts == nil || !ts.IsOpen() {
				return nil, ErrNotClockedIn
			}
		}

		running, err := tx.FindRunningTask(userID, task.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check running timers: %w", err)
		}
		if running != nil {
			return nil, &ConcurrentTimerConflictError{RunningTaskID: running.ID}
		}
	}

	if err := tx.SaveTimerState(&plan.task); err != nil {
		return nil, fmt.Errorf("failed to save timer state: %w", err)
	}
	if err := tx.AppendLog(&plan.log); err != nil {
		return nil, fmt.Errorf("failed to append time log: %w", err)
	}

	if action == models.TimerActionComplete {
		if err := s.fillTimesheet(tx, &plan.task, userID, now); err != nil {
			return nil, fmt.Errorf("failed to fill timesheet: %w", err)
		}
	}

	return plan, nil
}

// releaseMember deletes the user's membership of the organization. A timer
// the user has running on one of its projects is paused first in the same
// transaction, so no interval stays open on a task the user can no longer
// reach. It returns the paused task, if any.
func (s *TimerService) releaseMember(ctx context.Context, orgID, userID uint64) (*models.Task, error) {
	now := s.clock()

	var plan *transitionPlan
	err := s.store.WithinTransaction(ctx, func(tx repository.TimerTx) error {
		if err := tx.LockUser(userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrganizationMemberNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		member, err := tx.IsMember(orgID, userID)
		if err != nil {
			return fmt.Errorf("failed to find organization member: %w", err)
		}
		if !member {
			return ErrOrganizationMemberNotFound
		}

		running, err := tx.FindRunningTaskInOrganization(userID, orgID)
		if err != nil {
			return fmt.Errorf("failed to check running timers: %w", err)
		}
		if running != nil {
			task, err := tx.LockTask(running.ID)
			if err != nil {
				return fmt.Errorf("failed to lock running task: %w", err)
			}
			if StateOf(task) == StateRunning {
				plan, err = s.transitionLocked(tx, task, models.TimerActionPause, userID, constants.AutoPauseMemberRemovedNote, now)
				if err != nil {
					return err
				}
			}
		}

		if err := tx.RemoveMember(orgID, userID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Member removed", zap.Uint64("organization_id", orgID), zap.Uint64("user_id", userID), zap.Bool("paused_timer", plan != nil))
	if plan == nil {
		return nil, nil
	}
	s.observe(models.TimerActionPause, TransitionInput{TaskID: plan.task.ID, UserID: userID}, plan, nil)
	return &plan.task, nil
}

// resolveConflict turns a unique-index violation on the running-timer index
// into a ConcurrentTimerConflictError and looks up the running task.
func (s *TimerService) resolveConflict(ctx context.Context, err error, input TransitionInput) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}

	conflict := &ConcurrentTimerConflictError{}
	lookupErr := s.store.WithinTransaction(ctx, func(tx repository.TimerTx) error {
		running, err := tx.FindRunningTask(input.UserID, input.TaskID)
		if err != nil {
			return err
		}
		if running != nil {
			conflict.RunningTaskID = running.ID
		}
		return nil
	})
	if lookupErr != nil {
		s.log.Warn("Failed to look up conflicting timer", zap.Error(lookupErr))
	}
	return conflict
}

func (s *TimerService) observe(action models.TimerAction, input TransitionInput, plan *transitionPlan, err error) {
	fields := []zap.Field{
		zap.Uint64("task_id", input.TaskID),
		zap.Uint64("user_id", input.UserID),
		zap.String("action", string(action)),
	}

	if err == nil {
		metrics.ObserveTransition(string(action), metrics.ResultOK)
		metrics.AddTrackedSeconds(plan.elapsed)
		s.log.Info("Timer transition applied", append(fields,
			zap.String("from", string(plan.from)),
			zap.Int64("elapsed_seconds", plan.elapsed),
			zap.Int64("total_tracked_seconds", plan.task.TotalTrackedSeconds),
		)...)
		return
	}

	result := transitionResult(err)
	metrics.ObserveTransition(string(action), result)
	if result == metrics.ResultError {
		s.log.Error("Timer transition failed", append(fields, zap.Error(err))...)
		return
	}
	s.log.Info("Timer transition rejected", append(fields, zap.String("result", result), zap.String("reason", err.Error()))...)
}

func transitionResult(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTransition):
		return metrics.ResultInvalidTransition
	case errors.Is(err, ErrConcurrentTimer):
		return metrics.ResultConflict
	case errors.Is(err, ErrNotAuthorized):
		return metrics.ResultNotAuthorized
	case errors.Is(err, ErrTaskNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, ErrNotClockedIn):
		return metrics.ResultNotClockedIn
	default:
		return metrics.ResultError
	}
}

// clock returns the current time in UTC truncated to whole seconds, so ledger
// intervals are exact multiples of a second.
func (s *TimerService) clock() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// workDate returns the work date t falls on in the configured zone.
func (s *TimerService) workDate(t time.Time) string {
	return t.In(s.location).Format(constants.WorkDateLayout)
}

// dayBounds returns the UTC instants delimiting the work date of t.
func (s *TimerService) dayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(s.location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}
