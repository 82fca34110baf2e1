package services

import (
	"strings"
	"time"

	"github.com/yukikurage/timesheet-api/internal/models"
)

// TimerState is the timer state of a task, derived from its cache columns.
type TimerState string

const (
	StateNotStarted TimerState = "not_started"
	StateRunning    TimerState = "running"
	StatePaused     TimerState = "paused"
	StateStopped    TimerState = "stopped"
	StateCompleted  TimerState = "completed"
	StateCancelled  TimerState = "cancelled"
)

// StateOf derives the timer state of task.
func StateOf(task *models.Task) TimerState {
	switch {
	case task.CompletedAt != nil || task.Status == models.TaskStatusCompleted:
		return StateCompleted
	case task.Status == models.TaskStatusCancelled:
		return StateCancelled
	case task.ActiveTimerStartedAt != nil:
		return StateRunning
	case task.StartedAt == nil:
		return StateNotStarted
	case task.Status == models.TaskStatusStopped:
		return StateStopped
	default:
		return StatePaused
	}
}

// transitionPlan is the outcome of a legal transition: the task with its new
// cache values and the ledger row to append.
type transitionPlan struct {
	task    models.Task
	log     models.TaskTimeLog
	from    TimerState
	elapsed int64
}

// planTransition applies action to a copy of task at now. It performs no I/O;
// an illegal action returns an *InvalidTransitionError and nothing else.
func planTransition(task models.Task, action models.TimerAction, userID uint64, now time.Time, note string) (*transitionPlan, error) {
	from := StateOf(&task)
	invalid := func(reason string) error {
		return &InvalidTransitionError{Action: action, From: from, Reason: reason}
	}

	switch from {
	case StateCompleted:
		return nil, invalid("task is already completed")
	case StateCancelled:
		return nil, invalid("task is cancelled")
	}

	plan := &transitionPlan{from: from}
	entry := models.TaskTimeLog{
		TaskID:    task.ID,
		UserID:    userID,
		Action:    action,
		Note:      strings.TrimSpace(note),
		CreatedAt: now,
	}
	at := now

	switch action {
	case models.TimerActionStart, models.TimerActionResume:
		if task.ActiveTimerStartedAt != nil {
			return nil, invalid("timer is already running")
		}
		if action == models.TimerActionResume && task.StartedAt == nil {
			return nil, invalid("timer has never been started")
		}
		if task.StartedAt == nil {
			task.StartedAt = &at
		}
		task.ActiveTimerStartedAt = &at
		task.Status = models.TaskStatusInProgress
		entry.StartAt = &at

	case models.TimerActionPause, models.TimerActionStop:
		if task.ActiveTimerStartedAt == nil {
			return nil, invalid("no timer is running")
		}
		startedAt := *task.ActiveTimerStartedAt
		plan.elapsed = elapsedSeconds(startedAt, now)
		task.TotalTrackedSeconds += plan.elapsed
		task.ActiveTimerStartedAt = nil
		if action == models.TimerActionPause {
			task.LastPausedAt = &at
			task.Status = models.TaskStatusPaused
		} else {
			task.Status = models.TaskStatusStopped
		}
		entry.StartAt = &startedAt
		entry.EndAt = &at
		entry.DurationSeconds = plan.elapsed

	case models.TimerActionComplete:
		startedAt := now
		if task.ActiveTimerStartedAt != nil {
			startedAt = *task.ActiveTimerStartedAt
			plan.elapsed = elapsedSeconds(startedAt, now)
			task.TotalTrackedSeconds += plan.elapsed
		}
		task.ActiveTimerStartedAt = nil
		task.CompletedAt = &at
		task.Status = models.TaskStatusCompleted
		entry.StartAt = &startedAt
		entry.EndAt = &at
		entry.DurationSeconds = plan.elapsed

	default:
		return nil, invalid("unknown action")
	}

	plan.task = task
	plan.log = entry
	return plan, nil
}

// elapsedSeconds returns whole seconds between from and to, never negative.
func elapsedSeconds(from, to time.Time) int64 {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}
