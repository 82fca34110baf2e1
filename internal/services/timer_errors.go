package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/timesheet-api/internal/models"
)

var (
	ErrInvalidTransition = errors.New("invalid timer transition")
	ErrConcurrentTimer   = errors.New("another task already has a running timer")
	ErrNotAuthorized     = errors.New("only the task assignee can operate its timer")
	ErrNotClockedIn      = errors.New("user is not clocked in")
)

// InvalidTransitionError describes why an action is not legal from the
// task's current timer state. It matches ErrInvalidTransition with errors.Is.
type InvalidTransitionError struct {
	Action models.TimerAction
	From   TimerState
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s timer in state %s: %s", e.Action, e.From, e.Reason)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ConcurrentTimerConflictError reports the task that already has a running
// timer for the user. RunningTaskID is zero when the conflict was detected by
// the database index and the running task could not be looked up afterwards.
type ConcurrentTimerConflictError struct {
	RunningTaskID uint64
}

func (e *ConcurrentTimerConflictError) Error() string {
	if e.RunningTaskID == 0 {
		return ErrConcurrentTimer.Error()
	}
	return fmt.Sprintf("%s (task %d)", ErrConcurrentTimer.Error(), e.RunningTaskID)
}

func (e *ConcurrentTimerConflictError) Is(target error) bool {
	return target == ErrConcurrentTimer
}
