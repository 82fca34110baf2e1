package models

import (
	"errors"
	"fmt"
	"time"
)

// TimerAction is the closed set of timer transitions recorded in the ledger.
type TimerAction string

const (
	TimerActionStart    TimerAction = "start"
	TimerActionPause    TimerAction = "pause"
	TimerActionResume   TimerAction = "resume"
	TimerActionStop     TimerAction = "stop"
	TimerActionComplete TimerAction = "complete"
)

// ErrUnknownTimerAction is returned when parsing a string that is not a TimerAction.
var ErrUnknownTimerAction = errors.New("unknown timer action")

// TimerActions lists every action in lifecycle order.
var TimerActions = []TimerAction{
	TimerActionStart,
	TimerActionPause,
	TimerActionResume,
	TimerActionStop,
	TimerActionComplete,
}

// ParseTimerAction converts s into a TimerAction.
func ParseTimerAction(s string) (TimerAction, error) {
	for _, a := range TimerActions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimerAction, s)
}

// ClosesInterval reports whether the action ends a running interval and
// therefore may carry a non-zero duration.
func (a TimerAction) ClosesInterval() bool {
	switch a {
	case TimerActionPause, TimerActionStop, TimerActionComplete:
		return true
	}
	return false
}

// TaskTimeLog is one append-only ledger row. Rows are never updated or deleted.
type TaskTimeLog struct {
	ID              uint64      `gorm:"primarykey" json:"id"`
	TaskID          uint64      `gorm:"not null;index" json:"task_id"`
	UserID          uint64      `gorm:"not null;index" json:"user_id"`
	Action          TimerAction `gorm:"type:varchar(20);not null;index" json:"action"`
	StartAt         *time.Time  `json:"start_at"`
	EndAt           *time.Time  `json:"end_at"`
	DurationSeconds int64       `gorm:"not null;default:0" json:"duration_seconds"`
	Note            string      `gorm:"type:text" json:"note"`
	CreatedAt       time.Time   `gorm:"index" json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"-"`
}
