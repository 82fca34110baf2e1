package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/timesheet-api/internal/models"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestStateOf(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task models.Task
		want TimerState
	}{
		{"fresh task", models.Task{Status: models.TaskStatusPending}, StateNotStarted},
		{"running", models.Task{Status: models.TaskStatusInProgress, StartedAt: ptrTime(t0), ActiveTimerStartedAt: ptrTime(t0)}, StateRunning},
		{"paused", models.Task{Status: models.TaskStatusPaused, StartedAt: ptrTime(t0), LastPausedAt: ptrTime(t0)}, StatePaused},
		{"stopped", models.Task{Status: models.TaskStatusStopped, StartedAt: ptrTime(t0)}, StateStopped},
		{"completed", models.Task{Status: models.TaskStatusCompleted, CompletedAt: ptrTime(t0)}, StateCompleted},
		{"cancelled", models.Task{Status: models.TaskStatusCancelled}, StateCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StateOf(&tt.task))
		})
	}
}

func TestPlanTransition_Legal(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	later := t0.Add(300 * time.Second)

	running := models.Task{ID: 7, Status: models.TaskStatusInProgress, StartedAt: ptrTime(t0), ActiveTimerStartedAt: ptrTime(t0), TotalTrackedSeconds: 100}
	paused := models.Task{ID: 7, Status: models.TaskStatusPaused, StartedAt: ptrTime(t0), TotalTrackedSeconds: 100}
	stopped := models.Task{ID: 7, Status: models.TaskStatusStopped, StartedAt: ptrTime(t0), TotalTrackedSeconds: 100}
	fresh := models.Task{ID: 7, Status: models.TaskStatusPending}

	tests := []struct {
		name        string
		task        models.Task
		action      models.TimerAction
		wantStatus  models.TaskStatus
		wantTotal   int64
		wantElapsed int64
		wantRunning bool
	}{
		{"start fresh", fresh, models.TimerActionStart, models.TaskStatusInProgress, 0, 0, true},
		{"pause running", running, models.TimerActionPause, models.TaskStatusPaused, 400, 300, false},
		{"resume paused", paused, models.TimerActionResume, models.TaskStatusInProgress, 100, 0, true},
		{"start stopped", stopped, models.TimerActionStart, models.TaskStatusInProgress, 100, 0, true},
		{"resume stopped", stopped, models.TimerActionResume, models.TaskStatusInProgress, 100, 0, true},
		{"stop running", running, models.TimerActionStop, models.TaskStatusStopped, 400, 300, false},
		{"complete running", running, models.TimerActionComplete, models.TaskStatusCompleted, 400, 300, false},
		{"complete paused", paused, models.TimerActionComplete, models.TaskStatusCompleted, 100, 0, false},
		{"complete fresh", fresh, models.TimerActionComplete, models.TaskStatusCompleted, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planTransition(tt.task, tt.action, 3, later, "  note  ")
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, plan.task.Status)
			assert.Equal(t, tt.wantTotal, plan.task.TotalTrackedSeconds)
			assert.Equal(t, tt.wantElapsed, plan.elapsed)
			assert.Equal(t, tt.wantRunning, plan.task.IsRunning())

			assert.Equal(t, tt.action, plan.log.Action)
			assert.Equal(t, uint64(7), plan.log.TaskID)
			assert.Equal(t, uint64(3), plan.log.UserID)
			assert.Equal(t, tt.wantElapsed, plan.log.DurationSeconds)
			assert.Equal(t, "note", plan.log.Note)
			if tt.action.ClosesInterval() {
				require.NotNil(t, plan.log.EndAt)
				assert.True(t, plan.log.EndAt.Equal(later))
			} else {
				assert.Nil(t, plan.log.EndAt)
			}
		})
	}
}

func TestPlanTransition_DoesNotMutateInput(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	task := models.Task{ID: 1, Status: models.TaskStatusInProgress, StartedAt: ptrTime(t0), ActiveTimerStartedAt: ptrTime(t0)}

	_, err := planTransition(task, models.TimerActionPause, 1, t0.Add(time.Minute), "")
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusInProgress, task.Status)
	assert.NotNil(t, task.ActiveTimerStartedAt)
	assert.Zero(t, task.TotalTrackedSeconds)
}

func TestPlanTransition_StartKeepsFirstStartedAt(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	paused := models.Task{Status: models.TaskStatusPaused, StartedAt: ptrTime(t0)}

	plan, err := planTransition(paused, models.TimerActionResume, 1, t0.Add(time.Hour), "")
	require.NoError(t, err)
	assert.True(t, plan.task.StartedAt.Equal(t0))
	assert.True(t, plan.task.ActiveTimerStartedAt.Equal(t0.Add(time.Hour)))
}

func TestPlanTransition_Illegal(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	running := models.Task{Status: models.TaskStatusInProgress, StartedAt: ptrTime(t0), ActiveTimerStartedAt: ptrTime(t0)}
	paused := models.Task{Status: models.TaskStatusPaused, StartedAt: ptrTime(t0)}
	fresh := models.Task{Status: models.TaskStatusPending}
	completed := models.Task{Status: models.TaskStatusCompleted, StartedAt: ptrTime(t0), CompletedAt: ptrTime(t0)}
	cancelled := models.Task{Status: models.TaskStatusCancelled}

	tests := []struct {
		name     string
		task     models.Task
		action   models.TimerAction
		wantFrom TimerState
	}{
		{"start running", running, models.TimerActionStart, StateRunning},
		{"resume running", running, models.TimerActionResume, StateRunning},
		{"pause paused", paused, models.TimerActionPause, StatePaused},
		{"stop paused", paused, models.TimerActionStop, StatePaused},
		{"pause fresh", fresh, models.TimerActionPause, StateNotStarted},
		{"resume fresh", fresh, models.TimerActionResume, StateNotStarted},
		{"start completed", completed, models.TimerActionStart, StateCompleted},
		{"complete completed", completed, models.TimerActionComplete, StateCompleted},
		{"start cancelled", cancelled, models.TimerActionStart, StateCancelled},
		{"unknown action", fresh, models.TimerAction("rewind"), StateNotStarted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planTransition(tt.task, tt.action, 1, t0.Add(time.Minute), "")
			require.Nil(t, plan)
			require.ErrorIs(t, err, ErrInvalidTransition)

			var invalid *InvalidTransitionError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.action, invalid.Action)
			assert.Equal(t, tt.wantFrom, invalid.From)
			assert.NotEmpty(t, invalid.Reason)
		})
	}
}

func TestElapsedSeconds(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(300), elapsedSeconds(t0, t0.Add(300*time.Second)))
	assert.Equal(t, int64(1), elapsedSeconds(t0, t0.Add(1900*time.Millisecond)))
	assert.Equal(t, int64(0), elapsedSeconds(t0, t0))
	assert.Equal(t, int64(0), elapsedSeconds(t0, t0.Add(-time.Hour)))
}
