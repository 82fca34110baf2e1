package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/timesheet-api/internal/dto"
	apierrors "github.com/yukikurage/timesheet-api/internal/errors"
	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/services"
)

func decodeTimer(t *testing.T, body []byte) dto.TaskTimerDTO {
	t.Helper()
	var timer dto.TaskTimerDTO
	require.NoError(t, json.Unmarshal(body, &timer))
	return timer
}

func TestTimerHandler_StartPauseResumeStop(t *testing.T) {
	f := newAPIFixture(t)
	task := f.createTask("Report", f.worker)

	w := f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/start"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	timer := decodeTimer(t, w.Body.Bytes())
	assert.True(t, timer.IsRunning)
	assert.Equal(t, models.TaskStatusInProgress, timer.Status)
	require.NotNil(t, timer.StartedAt)

	f.advance(300 * time.Second)
	w = f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/pause"), []byte(`{"note":"lunch"}`))
	require.Equal(t, http.StatusOK, w.Code)
	timer = decodeTimer(t, w.Body.Bytes())
	assert.False(t, timer.IsRunning)
	assert.Equal(t, int64(300), timer.TotalTrackedSeconds)

	f.advance(600 * time.Second)
	w = f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/resume"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	f.advance(300 * time.Second)
	w = f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/stop"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	timer = decodeTimer(t, w.Body.Bytes())
	assert.Equal(t, int64(600), timer.TotalTrackedSeconds)
	assert.Equal(t, models.TaskStatusStopped, timer.Status)

	w = f.do(f.worker.ID, http.MethodGet, taskPath(task.ID, "/logs"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var logs dto.TimeLogListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs.Logs, 4)
	assert.Equal(t, int64(4), logs.Pagination.Total)
	assert.Equal(t, models.TimerActionPause, logs.Logs[1].Action)
	assert.Equal(t, "lunch", logs.Logs[1].Note)
	assert.Equal(t, int64(300), logs.Logs[1].DurationSeconds)
	assert.Zero(t, logs.Logs[2].DurationSeconds)
}

func TestTimerHandler_InvalidTransition(t *testing.T) {
	f := newAPIFixture(t)
	task := f.createTask("Report", f.worker)

	w := f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/pause"), nil)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	apiErr := decodeAPIError(t, w)
	assert.Equal(t, apierrors.ErrCodeInvalidTransition, apiErr.Code)

	details, ok := apiErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(models.TimerActionPause), details["action"])
	assert.Equal(t, string(services.StateNotStarted), details["state"])

	require.Equal(t, http.StatusOK, f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/start"), nil).Code)
	w = f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/start"), nil)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)

	require.Equal(t, http.StatusOK, f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/complete"), nil).Code)
	w = f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/resume"), nil)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, apierrors.ErrCodeInvalidTransition, decodeAPIError(t, w).Code)
}

func TestTimerHandler_ConcurrentTimer(t *testing.T) {
	f := newAPIFixture(t)
	first := f.createTask("First", f.worker)
	second := f.createTask("Second", f.worker)

	require.Equal(t, http.StatusOK, f.do(f.worker.ID, http.MethodPost, taskPath(first.ID, "/start"), nil).Code)

	w := f.do(f.worker.ID, http.MethodPost, taskPath(second.ID, "/start"), nil)
	require.Equal(t, http.StatusConflict, w.Code)

	apiErr := decodeAPIError(t, w)
	assert.Equal(t, apierrors.ErrCodeConcurrentTimer, apiErr.Code)
	details, ok := apiErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, first.ID, details["running_task_id"])

	// Nothing was written for the rejected start.
	w = f.do(f.worker.ID, http.MethodGet, taskPath(second.ID, "/logs"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs dto.TimeLogListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	assert.Empty(t, logs.Logs)
}

func TestTimerHandler_Access(t *testing.T) {
	f := newAPIFixture(t)
	task := f.createTask("Report", f.worker)

	// Members who are not the assignee are refused.
	w := f.do(f.owner.ID, http.MethodPost, taskPath(task.ID, "/start"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Outsiders cannot learn the task exists.
	w = f.do(f.outsider.ID, http.MethodPost, taskPath(task.ID, "/start"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(f.worker.ID, http.MethodPost, taskPath(9999, "/start"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimerHandler_NoteValidation(t *testing.T) {
	f := newAPIFixture(t)
	task := f.createTask("Report", f.worker)

	long, err := json.Marshal(map[string]string{"note": strings.Repeat("x", 1001)})
	require.NoError(t, err)

	w := f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/start"), long)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/start"), []byte(`{"note":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/start"), []byte(`{"note":"kickoff"}`))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimerHandler_SummaryAndReconcile(t *testing.T) {
	f := newAPIFixture(t)
	task := f.createTask("Report", f.worker)

	require.Equal(t, http.StatusOK, f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/start"), nil).Code)
	f.advance(45 * time.Minute)
	require.Equal(t, http.StatusOK, f.do(f.worker.ID, http.MethodPost, taskPath(task.ID, "/stop"), nil).Code)

	w := f.do(f.worker.ID, http.MethodGet, taskPath(task.ID, "/logs/summary?group_by=week"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary dto.TimeSummaryDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, int64(2700), summary.LedgerSeconds)
	assert.Equal(t, int64(2700), summary.CachedSeconds)
	assert.True(t, summary.Consistent)
	assert.Equal(t, services.GroupByWeek, summary.GroupBy)
	require.Len(t, summary.Buckets, 1)
	assert.Equal(t, "2026-W42", summary.Buckets[0].Key)

	w = f.do(f.worker.ID, http.MethodGet, taskPath(task.ID, "/logs/summary?group_by=month"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(f.worker.ID, http.MethodGet, taskPath(task.ID, "/logs/reconcile"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(f.owner.ID, http.MethodGet, taskPath(task.ID, "/logs/reconcile"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rec dto.ReconciliationDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, int64(2700), rec.LedgerSeconds)
	assert.Zero(t, rec.DriftSeconds)
}
