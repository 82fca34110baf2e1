package handlers

import (
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/timesheet-api/internal/dto"
	apierrors "github.com/yukikurage/timesheet-api/internal/errors"
	"github.com/yukikurage/timesheet-api/internal/middleware"
	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/services"
	"github.com/yukikurage/timesheet-api/internal/utils"
)

// TimerHandler serves the timer actions and the ledger of a task.
// Routes must run behind RequireTaskAccess.
type TimerHandler struct {
	timerService   *services.TimerService
	timeLogService *services.TimeLogService
}

func NewTimerHandler(timerService *services.TimerService, timeLogService *services.TimeLogService) *TimerHandler {
	return &TimerHandler{
		timerService:   timerService,
		timeLogService: timeLogService,
	}
}

type transitionRequest struct {
	Note string `json:"note" binding:"max=1000"`
}

// Transition applies the timer action named by the last segment of the
// route, e.g. POST /api/tasks/:id/pause.
func (h *TimerHandler) Transition(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	action, err := models.ParseTimerAction(path.Base(c.FullPath()))
	if err != nil {
		apierrors.NotFound(c, "Unknown timer action")
		return
	}

	// The body is optional.
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.timerService.Apply(c.Request.Context(), action, services.TransitionInput{
		TaskID: task.ID,
		UserID: userID,
		Note:   req.Note,
	})
	if err != nil {
		respondTimerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskTimerDTO(*updated))
}

// ListLogs returns a page of the task's ledger in append order
func (h *TimerHandler) ListLogs(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	params := utils.GetPaginationParams(c)
	logs, total, err := h.timeLogService.ListLogs(c.Request.Context(), task.ID, userID, params)
	if err != nil {
		respondTimerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeLogListResponse(logs, params, total))
}

// Summary aggregates the ledger by day or week
func (h *TimerHandler) Summary(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	groupBy, err := services.ParseGroupBy(c.Query("group_by"))
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	summary, err := h.timeLogService.Summary(c.Request.Context(), task.ID, userID, groupBy)
	if err != nil {
		respondTimerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeSummaryDTO(summary))
}

// Reconcile compares the ledger total with the cached total. Owners only.
func (h *TimerHandler) Reconcile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	rec, err := h.timeLogService.ReconcileForOwner(c.Request.Context(), task.ID, userID)
	if err != nil {
		respondTimerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToReconciliationDTO(rec))
}

func respondTimerError(c *gin.Context, err error) {
	var invalid *services.InvalidTransitionError
	var conflict *services.ConcurrentTimerConflictError

	switch {
	case errors.As(err, &invalid):
		apierrors.PreconditionFailedWithDetails(c, apierrors.ErrCodeInvalidTransition, invalid.Error(), gin.H{
			"action": invalid.Action,
			"state":  invalid.From,
		})
	case errors.As(err, &conflict):
		apierrors.ConflictWithCode(c, apierrors.ErrCodeConcurrentTimer, conflict.Error(), gin.H{
			"running_task_id": conflict.RunningTaskID,
		})
	case errors.Is(err, services.ErrNotClockedIn):
		apierrors.PreconditionFailed(c, apierrors.ErrCodeNotClockedIn, err.Error())
	case errors.Is(err, services.ErrNotAuthorized),
		errors.Is(err, services.ErrNotOrganizationOwner):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidGroupBy):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
