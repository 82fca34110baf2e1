package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/timesheet-api/internal/dto"
	apierrors "github.com/yukikurage/timesheet-api/internal/errors"
	"github.com/yukikurage/timesheet-api/internal/services"
)

type TimesheetHandler struct {
	timesheetService *services.TimesheetService
}

func NewTimesheetHandler(timesheetService *services.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{
		timesheetService: timesheetService,
	}
}

// ClockIn opens today's timesheet
func (h *TimesheetHandler) ClockIn(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ts, err := h.timesheetService.ClockIn(c.Request.Context(), userID)
	if err != nil {
		respondTimesheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimesheetDTO(*ts))
}

// ClockOut closes today's timesheet, pausing the running task if there is one
func (h *TimesheetHandler) ClockOut(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	result, err := h.timesheetService.ClockOut(c.Request.Context(), userID)
	if err != nil {
		respondTimesheetError(c, err)
		return
	}

	resp := dto.ClockOutResponse{Timesheet: dto.ToTimesheetDTO(*result.Timesheet)}
	if result.PausedTask != nil {
		paused := dto.ToTaskTimerDTO(*result.PausedTask)
		resp.PausedTask = &paused
	}
	c.JSON(http.StatusOK, resp)
}

// Status reports the clock state for today
func (h *TimesheetHandler) Status(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	status, err := h.timesheetService.Status(c.Request.Context(), userID)
	if err != nil {
		respondTimesheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimesheetStatusDTO(status))
}

// Entries lists the per-task timesheet lines of ?date=YYYY-MM-DD, today by default
func (h *TimesheetHandler) Entries(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	day, err := h.timesheetService.Entries(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		respondTimesheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimesheetDayDTO(day))
}

type submitTimesheetRequest struct {
	Date string `json:"date" binding:"required"`
}

// Submit locks a day's timesheet against further entries and edits
func (h *TimesheetHandler) Submit(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req submitTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "date is required (YYYY-MM-DD)")
		return
	}

	ts, err := h.timesheetService.Submit(c.Request.Context(), userID, req.Date)
	if err != nil {
		respondTimesheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimesheetDTO(*ts))
}

type updateEntryRequest struct {
	HoursWorked *float64 `json:"hours_worked"`
	Description *string  `json:"description" binding:"omitempty,max=1000"`
	IsBillable  *bool    `json:"is_billable"`
}

// UpdateEntry edits a timesheet line of an unsubmitted day
func (h *TimesheetHandler) UpdateEntry(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	entryID, ok := paramID(c, "id", "entry")
	if !ok {
		return
	}

	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	entry, err := h.timesheetService.UpdateEntry(c.Request.Context(), userID, entryID, services.UpdateEntryInput{
		HoursWorked: req.HoursWorked,
		Description: req.Description,
		IsBillable:  req.IsBillable,
	})
	if err != nil {
		respondTimesheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimesheetEntryDTO(*entry))
}

// DeleteEntry removes a timesheet line of an unsubmitted day
func (h *TimesheetHandler) DeleteEntry(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	entryID, ok := paramID(c, "id", "entry")
	if !ok {
		return
	}

	if err := h.timesheetService.DeleteEntry(c.Request.Context(), userID, entryID); err != nil {
		respondTimesheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Entry deleted successfully",
	})
}

func respondTimesheetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotClockedIn):
		apierrors.PreconditionFailed(c, apierrors.ErrCodeNotClockedIn, err.Error())
	case errors.Is(err, services.ErrAlreadyClockedIn),
		errors.Is(err, services.ErrAlreadyClockedOut),
		errors.Is(err, services.ErrTimesheetOpen),
		errors.Is(err, services.ErrTimesheetSubmitted):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidWorkDate),
		errors.Is(err, services.ErrFutureWorkDate),
		errors.Is(err, services.ErrInvalidHoursWorked):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTimesheetEntryNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		respondTimerError(c, err)
	}
}
