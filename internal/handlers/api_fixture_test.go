package handlers

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/timesheet-api/internal/errors"
	"github.com/yukikurage/timesheet-api/internal/middleware"
	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/repository"
	"github.com/yukikurage/timesheet-api/internal/services"
	"gorm.io/gorm"
)

// apiFixture wires the task, timer and timesheet endpoints over a migrated
// in-memory database with a controllable clock.
type apiFixture struct {
	t        *testing.T
	db       *gorm.DB
	now      time.Time
	owner    *models.User
	worker   *models.User
	outsider *models.User
	org      *models.Organization
	project  *models.Project

	taskRepo repository.TaskRepository
	orgRepo  repository.OrganizationRepository

	taskHandler      *TaskHandler
	projectHandler   *ProjectHandler
	timerHandler     *TimerHandler
	timesheetHandler *TimesheetHandler
}

var apiStart = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func newAPIFixture(t *testing.T, timerOpts ...services.TimerOption) *apiFixture {
	t.Helper()

	db := setupTestDB(t)
	f := &apiFixture{
		t:        t,
		db:       db,
		now:      apiStart,
		taskRepo: repository.NewTaskRepository(db),
		orgRepo:  repository.NewOrganizationRepository(db),
	}

	f.owner = createTestUser(t, db, "owner")
	f.worker = createTestUser(t, db, "worker")
	f.outsider = createTestUser(t, db, "outsider")

	f.org = &models.Organization{Name: "Acme", InviteCode: "ACMECODE"}
	require.NoError(t, db.Create(f.org).Error)
	require.NoError(t, db.Create(&models.OrganizationMember{OrganizationID: f.org.ID, UserID: f.owner.ID, Role: models.RoleOwner, JoinedAt: apiStart}).Error)
	require.NoError(t, db.Create(&models.OrganizationMember{OrganizationID: f.org.ID, UserID: f.worker.ID, Role: models.RoleMember, JoinedAt: apiStart}).Error)

	f.project = &models.Project{OrganizationID: f.org.ID, Name: "Website", IsBillable: true, CreatedBy: f.owner.ID}
	require.NoError(t, db.Create(f.project).Error)

	projectRepo := repository.NewProjectRepository(db)
	opts := append([]services.TimerOption{
		services.WithClock(func() time.Time { return f.now }),
		services.WithLocation(time.UTC),
	}, timerOpts...)
	timer := services.NewTimerService(repository.NewTimerStore(db), opts...)

	f.taskHandler = NewTaskHandler(services.NewTaskService(f.taskRepo, projectRepo, f.orgRepo))
	f.projectHandler = NewProjectHandler(services.NewProjectService(projectRepo, f.orgRepo))
	f.timerHandler = NewTimerHandler(timer, services.NewTimeLogService(repository.NewTimeLogRepository(db), f.taskRepo, f.orgRepo, time.UTC))
	f.timesheetHandler = NewTimesheetHandler(services.NewTimesheetService(timer, repository.NewTimesheetRepository(db), f.taskRepo))

	return f
}

func (f *apiFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *apiFixture) router(userID uint64) *gin.Engine {
	r := gin.New()
	api := r.Group("/api", asUser(userID))

	api.POST("/organizations/:id/projects", f.projectHandler.CreateProject)
	api.GET("/organizations/:id/projects", f.projectHandler.ListProjects)
	api.GET("/projects/:id", f.projectHandler.GetProject)

	tasks := api.Group("/tasks")
	tasks.GET("", f.taskHandler.ListTasks)
	tasks.POST("", f.taskHandler.CreateTask)
	tasks.GET("/:id", f.taskHandler.GetTask)
	tasks.POST("/:id/assign", f.taskHandler.AssignTask)
	tasks.POST("/:id/accept", f.taskHandler.AcceptTask)
	tasks.POST("/:id/reject", f.taskHandler.RejectTask)
	tasks.POST("/:id/cancel", f.taskHandler.CancelTask)

	timer := tasks.Group("/:id", middleware.RequireTaskAccess(f.taskRepo, f.orgRepo))
	for _, action := range []models.TimerAction{
		models.TimerActionStart,
		models.TimerActionPause,
		models.TimerActionResume,
		models.TimerActionStop,
		models.TimerActionComplete,
	} {
		timer.POST("/"+string(action), f.timerHandler.Transition)
	}
	timer.GET("/logs", f.timerHandler.ListLogs)
	timer.GET("/logs/summary", f.timerHandler.Summary)
	timer.GET("/logs/reconcile", f.timerHandler.Reconcile)

	timesheet := api.Group("/timesheet")
	timesheet.POST("/clockin", f.timesheetHandler.ClockIn)
	timesheet.POST("/clockout", f.timesheetHandler.ClockOut)
	timesheet.GET("/status", f.timesheetHandler.Status)
	timesheet.GET("/entries", f.timesheetHandler.Entries)
	timesheet.PATCH("/entries/:id", f.timesheetHandler.UpdateEntry)
	timesheet.DELETE("/entries/:id", f.timesheetHandler.DeleteEntry)
	timesheet.POST("/submit", f.timesheetHandler.Submit)

	return r
}

func (f *apiFixture) do(userID uint64, method, url string, body []byte) *httptest.ResponseRecorder {
	return doRequest(f.router(userID), method, url, body)
}

// createTask inserts an accepted task assigned to assignee.
func (f *apiFixture) createTask(name string, assignee *models.User) *models.Task {
	f.t.Helper()
	task := &models.Task{
		ProjectID:        f.project.ID,
		Name:             name,
		CreatedBy:        f.owner.ID,
		Status:           models.TaskStatusPending,
		AcceptanceStatus: models.AcceptanceAccepted,
	}
	if assignee != nil {
		task.AssignedTo = &assignee.ID
	}
	require.NoError(f.t, f.db.Create(task).Error)
	return task
}

func taskPath(taskID uint64, suffix string) string {
	return fmt.Sprintf("/api/tasks/%d%s", taskID, suffix)
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}
