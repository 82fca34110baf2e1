package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/timesheet-api/internal/database"
	applog "github.com/yukikurage/timesheet-api/internal/logger"
	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/repository"
	"gorm.io/gorm"
)

// fixture is a migrated in-memory database with one organization, one
// billable project and a controllable clock.
type fixture struct {
	t       *testing.T
	db      *gorm.DB
	now     time.Time
	owner   *models.User
	worker  *models.User
	org     *models.Organization
	project *models.Project

	taskRepo      repository.TaskRepository
	projectRepo   repository.ProjectRepository
	orgRepo       repository.OrganizationRepository
	logRepo       repository.TimeLogRepository
	timesheetRepo repository.TimesheetRepository
	store         repository.TimerStore
}

var fixtureStart = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, applog.Nop()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	f := &fixture{
		t:             t,
		db:            db,
		now:           fixtureStart,
		taskRepo:      repository.NewTaskRepository(db),
		projectRepo:   repository.NewProjectRepository(db),
		orgRepo:       repository.NewOrganizationRepository(db),
		logRepo:       repository.NewTimeLogRepository(db),
		timesheetRepo: repository.NewTimesheetRepository(db),
		store:         repository.NewTimerStore(db),
	}

	f.owner = f.createUser("owner")
	f.worker = f.createUser("worker")

	f.org = &models.Organization{Name: "Acme", InviteCode: "ACMECODE"}
	require.NoError(t, db.Create(f.org).Error)
	f.addMember(f.owner, models.RoleOwner)
	f.addMember(f.worker, models.RoleMember)

	f.project = &models.Project{OrganizationID: f.org.ID, Name: "Website", IsBillable: true, CreatedBy: f.owner.ID}
	require.NoError(t, db.Create(f.project).Error)

	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) createUser(name string) *models.User {
	f.t.Helper()
	user := &models.User{Username: name, PasswordHash: "hashed"}
	require.NoError(f.t, f.db.Create(user).Error)
	return user
}

func (f *fixture) addMember(user *models.User, role models.OrganizationRole) {
	f.t.Helper()
	member := &models.OrganizationMember{OrganizationID: f.org.ID, UserID: user.ID, Role: role, JoinedAt: f.now}
	require.NoError(f.t, f.db.Create(member).Error)
}

func (f *fixture) createTask(name string, assignee *models.User) *models.Task {
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

func (f *fixture) reload(taskID uint64) *models.Task {
	f.t.Helper()
	var task models.Task
	require.NoError(f.t, f.db.First(&task, taskID).Error)
	return &task
}

func (f *fixture) logs(taskID uint64) []models.TaskTimeLog {
	f.t.Helper()
	logs, err := f.logRepo.ListAllByTask(context.Background(), taskID)
	require.NoError(f.t, err)
	return logs
}

func (f *fixture) timerService(opts ...TimerOption) *TimerService {
	return NewTimerService(f.store, append([]TimerOption{WithClock(f.clock)}, opts...)...)
}
