package repository

import (
	"context"
	"time"

	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/utils"
)

// TaskRepository defines the interface for task data access.
// Timer cache columns are never written here; see TimerTx.
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// UpdateDetails persists the non-timer columns of a task
	UpdateDetails(ctx context.Context, task *models.Task) error

	// FindRunningByAssignee returns the task the user currently has a running
	// timer on, or nil when there is none
	FindRunningByAssignee(ctx context.Context, userID uint64) (*models.Task, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	AssignedTo *uint64
	ProjectID  *uint64
	Status     *models.TaskStatus
	Page       int
	PageSize   int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uint64) (*models.Project, error)
	ListByOrganization(ctx context.Context, organizationID uint64) ([]models.Project, error)
}

// TimeLogRepository is the read side of the task_time_logs ledger
type TimeLogRepository interface {
	// ListByTask returns one page of ledger rows in append order
	ListByTask(ctx context.Context, taskID uint64, params utils.PaginationParams) ([]models.TaskTimeLog, int64, error)

	// ListAllByTask returns every ledger row of a task in append order
	ListAllByTask(ctx context.Context, taskID uint64) ([]models.TaskTimeLog, error)

	// SumDurationByTask sums duration_seconds over the task's ledger
	SumDurationByTask(ctx context.Context, taskID uint64) (int64, error)
}

// TimesheetRepository is the read side of timesheets
type TimesheetRepository interface {
	// FindByUserAndDate returns the timesheet or nil when none exists
	FindByUserAndDate(ctx context.Context, userID uint64, workDate string) (*models.Timesheet, error)

	// ListEntries returns the entries recorded on a timesheet
	ListEntries(ctx context.Context, timesheetID uint64) ([]models.TimesheetEntry, error)
}

// TimerStore runs timer and clock transitions atomically.
type TimerStore interface {
	// WithinTransaction runs fn in a single database transaction. Any error
	// returned by fn rolls the whole unit back.
	WithinTransaction(ctx context.Context, fn func(tx TimerTx) error) error
}

// TimerTx is the set of operations available inside a timer transaction.
type TimerTx interface {
	// LockUser takes a row lock on the user, serializing that user's transitions
	LockUser(userID uint64) error

	// LockTask loads and row-locks a task
	LockTask(taskID uint64) (*models.Task, error)

	// FindRunningTask returns another task of the user with a running timer,
	// or nil when there is none
	FindRunningTask(userID, excludeTaskID uint64) (*models.Task, error)

	// FindRunningTaskInOrganization returns the user's running task on a
	// project of the organization, or nil
	FindRunningTaskInOrganization(userID, organizationID uint64) (*models.Task, error)

	// IsMember reports whether the user belongs to the organization
	IsMember(organizationID, userID uint64) (bool, error)

	// RemoveMember deletes the user's membership of the organization
	RemoveMember(organizationID, userID uint64) error

	// SaveTimerState persists the status and timer cache columns of task
	SaveTimerState(task *models.Task) error

	// AppendLog inserts a ledger row
	AppendLog(log *models.TaskTimeLog) error

	// ListLogsEndedBetween returns the task's closing ledger rows with end_at in [from, to)
	ListLogsEndedBetween(taskID uint64, from, to time.Time) ([]models.TaskTimeLog, error)

	// FindProject loads a project
	FindProject(projectID uint64) (*models.Project, error)

	// FindTimesheet returns the user's timesheet for workDate or nil
	FindTimesheet(userID uint64, workDate string) (*models.Timesheet, error)

	// CreateTimesheet inserts a timesheet
	CreateTimesheet(ts *models.Timesheet) error

	// SaveTimesheet updates a timesheet
	SaveTimesheet(ts *models.Timesheet) error

	// LockTimesheet loads and row-locks a timesheet
	LockTimesheet(timesheetID uint64) (*models.Timesheet, error)

	// UpsertTimesheetEntry inserts or refreshes the entry for (timesheet, task)
	UpsertTimesheetEntry(entry *models.TimesheetEntry) error

	// FindTimesheetEntry returns an entry or nil when none exists
	FindTimesheetEntry(entryID uint64) (*models.TimesheetEntry, error)

	// SaveTimesheetEntry writes the editable columns of an entry
	SaveTimesheetEntry(entry *models.TimesheetEntry) error

	// DeleteTimesheetEntry deletes an entry
	DeleteTimesheetEntry(entryID uint64) error
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(ctx context.Context, org *models.Organization) error

	// CreateWithOwner creates an organization and its owner membership atomically
	CreateWithOwner(ctx context.Context, org *models.Organization, owner *models.OrganizationMember) error

	// FindByID finds an organization by ID
	FindByID(ctx context.Context, id uint64) (*models.Organization, error)

	// FindWithProjects finds an organization with its projects preloaded
	FindWithProjects(ctx context.Context, id uint64) (*models.Organization, error)

	// FindByInviteCode finds an organization by invite code
	FindByInviteCode(ctx context.Context, code string) (*models.Organization, error)

	// Update updates an organization
	Update(ctx context.Context, org *models.Organization) error

	// AddMember adds a member to an organization
	AddMember(ctx context.Context, member *models.OrganizationMember) error


	// FindMember finds a specific organization member
	FindMember(ctx context.Context, organizationID, userID uint64) (*models.OrganizationMember, error)

	// ListMembersByUserID lists all organizations a user is a member of
	ListMembersByUserID(ctx context.Context, userID uint64) ([]models.OrganizationMember, error)

	// ListMembers lists all members of an organization
	ListMembers(ctx context.Context, organizationID uint64) ([]models.OrganizationMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// CreateWithPersonalOrganization creates a user, their personal organization,
	// and corresponding membership within a single transaction.
	CreateWithPersonalOrganization(ctx context.Context, user *models.User, org *models.Organization, member *models.OrganizationMember) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateLastLogin records when the user last logged in
	UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error
}
