package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNotOrganizationMember = errors.New("user is not a member of the organization")
	ErrTaskNotFound          = errors.New("task not found")
	ErrProjectNotFound       = errors.New("project not found")
	ErrNotTaskCreator        = errors.New("only the task creator can perform this action")
	ErrNotTaskManager        = errors.New("only the task creator or an organization owner can assign this task")
	ErrNameRequired          = errors.New("name is required")
	ErrInvalidAssignee       = errors.New("assignee is not a member of the organization")
	ErrTaskTimerRunning      = errors.New("task timer is running")
	ErrAcceptanceNotPending  = errors.New("task assignment has already been answered")
	ErrTaskClosed            = errors.New("task is already completed or cancelled")
)

// TaskService handles task business logic. Timer columns are never touched
// here; see TimerService.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	orgRepo     repository.OrganizationRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, orgRepo repository.OrganizationRepository) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		orgRepo:     orgRepo,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID   uint64
	Name        string
	Description string
	AssignedTo  *uint64
	CreatorID   uint64
}

// ListMyTasksInput represents filters for listing the caller's tasks
type ListMyTasksInput struct {
	UserID   uint64
	Status   *models.TaskStatus
	Page     int
	PageSize int
}

// CreateTask creates a task in a project. The creator must belong to the
// project's organization, as must the optional assignee.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	project, err := s.projectRepo.FindByID(ctx, input.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if _, err := findMember(ctx, s.orgRepo, project.OrganizationID, input.CreatorID); err != nil {
		return nil, err
	}

	if input.AssignedTo != nil {
		if err := s.ensureAssignable(ctx, project.OrganizationID, *input.AssignedTo); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		ProjectID:        project.ID,
		Name:             name,
		Description:      input.Description,
		CreatedBy:        input.CreatorID,
		AssignedTo:       input.AssignedTo,
		Status:           models.TaskStatusPending,
		AcceptanceStatus: models.AcceptancePending,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(ctx, task.ID, "Project", "Creator", "Assignee")
}

// GetTask returns a task the user can see, with related data.
func (s *TaskService) GetTask(ctx context.Context, taskID, userID uint64) (*models.Task, error) {
	task, _, err := loadAccessibleTask(ctx, s.taskRepo, s.orgRepo, taskID, userID, "Creator", "Assignee")
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListMyTasks returns the tasks assigned to the user.
func (s *TaskService) ListMyTasks(ctx context.Context, input ListMyTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		AssignedTo: &input.UserID,
		Status:     input.Status,
		Page:       input.Page,
		PageSize:   input.PageSize,
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// AssignTask hands a task to another organization member. The acceptance is
// reset to pending. A task whose timer is running cannot change hands.
func (s *TaskService) AssignTask(ctx context.Context, taskID, actorID, assigneeID uint64) (*models.Task, error) {
	task, member, err := loadAccessibleTask(ctx, s.taskRepo, s.orgRepo, taskID, actorID)
	if err != nil {
		return nil, err
	}

	if task.CreatedBy != actorID && !member.IsOwner() {
		return nil, ErrNotTaskManager
	}
	if isClosed(task) {
		return nil, ErrTaskClosed
	}
	if task.IsRunning() {
		return nil, ErrTaskTimerRunning
	}
	if err := s.ensureAssignable(ctx, task.Project.OrganizationID, assigneeID); err != nil {
		return nil, err
	}

	task.AssignedTo = &assigneeID
	task.AcceptanceStatus = models.AcceptancePending
	if err := s.taskRepo.UpdateDetails(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}

	return s.taskRepo.FindByID(ctx, task.ID, "Project", "Creator", "Assignee")
}

// AcceptTask records the assignee's acceptance.
func (s *TaskService) AcceptTask(ctx context.Context, taskID, userID uint64) (*models.Task, error) {
	return s.answerAssignment(ctx, taskID, userID, models.AcceptanceAccepted)
}

// RejectTask records the assignee's rejection.
func (s *TaskService) RejectTask(ctx context.Context, taskID, userID uint64) (*models.Task, error) {
	return s.answerAssignment(ctx, taskID, userID, models.AcceptanceRejected)
}

func (s *TaskService) answerAssignment(ctx context.Context, taskID, userID uint64, answer models.AcceptanceStatus) (*models.Task, error) {
	task, _, err := loadAccessibleTask(ctx, s.taskRepo, s.orgRepo, taskID, userID)
	if err != nil {
		return nil, err
	}

	if !task.IsAssignedTo(userID) {
		return nil, ErrNotAuthorized
	}
	if task.AcceptanceStatus != models.AcceptancePending {
		return nil, ErrAcceptanceNotPending
	}

	task.AcceptanceStatus = answer
	if err := s.taskRepo.UpdateDetails(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task acceptance: %w", err)
	}

	return task, nil
}

// CancelTask cancels a task. Cancelled tasks accept no timer actions.
func (s *TaskService) CancelTask(ctx context.Context, taskID, actorID uint64) (*models.Task, error) {
	task, _, err := loadAccessibleTask(ctx, s.taskRepo, s.orgRepo, taskID, actorID)
	if err != nil {
		return nil, err
	}

	if task.CreatedBy != actorID {
		return nil, ErrNotTaskCreator
	}
	if isClosed(task) {
		return nil, ErrTaskClosed
	}
	if task.IsRunning() {
		return nil, ErrTaskTimerRunning
	}

	task.Status = models.TaskStatusCancelled
	if err := s.taskRepo.UpdateDetails(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to cancel task: %w", err)
	}

	return task, nil
}

func (s *TaskService) ensureAssignable(ctx context.Context, orgID, userID uint64) error {
	if _, err := s.orgRepo.FindMember(ctx, orgID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidAssignee
		}
		return fmt.Errorf("failed to verify assignee: %w", err)
	}
	return nil
}

func isClosed(task *models.Task) bool {
	return task.Status == models.TaskStatusCompleted || task.Status == models.TaskStatusCancelled
}

// loadAccessibleTask loads a task with its project and checks that userID
// belongs to the project's organization. Non-members get ErrTaskNotFound so
// task IDs of other organizations are not disclosed.
func loadAccessibleTask(ctx context.Context, taskRepo repository.TaskRepository, orgRepo repository.OrganizationRepository, taskID, userID uint64, preload ...string) (*models.Task, *models.OrganizationMember, error) {
	task, err := taskRepo.FindByID(ctx, taskID, append([]string{"Project"}, preload...)...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("failed to find task: %w", err)
	}

	member, err := findMember(ctx, orgRepo, task.Project.OrganizationID, userID)
	if err != nil {
		if errors.Is(err, ErrNotOrganizationMember) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, err
	}

	return task, member, nil
}

// findMember verifies that a user belongs to an organization
func findMember(ctx context.Context, orgRepo repository.OrganizationRepository, orgID, userID uint64) (*models.OrganizationMember, error) {
	member, err := orgRepo.FindMember(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotOrganizationMember
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}
	return member, nil
}
