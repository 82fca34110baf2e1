package dto

import (
	"time"

	"github.com/yukikurage/timesheet-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          uint64     `json:"id"`
	Username    string     `json:"username"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID             uint64    `json:"id"`
	OrganizationID uint64    `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	IsBillable     bool      `json:"is_billable"`
	CreatedBy      uint64    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// TaskTimerDTO is the timer view of a task returned by every transition
type TaskTimerDTO struct {
	TaskID               uint64            `json:"task_id"`
	Status               models.TaskStatus `json:"status"`
	StartedAt            *time.Time        `json:"started_at"`
	CompletedAt          *time.Time        `json:"completed_at"`
	TotalTrackedSeconds  int64             `json:"total_tracked_seconds"`
	ActiveTimerStartedAt *time.Time        `json:"active_timer_started_at"`
	LastPausedAt         *time.Time        `json:"last_paused_at"`
	IsRunning            bool              `json:"is_running"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID               uint64                  `json:"id"`
	ProjectID        uint64                  `json:"project_id"`
	Name             string                  `json:"name"`
	Description      string                  `json:"description"`
	CreatedBy        uint64                  `json:"created_by"`
	AssignedTo       *uint64                 `json:"assigned_to"`
	AcceptanceStatus models.AcceptanceStatus `json:"acceptance_status"`
	Timer            TaskTimerDTO            `json:"timer"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Project          *ProjectDTO             `json:"project,omitempty"`
	Creator          *UserDTO                `json:"creator,omitempty"`
	Assignee         *UserDTO                `json:"assignee,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		LastLoginAt: user.LastLoginAt,
	}
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:             project.ID,
		OrganizationID: project.OrganizationID,
		Name:           project.Name,
		Description:    project.Description,
		IsBillable:     project.IsBillable,
		CreatedBy:      project.CreatedBy,
		CreatedAt:      project.CreatedAt,
	}
}

// ToProjectDTOs converts a slice of projects
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = ToProjectDTO(p)
	}
	return out
}

// ToTaskTimerDTO converts the timer columns of a Task
func ToTaskTimerDTO(task models.Task) TaskTimerDTO {
	return TaskTimerDTO{
		TaskID:               task.ID,
		Status:               task.Status,
		StartedAt:            task.StartedAt,
		CompletedAt:          task.CompletedAt,
		TotalTrackedSeconds:  task.TotalTrackedSeconds,
		ActiveTimerStartedAt: task.ActiveTimerStartedAt,
		LastPausedAt:         task.LastPausedAt,
		IsRunning:            task.IsRunning(),
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:               task.ID,
		ProjectID:        task.ProjectID,
		Name:             task.Name,
		Description:      task.Description,
		CreatedBy:        task.CreatedBy,
		AssignedTo:       task.AssignedTo,
		AcceptanceStatus: task.AcceptanceStatus,
		Timer:            ToTaskTimerDTO(task),
		CreatedAt:        task.CreatedAt,
		UpdatedAt:        task.UpdatedAt,
	}

	// Include related records if preloaded
	if task.Project.ID != 0 {
		project := ToProjectDTO(task.Project)
		dto.Project = &project
	}
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}
	if task.Assignee != nil && task.Assignee.ID != 0 {
		assignee := ToUserDTO(*task.Assignee)
		dto.Assignee = &assignee
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
