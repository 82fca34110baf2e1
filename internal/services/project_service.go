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

var ErrNotOrganizationOwner = errors.New("only an organization owner can perform this action")

// ProjectService groups tasks of an organization into billable or
// non-billable projects.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	orgRepo     repository.OrganizationRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, orgRepo repository.OrganizationRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		orgRepo:     orgRepo,
	}
}

// CreateProjectInput represents parameters to create a project.
type CreateProjectInput struct {
	OrganizationID uint64
	Name           string
	Description    string
	IsBillable     bool
	CreatorID      uint64
}

// CreateProject creates a project. Only organization owners may do so.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	member, err := findMember(ctx, s.orgRepo, input.OrganizationID, input.CreatorID)
	if err != nil {
		return nil, err
	}
	if !member.IsOwner() {
		return nil, ErrNotOrganizationOwner
	}

	project := &models.Project{
		OrganizationID: input.OrganizationID,
		Name:           name,
		Description:    input.Description,
		IsBillable:     input.IsBillable,
		CreatedBy:      input.CreatorID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// ListProjects returns the projects of an organization the user belongs to.
func (s *ProjectService) ListProjects(ctx context.Context, orgID, userID uint64) ([]models.Project, error) {
	if _, err := findMember(ctx, s.orgRepo, orgID, userID); err != nil {
		return nil, err
	}

	projects, err := s.projectRepo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns a project visible to the user.
func (s *ProjectService) GetProject(ctx context.Context, projectID, userID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if _, err := findMember(ctx, s.orgRepo, project.OrganizationID, userID); err != nil {
		if errors.Is(err, ErrNotOrganizationMember) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	return project, nil
}
