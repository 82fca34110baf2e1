package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/timesheet-api/internal/dto"
	"github.com/yukikurage/timesheet-api/internal/middleware"
	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/repository"
	"github.com/yukikurage/timesheet-api/internal/services"
	"gorm.io/gorm"
)

type organizationTestEnv struct {
	db         *gorm.DB
	handler    *OrganizationHandler
	orgService *services.OrganizationService
	orgRepo    repository.OrganizationRepository
}

func setupOrganizationTestEnv(t *testing.T) organizationTestEnv {
	t.Helper()

	db := setupTestDB(t)
	orgRepo := repository.NewOrganizationRepository(db)
	orgService := services.NewOrganizationService(orgRepo, services.NewTimerService(repository.NewTimerStore(db)))

	return organizationTestEnv{
		db:         db,
		handler:    NewOrganizationHandler(orgService),
		orgService: orgService,
		orgRepo:    orgRepo,
	}
}

func (env organizationTestEnv) router(userID uint64) *gin.Engine {
	r := gin.New()
	api := r.Group("/api", asUser(userID))
	api.GET("/organizations", env.handler.ListOrganizations)
	api.POST("/organizations", env.handler.CreateOrganization)
	api.POST("/organizations/join", env.handler.JoinOrganization)

	org := api.Group("/organizations/:id", middleware.RequireOrganizationAccess(env.orgRepo))
	org.GET("", env.handler.GetOrganization)
	owner := org.Group("", middleware.RequireOrganizationOwner())
	owner.PUT("", env.handler.UpdateOrganization)
	owner.POST("/regenerate-code", env.handler.RegenerateInviteCode)
	owner.DELETE("/members/:user_id", env.handler.RemoveMember)
	return r
}

func TestOrganizationHandler_CreateOrganization(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	user := createTestUser(t, env.db, "owner")

	body, err := json.Marshal(map[string]string{"name": "New Org"})
	require.NoError(t, err)

	w := doRequest(env.router(user.ID), http.MethodPost, "/api/organizations", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.OrganizationDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "New Org", response.Name)
	require.NotEmpty(t, response.InviteCode)
}

func TestOrganizationHandler_CreateOrganization_InvalidBody(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	user := createTestUser(t, env.db, "owner")

	w := doRequest(env.router(user.ID), http.MethodPost, "/api/organizations", []byte(`{}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrganizationHandler_ListOrganizations(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	user := createTestUser(t, env.db, "member")

	_, err := env.orgService.CreateOrganization(context.Background(), services.CreateOrganizationInput{
		Name:    "Org One",
		OwnerID: user.ID,
	})
	require.NoError(t, err)

	w := doRequest(env.router(user.ID), http.MethodGet, "/api/organizations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string][]dto.OrganizationWithRoleDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	orgs := response["organizations"]
	require.Len(t, orgs, 1)
	require.Equal(t, "Org One", orgs[0].OrganizationDTO.Name)
	require.Equal(t, models.RoleOwner, orgs[0].Role)
	require.NotEmpty(t, orgs[0].InviteCode)
}

func TestOrganizationHandler_JoinOrganization_InvalidCode(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	user := createTestUser(t, env.db, "user")

	body, err := json.Marshal(map[string]string{"invite_code": "UNKNOWN"})
	require.NoError(t, err)

	w := doRequest(env.router(user.ID), http.MethodPost, "/api/organizations/join", body)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrganizationHandler_JoinAndInspect(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	owner := createTestUser(t, env.db, "owner")
	joiner := createTestUser(t, env.db, "joiner")

	org, err := env.orgService.CreateOrganization(context.Background(), services.CreateOrganizationInput{
		Name:    "Shared",
		OwnerID: owner.ID,
	})
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"invite_code": org.InviteCode})
	require.NoError(t, err)

	w := doRequest(env.router(joiner.ID), http.MethodPost, "/api/organizations/join", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(env.router(joiner.ID), http.MethodPost, "/api/organizations/join", body)
	require.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, env.db.Create(&models.Project{
		OrganizationID: org.ID,
		Name:           "Client work",
		IsBillable:     true,
		CreatedBy:      owner.ID,
	}).Error)

	orgPath := fmt.Sprintf("/api/organizations/%d", org.ID)
	w = doRequest(env.router(joiner.ID), http.MethodGet, orgPath, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail dto.OrganizationDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Len(t, detail.Members, 2)
	require.Equal(t, models.RoleMember, detail.YourRole)
	require.Empty(t, detail.InviteCode)
	require.Len(t, detail.Projects, 1)
	require.Equal(t, "Client work", detail.Projects[0].Name)
	require.Equal(t, 1, detail.BillableProjects)

	w = doRequest(env.router(joiner.ID), http.MethodPost, orgPath+"/regenerate-code", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrganizationHandler_RemoveMember(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	owner := createTestUser(t, env.db, "owner")
	member := createTestUser(t, env.db, "member")

	org, err := env.orgService.CreateOrganization(context.Background(), services.CreateOrganizationInput{
		Name:    "Team",
		OwnerID: owner.ID,
	})
	require.NoError(t, err)
	_, err = env.orgService.JoinOrganizationByInvite(context.Background(), member.ID, org.InviteCode)
	require.NoError(t, err)

	base := fmt.Sprintf("/api/organizations/%d/members/", org.ID)

	w := doRequest(env.router(owner.ID), http.MethodDelete, fmt.Sprintf("%s%d", base, owner.ID), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(env.router(owner.ID), http.MethodDelete, fmt.Sprintf("%s%d", base, member.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(env.router(owner.ID), http.MethodDelete, fmt.Sprintf("%s%d", base, member.ID), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// The removed member can no longer see the organization.
	w = doRequest(env.router(member.ID), http.MethodGet, fmt.Sprintf("/api/organizations/%d", org.ID), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrganizationHandler_RemoveMemberPausesTimer(t *testing.T) {
	env := setupOrganizationTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.db, "owner")
	member := createTestUser(t, env.db, "member")

	org, err := env.orgService.CreateOrganization(ctx, services.CreateOrganizationInput{Name: "Team", OwnerID: owner.ID})
	require.NoError(t, err)
	_, err = env.orgService.JoinOrganizationByInvite(ctx, member.ID, org.InviteCode)
	require.NoError(t, err)

	project := &models.Project{OrganizationID: org.ID, Name: "Client work", CreatedBy: owner.ID}
	require.NoError(t, env.db.Create(project).Error)
	task := &models.Task{
		ProjectID:        project.ID,
		Name:             "Running",
		CreatedBy:        owner.ID,
		AssignedTo:       &member.ID,
		Status:           models.TaskStatusPending,
		AcceptanceStatus: models.AcceptanceAccepted,
	}
	require.NoError(t, env.db.Create(task).Error)

	timer := services.NewTimerService(repository.NewTimerStore(env.db))
	_, err = timer.Start(ctx, services.TransitionInput{TaskID: task.ID, UserID: member.ID})
	require.NoError(t, err)

	w := doRequest(env.router(owner.ID), http.MethodDelete, fmt.Sprintf("/api/organizations/%d/members/%d", org.ID, member.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		PausedTask *dto.TaskTimerDTO `json:"paused_task"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.PausedTask)
	require.Equal(t, task.ID, response.PausedTask.TaskID)
	require.False(t, response.PausedTask.IsRunning)
	require.Equal(t, models.TaskStatusPaused, response.PausedTask.Status)

	var running int64
	require.NoError(t, env.db.Model(&models.Task{}).Where("active_timer_started_at IS NOT NULL").Count(&running).Error)
	require.Zero(t, running)
}
