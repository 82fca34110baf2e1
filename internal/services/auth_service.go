package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/timesheet-api/internal/constants"
	applog "github.com/yukikurage/timesheet-api/internal/logger"
	"github.com/yukikurage/timesheet-api/internal/metrics"
	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/repository"
	"github.com/yukikurage/timesheet-api/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameRequired     = errors.New("username is required")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrAccountDisabled      = errors.New("account is disabled")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
	ErrFailedToCreateOrg    = errors.New("failed to create organization")
	ErrFailedToAddMember    = errors.New("failed to add user to organization")
)

const (
	loginResultOK       = "ok"
	loginResultInvalid  = "invalid_credentials"
	loginResultDisabled = "disabled"
)

// AuthService signs users up and checks their credentials. Sessions are the
// handler's concern.
type AuthService struct {
	userRepo repository.UserRepository
	log      *applog.Logger
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, log *applog.Logger) *AuthService {
	if log == nil {
		log = applog.Nop()
	}
	return &AuthService{
		userRepo: userRepo,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type SignupInput struct {
	Username string
	Password string
}

// Signup creates a user together with a personal workspace they own, so a
// new user can create projects and track time right away.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrFailedToCreateOrg
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}
	org := &models.Organization{
		Name:       fmt.Sprintf("%s's workspace", username),
		InviteCode: inviteCode,
	}
	member := &models.OrganizationMember{
		Role:     models.RoleOwner,
		JoinedAt: s.now(),
	}

	if err := s.userRepo.CreateWithPersonalOrganization(ctx, user, org, member); err != nil {
		switch {
		case errors.Is(err, repository.ErrCreateUser):
			return nil, ErrFailedToCreateUser
		case errors.Is(err, repository.ErrCreateOrganization):
			return nil, ErrFailedToCreateOrg
		case errors.Is(err, repository.ErrCreateOrganizationMember):
			return nil, ErrFailedToAddMember
		default:
			return nil, fmt.Errorf("failed to complete signup: %w", err)
		}
	}

	s.log.Info("User signed up", zap.Uint64("user_id", user.ID), zap.Uint64("organization_id", org.ID))
	return user, nil
}

type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and stamps the user's last login. Unknown users
// and wrong passwords both give ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.rejectLogin(input.Username, loginResultInvalid)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.rejectLogin(input.Username, loginResultInvalid)
		return nil, ErrInvalidCredentials
	}
	if user.Disabled {
		s.rejectLogin(input.Username, loginResultDisabled)
		return nil, ErrAccountDisabled
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// The login itself succeeded.
		s.log.Warn("Failed to record last login", zap.Uint64("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	metrics.ObserveLogin(loginResultOK)
	return user, nil
}

func (s *AuthService) rejectLogin(username, result string) {
	metrics.ObserveLogin(result)
	s.log.Warn("Login rejected", zap.String("username", username), zap.String("reason", result))
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
