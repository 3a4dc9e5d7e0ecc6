package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/internal/repository"
	appErrors "github.com/noah-isme/speaker-match-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateUserRequest represents payload for creating users. Administrators may create any role.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"full_name" validate:"required,max=200"`
	Role     models.UserRole `json:"role" validate:"required,oneof=ADMIN TEACHER SPEAKER"`
	Active   *bool           `json:"active"`
	Password string          `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest payload for updating users.
type UpdateUserRequest struct {
	FullName string          `json:"full_name" validate:"required,max=200"`
	Role     models.UserRole `json:"role" validate:"required,oneof=ADMIN TEACHER SPEAKER"`
	Active   *bool           `json:"active"`
}

// BootstrapAdmin describes the administrator ensured at startup.
type BootstrapAdmin struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	FullName string `validate:"required,max=200"`
}

// UserService handles account management for administrators.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: newValidator(validate), logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Role != nil && !validRole(*filter.Role) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	if users == nil {
		users = []models.User{}
	}

	return users, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// Create adds a new account of any role. New accounts are active unless stated otherwise.
func (s *UserService) Create(ctx context.Context, actor models.UserInfo, req CreateUserRequest, meta models.RequestMeta) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid create user payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         req.Role,
		Active:       req.Active == nil || *req.Active,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}

	s.audit(ctx, actor.ID, models.AuditActionUserCreate, user.ID, meta, nil,
		map[string]interface{}{"email": user.Email, "role": user.Role, "active": user.Active})
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update modifies name, role and active flag. Administrators cannot demote or deactivate themselves.
func (s *UserService) Update(ctx context.Context, actor models.UserInfo, id string, req UpdateUserRequest, meta models.RequestMeta) (*models.User, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid update user payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	old := map[string]interface{}{"full_name": user.FullName, "role": user.Role, "active": user.Active}
	user.FullName = req.FullName
	user.Role = req.Role
	if req.Active != nil {
		user.Active = *req.Active
	}
	if actor.ID == user.ID && (user.Role != models.RoleAdmin || !user.Active) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "administrators cannot demote or deactivate themselves")
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to update user")
	}

	s.audit(ctx, actor.ID, models.AuditActionUserUpdate, user.ID, meta, old,
		map[string]interface{}{"full_name": user.FullName, "role": user.Role, "active": user.Active})
	return user, nil
}

// Delete deactivates an account. Rows are kept so requests and audit entries still resolve.
func (s *UserService) Delete(ctx context.Context, actor models.UserInfo, id string, meta models.RequestMeta) error {
	if actor.ID == id {
		return appErrors.Clone(appErrors.ErrConflict, "administrators cannot delete themselves")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Internal(err, "failed to delete user")
	}

	s.audit(ctx, actor.ID, models.AuditActionUserDelete, user.ID, meta,
		map[string]interface{}{"active": user.Active}, map[string]interface{}{"active": false})
	return nil
}

// EnsureAdmin creates the configured administrator, or promotes, reactivates and re-keys an existing
// account with that email so the configured credentials always work.
func (s *UserService) EnsureAdmin(ctx context.Context, admin BootstrapAdmin) (*models.User, error) {
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	admin.FullName = strings.TrimSpace(admin.FullName)
	if err := s.validator.Struct(admin); err != nil {
		return nil, appErrors.Validation(err, "invalid bootstrap administrator")
	}

	existing, err := s.repo.FindByEmail(ctx, admin.Email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		created, err := s.Create(ctx, models.UserInfo{}, CreateUserRequest{
			Email:    admin.Email,
			FullName: admin.FullName,
			Role:     models.RoleAdmin,
			Password: admin.Password,
		}, models.RequestMeta{})
		if err != nil {
			return nil, err
		}
		s.audit(ctx, "", models.AuditActionAdminBootstrap, created.ID, models.RequestMeta{}, nil,
			map[string]interface{}{"email": created.Email, "created": true})
		return created, nil
	case err != nil:
		return nil, appErrors.Internal(err, "failed to load bootstrap administrator")
	}

	changed := false
	if existing.Role != models.RoleAdmin || !existing.Active {
		existing.Role = models.RoleAdmin
		existing.Active = true
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, appErrors.Internal(err, "failed to promote bootstrap administrator")
		}
		changed = true
	}
	if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(admin.Password)) != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		if err := s.repo.UpdatePassword(ctx, existing.ID, string(hash)); err != nil {
			return nil, appErrors.Internal(err, "failed to reset bootstrap administrator password")
		}
		existing.PasswordHash = string(hash)
		changed = true
	}
	if changed {
		s.audit(ctx, "", models.AuditActionAdminBootstrap, existing.ID, models.RequestMeta{}, nil,
			map[string]interface{}{"email": existing.Email, "created": false})
	}
	return existing, nil
}

func (s *UserService) audit(ctx context.Context, actorID, action, userID string, meta models.RequestMeta, before, after interface{}) {
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "users",
		ResourceID: &userID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if before != nil {
		entry.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		entry.NewValues, _ = json.Marshal(after)
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}

func validRole(role models.UserRole) bool {
	switch role {
	case models.RoleAdmin, models.RoleTeacher, models.RoleSpeaker:
		return true
	}
	return false
}

func paginate(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
