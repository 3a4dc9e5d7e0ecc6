package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/internal/repository"
	appErrors "github.com/noah-isme/speaker-match-api/pkg/errors"
)

type mockUserRepo struct {
	users      map[string]*models.User
	listErr    error
	lastFilter models.UserFilter
	audits     []*models.AuditLog
	passwords  int
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var users []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = map[string]*models.User{}
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	m.passwords++
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Active = false
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, log)
	return nil
}

func TestUserServiceListAdmins(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"1": {ID: "1", Role: models.RoleAdmin},
		"2": {ID: "2", Role: models.RoleTeacher},
	}}
	svc := NewUserService(repo, nil, nil)

	role := models.RoleAdmin
	users, pagination, err := svc.List(context.Background(), models.UserFilter{Role: &role, PageSize: 500})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "1", users[0].ID)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestUserServiceListEmptyIsNotNil(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, nil)

	users, _, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.NotNil(t, users)
}

func TestUserServiceListRejectsUnknownRole(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, nil)

	role := models.UserRole("STUDENT")
	_, _, err := svc.List(context.Background(), models.UserFilter{Role: &role})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceListError(t *testing.T) {
	svc := NewUserService(&mockUserRepo{listErr: errors.New("db down")}, nil, nil)

	_, _, err := svc.List(context.Background(), models.UserFilter{})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestUserServiceGetNotFound(t *testing.T) {
	svc := NewUserService(&mockUserRepo{users: map[string]*models.User{}}, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateAdmin(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), adminUser, CreateUserRequest{
		Email:    " Ops@Example.com ",
		FullName: "Ops Lead",
		Role:     models.RoleAdmin,
		Password: "correct-horse",
	}, models.RequestMeta{IP: "10.0.0.9"})
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))

	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.audits[0].Action)
	assert.Equal(t, adminUser.ID, *repo.audits[0].UserID)

	_, err = svc.Create(context.Background(), adminUser, CreateUserRequest{
		Email: "ops@example.com", FullName: "Again", Role: models.RoleTeacher, Password: "correct-horse",
	}, models.RequestMeta{})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), adminUser, CreateUserRequest{
		Email: "x@example.com", FullName: "X", Role: "SUPERADMIN", Password: "correct-horse",
	}, models.RequestMeta{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateAndDelete(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"admin-1": {ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin, Active: true},
		"u1":      {ID: "u1", Email: "ada@example.com", FullName: "Ada", Role: models.RoleSpeaker, Active: true},
	}}
	svc := NewUserService(repo, nil, nil)
	ctx := context.Background()

	promoted, err := svc.Update(ctx, adminUser, "u1", UpdateUserRequest{FullName: "Ada L.", Role: models.RoleAdmin}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)
	assert.True(t, promoted.Active)
	assert.Equal(t, "Ada L.", repo.users["u1"].FullName)

	inactive := false
	_, err = svc.Update(ctx, adminUser, "admin-1", UpdateUserRequest{FullName: "Me", Role: models.RoleAdmin, Active: &inactive}, models.RequestMeta{})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	_, err = svc.Update(ctx, adminUser, "admin-1", UpdateUserRequest{FullName: "Me", Role: models.RoleTeacher}, models.RequestMeta{})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.RoleAdmin, repo.users["admin-1"].Role)

	_, err = svc.Update(ctx, adminUser, "missing", UpdateUserRequest{FullName: "Ghost", Role: models.RoleTeacher}, models.RequestMeta{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, adminUser, "u1", models.RequestMeta{}))
	assert.False(t, repo.users["u1"].Active)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(svc.Delete(ctx, adminUser, "admin-1", models.RequestMeta{})).Code)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(svc.Delete(ctx, adminUser, "missing", models.RequestMeta{})).Code)

	actions := make([]string, 0, len(repo.audits))
	for _, a := range repo.audits {
		actions = append(actions, a.Action)
	}
	assert.Equal(t, []string{models.AuditActionUserUpdate, models.AuditActionUserDelete}, actions)
}

func TestUserServiceEnsureAdminCreatesAccount(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, nil)

	admin, err := svc.EnsureAdmin(context.Background(), BootstrapAdmin{Email: "Root@Example.com", Password: "bootstrap-pass", FullName: "Root"})
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", admin.Email)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.Active)
	require.Len(t, repo.audits, 2)
	assert.Nil(t, repo.audits[0].UserID)
	assert.Equal(t, models.AuditActionAdminBootstrap, repo.audits[1].Action)

	again, err := svc.EnsureAdmin(context.Background(), BootstrapAdmin{Email: "root@example.com", Password: "bootstrap-pass", FullName: "Root"})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)
	assert.Len(t, repo.audits, 2)
	assert.Equal(t, 0, repo.passwords)
}

func TestUserServiceEnsureAdminPromotesExistingAccount(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockUserRepo{users: map[string]*models.User{
		"u7": {ID: "u7", Email: "root@example.com", Role: models.RoleTeacher, Active: false, PasswordHash: string(hash)},
	}}
	svc := NewUserService(repo, nil, nil)

	admin, err := svc.EnsureAdmin(context.Background(), BootstrapAdmin{Email: "root@example.com", Password: "new-password", FullName: "Root"})
	require.NoError(t, err)
	assert.Equal(t, "u7", admin.ID)
	assert.Equal(t, models.RoleAdmin, repo.users["u7"].Role)
	assert.True(t, repo.users["u7"].Active)
	assert.Equal(t, 1, repo.passwords)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["u7"].PasswordHash), []byte("new-password")))

	_, err = svc.EnsureAdmin(context.Background(), BootstrapAdmin{Email: "root@example.com", Password: "short"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
