package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/speaker-match-api/internal/models"
	appErrors "github.com/noah-isme/speaker-match-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	Upsert(ctx context.Context, teacher *models.Teacher) error
}

// UpsertTeacherRequest is the editable part of a teacher profile.
type UpsertTeacherRequest struct {
	School      string   `json:"school" validate:"required,max=200"`
	Phone       *string  `json:"phone" validate:"omitempty,max=50"`
	City        string   `json:"city" validate:"max=100"`
	State       string   `json:"state" validate:"max=100"`
	GradeLevels []string `json:"grade_levels" validate:"dive,grade"`
	Subjects    []string `json:"subjects" validate:"dive,required,max=100"`
}

// TeacherService orchestrates teacher profile operations.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: newValidator(validate), logger: logger}
}

// List returns teachers plus pagination data.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list teachers")
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}
	return teachers, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	return s.find(s.repo.FindByID(ctx, id))
}

// GetByUser returns the teacher profile owned by userID.
func (s *TeacherService) GetByUser(ctx context.Context, userID string) (*models.Teacher, error) {
	return s.find(s.repo.FindByUserID(ctx, userID))
}

func (s *TeacherService) find(teacher *models.Teacher, err error) (*models.Teacher, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}
	return teacher, nil
}

// UpsertOwn creates or replaces the caller's teacher profile.
func (s *TeacherService) UpsertOwn(ctx context.Context, userID string, req UpsertTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid teacher payload")
	}

	teacher := &models.Teacher{
		UserID:      userID,
		School:      strings.TrimSpace(req.School),
		Phone:       normalizeOptional(req.Phone),
		City:        strings.TrimSpace(req.City),
		State:       strings.TrimSpace(req.State),
		GradeLevels: dedupe(req.GradeLevels),
		Subjects:    dedupe(req.Subjects),
	}
	if err := s.repo.Upsert(ctx, teacher); err != nil {
		return nil, appErrors.Internal(err, "failed to save teacher profile")
	}

	stored, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("teacher profile saved", zap.String("teacher_id", stored.ID), zap.String("user_id", userID))
	return stored, nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// dedupe trims values and drops blanks and repeats, keeping first-seen order.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
