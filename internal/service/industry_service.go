package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/internal/repository"
	"github.com/noah-isme/speaker-match-api/pkg/cache"
	appErrors "github.com/noah-isme/speaker-match-api/pkg/errors"
)

type industryRepository interface {
	List(ctx context.Context, filter models.IndustryFilter) ([]models.IndustryFocus, error)
	FindByID(ctx context.Context, id string) (*models.IndustryFocus, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, industry *models.IndustryFocus) error
	Update(ctx context.Context, industry *models.IndustryFocus) error
	Archive(ctx context.Context, id string) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// IndustryRequest is the payload for creating or renaming an industry focus.
type IndustryRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Active *bool  `json:"active"`
}

// IndustryService manages the admin-curated industry vocabulary.
type IndustryService struct {
	repo      industryRepository
	audit     auditWriter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIndustryService constructs an IndustryService.
func NewIndustryService(repo industryRepository, audit auditWriter, cacheSvc *CacheService, validate *validator.Validate, logger *zap.Logger) *IndustryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndustryService{repo: repo, audit: audit, cache: cacheSvc, validator: newValidator(validate), logger: logger}
}

// List returns industry focuses, optionally only active ones.
func (s *IndustryService) List(ctx context.Context, filter models.IndustryFilter) ([]models.IndustryFocus, error) {
	key := cache.Key(cache.IndustriesPrefix, "all")
	if filter.Active != nil {
		if *filter.Active {
			key = cache.Key(cache.IndustriesPrefix, "active")
		} else {
			key = cache.Key(cache.IndustriesPrefix, "archived")
		}
	}

	var industries []models.IndustryFocus
	if hit, _ := s.cache.Get(ctx, key, &industries); hit {
		return industries, nil
	}

	industries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list industries")
	}
	_ = s.cache.Set(ctx, key, industries, 0)
	return industries, nil
}

// Create adds a new active industry focus.
func (s *IndustryService) Create(ctx context.Context, req IndustryRequest, actor models.UserInfo, meta models.RequestMeta) (*models.IndustryFocus, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid industry payload")
	}
	if err := s.ensureUniqueName(ctx, req.Name, ""); err != nil {
		return nil, err
	}

	industry := &models.IndustryFocus{Name: req.Name, Active: true}
	if err := s.repo.Create(ctx, industry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "industry already exists")
		}
		return nil, appErrors.Internal(err, "failed to create industry")
	}

	s.afterChange(ctx, models.AuditActionIndustryCreate, nil, industry, actor, meta)
	return industry, nil
}

// Update renames an industry focus and optionally toggles it active.
func (s *IndustryService) Update(ctx context.Context, id string, req IndustryRequest, actor models.UserInfo, meta models.RequestMeta) (*models.IndustryFocus, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid industry payload")
	}

	industry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, req.Name, id); err != nil {
		return nil, err
	}

	before := *industry
	industry.Name = req.Name
	if req.Active != nil {
		industry.Active = *req.Active
	}
	if err := s.repo.Update(ctx, industry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "industry already exists")
		}
		return nil, appErrors.Internal(err, "failed to update industry")
	}

	s.afterChange(ctx, models.AuditActionIndustryUpdate, &before, industry, actor, meta)
	return industry, nil
}

// Archive retires an industry focus. It stays on existing profiles but cannot be newly selected.
func (s *IndustryService) Archive(ctx context.Context, id string, actor models.UserInfo, meta models.RequestMeta) error {
	industry, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !industry.Active {
		return nil
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "industry not found")
		}
		return appErrors.Internal(err, "failed to archive industry")
	}

	before := *industry
	industry.Active = false
	s.afterChange(ctx, models.AuditActionIndustryRetire, &before, industry, actor, meta)
	return nil
}

func (s *IndustryService) get(ctx context.Context, id string) (*models.IndustryFocus, error) {
	industry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "industry not found")
		}
		return nil, appErrors.Internal(err, "failed to load industry")
	}
	return industry, nil
}

func (s *IndustryService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check industry name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "industry already exists")
	}
	return nil
}

func (s *IndustryService) afterChange(ctx context.Context, action string, before, after *models.IndustryFocus, actor models.UserInfo, meta models.RequestMeta) {
	if err := s.cache.InvalidatePrefixes(ctx, cache.IndustriesPrefix); err != nil {
		s.logger.Warn("failed to invalidate industry cache", zap.Error(err))
	}
	if s.audit == nil {
		return
	}

	entry := &models.AuditLog{
		Action:     action,
		Resource:   "industry_focus",
		ResourceID: &after.ID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if actor.ID != "" {
		entry.UserID = &actor.ID
	}
	if before != nil {
		entry.OldValues, _ = json.Marshal(before)
	}
	entry.NewValues, _ = json.Marshal(after)
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record industry audit log", zap.String("action", action), zap.Error(err))
	}
}
