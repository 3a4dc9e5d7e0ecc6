package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/speaker-match-api/internal/matching"
	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/pkg/cache"
	appErrors "github.com/noah-isme/speaker-match-api/pkg/errors"
	"github.com/noah-isme/speaker-match-api/pkg/geo"
)

type speakerRepository interface {
	ListAll(ctx context.Context) ([]models.Speaker, error)
	FindByID(ctx context.Context, id string) (*models.Speaker, error)
	FindByUserID(ctx context.Context, userID string) (*models.Speaker, error)
	Upsert(ctx context.Context, speaker *models.Speaker) error
}

type activeIndustryLister interface {
	List(ctx context.Context, filter models.IndustryFilter) ([]models.IndustryFocus, error)
}

// CoordinatesInput is an optional geocoded location on a profile.
type CoordinatesInput struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// UpsertSpeakerRequest is the editable part of a speaker profile.
type UpsertSpeakerRequest struct {
	Organization string            `json:"organization" validate:"max=200"`
	Bio          string            `json:"bio" validate:"max=5000"`
	Location     string            `json:"location" validate:"max=200"`
	City         string            `json:"city" validate:"max=100"`
	State        string            `json:"state" validate:"max=100"`
	Country      string            `json:"country" validate:"max=100"`
	Coordinates  *CoordinatesInput `json:"coordinates"`
	InPerson     bool              `json:"inperson"`
	Virtual      bool              `json:"virtual"`
	Industry     []string          `json:"industry" validate:"dive,required"`
	Grades       []string          `json:"grades" validate:"dive,grade"`
	Languages    []string          `json:"languages" validate:"dive,language"`
}

// SearchSpeakersRequest carries a free-text query and the full filter state, applied together.
type SearchSpeakersRequest struct {
	Query   string             `json:"query"`
	Filters models.FilterState `json:"filters"`
}

const speakersAllKey = cache.SpeakersPrefix + "all"

// SpeakerService serves the speaker directory and search.
type SpeakerService struct {
	repo       speakerRepository
	industries activeIndustryLister
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSpeakerService constructs a SpeakerService.
func NewSpeakerService(repo speakerRepository, industries activeIndustryLister, cacheSvc *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SpeakerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpeakerService{
		repo:       repo,
		industries: industries,
		cache:      cacheSvc,
		metrics:    metrics,
		validator:  newValidator(validate),
		logger:     logger,
	}
}

// List returns the full speaker collection.
func (s *SpeakerService) List(ctx context.Context) ([]models.Speaker, error) {
	var speakers []models.Speaker
	if hit, _ := s.cache.Get(ctx, speakersAllKey, &speakers); hit {
		return speakers, nil
	}

	speakers, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list speakers")
	}
	_ = s.cache.Set(ctx, speakersAllKey, speakers, 0)
	return speakers, nil
}

// Search loads the collection and returns the speakers matching the query and filters.
func (s *SpeakerService) Search(ctx context.Context, req SearchSpeakersRequest) ([]models.Speaker, error) {
	if err := s.validator.Struct(req.Filters); err != nil {
		return nil, appErrors.Validation(err, "invalid speaker filters")
	}

	speakers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	result := matching.Filter(speakers, req.Query, req.Filters)
	s.metrics.ObserveSearch(len(result))
	s.logger.Debug("speaker search",
		zap.Bool("filtered", matching.Active(req.Query, req.Filters)),
		zap.Int("candidates", len(speakers)),
		zap.Int("results", len(result)))
	return result, nil
}

// Get returns a speaker by id.
func (s *SpeakerService) Get(ctx context.Context, id string) (*models.Speaker, error) {
	return s.find(s.repo.FindByID(ctx, id))
}

// GetByUser returns the speaker profile owned by userID.
func (s *SpeakerService) GetByUser(ctx context.Context, userID string) (*models.Speaker, error) {
	return s.find(s.repo.FindByUserID(ctx, userID))
}

func (s *SpeakerService) find(speaker *models.Speaker, err error) (*models.Speaker, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "speaker not found")
		}
		return nil, appErrors.Internal(err, "failed to load speaker")
	}
	return speaker, nil
}

// UpsertOwn creates or replaces the caller's speaker profile. Industries must be active focuses.
func (s *SpeakerService) UpsertOwn(ctx context.Context, userID string, req UpsertSpeakerRequest) (*models.Speaker, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid speaker payload")
	}

	industries := dedupe(req.Industry)
	if err := s.ensureActiveIndustries(ctx, industries); err != nil {
		return nil, err
	}

	speaker := &models.Speaker{
		UserID:       userID,
		Organization: strings.TrimSpace(req.Organization),
		Bio:          strings.TrimSpace(req.Bio),
		Location:     strings.TrimSpace(req.Location),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		Country:      strings.TrimSpace(req.Country),
		InPerson:     req.InPerson,
		Virtual:      req.Virtual,
		Industry:     industries,
		Grades:       dedupe(req.Grades),
		Languages:    dedupe(req.Languages),
	}
	if req.Coordinates != nil {
		speaker.Coordinates = &geo.Coordinates{Lat: req.Coordinates.Lat, Lng: req.Coordinates.Lng}
	}

	if err := s.repo.Upsert(ctx, speaker); err != nil {
		return nil, appErrors.Internal(err, "failed to save speaker profile")
	}
	// Request listings embed speaker summaries.
	if err := s.cache.Bump(ctx, cache.RequestsPrefix); err != nil {
		s.logger.Warn("failed to advance request cache generation", zap.Error(err))
	}
	if err := s.cache.InvalidatePrefixes(ctx, cache.SpeakersPrefix, cache.RequestsPrefix); err != nil {
		s.logger.Warn("failed to invalidate speaker cache", zap.Error(err))
	}

	stored, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("speaker profile saved", zap.String("speaker_id", stored.ID), zap.String("user_id", userID))
	return stored, nil
}

func (s *SpeakerService) ensureActiveIndustries(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	active := true
	focuses, err := s.industries.List(ctx, models.IndustryFilter{Active: &active})
	if err != nil {
		return appErrors.Internal(err, "failed to load industries")
	}
	allowed := make(map[string]struct{}, len(focuses))
	for _, f := range focuses {
		allowed[f.Name] = struct{}{}
	}
	for _, name := range names {
		if _, ok := allowed[name]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, "unknown or archived industry: "+name)
		}
	}
	return nil
}
