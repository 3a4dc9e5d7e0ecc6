package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/internal/workflow"
	"github.com/noah-isme/speaker-match-api/pkg/cache"
	appErrors "github.com/noah-isme/speaker-match-api/pkg/errors"
	"github.com/noah-isme/speaker-match-api/pkg/events"
)

type requestRepository interface {
	Create(ctx context.Context, req *models.Request) error
	FindByID(ctx context.Context, id string) (*models.Request, error)
	List(ctx context.Context, scope models.RequestScope) ([]models.Request, error)
	UpdateStatus(ctx context.Context, id string, status workflow.Status, updatedAt time.Time) error
}

type teacherLookup interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

type speakerLookup interface {
	FindByID(ctx context.Context, id string) (*models.Speaker, error)
	FindByUserID(ctx context.Context, userID string) (*models.Speaker, error)
}

type eventEmitter interface {
	Emit(event events.Event)
}

// CreateRequestPayload is submitted by a teacher to request a speaker.
type CreateRequestPayload struct {
	SpeakerID         string           `json:"speaker_id" validate:"required"`
	GradeLevels       []string         `json:"grade_levels" validate:"dive,grade"`
	Subjects          []string         `json:"subjects" validate:"dive,required,max=100"`
	EstimatedStudents int              `json:"estimated_students" validate:"gte=0"`
	EventName         string           `json:"event_name" validate:"required,max=200"`
	EventPurpose      string           `json:"event_purpose" validate:"max=2000"`
	EventDateTime     time.Time        `json:"event_date_time" validate:"required"`
	Timezone          string           `json:"timezone" validate:"omitempty,timezone"`
	InPerson          bool             `json:"inperson"`
	Virtual           bool             `json:"virtual"`
	Location          string           `json:"location" validate:"max=200"`
	Expertise         string           `json:"expertise" validate:"max=500"`
	PreferredLanguage string           `json:"preferred_language" validate:"omitempty,language"`
	Budget            *decimal.Decimal `json:"budget"`
	Goals             string           `json:"goals" validate:"max=2000"`
	EngagementFormat  string           `json:"engagement_format" validate:"max=200"`
}

// StatusUpdatePayload carries the requested target status.
type StatusUpdatePayload struct {
	Status string `json:"status" validate:"required"`
}

// RequestServiceConfig holds request workflow settings.
type RequestServiceConfig struct {
	Policy workflow.Policy
}

// RequestService implements the speaker request lifecycle.
type RequestService struct {
	repo      requestRepository
	teachers  teacherLookup
	speakers  speakerLookup
	audit     auditWriter
	cache     *CacheService
	metrics   *MetricsService
	events    eventEmitter
	validator *validator.Validate
	logger    *zap.Logger
	config    RequestServiceConfig
	now       func() time.Time

	// cacheStale is set when a mutation could not advance the cache generation. Reads bypass the
	// cache until a later bump succeeds.
	cacheStale atomic.Bool
}

const invalidateAttempts = 3

// NewRequestService constructs a RequestService.
func NewRequestService(
	repo requestRepository,
	teachers teacherLookup,
	speakers speakerLookup,
	audit auditWriter,
	cacheSvc *CacheService,
	metrics *MetricsService,
	emitter eventEmitter,
	validate *validator.Validate,
	logger *zap.Logger,
	config RequestServiceConfig,
) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		repo:      repo,
		teachers:  teachers,
		speakers:  speakers,
		audit:     audit,
		cache:     cacheSvc,
		metrics:   metrics,
		events:    emitter,
		validator: newValidator(validate),
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create files a new request from the calling teacher. New requests start in Pending Review.
func (s *RequestService) Create(ctx context.Context, actor models.UserInfo, payload CreateRequestPayload, meta models.RequestMeta) (*models.Request, error) {
	payload.SpeakerID = strings.TrimSpace(payload.SpeakerID)
	payload.EventName = strings.TrimSpace(payload.EventName)
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Validation(err, "invalid request payload")
	}
	if payload.Budget != nil && payload.Budget.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "budget must not be negative")
	}

	teacher, err := s.teachers.FindByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher profile required")
		}
		return nil, appErrors.Internal(err, "failed to load teacher profile")
	}
	speaker, err := s.speakers.FindByID(ctx, payload.SpeakerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "speaker not found")
		}
		return nil, appErrors.Internal(err, "failed to load speaker")
	}

	timezone := payload.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	req := &models.Request{
		Teacher:           models.Resolved(teacher.ID, teacher),
		Speaker:           models.Resolved(speaker.ID, speaker),
		Status:            workflow.InitialStatus,
		GradeLevels:       dedupe(payload.GradeLevels),
		Subjects:          dedupe(payload.Subjects),
		EstimatedStudents: payload.EstimatedStudents,
		EventName:         payload.EventName,
		EventPurpose:      strings.TrimSpace(payload.EventPurpose),
		EventDateTime:     payload.EventDateTime.UTC(),
		Timezone:          timezone,
		InPerson:          payload.InPerson,
		Virtual:           payload.Virtual,
		Location:          strings.TrimSpace(payload.Location),
		Expertise:         strings.TrimSpace(payload.Expertise),
		PreferredLanguage: payload.PreferredLanguage,
		Goals:             strings.TrimSpace(payload.Goals),
		EngagementFormat:  strings.TrimSpace(payload.EngagementFormat),
	}
	if payload.Budget != nil {
		req.Budget = decimal.NewNullDecimal(payload.Budget.Round(2))
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, appErrors.Internal(err, "failed to create request")
	}

	s.invalidate(ctx, req.ID)
	s.recordAudit(ctx, actor, meta, models.AuditActionRequestCreate, req.ID, nil, map[string]interface{}{
		"status":     req.Status,
		"speaker_id": speaker.ID,
		"teacher_id": teacher.ID,
	})
	s.emit(events.TypeRequestCreated, map[string]interface{}{
		"request_id": req.ID,
		"teacher_id": teacher.ID,
		"speaker_id": speaker.ID,
		"status":     req.Status,
	})
	return req, nil
}

// List returns the requests visible to the caller: everything for admins, their own for teachers
// and speakers.
func (s *RequestService) List(ctx context.Context, actor models.UserInfo, status *workflow.Status) ([]models.Request, error) {
	scope, ok, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.Request{}, nil
	}
	scope.Status = status

	gen, cached := s.cacheGeneration(ctx)
	key := listCacheKey(gen, actor.Role, scope)
	var requests []models.Request
	if cached {
		if hit, _ := s.cache.Get(ctx, key, &requests); hit {
			return requests, nil
		}
	}

	requests, err = s.repo.List(ctx, scope)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list requests")
	}
	if cached {
		s.storeIfCurrent(ctx, gen, key, requests)
	}
	return requests, nil
}

// ListAll returns every request. Used by admin exports.
func (s *RequestService) ListAll(ctx context.Context, status *workflow.Status) ([]models.Request, error) {
	requests, err := s.repo.List(ctx, models.RequestScope{Status: status})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list requests")
	}
	return requests, nil
}

// Get returns a request with resolved teacher and speaker when the caller may see it.
func (s *RequestService) Get(ctx context.Context, actor models.UserInfo, id string) (*models.Request, error) {
	gen, cached := s.cacheGeneration(ctx)
	key := detailCacheKey(gen, id)
	var req *models.Request
	var hit models.Request
	if cached {
		if ok, _ := s.cache.Get(ctx, key, &hit); ok {
			req = &hit
		}
	}
	if req == nil {
		loaded, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		s.resolve(ctx, loaded)
		if cached {
			s.storeIfCurrent(ctx, gen, key, loaded)
		}
		req = loaded
	}

	if err := s.authorizeRead(ctx, actor, req); err != nil {
		return nil, err
	}
	return req, nil
}

// UpdateStatus applies an administrative status change. Moves outside the transition table are
// allowed and recorded as overrides.
func (s *RequestService) UpdateStatus(ctx context.Context, actor models.UserInfo, id string, payload StatusUpdatePayload, meta models.RequestMeta) (*models.Request, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin role required")
	}
	return s.transition(ctx, actor, id, payload, workflow.Admin(), meta)
}

// UpdateOwnStatus applies a status change by the speaker the request is addressed to.
func (s *RequestService) UpdateOwnStatus(ctx context.Context, actor models.UserInfo, id string, payload StatusUpdatePayload, meta models.RequestMeta) (*models.Request, error) {
	speaker, err := s.speakers.FindByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "speaker profile required")
		}
		return nil, appErrors.Internal(err, "failed to load speaker profile")
	}
	return s.transition(ctx, actor, id, payload, workflow.Speaker(speaker.ID), meta)
}

func (s *RequestService) transition(ctx context.Context, actor models.UserInfo, id string, payload StatusUpdatePayload, authority workflow.Authority, meta models.RequestMeta) (*models.Request, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Validation(err, "invalid status payload")
	}
	target, err := workflow.ParseStatus(payload.Status)
	if err != nil {
		return nil, mapWorkflowError(err)
	}

	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := workflow.Decide(workflow.Transition{
		RequestSpeakerID: req.Speaker.ID(),
		From:             req.Status,
		To:               target,
		By:               authority,
	}, s.config.Policy)
	if err != nil {
		return nil, mapWorkflowError(err)
	}
	if !decision.Changed {
		s.resolve(ctx, req)
		return req, nil
	}

	updatedAt := s.now()
	if err := s.repo.UpdateStatus(ctx, req.ID, decision.To, updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Internal(err, "failed to update request status")
	}
	req.Status = decision.To
	req.UpdatedAt = updatedAt

	s.invalidate(ctx, req.ID)

	change := map[string]interface{}{
		"from":      decision.From,
		"to":        decision.To,
		"authority": authority.Kind,
		"override":  decision.Override,
	}
	s.recordAudit(ctx, actor, meta, models.AuditActionRequestStatus, req.ID,
		map[string]interface{}{"status": decision.From}, change)
	s.metrics.RecordTransition(string(decision.From), string(decision.To), string(authority.Kind), decision.Override)

	change["request_id"] = req.ID
	change["teacher_id"] = req.Teacher.ID()
	change["speaker_id"] = req.Speaker.ID()
	s.emit(events.TypeRequestStatusChanged, change)

	if decision.Override {
		s.logger.Info("request status override",
			zap.String("request_id", req.ID),
			zap.String("from", string(decision.From)),
			zap.String("to", string(decision.To)),
			zap.String("actor_id", actor.ID))
	}

	s.resolve(ctx, req)
	return req, nil
}

func (s *RequestService) load(ctx context.Context, id string) (*models.Request, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Internal(err, "failed to load request")
	}
	return req, nil
}

// resolve loads teacher and speaker entities for unresolved refs. Lookup failures leave the ref unresolved.
func (s *RequestService) resolve(ctx context.Context, req *models.Request) {
	if !req.Teacher.IsResolved() && req.Teacher.ID() != "" {
		if teacher, err := s.teachers.FindByID(ctx, req.Teacher.ID()); err == nil {
			req.Teacher = models.Resolved(teacher.ID, teacher)
		} else {
			s.logger.Warn("failed to resolve request teacher", zap.String("request_id", req.ID), zap.Error(err))
		}
	}
	if !req.Speaker.IsResolved() && req.Speaker.ID() != "" {
		if speaker, err := s.speakers.FindByID(ctx, req.Speaker.ID()); err == nil {
			req.Speaker = models.Resolved(speaker.ID, speaker)
		} else {
			s.logger.Warn("failed to resolve request speaker", zap.String("request_id", req.ID), zap.Error(err))
		}
	}
}

func (s *RequestService) authorizeRead(ctx context.Context, actor models.UserInfo, req *models.Request) error {
	scope, ok, err := s.scopeFor(ctx, actor)
	if err != nil {
		return err
	}
	switch {
	case !ok:
	case actor.Role == models.RoleAdmin:
		return nil
	case scope.TeacherID != "" && scope.TeacherID == req.Teacher.ID():
		return nil
	case scope.SpeakerID != "" && scope.SpeakerID == req.Speaker.ID():
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "request is not visible to this user")
}

// scopeFor maps the caller to a listing scope. ok is false when the caller has no profile yet.
func (s *RequestService) scopeFor(ctx context.Context, actor models.UserInfo) (models.RequestScope, bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return models.RequestScope{}, true, nil
	case models.RoleTeacher:
		teacher, err := s.teachers.FindByUserID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.RequestScope{}, false, nil
			}
			return models.RequestScope{}, false, appErrors.Internal(err, "failed to load teacher profile")
		}
		return models.RequestScope{TeacherID: teacher.ID}, true, nil
	case models.RoleSpeaker:
		speaker, err := s.speakers.FindByUserID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.RequestScope{}, false, nil
			}
			return models.RequestScope{}, false, appErrors.Internal(err, "failed to load speaker profile")
		}
		return models.RequestScope{SpeakerID: speaker.ID}, true, nil
	default:
		return models.RequestScope{}, false, appErrors.Clone(appErrors.ErrForbidden, "role not permitted")
	}
}

// invalidate advances the request cache generation so no read started before the mutation can
// be served afterwards, then reclaims the superseded entries. When the generation cannot be
// advanced, request caching stays off until a later bump succeeds.
func (s *RequestService) invalidate(ctx context.Context, id string) {
	if !s.cache.Enabled() {
		return
	}
	var err error
	for attempt := 0; attempt < invalidateAttempts; attempt++ {
		if err = s.cache.Bump(ctx, cache.RequestsPrefix); err == nil {
			break
		}
	}
	if err != nil {
		s.cacheStale.Store(true)
		s.logger.Warn("request cache bypassed until invalidation succeeds", zap.String("request_id", id), zap.Error(err))
		return
	}
	s.cacheStale.Store(false)

	if err := s.cache.InvalidatePrefixes(ctx, cache.RequestsPrefix); err != nil {
		s.logger.Warn("failed to reclaim request cache entries", zap.String("request_id", id), zap.Error(err))
	}
}

// cacheGeneration returns the generation reads are keyed with. ok is false when reads must
// bypass the cache.
func (s *RequestService) cacheGeneration(ctx context.Context) (int64, bool) {
	if !s.cache.Enabled() {
		return 0, false
	}
	if s.cacheStale.Load() {
		if err := s.cache.Bump(ctx, cache.RequestsPrefix); err != nil {
			return 0, false
		}
		s.cacheStale.Store(false)
		s.logger.Info("request cache restored")
	}
	gen, err := s.cache.Generation(ctx, cache.RequestsPrefix)
	if err != nil {
		return 0, false
	}
	return gen, true
}

// storeIfCurrent caches value only when no mutation advanced the generation since the read began.
func (s *RequestService) storeIfCurrent(ctx context.Context, gen int64, key string, value interface{}) {
	if s.cacheStale.Load() {
		return
	}
	current, err := s.cache.Generation(ctx, cache.RequestsPrefix)
	if err != nil || current != gen {
		return
	}
	_ = s.cache.Set(ctx, key, value, 0)
}

func (s *RequestService) recordAudit(ctx context.Context, actor models.UserInfo, meta models.RequestMeta, action, id string, before, after interface{}) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "speaker_request",
		ResourceID: &id,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if actor.ID != "" {
		entry.UserID = &actor.ID
	}
	if before != nil {
		entry.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		entry.NewValues, _ = json.Marshal(after)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record request audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *RequestService) emit(eventType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Emit(events.New(eventType, payload))
}

func detailCacheKey(gen int64, id string) string {
	return cache.Key(cache.RequestsPrefix, "g"+strconv.FormatInt(gen, 10), "detail", id)
}

func listCacheKey(gen int64, role models.UserRole, scope models.RequestScope) string {
	owner := "all"
	switch {
	case scope.TeacherID != "":
		owner = scope.TeacherID
	case scope.SpeakerID != "":
		owner = scope.SpeakerID
	}
	status := "any"
	if scope.Status != nil {
		status = strings.ReplaceAll(strings.ToLower(string(*scope.Status)), " ", "_")
	}
	return cache.Key(cache.RequestsPrefix, "g"+strconv.FormatInt(gen, 10), "list", strings.ToLower(string(role)), owner, status)
}

func mapWorkflowError(err error) error {
	switch {
	case errors.Is(err, workflow.ErrUnknownStatus):
		return appErrors.Validation(err, "unknown request status")
	case errors.Is(err, workflow.ErrNotOwner):
		return appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "request is not addressed to this speaker")
	case errors.Is(err, workflow.ErrIllegalTransition):
		return appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, err.Error())
	default:
		return appErrors.Internal(err, "failed to evaluate status change")
	}
}
