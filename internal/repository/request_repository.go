package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/internal/workflow"
)

const requestColumns = `r.id, r.teacher_id, r.speaker_id, r.status, r.grade_levels, r.subjects, r.estimated_students,
	r.event_name, r.event_purpose, r.event_date_time, r.timezone, r.inperson, r.virtual, r.location,
	r.expertise, r.preferred_language, r.budget, r.goals, r.engagement_format, r.created_at, r.updated_at`

const requestSummaryColumns = `, tu.full_name AS teacher_name, tu.email AS teacher_email, t.school AS teacher_school,
	su.full_name AS speaker_name, su.email AS speaker_email, s.organization AS speaker_organization`

const requestJoins = ` FROM speaker_requests r
	JOIN teachers t ON t.id = r.teacher_id JOIN users tu ON tu.id = t.user_id
	JOIN speakers s ON s.id = r.speaker_id JOIN users su ON su.id = s.user_id`

type requestRow struct {
	ID                string              `db:"id"`
	TeacherID         string              `db:"teacher_id"`
	SpeakerID         string              `db:"speaker_id"`
	Status            workflow.Status     `db:"status"`
	GradeLevels       pq.StringArray      `db:"grade_levels"`
	Subjects          pq.StringArray      `db:"subjects"`
	EstimatedStudents int                 `db:"estimated_students"`
	EventName         string              `db:"event_name"`
	EventPurpose      string              `db:"event_purpose"`
	EventDateTime     time.Time           `db:"event_date_time"`
	Timezone          string              `db:"timezone"`
	InPerson          bool                `db:"inperson"`
	Virtual           bool                `db:"virtual"`
	Location          string              `db:"location"`
	Expertise         string              `db:"expertise"`
	PreferredLanguage string              `db:"preferred_language"`
	Budget            decimal.NullDecimal `db:"budget"`
	Goals             string              `db:"goals"`
	EngagementFormat  string              `db:"engagement_format"`
	CreatedAt         time.Time           `db:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at"`
}

type requestSummaryRow struct {
	requestRow
	TeacherName         string `db:"teacher_name"`
	TeacherEmail        string `db:"teacher_email"`
	TeacherSchool       string `db:"teacher_school"`
	SpeakerName         string `db:"speaker_name"`
	SpeakerEmail        string `db:"speaker_email"`
	SpeakerOrganization string `db:"speaker_organization"`
}

func (r requestRow) toModel() models.Request {
	return models.Request{
		ID:                r.ID,
		Teacher:           models.Unresolved[models.Teacher](r.TeacherID),
		Speaker:           models.Unresolved[models.Speaker](r.SpeakerID),
		Status:            r.Status,
		GradeLevels:       nonNil(r.GradeLevels),
		Subjects:          nonNil(r.Subjects),
		EstimatedStudents: r.EstimatedStudents,
		EventName:         r.EventName,
		EventPurpose:      r.EventPurpose,
		EventDateTime:     r.EventDateTime,
		Timezone:          r.Timezone,
		InPerson:          r.InPerson,
		Virtual:           r.Virtual,
		Location:          r.Location,
		Expertise:         r.Expertise,
		PreferredLanguage: r.PreferredLanguage,
		Budget:            r.Budget,
		Goals:             r.Goals,
		EngagementFormat:  r.EngagementFormat,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// toModel resolves both refs to the summary entities carried by the join.
func (r requestSummaryRow) toModel() models.Request {
	req := r.requestRow.toModel()
	req.Teacher = models.Resolved(r.TeacherID, &models.Teacher{ID: r.TeacherID, Name: r.TeacherName, Email: r.TeacherEmail, School: r.TeacherSchool})
	req.Speaker = models.Resolved(r.SpeakerID, &models.Speaker{ID: r.SpeakerID, Name: r.SpeakerName, Email: r.SpeakerEmail, Organization: r.SpeakerOrganization})
	return req
}

// RequestRepository persists speaker requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs a RequestRepository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a new request.
func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	const query = `INSERT INTO speaker_requests (id, teacher_id, speaker_id, status, grade_levels, subjects, estimated_students,
		event_name, event_purpose, event_date_time, timezone, inperson, virtual, location,
		expertise, preferred_language, budget, goals, engagement_format, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	if _, err := r.db.ExecContext(ctx, query,
		req.ID, req.Teacher.ID(), req.Speaker.ID(), string(req.Status),
		pq.StringArray(req.GradeLevels), pq.StringArray(req.Subjects), req.EstimatedStudents,
		req.EventName, req.EventPurpose, req.EventDateTime, req.Timezone, req.InPerson, req.Virtual, req.Location,
		req.Expertise, req.PreferredLanguage, req.Budget, req.Goals, req.EngagementFormat, req.CreatedAt, req.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// FindByID fetches a request with unresolved teacher and speaker refs.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.Request, error) {
	query := "SELECT " + requestColumns + " FROM speaker_requests r WHERE r.id = $1"
	var row requestRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find request: %w", err)
	}
	req := row.toModel()
	return &req, nil
}

// List returns requests visible within scope, newest first. Refs carry summary entities.
func (r *RequestRepository) List(ctx context.Context, scope models.RequestScope) ([]models.Request, error) {
	var conditions []string
	var args []interface{}
	if scope.TeacherID != "" {
		args = append(args, scope.TeacherID)
		conditions = append(conditions, fmt.Sprintf("r.teacher_id = $%d", len(args)))
	}
	if scope.SpeakerID != "" {
		args = append(args, scope.SpeakerID)
		conditions = append(conditions, fmt.Sprintf("r.speaker_id = $%d", len(args)))
	}
	if scope.Status != nil {
		args = append(args, string(*scope.Status))
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)))
	}

	query := "SELECT " + requestColumns + requestSummaryColumns + requestJoins
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id ASC"

	var rows []requestSummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	requests := make([]models.Request, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, row.toModel())
	}
	return requests, nil
}

// UpdateStatus stores a new status and bumps updated_at.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, status workflow.Status, updatedAt time.Time) error {
	const query = `UPDATE speaker_requests SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, string(status), updatedAt)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
