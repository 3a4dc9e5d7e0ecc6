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

	"github.com/noah-isme/speaker-match-api/internal/models"
)

const teacherColumns = `t.id, t.user_id, u.full_name, u.email, t.school, t.phone, t.city, t.state, t.grade_levels, t.subjects, t.created_at, t.updated_at`

type teacherRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Name        string         `db:"full_name"`
	Email       string         `db:"email"`
	School      string         `db:"school"`
	Phone       sql.NullString `db:"phone"`
	City        string         `db:"city"`
	State       string         `db:"state"`
	GradeLevels pq.StringArray `db:"grade_levels"`
	Subjects    pq.StringArray `db:"subjects"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r teacherRow) toModel() models.Teacher {
	t := models.Teacher{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		Email:       r.Email,
		School:      r.School,
		City:        r.City,
		State:       r.State,
		GradeLevels: nonNil(r.GradeLevels),
		Subjects:    nonNil(r.Subjects),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Phone.Valid {
		phone := r.Phone.String
		t.Phone = &phone
	}
	return t
}

// TeacherRepository manages persistence for teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching filters along with total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers t JOIN users u ON u.id = t.user_id WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		base += fmt.Sprintf(" AND (LOWER(u.full_name) LIKE $%d OR LOWER(u.email) LIKE $%d OR LOWER(t.school) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1)
		args = append(args, search)
	}

	allowedSorts := map[string]string{
		"name":       "u.full_name",
		"school":     "t.school",
		"created_at": "t.created_at",
		"updated_at": "t.updated_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "t.created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", teacherColumns, base, column, order, size, offset)
	var rows []teacherRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	teachers := make([]models.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.toModel())
	}
	return teachers, total, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	return r.findOne(ctx, "t.id = $1", id)
}

// FindByUserID fetches the teacher profile owned by a user.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	return r.findOne(ctx, "t.user_id = $1", userID)
}

func (r *TeacherRepository) findOne(ctx context.Context, where string, arg string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers t JOIN users u ON u.id = t.user_id WHERE %s", teacherColumns, where)
	var row teacherRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	teacher := row.toModel()
	return &teacher, nil
}

// Upsert creates or updates the profile keyed by user id.
func (r *TeacherRepository) Upsert(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	const query = `INSERT INTO teachers (id, user_id, school, phone, city, state, grade_levels, subjects, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET school = EXCLUDED.school, phone = EXCLUDED.phone, city = EXCLUDED.city,
			state = EXCLUDED.state, grade_levels = EXCLUDED.grade_levels, subjects = EXCLUDED.subjects, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query,
		teacher.ID, teacher.UserID, teacher.School, teacher.Phone, teacher.City, teacher.State,
		pq.StringArray(teacher.GradeLevels), pq.StringArray(teacher.Subjects), teacher.CreatedAt, teacher.UpdatedAt)
	if err := row.Scan(&teacher.ID, &teacher.CreatedAt); err != nil {
		return fmt.Errorf("upsert teacher: %w", err)
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
