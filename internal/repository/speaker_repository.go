package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/pkg/geo"
)

const speakerColumns = `s.id, s.user_id, u.full_name, u.email, s.organization, s.bio, s.location, s.city, s.state, s.country,
	s.lat, s.lng, s.inperson, s.virtual, s.industry, s.grades, s.languages, s.created_at, s.updated_at`

type speakerRow struct {
	ID           string          `db:"id"`
	UserID       string          `db:"user_id"`
	Name         string          `db:"full_name"`
	Email        string          `db:"email"`
	Organization string          `db:"organization"`
	Bio          string          `db:"bio"`
	Location     string          `db:"location"`
	City         string          `db:"city"`
	State        string          `db:"state"`
	Country      string          `db:"country"`
	Lat          sql.NullFloat64 `db:"lat"`
	Lng          sql.NullFloat64 `db:"lng"`
	InPerson     bool            `db:"inperson"`
	Virtual      bool            `db:"virtual"`
	Industry     pq.StringArray  `db:"industry"`
	Grades       pq.StringArray  `db:"grades"`
	Languages    pq.StringArray  `db:"languages"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (r speakerRow) toModel() models.Speaker {
	s := models.Speaker{
		ID:           r.ID,
		UserID:       r.UserID,
		Name:         r.Name,
		Email:        r.Email,
		Organization: r.Organization,
		Bio:          r.Bio,
		Location:     r.Location,
		City:         r.City,
		State:        r.State,
		Country:      r.Country,
		InPerson:     r.InPerson,
		Virtual:      r.Virtual,
		Industry:     nonNil(r.Industry),
		Grades:       nonNil(r.Grades),
		Languages:    nonNil(r.Languages),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Lat.Valid && r.Lng.Valid {
		s.Coordinates = &geo.Coordinates{Lat: r.Lat.Float64, Lng: r.Lng.Float64}
	}
	return s
}

// SpeakerRepository manages persistence for speaker profiles.
type SpeakerRepository struct {
	db *sqlx.DB
}

// NewSpeakerRepository constructs a SpeakerRepository.
func NewSpeakerRepository(db *sqlx.DB) *SpeakerRepository {
	return &SpeakerRepository{db: db}
}

// ListAll returns the full speaker collection ordered by name. Filtering happens in memory.
func (r *SpeakerRepository) ListAll(ctx context.Context) ([]models.Speaker, error) {
	query := fmt.Sprintf("SELECT %s FROM speakers s JOIN users u ON u.id = s.user_id WHERE u.active = TRUE ORDER BY u.full_name ASC, s.id ASC", speakerColumns)
	var rows []speakerRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list speakers: %w", err)
	}
	speakers := make([]models.Speaker, 0, len(rows))
	for _, row := range rows {
		speakers = append(speakers, row.toModel())
	}
	return speakers, nil
}

// FindByID fetches a speaker by ID.
func (r *SpeakerRepository) FindByID(ctx context.Context, id string) (*models.Speaker, error) {
	return r.findOne(ctx, "s.id = $1", id)
}

// FindByUserID fetches the speaker profile owned by a user.
func (r *SpeakerRepository) FindByUserID(ctx context.Context, userID string) (*models.Speaker, error) {
	return r.findOne(ctx, "s.user_id = $1", userID)
}

func (r *SpeakerRepository) findOne(ctx context.Context, where string, arg string) (*models.Speaker, error) {
	query := fmt.Sprintf("SELECT %s FROM speakers s JOIN users u ON u.id = s.user_id WHERE %s", speakerColumns, where)
	var row speakerRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find speaker: %w", err)
	}
	speaker := row.toModel()
	return &speaker, nil
}

// Upsert creates or updates the profile keyed by user id.
func (r *SpeakerRepository) Upsert(ctx context.Context, speaker *models.Speaker) error {
	if speaker.ID == "" {
		speaker.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if speaker.CreatedAt.IsZero() {
		speaker.CreatedAt = now
	}
	speaker.UpdatedAt = now

	var lat, lng sql.NullFloat64
	if speaker.Coordinates != nil {
		lat = sql.NullFloat64{Float64: speaker.Coordinates.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: speaker.Coordinates.Lng, Valid: true}
	}

	const query = `INSERT INTO speakers (id, user_id, organization, bio, location, city, state, country, lat, lng, inperson, virtual, industry, grades, languages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (user_id) DO UPDATE SET organization = EXCLUDED.organization, bio = EXCLUDED.bio, location = EXCLUDED.location,
			city = EXCLUDED.city, state = EXCLUDED.state, country = EXCLUDED.country, lat = EXCLUDED.lat, lng = EXCLUDED.lng,
			inperson = EXCLUDED.inperson, virtual = EXCLUDED.virtual, industry = EXCLUDED.industry, grades = EXCLUDED.grades,
			languages = EXCLUDED.languages, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query,
		speaker.ID, speaker.UserID, speaker.Organization, speaker.Bio, speaker.Location, speaker.City, speaker.State, speaker.Country,
		lat, lng, speaker.InPerson, speaker.Virtual,
		pq.StringArray(speaker.Industry), pq.StringArray(speaker.Grades), pq.StringArray(speaker.Languages),
		speaker.CreatedAt, speaker.UpdatedAt)
	if err := row.Scan(&speaker.ID, &speaker.CreatedAt); err != nil {
		return fmt.Errorf("upsert speaker: %w", err)
	}
	return nil
}
