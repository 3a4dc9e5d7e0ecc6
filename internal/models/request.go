package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/speaker-match-api/internal/workflow"
)

// Request is a teacher's request for a speaker. It is never deleted; archival is a status.
type Request struct {
	ID      string          `json:"id"`
	Teacher Ref[Teacher]    `json:"teacher"`
	Speaker Ref[Speaker]    `json:"speaker"`
	Status  workflow.Status `json:"status"`

	GradeLevels       []string `json:"grade_levels"`
	Subjects          []string `json:"subjects"`
	EstimatedStudents int      `json:"estimated_students"`

	EventName     string    `json:"event_name"`
	EventPurpose  string    `json:"event_purpose"`
	EventDateTime time.Time `json:"event_date_time"`
	Timezone      string    `json:"timezone"`
	InPerson      bool      `json:"inperson"`
	Virtual       bool      `json:"virtual"`
	Location      string    `json:"location"`

	Expertise         string              `json:"expertise"`
	PreferredLanguage string              `json:"preferred_language"`
	Budget            decimal.NullDecimal `json:"budget"`
	Goals             string              `json:"goals"`
	EngagementFormat  string              `json:"engagement_format"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RequestScope restricts request listings to what the caller may see.
type RequestScope struct {
	TeacherID string
	SpeakerID string
	Status    *workflow.Status
}
