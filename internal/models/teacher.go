package models

import "time"

// Teacher is the profile of a teacher account that can request speakers.
type Teacher struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	School      string    `json:"school"`
	Phone       *string   `json:"phone,omitempty"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	GradeLevels []string  `json:"grade_levels"`
	Subjects    []string  `json:"subjects"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RefID lets a Teacher be embedded in a resolved Ref.
func (t Teacher) RefID() string { return t.ID }

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
