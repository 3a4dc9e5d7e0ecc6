package models

import "time"

// IndustryFocus is an admin-managed entry of the industry vocabulary. Archived entries stay on
// existing speaker profiles but can no longer be selected.
type IndustryFocus struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IndustryFilter captures listing options for industry focuses.
type IndustryFilter struct {
	Active *bool
}
