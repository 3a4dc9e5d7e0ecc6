package models

import (
	"time"

	"github.com/noah-isme/speaker-match-api/pkg/geo"
)

// Speaker is a public speaker profile. Name and Email come from the owning User.
type Speaker struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Organization string           `json:"organization"`
	Bio          string           `json:"bio"`
	Location     string           `json:"location"`
	City         string           `json:"city"`
	State        string           `json:"state"`
	Country      string           `json:"country"`
	Coordinates  *geo.Coordinates `json:"coordinates,omitempty"`
	InPerson     bool             `json:"inperson"`
	Virtual      bool             `json:"virtual"`
	Industry     []string         `json:"industry"`
	Grades       []string         `json:"grades"`
	Languages    []string         `json:"languages"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// RefID lets a Speaker be embedded in a resolved Ref.
func (s Speaker) RefID() string { return s.ID }

// Formats selects delivery formats in a speaker search.
type Formats struct {
	InPerson bool `json:"inperson"`
	Virtual  bool `json:"virtual"`
}

// FilterState is the full set of speaker search criteria applied at once.
type FilterState struct {
	Industry        []string         `json:"industry"`
	Grades          []string         `json:"grades"`
	City            string           `json:"city"`
	State           string           `json:"state"`
	Country         string           `json:"country"`
	Radius          float64          `json:"radius" validate:"gte=0"`
	Formats         Formats          `json:"formats"`
	Languages       []string         `json:"languages"`
	UserCoordinates *geo.Coordinates `json:"userCoordinates,omitempty"`
}
