// Package matching evaluates speaker search criteria over an in-memory speaker list.
package matching

import (
	"strings"

	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/pkg/geo"
)

// Filter returns the speakers that pass every active criterion, in input order.
// Within industry, grades and languages a single shared value is enough.
func Filter(speakers []models.Speaker, query string, filters models.FilterState) []models.Speaker {
	c := compile(query, filters)
	out := make([]models.Speaker, 0, len(speakers))
	for i := range speakers {
		if c.match(&speakers[i]) {
			out = append(out, speakers[i])
		}
	}
	return out
}

// Matches reports whether a single speaker passes the criteria.
func Matches(speaker models.Speaker, query string, filters models.FilterState) bool {
	return compile(query, filters).match(&speaker)
}

// Active reports whether the query or any filter criterion would exclude speakers.
func Active(query string, filters models.FilterState) bool {
	c := compile(query, filters)
	return c.query != "" || c.industry != nil || c.grades != nil || c.languages != nil ||
		c.city != "" || c.state != "" || c.radius || c.inPerson || c.virtual
}

type criteria struct {
	query     string
	industry  map[string]struct{}
	grades    map[string]struct{}
	languages map[string]struct{}
	city      string
	state     string
	radius    bool
	maxMiles  float64
	origin    geo.Coordinates
	inPerson  bool
	virtual   bool
}

func compile(query string, f models.FilterState) criteria {
	c := criteria{
		query:     strings.ToLower(strings.TrimSpace(query)),
		industry:  toSet(f.Industry),
		grades:    toSet(f.Grades),
		languages: toSet(f.Languages),
		city:      strings.TrimSpace(f.City),
		state:     strings.TrimSpace(f.State),
		inPerson:  f.Formats.InPerson,
		virtual:   f.Formats.Virtual,
	}
	if f.Radius > 0 && f.UserCoordinates != nil {
		c.radius = true
		c.maxMiles = f.Radius
		c.origin = *f.UserCoordinates
	}
	return c
}

func (c criteria) match(s *models.Speaker) bool {
	if c.query != "" && !matchesQuery(s, c.query) {
		return false
	}
	if c.industry != nil && !intersects(s.Industry, c.industry) {
		return false
	}
	if c.grades != nil && !intersects(s.Grades, c.grades) {
		return false
	}
	if c.city != "" && !strings.EqualFold(s.City, c.city) {
		return false
	}
	if c.state != "" && !strings.EqualFold(s.State, c.state) {
		return false
	}
	// Unknown location is never penalised.
	if c.radius && s.Coordinates != nil && geo.Distance(c.origin, *s.Coordinates) > c.maxMiles {
		return false
	}
	if !c.matchesFormat(s) {
		return false
	}
	if c.languages != nil && !intersects(s.Languages, c.languages) {
		return false
	}
	return true
}

func (c criteria) matchesFormat(s *models.Speaker) bool {
	switch {
	case c.inPerson && c.virtual:
		return s.InPerson || s.Virtual
	case c.inPerson:
		return s.InPerson
	case c.virtual:
		return s.Virtual
	default:
		return true
	}
}

func matchesQuery(s *models.Speaker, q string) bool {
	for _, field := range []string{s.Name, s.Organization, s.Bio, s.Location} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func intersects(values []string, selection map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := selection[v]; ok {
			return true
		}
	}
	return false
}
