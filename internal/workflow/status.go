// Package workflow holds the speaker request status machine. It is pure: callers persist the
// outcome and refresh any cached copies of the request.
package workflow

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a speaker request.
type Status string

const (
	StatusPendingReview              Status = "Pending Review"
	StatusPendingSpeakerConfirmation Status = "Pending Speaker Confirmation"
	StatusApproved                   Status = "Approved"
	StatusArchived                   Status = "Archived"
)

// InitialStatus is assigned when a teacher creates a request.
const InitialStatus = StatusPendingReview

// Statuses lists every valid status in workflow order.
var Statuses = []Status{
	StatusPendingReview,
	StatusPendingSpeakerConfirmation,
	StatusApproved,
	StatusArchived,
}

var (
	// ErrUnknownStatus is returned for values outside the four known statuses.
	ErrUnknownStatus = errors.New("workflow: unknown status")
	// ErrNotOwner is returned when a speaker updates a request addressed to someone else.
	ErrNotOwner = errors.New("workflow: request is not addressed to this speaker")
	// ErrIllegalTransition is returned when a guarded move is not in the transition table.
	ErrIllegalTransition = errors.New("workflow: transition not allowed")
)

// transitions is the guarded transition table. Archived is terminal.
var transitions = map[Status][]Status{
	StatusPendingReview:              {StatusPendingSpeakerConfirmation, StatusArchived},
	StatusPendingSpeakerConfirmation: {StatusApproved, StatusArchived, StatusPendingReview},
	StatusApproved:                   {StatusArchived},
	StatusArchived:                   {},
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no guarded transition leaves s.
func (s Status) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether from → to is in the transition table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next returns the guarded successors of s.
func Next(s Status) []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}
