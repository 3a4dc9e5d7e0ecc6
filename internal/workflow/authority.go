package workflow

import "fmt"

// AuthorityKind distinguishes who is changing a request status.
type AuthorityKind string

const (
	AuthorityAdmin   AuthorityKind = "admin"
	AuthoritySpeaker AuthorityKind = "speaker"
)

// Authority is the actor behind a status change. SpeakerID is set for speaker authority.
type Authority struct {
	Kind      AuthorityKind
	SpeakerID string
}

// Admin returns the administrative authority.
func Admin() Authority {
	return Authority{Kind: AuthorityAdmin}
}

// Speaker returns the authority of the speaker with the given profile id.
func Speaker(speakerID string) Authority {
	return Authority{Kind: AuthoritySpeaker, SpeakerID: speakerID}
}

// Policy configures how strictly speaker moves are checked.
type Policy struct {
	// StrictSpeakerTransitions limits speakers to moves in the transition table.
	// When false only ownership is enforced.
	StrictSpeakerTransitions bool
}

// Transition is a requested status change on one request.
type Transition struct {
	RequestSpeakerID string
	From             Status
	To               Status
	By               Authority
}

// Decision is the outcome of an allowed transition.
type Decision struct {
	From    Status
	To      Status
	Changed bool
	// Override is true when an admin performed a move outside the transition table.
	Override bool
}

// Decide checks a transition against the actor's authority and the policy.
// Admins may set any status. Speakers must own the request.
func Decide(t Transition, policy Policy) (Decision, error) {
	if !t.To.Valid() {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownStatus, t.To)
	}

	d := Decision{From: t.From, To: t.To, Changed: t.From != t.To}
	legal := !d.Changed || CanTransition(t.From, t.To)

	switch t.By.Kind {
	case AuthorityAdmin:
		d.Override = !legal
		return d, nil
	case AuthoritySpeaker:
		if t.By.SpeakerID == "" || t.By.SpeakerID != t.RequestSpeakerID {
			return Decision{}, ErrNotOwner
		}
		if policy.StrictSpeakerTransitions && !legal {
			return Decision{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, t.From, t.To)
		}
		return d, nil
	default:
		return Decision{}, fmt.Errorf("workflow: unknown authority %q", t.By.Kind)
	}
}
