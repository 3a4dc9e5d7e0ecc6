package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		parsed, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("Rejected")
	assert.ErrorIs(t, err, ErrUnknownStatus)
	_, err = ParseStatus("approved")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(StatusPendingReview, StatusPendingSpeakerConfirmation))
	assert.True(t, CanTransition(StatusPendingSpeakerConfirmation, StatusApproved))
	assert.False(t, CanTransition(StatusPendingReview, StatusApproved))
	for _, s := range Statuses {
		if s != StatusArchived {
			assert.True(t, CanTransition(s, StatusArchived), "%s should archive", s)
		}
	}
	assert.True(t, StatusArchived.Terminal())
	assert.Empty(t, Next(StatusArchived))
	assert.False(t, StatusApproved.Terminal())
}

func TestAdminMaySetAnyStatus(t *testing.T) {
	for _, from := range Statuses {
		for _, to := range Statuses {
			d, err := Decide(Transition{From: from, To: to, By: Admin()}, Policy{StrictSpeakerTransitions: true})
			require.NoError(t, err)
			assert.Equal(t, from != to, d.Changed)
			assert.Equal(t, from != to && !CanTransition(from, to), d.Override)
		}
	}
}

func TestAdminOverrideFlagged(t *testing.T) {
	d, err := Decide(Transition{From: StatusArchived, To: StatusPendingReview, By: Admin()}, Policy{})
	require.NoError(t, err)
	assert.True(t, d.Override)

	d, err = Decide(Transition{From: StatusPendingReview, To: StatusApproved, By: Admin()}, Policy{})
	require.NoError(t, err)
	assert.True(t, d.Override)
}

func TestSpeakerOwnershipEnforced(t *testing.T) {
	_, err := Decide(Transition{
		RequestSpeakerID: "sp-1",
		From:             StatusPendingSpeakerConfirmation,
		To:               StatusApproved,
		By:               Speaker("sp-2"),
	}, Policy{})
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = Decide(Transition{RequestSpeakerID: "", From: StatusPendingReview, To: StatusArchived, By: Speaker("")}, Policy{})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestSpeakerOwnershipOnlyByDefault(t *testing.T) {
	d, err := Decide(Transition{
		RequestSpeakerID: "sp-1",
		From:             StatusPendingReview,
		To:               StatusApproved,
		By:               Speaker("sp-1"),
	}, Policy{})
	require.NoError(t, err)
	assert.True(t, d.Changed)
	assert.False(t, d.Override)
}

func TestSpeakerStrictPolicy(t *testing.T) {
	policy := Policy{StrictSpeakerTransitions: true}

	_, err := Decide(Transition{RequestSpeakerID: "sp-1", From: StatusPendingReview, To: StatusApproved, By: Speaker("sp-1")}, policy)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	d, err := Decide(Transition{RequestSpeakerID: "sp-1", From: StatusPendingSpeakerConfirmation, To: StatusApproved, By: Speaker("sp-1")}, policy)
	require.NoError(t, err)
	assert.True(t, d.Changed)

	d, err = Decide(Transition{RequestSpeakerID: "sp-1", From: StatusArchived, To: StatusArchived, By: Speaker("sp-1")}, policy)
	require.NoError(t, err)
	assert.False(t, d.Changed)
}

func TestDecideRejectsUnknownTarget(t *testing.T) {
	_, err := Decide(Transition{From: StatusPendingReview, To: Status("Rejected"), By: Admin()}, Policy{})
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = Decide(Transition{From: StatusPendingReview, To: StatusArchived, By: Authority{Kind: "teacher"}}, Policy{})
	assert.Error(t, err)
}
