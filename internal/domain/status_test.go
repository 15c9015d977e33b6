package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusWaiting, StatusInvited}:   true,
		{StatusWaiting, StatusUninvited}: true,
		{StatusInvited, StatusAccepted}:  true,
		{StatusInvited, StatusDeclined}:  true,
		{StatusInvited, StatusCancelled}: true,
	}
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := legal[[2]Status{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusUninvited, StatusAccepted, StatusDeclined, StatusCancelled} {
		assert.True(t, s.Terminal(), s)
	}
	assert.False(t, StatusWaiting.Terminal())
	assert.False(t, StatusInvited.Terminal())
	assert.False(t, Status("CONFIRMED").Terminal())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" invited ")
	require.NoError(t, err)
	require.Equal(t, StatusInvited, s)

	_, err = ParseStatus("CONFIRMED")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransition(t *testing.T) {
	loc := &Location{Latitude: 53.5, Longitude: -113.5}

	writes, err := Transition("ev-1", "a", StatusInvited, StatusDeclined, &Marker{Location: loc})
	require.NoError(t, err)
	require.Len(t, writes, 2)
	require.Equal(t, Path{EventID: "ev-1", Bucket: StatusInvited, EntrantID: "a"}, writes[0].Path)
	require.Nil(t, writes[0].Marker)
	require.Equal(t, Path{EventID: "ev-1", Bucket: StatusDeclined, EntrantID: "a"}, writes[1].Path)
	require.Same(t, loc, writes[1].Marker.Location)

	writes, err = Transition("ev-1", "a", StatusWaiting, StatusInvited, nil)
	require.NoError(t, err)
	require.NotNil(t, writes[1].Marker)

	_, err = Transition("ev-1", "a", StatusAccepted, StatusWaiting, nil)
	require.True(t, errors.Is(err, ErrInvalidTransition))
	_, err = Transition("ev-1", "a", StatusUninvited, StatusInvited, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReplenishmentEligible(t *testing.T) {
	assert.True(t, ReplenishmentEligible(StatusInvited, StatusDeclined))
	assert.True(t, ReplenishmentEligible(StatusInvited, StatusCancelled))
	assert.False(t, ReplenishmentEligible(StatusInvited, StatusAccepted))
	assert.False(t, ReplenishmentEligible(StatusWaiting, StatusUninvited))
}
