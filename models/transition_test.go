package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissiveAllowsEverything(t *testing.T) {
	p := Permissive{}
	for _, from := range OrderStatuses {
		for _, to := range OrderStatuses {
			assert.NoError(t, p.Allow(from, to))
		}
	}
}

func TestStrictTransitions(t *testing.T) {
	s := Strict{}

	assert.NoError(t, s.Allow(StatusPending, StatusAccepted))
	assert.NoError(t, s.Allow(StatusAccepted, StatusPreparing))
	assert.NoError(t, s.Allow(StatusPreparing, StatusOnTheWay))
	assert.NoError(t, s.Allow(StatusOnTheWay, StatusDelivered))
	assert.NoError(t, s.Allow(StatusOnTheWay, StatusCancelled))

	err := s.Allow(StatusPending, StatusDelivered)
	require.Error(t, err)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, StatusPending, terr.From)
	assert.Equal(t, "cannot move order from PENDING to DELIVERED", err.Error())

	for _, terminal := range []OrderStatus{StatusDelivered, StatusCancelled} {
		assert.Empty(t, s.NextStatuses(terminal))
		for _, to := range OrderStatuses {
			assert.Error(t, s.Allow(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, "permissive", p.Name())

	p, err = PolicyByName(" Strict ")
	require.NoError(t, err)
	assert.Equal(t, "strict", p.Name())

	_, err = PolicyByName("lenient")
	assert.Error(t, err)
}
