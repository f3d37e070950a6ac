package request_test

import (
	"testing"

	"leaveflow/internal/request"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    request.Status
		to      request.Status
		allowed bool
	}{
		{request.StatusPending, request.StatusApproved, true},
		{request.StatusPending, request.StatusRejected, true},
		{request.StatusPending, request.StatusCancelled, true},
		{request.StatusPendingHR, request.StatusApproved, true},
		{request.StatusPendingHR, request.StatusRejected, true},
		{request.StatusPendingHR, request.StatusCancelled, true},
		{request.StatusApproved, request.StatusCancelled, true},
		{request.StatusApproved, request.StatusRejected, false},
		{request.StatusApproved, request.StatusPending, false},
		{request.StatusRejected, request.StatusApproved, false},
		{request.StatusRejected, request.StatusCancelled, false},
		{request.StatusCancelled, request.StatusApproved, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, request.StatusPending.Terminal())
	assert.False(t, request.StatusPendingHR.Terminal())
	assert.True(t, request.StatusApproved.Terminal())
	assert.True(t, request.StatusRejected.Terminal())
	assert.True(t, request.StatusCancelled.Terminal())
}

func TestRequiredLevels(t *testing.T) {
	cases := []struct {
		days   float64
		levels int
	}{
		{0.5, 1},
		{2, 1},
		{4.5, 1},
		{5, 2},
		{9.5, 2},
		{10, 3},
		{30, 3},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.levels, request.RequiredLevels(decimal.NewFromFloat(tc.days)),
			"%v days", tc.days)
	}
}

func TestPriorityLevelValid(t *testing.T) {
	assert.True(t, request.PriorityYellow.Valid())
	assert.True(t, request.PriorityRed.Valid())
	assert.False(t, request.PriorityLevel("orange").Valid())
}
