package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to Status
		ok       bool
	}{
		{Pending, Approved, true},
		{Approved, Resolved, true},
		{Pending, Resolved, false},
		{Approved, Pending, false},
		{Resolved, Approved, false},
		{Resolved, Resolved, false},
		{Pending, Pending, false},
		{Pending, Status("In Progress"), false},
	}
	for _, c := range cases {
		err := Transition(c.from, c.to)
		if c.ok {
			assert.NoError(t, err, "%s -> %s", c.from, c.to)
		} else {
			assert.Error(t, err, "%s -> %s", c.from, c.to)
		}
	}
}

func TestTransitionError_Error(t *testing.T) {
	t.Parallel()

	assert.EqualError(t, Transition(Resolved, Approved), "cannot change status from Resolved to Approved")
	assert.EqualError(t, Transition(Pending, "Closed"), `unknown status "Closed"`)
}

func TestStatus_Next(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Approved, Pending.Next())
	assert.Equal(t, Resolved, Approved.Next())
	assert.Equal(t, Status(""), Resolved.Next())
}
