package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		action Action
		from   Status
		ok     bool
	}{
		{ActionSubmit, StatusWaiting, true},
		{ActionSubmit, StatusSubmitted, false},
		{ActionSubmit, StatusRejected, false},
		{ActionSubmit, StatusDone, false},
		{ActionDone, StatusSubmitted, true},
		{ActionDone, StatusWaiting, false},
		{ActionDone, StatusDone, false},
		{ActionReject, StatusWaiting, true},
		{ActionReject, StatusSubmitted, true},
		{ActionReject, StatusRejected, false},
		{ActionReject, StatusDone, false},
		{ActionCancel, StatusWaiting, true},
		{ActionCancel, StatusSubmitted, false},
		{ActionCancel, StatusRejected, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, CanTransition(c.action, c.from), "%s from %s", c.action, c.from)
	}
}

func TestTargetStatus(t *testing.T) {
	assert.Equal(t, StatusSubmitted, TargetStatus(ActionSubmit))
	assert.Equal(t, StatusDone, TargetStatus(ActionDone))
	assert.Equal(t, StatusRejected, TargetStatus(ActionReject))
	assert.Equal(t, StatusRejected, TargetStatus(ActionCancel))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "REJECTED", StatusRejected.String())
	assert.Equal(t, "WAITING_FOR_SUBMIT", StatusWaiting.String())
	assert.Equal(t, "SUBMITTED_UNPAID", StatusSubmitted.String())
	assert.Equal(t, "DONE", StatusDone.String())
	assert.Equal(t, "UNKNOWN", Status(7).String())
	assert.False(t, Status(7).Valid())
	assert.True(t, StatusWaiting.Valid())
}
