package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    AppointmentStatus
		to      AppointmentStatus
		allowed bool
	}{
		{StatusPending, StatusBooked, true},
		{StatusPending, StatusConfirmed, true},
		{StatusBooked, StatusCheckedIn, true},
		{StatusBooked, StatusConfirmed, true},
		{StatusConfirmed, StatusCheckedIn, true},
		{StatusCheckedIn, StatusInConsultation, true},
		{StatusInConsultation, StatusPrescriptionCreated, true},
		{StatusInConsultation, StatusCompleted, true},
		{StatusPrescriptionCreated, StatusCompleted, true},

		// cancelled / no_show reachable from every pre-completed state
		{StatusPending, StatusCancelled, true},
		{StatusBooked, StatusNoShow, true},
		{StatusCheckedIn, StatusCancelled, true},
		{StatusPrescriptionCreated, StatusNoShow, true},

		// skipping stages is rejected
		{StatusPending, StatusCheckedIn, false},
		{StatusBooked, StatusCompleted, false},
		{StatusConfirmed, StatusPrescriptionCreated, false},

		// terminal states have no outbound transitions
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusBooked, false},
		{StatusNoShow, StatusConfirmed, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTransitionLeavesRecordUntouchedOnInvalidMove(t *testing.T) {
	appt := &Appointment{Status: StatusCompleted}
	err := appt.Transition(StatusCancelled)
	assert.Error(t, err)
	assert.Equal(t, StatusCompleted, appt.Status)
}

func TestTerminalAndLiveStatuses(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusNoShow.IsTerminal())
	assert.False(t, StatusBooked.IsTerminal())

	assert.True(t, StatusCompleted.IsLive()) // completed still occupied its slot
	assert.False(t, StatusCancelled.IsLive())
	assert.False(t, StatusNoShow.IsLive())
}
