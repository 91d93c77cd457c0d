package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arogyadesk/clinic-app/models"
	"github.com/arogyadesk/clinic-app/schedule"
)

const doctorID uint = 7

// fixedNow keeps "today" stable regardless of when the tests run; the test
// Monday below is always in the future relative to it.
var fixedNow = time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

func testService(store Store) *Service {
	return &Service{
		store:          store,
		loc:            time.UTC,
		maxReschedules: 2,
		now:            func() time.Time { return fixedNow },
	}
}

// setupDoctor gives the doctor a Monday 09:00-10:00 window with 15-minute
// slots.
func setupDoctor(t *testing.T, store *memoryStore) {
	t.Helper()
	var week schedule.Week
	week[time.Monday] = schedule.DayTemplate{
		Available: true,
		Windows:   schedule.Ranges{{Start: mustClock(t, "09:00"), End: mustClock(t, "10:00")}},
	}
	store.week[doctorID] = week
	store.slotMinutes[doctorID] = 15
}

func mustClock(t *testing.T, s string) schedule.Clock {
	t.Helper()
	c, err := schedule.ParseClock(s)
	require.NoError(t, err)
	return c
}

func mustDate(t *testing.T, s string) schedule.Date {
	t.Helper()
	d, err := schedule.ParseDate(s)
	require.NoError(t, err)
	return d
}

func slotStarts(slots []schedule.Range) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Start.String()
	}
	return out
}

func TestFreeSlotsMatchesResolvedDay(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	free, err := svc.FreeSlots(context.Background(), doctorID, mustDate(t, "2025-06-09"))
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:15", "09:30", "09:45"}, slotStarts(free))

	// idempotent with no intervening writes
	again, err := svc.FreeSlots(context.Background(), doctorID, mustDate(t, "2025-06-09"))
	require.NoError(t, err)
	assert.Equal(t, free, again)
}

func TestFreeSlotsSubtractsLiveAppointments(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	_, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:15",
	})
	require.NoError(t, err)

	free, err := svc.FreeSlots(context.Background(), doctorID, mustDate(t, "2025-06-09"))
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "09:45"}, slotStarts(free))
}

func TestBookSetsDerivedFieldsAndStatus(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	online, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusBooked, online.Status)
	assert.Equal(t, models.TypeOnline, online.Type)
	assert.Equal(t, "09:15", online.EndTime.String())
	assert.NotEmpty(t, online.Reference)

	walkIn, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 2, Date: "2025-06-09", StartTime: "09:15",
		Type: models.TypeWalkIn,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, walkIn.Status)
}

func TestBookRejectsPastDate(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	_, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-05-26", StartTime: "09:00",
	})
	require.Error(t, err)
	assert.Equal(t, KindPastDate, KindOf(err))
}

func TestBookRejectsMalformedInput(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	_, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "9am",
	})
	require.Error(t, err)
	assert.Equal(t, KindInvalidSchedule, KindOf(err))

	_, err = svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "June 9", StartTime: "09:00",
	})
	require.Error(t, err)
	assert.Equal(t, KindInvalidSchedule, KindOf(err))
}

func TestBookRejectsSlotOutsideSchedule(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	// 11:00 is outside the doctor's window; 09:05 is not a slot boundary
	for _, start := range []string{"11:00", "09:05"} {
		_, err := svc.Book(context.Background(), BookRequest{
			DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: start,
		})
		require.Error(t, err, "start %s", start)
		assert.Equal(t, KindSlotTaken, KindOf(err), "start %s", start)
	}
}

func TestBookSameSlotTwiceConflicts(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	_, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:15",
	})
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 2, Date: "2025-06-09", StartTime: "09:15",
	})
	require.Error(t, err)
	assert.Equal(t, KindSlotTaken, KindOf(err))

	// a different slot on the same date is unaffected
	_, err = svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 2, Date: "2025-06-09", StartTime: "09:30",
	})
	assert.NoError(t, err)
}

func TestConcurrentBookingsExactlyOneWins(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(patient uint) {
			defer wg.Done()
			_, err := svc.Book(context.Background(), BookRequest{
				DoctorID: doctorID, PatientID: patient, Date: "2025-06-09", StartTime: "09:30",
			})
			results <- err
		}(uint(i + 1))
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		require.Equal(t, KindSlotTaken, KindOf(err))
		conflicts++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)
}

func TestBookIdempotencyKeyReturnsExisting(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	req := BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:00",
		IdempotencyKey: "req-abc-123",
	}

	first, err := svc.Book(context.Background(), req)
	require.NoError(t, err)

	// the retried request must not create a second appointment
	second, err := svc.Book(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.appointments, 1)
}

func TestBookIdempotencyKeyScopedToPatient(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	first, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:00",
		IdempotencyKey: "req-abc-123",
	})
	require.NoError(t, err)

	// another patient reusing the same key must get their own booking, not
	// the first patient's appointment
	second, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 2, Date: "2025-06-09", StartTime: "09:15",
		IdempotencyKey: "req-abc-123",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, uint(2), second.PatientID)
	assert.Len(t, store.appointments, 2)
}

func TestCancelFreesTheSlot(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	appt, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:15",
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), appt.ID, "patient request")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "patient request", cancelled.CancelReason)

	free, err := svc.FreeSlots(context.Background(), doctorID, mustDate(t, "2025-06-09"))
	require.NoError(t, err)
	assert.Contains(t, slotStarts(free), "09:15")
}

func TestRescheduleMovesSlotAndIncrementsCount(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	appt, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:15",
	})
	require.NoError(t, err)

	moved, err := svc.Reschedule(context.Background(), appt.ID, "2025-06-16", "09:45")
	require.NoError(t, err)
	assert.Equal(t, 1, moved.RescheduleCount)
	assert.Equal(t, "09:45", moved.StartTime.String())
	assert.Equal(t, "10:00", moved.EndTime.String())

	// the original slot reappears for the old date
	oldDay, err := svc.FreeSlots(context.Background(), doctorID, mustDate(t, "2025-06-09"))
	require.NoError(t, err)
	assert.Contains(t, slotStarts(oldDay), "09:15")

	// and the new slot is gone from the new date
	newDay, err := svc.FreeSlots(context.Background(), doctorID, mustDate(t, "2025-06-16"))
	require.NoError(t, err)
	assert.NotContains(t, slotStarts(newDay), "09:45")
}

func TestRescheduleToOwnSlotIsAllowed(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	appt, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:15",
	})
	require.NoError(t, err)

	moved, err := svc.Reschedule(context.Background(), appt.ID, "2025-06-09", "09:15")
	require.NoError(t, err)
	assert.Equal(t, 1, moved.RescheduleCount)
}

func TestRescheduleLimitExceeded(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	appt, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:00",
	})
	require.NoError(t, err)

	_, err = svc.Reschedule(context.Background(), appt.ID, "2025-06-09", "09:15")
	require.NoError(t, err)
	_, err = svc.Reschedule(context.Background(), appt.ID, "2025-06-09", "09:30")
	require.NoError(t, err)

	_, err = svc.Reschedule(context.Background(), appt.ID, "2025-06-09", "09:45")
	require.Error(t, err)
	assert.Equal(t, KindRescheduleLimit, KindOf(err))
}

func TestRescheduleConflictLeavesOriginalUntouched(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	appt, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:00",
	})
	require.NoError(t, err)

	// another patient claims 09:30 between our free-slot read and commit
	taken := &models.Appointment{
		DoctorID: doctorID, PatientID: 2,
		Date:      mustDate(t, "2025-06-09"),
		StartTime: mustClock(t, "09:30"), EndTime: mustClock(t, "09:45"),
		Status: models.StatusBooked,
	}
	require.NoError(t, store.CreateAppointment(context.Background(), taken))

	_, err = svc.Reschedule(context.Background(), appt.ID, "2025-06-09", "09:30")
	require.Error(t, err)
	assert.Equal(t, KindSlotTaken, KindOf(err))

	// the old booking still holds its slot, count unchanged
	current, err := store.AppointmentByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "09:00", current.StartTime.String())
	assert.Equal(t, 0, current.RescheduleCount)
}

func TestRescheduleTerminalAppointmentRejected(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	appt, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:00",
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), appt.ID, "changed plans")
	require.NoError(t, err)

	_, err = svc.Reschedule(context.Background(), appt.ID, "2025-06-09", "09:15")
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestTransitionRejectsInvalidMove(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	appt, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:00",
	})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), appt.ID, models.StatusCompleted, "")
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, KindOf(err))

	// no mutation happened
	current, err := store.AppointmentByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBooked, current.Status)
}

func TestTransitionWalksTheLifecycle(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	appt, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:00",
	})
	require.NoError(t, err)

	for _, next := range []models.AppointmentStatus{
		models.StatusConfirmed,
		models.StatusCheckedIn,
		models.StatusInConsultation,
		models.StatusPrescriptionCreated,
		models.StatusCompleted,
	} {
		appt, err = svc.Transition(context.Background(), appt.ID, next, "")
		require.NoError(t, err, "transition to %s", next)
		assert.Equal(t, next, appt.Status)
	}
}

func TestSlotDurationChangeIsNotRetroactive(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	appt, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "09:15", appt.EndTime.String())

	// the doctor switches to 30-minute slots
	store.mu.Lock()
	store.slotMinutes[doctorID] = 30
	store.mu.Unlock()

	// the stored appointment keeps its committed end time
	current, err := store.AppointmentByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "09:15", current.EndTime.String())

	// new resolutions use the new duration: 09:00 is busy so only 09:30
	// survives out of the two 30-minute slots
	free, err := svc.FreeSlots(context.Background(), doctorID, mustDate(t, "2025-06-09"))
	require.NoError(t, err)
	assert.Equal(t, []string{"09:30"}, slotStarts(free))
}

func TestSummaryRollingWindow(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	// holiday on the second Monday
	store.exceptions[doctorID] = map[string]*schedule.Exception{
		"2025-06-16": {Kind: schedule.ExceptionHoliday},
	}

	_, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: 1, Date: "2025-06-09", StartTime: "09:00",
	})
	require.NoError(t, err)

	summaries, err := svc.Summary(context.Background(), doctorID, mustDate(t, "2025-06-09"), 8)
	require.NoError(t, err)
	require.Len(t, summaries, 8)

	first := summaries[0]
	assert.Equal(t, "2025-06-09", first.Date.String())
	assert.True(t, first.IsAvailable)
	assert.Equal(t, 3, first.AvailableSlots)
	assert.Empty(t, first.Exception)

	// Tuesday through Sunday are closed by the weekly template
	for _, s := range summaries[1:7] {
		assert.False(t, s.IsAvailable, "date %s", s.Date)
		assert.Zero(t, s.AvailableSlots, "date %s", s.Date)
	}

	holiday := summaries[7]
	assert.Equal(t, "2025-06-16", holiday.Date.String())
	assert.False(t, holiday.IsAvailable)
	assert.Equal(t, string(schedule.ExceptionHoliday), holiday.Exception)
}

func TestSummaryFetchesExceptionOncePerDay(t *testing.T) {
	store := newMemoryStore()
	setupDoctor(t, store)
	svc := testService(store)

	_, err := svc.Summary(context.Background(), doctorID, mustDate(t, "2025-06-09"), 14)
	require.NoError(t, err)
	assert.Equal(t, 14, store.exceptionCalls)
}
