package booking

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/arogyadesk/clinic-app/models"
	"github.com/arogyadesk/clinic-app/schedule"
	"github.com/arogyadesk/clinic-app/utils"
)

// DefaultMaxReschedules bounds how often a single appointment may be moved.
const DefaultMaxReschedules = 2

// Service computes free slots and commits bookings against a Store. The
// free-slot computation is advisory; correctness under concurrent bookings
// comes from the store's conditional writes.
type Service struct {
	store          Store
	loc            *time.Location
	maxReschedules int
	now            func() time.Time
}

func NewService(store Store) *Service {
	maxReschedules := DefaultMaxReschedules
	if v := os.Getenv("MAX_RESCHEDULES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			maxReschedules = parsed
		}
	}

	return &Service{
		store:          store,
		loc:            utils.ClinicLocation(),
		maxReschedules: maxReschedules,
		now:            time.Now,
	}
}

// ResolveDay derives the day's theoretical slot windows from the weekly
// template, the date's exception and the doctor's slot duration.
func (s *Service) ResolveDay(ctx context.Context, doctorID uint, date schedule.Date) ([]schedule.Range, error) {
	slots, _, err := s.resolveDay(ctx, doctorID, date)
	return slots, err
}

// resolveDay also returns the date's exception so callers that need it do
// not fetch it a second time.
func (s *Service) resolveDay(ctx context.Context, doctorID uint, date schedule.Date) ([]schedule.Range, *schedule.Exception, error) {
	week, err := s.store.WeeklyTemplate(ctx, doctorID)
	if err != nil {
		return nil, nil, wrapError(KindInvalidSchedule, "Failed to load weekly availability", err)
	}
	exc, err := s.store.ExceptionFor(ctx, doctorID, date)
	if err != nil {
		return nil, nil, wrapError(KindInvalidSchedule, "Failed to load schedule exception", err)
	}
	slotMinutes, err := s.store.SlotMinutes(ctx, doctorID)
	if err != nil {
		return nil, nil, wrapError(KindInvalidSchedule, "Failed to load slot duration", err)
	}

	slots, err := schedule.ResolveDay(week, exc, slotMinutes, date)
	if err != nil {
		return nil, nil, wrapError(KindInvalidSchedule, "Schedule data is invalid for "+date.String(), err)
	}
	return slots, exc, nil
}

// FreeSlots removes every resolved slot that overlaps a live appointment.
func (s *Service) FreeSlots(ctx context.Context, doctorID uint, date schedule.Date) ([]schedule.Range, error) {
	free, _, err := s.freeSlotsExcluding(ctx, doctorID, date, 0)
	return free, err
}

// freeSlotsExcluding ignores one appointment when subtracting busy
// intervals, so a reschedule does not collide with the booking being moved.
func (s *Service) freeSlotsExcluding(ctx context.Context, doctorID uint, date schedule.Date, excludeID uint) ([]schedule.Range, *schedule.Exception, error) {
	slots, exc, err := s.resolveDay(ctx, doctorID, date)
	if err != nil {
		return nil, nil, err
	}
	if len(slots) == 0 {
		return slots, exc, nil
	}

	appointments, err := s.store.LiveAppointments(ctx, doctorID, date)
	if err != nil {
		return nil, nil, err
	}

	busy := make([]schedule.Range, 0, len(appointments))
	for _, appt := range appointments {
		if excludeID != 0 && appt.ID == excludeID {
			continue
		}
		busy = append(busy, schedule.Range{Start: appt.StartTime, End: appt.EndTime})
	}
	return schedule.Subtract(slots, busy), exc, nil
}

// DaySummary is one row of the rolling availability window used to render
// date pickers.
type DaySummary struct {
	Date           schedule.Date `json:"date"`
	IsAvailable    bool          `json:"is_available"`
	AvailableSlots int           `json:"available_slots"`
	Exception      string        `json:"exception,omitempty"`
}

// Summary aggregates free-slot counts for `days` consecutive dates starting
// at `from`.
func (s *Service) Summary(ctx context.Context, doctorID uint, from schedule.Date, days int) ([]DaySummary, error) {
	summaries := make([]DaySummary, 0, days)
	for i := 0; i < days; i++ {
		date := from.AddDays(i)

		free, exc, err := s.freeSlotsExcluding(ctx, doctorID, date, 0)
		if err != nil {
			return nil, err
		}

		summary := DaySummary{
			Date:           date,
			IsAvailable:    len(free) > 0,
			AvailableSlots: len(free),
		}
		if exc != nil {
			summary.Exception = string(exc.Kind)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// BookRequest is a booking attempt. IdempotencyKey is optional; a retried
// request carrying the same key returns the already-created appointment
// instead of double-booking.
type BookRequest struct {
	ClinicID       uint
	DoctorID       uint
	PatientID      uint
	BookedByID     uint
	Date           string
	StartTime      string
	Type           models.AppointmentType
	Notes          string
	IdempotencyKey string
}

// Book converts a slot selection into an appointment record. The free-slot
// check here is advisory; the store's live-slot constraint decides the race,
// and losing it surfaces as SlotAlreadyBooked.
func (s *Service) Book(ctx context.Context, req BookRequest) (*models.Appointment, error) {
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return nil, wrapError(KindInvalidSchedule, "Invalid appointment date", err)
	}
	start, err := schedule.ParseClock(req.StartTime)
	if err != nil {
		return nil, wrapError(KindInvalidSchedule, "Invalid appointment start time", err)
	}

	today := schedule.DateOf(s.now().In(s.loc))
	if date.Before(today) {
		return nil, newError(KindPastDate, "Cannot book an appointment on a past date")
	}

	// The key is scoped to the patient so one client's retries can never
	// match or surface another patient's booking. The lookup runs before the
	// availability check: the retried slot is occupied by the very booking
	// being replayed.
	idemKey := req.IdempotencyKey
	if idemKey != "" {
		idemKey = fmt.Sprintf("%d:%s", req.PatientID, req.IdempotencyKey)
		existing, err := s.store.AppointmentByIdempotencyKey(ctx, idemKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	free, err := s.FreeSlots(ctx, req.DoctorID, date)
	if err != nil {
		return nil, err
	}
	slot, ok := findSlot(free, start)
	if !ok {
		return nil, newError(KindSlotTaken, fmt.Sprintf("Slot %s on %s is not available", start, date))
	}

	apptType := req.Type
	if apptType == "" {
		apptType = models.TypeOnline
	}
	// walk-ins are front-desk-originated and skip patient-side confirmation
	status := models.StatusBooked
	if apptType == models.TypeWalkIn {
		status = models.StatusConfirmed
	}

	appt := &models.Appointment{
		Reference:      uuid.NewString(),
		ClinicID:       req.ClinicID,
		DoctorID:       req.DoctorID,
		PatientID:      req.PatientID,
		BookedByID:     req.BookedByID,
		Date:           date,
		StartTime:      slot.Start,
		EndTime:        slot.End, // derived once at commit, never recomputed
		Status:         status,
		Type:           apptType,
		Notes:          req.Notes,
		IdempotencyKey: idemKey,
	}

	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		if errors.Is(err, errDuplicate) {
			if idemKey != "" {
				existing, lookupErr := s.store.AppointmentByIdempotencyKey(ctx, idemKey)
				if lookupErr == nil && existing != nil {
					return existing, nil
				}
			}
			return nil, newError(KindSlotTaken, fmt.Sprintf("Slot %s on %s was just booked by someone else", start, date))
		}
		return nil, err
	}
	return appt, nil
}

// Reschedule moves an appointment to a new slot under the same atomicity
// discipline as a fresh booking. The old slot is released only when the new
// claim commits; a lost race rolls the whole operation back.
func (s *Service) Reschedule(ctx context.Context, id uint, dateStr, startStr string) (*models.Appointment, error) {
	date, err := schedule.ParseDate(dateStr)
	if err != nil {
		return nil, wrapError(KindInvalidSchedule, "Invalid appointment date", err)
	}
	start, err := schedule.ParseClock(startStr)
	if err != nil {
		return nil, wrapError(KindInvalidSchedule, "Invalid appointment start time", err)
	}

	appt, err := s.store.AppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.IsTerminal() {
		return nil, newError(KindInvalidTransition, fmt.Sprintf("Cannot reschedule a %s appointment", appt.Status))
	}
	if appt.RescheduleCount >= s.maxReschedules {
		return nil, newError(KindRescheduleLimit, fmt.Sprintf("Appointment has already been rescheduled %d times", appt.RescheduleCount))
	}

	today := schedule.DateOf(s.now().In(s.loc))
	if date.Before(today) {
		return nil, newError(KindPastDate, "Cannot reschedule an appointment to a past date")
	}

	free, _, err := s.freeSlotsExcluding(ctx, appt.DoctorID, date, appt.ID)
	if err != nil {
		return nil, err
	}
	slot, ok := findSlot(free, start)
	if !ok {
		return nil, newError(KindSlotTaken, fmt.Sprintf("Slot %s on %s is not available", start, date))
	}

	updated, err := s.store.Reschedule(ctx, id, s.maxReschedules, date, slot.Start, slot.End)
	if err != nil {
		if errors.Is(err, errDuplicate) {
			return nil, newError(KindSlotTaken, fmt.Sprintf("Slot %s on %s was just booked by someone else", start, date))
		}
		return nil, err
	}
	return updated, nil
}

// Transition applies a status change through the adjacency table. Cancel
// reasons travel with cancellation and no-show transitions.
func (s *Service) Transition(ctx context.Context, id uint, to models.AppointmentStatus, reason string) (*models.Appointment, error) {
	appt, err := s.store.AppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := appt.Status
	if err := appt.Transition(to); err != nil {
		return nil, wrapError(KindInvalidTransition, "Status transition rejected", err)
	}

	applied, err := s.store.UpdateStatus(ctx, id, from, to, reason)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, newError(KindInvalidTransition, "Appointment status changed concurrently, re-fetch and retry")
	}
	if reason != "" {
		appt.CancelReason = reason
	}
	return appt, nil
}

// Cancel is the ordinary patient/staff cancellation path.
func (s *Service) Cancel(ctx context.Context, id uint, reason string) (*models.Appointment, error) {
	return s.Transition(ctx, id, models.StatusCancelled, reason)
}

func findSlot(slots []schedule.Range, start schedule.Clock) (schedule.Range, bool) {
	for _, slot := range slots {
		if slot.Start == start {
			return slot, true
		}
	}
	return schedule.Range{}, false
}
