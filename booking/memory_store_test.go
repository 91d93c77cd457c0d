package booking

import (
	"context"
	"fmt"
	"sync"

	"github.com/arogyadesk/clinic-app/models"
	"github.com/arogyadesk/clinic-app/schedule"
)

// memoryStore mirrors the storage contract in memory for tests: the mutex
// plays the role of the database's unique live-slot index. Duplicate
// rejections come back with errDuplicate wrapped, not bare, so the service
// must match it through the chain. exceptionCalls counts ExceptionFor hits.
type memoryStore struct {
	mu             sync.Mutex
	week           map[uint]schedule.Week
	exceptions     map[uint]map[string]*schedule.Exception
	slotMinutes    map[uint]int
	appointments   map[uint]*models.Appointment
	nextID         uint
	exceptionCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		week:         make(map[uint]schedule.Week),
		exceptions:   make(map[uint]map[string]*schedule.Exception),
		slotMinutes:  make(map[uint]int),
		appointments: make(map[uint]*models.Appointment),
	}
}

func (m *memoryStore) WeeklyTemplate(_ context.Context, doctorID uint) (schedule.Week, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.week[doctorID], nil
}

func (m *memoryStore) ExceptionFor(_ context.Context, doctorID uint, date schedule.Date) (*schedule.Exception, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exceptionCalls++
	return m.exceptions[doctorID][date.String()], nil
}

func (m *memoryStore) SlotMinutes(_ context.Context, doctorID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slotMinutes[doctorID], nil
}

func (m *memoryStore) LiveAppointments(_ context.Context, doctorID uint, date schedule.Date) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Appointment
	for _, appt := range m.appointments {
		if appt.DoctorID == doctorID && appt.Date == date && appt.Status.IsLive() {
			out = append(out, *appt)
		}
	}
	return out, nil
}

func (m *memoryStore) AppointmentByID(_ context.Context, id uint) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appointments[id]
	if !ok {
		return nil, newError(KindNotFound, "Appointment not found")
	}
	copied := *appt
	return &copied, nil
}

func (m *memoryStore) AppointmentByIdempotencyKey(_ context.Context, key string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, appt := range m.appointments {
		if appt.IdempotencyKey == key {
			copied := *appt
			return &copied, nil
		}
	}
	return nil, nil
}

// slotTaken must be called with the mutex held.
func (m *memoryStore) slotTaken(doctorID uint, date schedule.Date, start schedule.Clock, excludeID uint) bool {
	for _, other := range m.appointments {
		if other.ID == excludeID {
			continue
		}
		if other.DoctorID == doctorID && other.Date == date && other.StartTime == start && other.Status.IsLive() {
			return true
		}
	}
	return false
}

func (m *memoryStore) CreateAppointment(_ context.Context, appt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slotTaken(appt.DoctorID, appt.Date, appt.StartTime, 0) {
		return fmt.Errorf("insert appointment: %w", errDuplicate)
	}
	if appt.IdempotencyKey != "" {
		for _, other := range m.appointments {
			if other.IdempotencyKey == appt.IdempotencyKey {
				return fmt.Errorf("insert appointment: %w", errDuplicate)
			}
		}
	}

	m.nextID++
	appt.ID = m.nextID
	copied := *appt
	m.appointments[appt.ID] = &copied
	return nil
}

func (m *memoryStore) Reschedule(_ context.Context, id uint, maxReschedules int, date schedule.Date, start, end schedule.Clock) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appointments[id]
	if !ok {
		return nil, newError(KindNotFound, "Appointment not found")
	}
	if appt.Status.IsTerminal() {
		return nil, newError(KindInvalidTransition, "Cannot reschedule a terminal appointment")
	}
	if appt.RescheduleCount >= maxReschedules {
		return nil, newError(KindRescheduleLimit, "Reschedule limit reached")
	}
	if m.slotTaken(appt.DoctorID, date, start, id) {
		return nil, fmt.Errorf("update appointment: %w", errDuplicate)
	}

	appt.Date = date
	appt.StartTime = start
	appt.EndTime = end
	appt.RescheduleCount++
	copied := *appt
	return &copied, nil
}

func (m *memoryStore) UpdateStatus(_ context.Context, id uint, from, to models.AppointmentStatus, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appointments[id]
	if !ok || appt.Status != from {
		return false, nil
	}
	appt.Status = to
	if reason != "" {
		appt.CancelReason = reason
	}
	return true, nil
}
