package booking

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/arogyadesk/clinic-app/models"
	"github.com/arogyadesk/clinic-app/schedule"
)

// Store is the persistence surface the allocator needs. The write methods
// carry the atomicity guarantees: CreateAppointment and Reschedule rely on
// a storage-level uniqueness primitive, never on read-then-write checks.
type Store interface {
	WeeklyTemplate(ctx context.Context, doctorID uint) (schedule.Week, error)
	ExceptionFor(ctx context.Context, doctorID uint, date schedule.Date) (*schedule.Exception, error)
	SlotMinutes(ctx context.Context, doctorID uint) (int, error)

	LiveAppointments(ctx context.Context, doctorID uint, date schedule.Date) ([]models.Appointment, error)
	AppointmentByID(ctx context.Context, id uint) (*models.Appointment, error)
	AppointmentByIdempotencyKey(ctx context.Context, key string) (*models.Appointment, error)

	// CreateAppointment returns errDuplicate when the live-slot or
	// idempotency-key constraint rejects the insert.
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	// Reschedule atomically releases the old slot and claims the new one;
	// either both happen or neither.
	Reschedule(ctx context.Context, id uint, maxReschedules int, date schedule.Date, start, end schedule.Clock) (*models.Appointment, error)
	// UpdateStatus persists a transition conditioned on the status the
	// caller observed; reports false when a concurrent writer got there first.
	UpdateStatus(ctx context.Context, id uint, from, to models.AppointmentStatus, reason string) (bool, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore wraps a GORM connection in the Store interface.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) WeeklyTemplate(ctx context.Context, doctorID uint) (schedule.Week, error) {
	var week schedule.Week

	var rows []models.WeeklyAvailability
	if err := s.db.WithContext(ctx).Where("doctor_id = ?", doctorID).Find(&rows).Error; err != nil {
		return week, fmt.Errorf("failed to fetch weekly availability: %w", err)
	}

	for _, row := range rows {
		if row.DayOfWeek < 0 || row.DayOfWeek > 6 {
			return week, fmt.Errorf("weekly availability row %d has invalid weekday %d", row.ID, row.DayOfWeek)
		}
		week[row.DayOfWeek] = schedule.DayTemplate{
			Available: row.IsAvailable,
			Windows:   row.Windows,
		}
	}
	return week, nil
}

func (s *gormStore) ExceptionFor(ctx context.Context, doctorID uint, date schedule.Date) (*schedule.Exception, error) {
	var row models.ScheduleException
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ?", doctorID, date).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule exception: %w", err)
	}
	return &schedule.Exception{
		Kind:    schedule.ExceptionKind(row.Kind),
		Windows: row.Windows,
	}, nil
}

func (s *gormStore) SlotMinutes(ctx context.Context, doctorID uint) (int, error) {
	var profile models.DoctorProfile
	err := s.db.WithContext(ctx).Where("doctor_id = ?", doctorID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil // resolver falls back to the default
	}
	if err != nil {
		return 0, fmt.Errorf("failed to fetch doctor profile: %w", err)
	}
	return profile.SlotDurationMinutes, nil
}

func (s *gormStore) LiveAppointments(ctx context.Context, doctorID uint, date schedule.Date) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ?", doctorID, date).
		Where("status NOT IN ?", []models.AppointmentStatus{models.StatusCancelled, models.StatusNoShow}).
		Order("start_time asc").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}
	return appointments, nil
}

func (s *gormStore) AppointmentByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(KindNotFound, "Appointment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment: %w", err)
	}
	return &appt, nil
}

func (s *gormStore) AppointmentByIdempotencyKey(ctx context.Context, key string) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment by idempotency key: %w", err)
	}
	return &appt, nil
}

func (s *gormStore) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	err := s.db.WithContext(ctx).Create(appt).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errDuplicate
	}
	return err
}

func (s *gormStore) Reschedule(ctx context.Context, id uint, maxReschedules int, date schedule.Date, start, end schedule.Clock) (*models.Appointment, error) {
	var appt models.Appointment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the row so concurrent reschedules of the same appointment
		// serialize; the live-slot index still guards the target slot.
		if err := tx.Raw(`
			SELECT *
			FROM appointments
			WHERE id = ? AND deleted_at IS NULL FOR UPDATE
		`, id).Scan(&appt).Error; err != nil {
			return err
		}
		if appt.ID == 0 {
			return newError(KindNotFound, "Appointment not found")
		}
		if appt.Status.IsTerminal() {
			return newError(KindInvalidTransition, fmt.Sprintf("Cannot reschedule a %s appointment", appt.Status))
		}
		if appt.RescheduleCount >= maxReschedules {
			return newError(KindRescheduleLimit, fmt.Sprintf("Appointment has already been rescheduled %d times", appt.RescheduleCount))
		}

		updates := map[string]interface{}{
			"date":             date,
			"start_time":       start,
			"end_time":         end,
			"reschedule_count": appt.RescheduleCount + 1,
		}
		if err := tx.Model(&models.Appointment{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// the target slot was claimed while we held the old one; the
				// rollback leaves the original booking untouched
				return errDuplicate
			}
			return err
		}

		appt.Date = date
		appt.StartTime = start
		appt.EndTime = end
		appt.RescheduleCount++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (s *gormStore) UpdateStatus(ctx context.Context, id uint, from, to models.AppointmentStatus, reason string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if reason != "" {
		updates["cancel_reason"] = reason
	}

	res := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update appointment status: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
