package models

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/arogyadesk/clinic-app/schedule"
)

type AppointmentStatus string

const (
	StatusPending             AppointmentStatus = "pending"
	StatusBooked              AppointmentStatus = "booked"
	StatusConfirmed           AppointmentStatus = "confirmed"
	StatusCheckedIn           AppointmentStatus = "checked_in"
	StatusInConsultation      AppointmentStatus = "in_consultation"
	StatusPrescriptionCreated AppointmentStatus = "prescription_created"
	StatusCompleted           AppointmentStatus = "completed"
	StatusCancelled           AppointmentStatus = "cancelled"
	StatusNoShow              AppointmentStatus = "no_show"
)

type AppointmentType string

const (
	TypeOnline AppointmentType = "online"
	TypeWalkIn AppointmentType = "walk-in"
)

// statusTransitions is the explicit adjacency table of the appointment
// lifecycle. completed, cancelled and no_show are terminal.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:             {StatusBooked, StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusBooked:              {StatusConfirmed, StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusConfirmed:           {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:           {StatusInConsultation, StatusCancelled, StatusNoShow},
	StatusInConsultation:      {StatusPrescriptionCreated, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusPrescriptionCreated: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted:           {},
	StatusCancelled:           {},
	StatusNoShow:              {},
}

// LiveStatuses are the statuses that occupy a slot. Cancelled and no-show
// appointments free their interval.
var LiveStatuses = []AppointmentStatus{
	StatusPending, StatusBooked, StatusConfirmed,
	StatusCheckedIn, StatusInConsultation, StatusPrescriptionCreated,
}

// CanTransition reports whether the adjacency table permits from → to.
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

func (s AppointmentStatus) IsLive() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// Appointment is the committed booking. StartTime/EndTime are clinic-local
// wall-clock values on Date; EndTime is derived from the doctor's slot
// duration at commit time and never recomputed afterwards, so a later
// slot-duration change cannot corrupt historical records. Appointments are
// never physically deleted, only transitioned to cancelled.
type Appointment struct {
	gorm.Model
	Reference       string            `json:"reference" gorm:"uniqueIndex"`
	ClinicID        uint              `json:"clinic_id"`
	DoctorID        uint              `json:"doctor_id" gorm:"index:idx_appointments_doctor_date"`
	Doctor          User              `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`
	PatientID       uint              `json:"patient_id"`
	Patient         User              `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	Date            schedule.Date     `json:"date" gorm:"type:date;index:idx_appointments_doctor_date"`
	StartTime       schedule.Clock    `json:"start_time" gorm:"type:varchar(5)"`
	EndTime         schedule.Clock    `json:"end_time" gorm:"type:varchar(5)"`
	Status          AppointmentStatus `json:"status"`
	Type            AppointmentType   `json:"type"`
	Notes           string            `json:"notes"`
	CancelReason    string            `json:"cancel_reason,omitempty"`
	RescheduleCount int               `json:"reschedule_count"`
	IdempotencyKey  string            `json:"-"`
	BookedByID      uint              `json:"booked_by_id"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}

// Transition moves the appointment to a new status after consulting the
// adjacency table; an invalid move leaves the record untouched.
func (a *Appointment) Transition(newStatus AppointmentStatus) error {
	if !CanTransition(a.Status, newStatus) {
		return fmt.Errorf("invalid transition from %s to %s", a.Status, newStatus)
	}
	a.Status = newStatus
	return nil
}
