package models

import (
	"gorm.io/gorm"
)

// DoctorProfile carries the doctor-specific settings on top of the user
// record. SlotDurationMinutes subdivides availability windows into bookable
// units; zero means "use the system default" (see schedule.DefaultSlotMinutes).
// Changing it never rewrites end times of already-booked appointments.
type DoctorProfile struct {
	gorm.Model
	DoctorID            uint    `json:"doctor_id" gorm:"uniqueIndex"`
	Doctor              User    `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`
	Specialization      string  `json:"specialization"`
	Qualification       string  `json:"qualification"`
	ExperienceYears     int     `json:"experience_years"`
	ConsultationFee     float64 `json:"consultation_fee"`
	SlotDurationMinutes int     `json:"slot_duration_minutes"`
	About               string  `json:"about"`
	PhotoURL            string  `json:"photo_url"`
}
