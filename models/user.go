package models

import (
	"time"
)

type User struct {
	ID                  uint          `json:"id" gorm:"primaryKey"`
	Name                string        `json:"name"`
	Email               string        `json:"email" gorm:"unique"`
	Phone               string        `json:"phone"`
	Password            string        `json:"password,omitempty"`
	IsVerified          bool          `json:"is_verified"`
	RoleID              uint          `json:"role_id"`
	Role                Role          `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	ClinicID            uint          `json:"clinic_id"`
	DoctorAppointments  []Appointment `json:"doctor_appointments,omitempty" gorm:"foreignKey:DoctorID"`
	PatientAppointments []Appointment `json:"patient_appointments,omitempty" gorm:"foreignKey:PatientID"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}
