package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/arogyadesk/clinic-app/schedule"
)

// WeeklyAvailability is one weekday's entry of a doctor's recurring
// template: at most one row per (doctor, weekday). Windows holds the raw
// availability ranges for the day as JSONB; subdivision into slots happens
// at resolve time.
type WeeklyAvailability struct {
	gorm.Model
	DoctorID    uint            `json:"doctor_id" gorm:"uniqueIndex:idx_weekly_doctor_day"`
	DayOfWeek   time.Weekday    `json:"day_of_week" gorm:"uniqueIndex:idx_weekly_doctor_day"`
	IsAvailable bool            `json:"is_available"`
	Windows     schedule.Ranges `json:"windows" gorm:"type:jsonb"`
}

// ExceptionKind mirrors schedule.ExceptionKind at the storage layer.
const (
	ExceptionHoliday  = string(schedule.ExceptionHoliday)
	ExceptionLeave    = string(schedule.ExceptionLeave)
	ExceptionOverride = string(schedule.ExceptionOverride)
)

// ScheduleException is a date-scoped deviation from the weekly template:
// at most one row per (doctor, date). For holiday/leave the day is closed
// outright; for override Windows replaces the template for that date.
type ScheduleException struct {
	gorm.Model
	DoctorID uint            `json:"doctor_id" gorm:"uniqueIndex:idx_exception_doctor_date"`
	Date     schedule.Date   `json:"date" gorm:"type:date;uniqueIndex:idx_exception_doctor_date"`
	Kind     string          `json:"kind"`
	Reason   string          `json:"reason"`
	Windows  schedule.Ranges `json:"windows" gorm:"type:jsonb"`
}
