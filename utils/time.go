package utils

import (
	"os"
	"time"
)

// ClinicLocation returns the clinic-local timezone. All schedule times are
// wall-clock values in this location; defaults to IST.
func ClinicLocation() *time.Location {
	name := os.Getenv("CLINIC_TZ")
	if name == "" {
		name = "Asia/Kolkata"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC // Fallback to UTC if the zone is not available
	}
	return loc
}
