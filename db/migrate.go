package db

import (
	"fmt"
	"log"

	"github.com/arogyadesk/clinic-app/models"
)

func Migrate() {
	// Initialize DB connection
	Init()

	err := DB.AutoMigrate(
		&models.Clinic{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.DoctorProfile{},
		&models.WeeklyAvailability{},
		&models.ScheduleException{},
		&models.Appointment{},
	)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	// The booking invariant lives here: at most one live appointment per
	// (doctor, date, start_time). Concurrent bookings for the same slot race
	// on this index, not on application-level reads.
	if err := DB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_live_slot
		ON appointments (doctor_id, date, start_time)
		WHERE status NOT IN ('cancelled', 'no_show') AND deleted_at IS NULL
	`).Error; err != nil {
		log.Fatal("Failed to create live-slot index: ", err)
	}

	// A retried booking request with the same idempotency key must not
	// create a second appointment.
	if err := DB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_idempotency_key
		ON appointments (idempotency_key)
		WHERE idempotency_key <> '' AND deleted_at IS NULL
	`).Error; err != nil {
		log.Fatal("Failed to create idempotency index: ", err)
	}

	seedRolesAndPermissions()

	fmt.Println("✅ Migrations applied successfully!")
}

func seedRolesAndPermissions() {
	roles := []models.Role{
		{Name: models.RoleSuperAdmin, Description: "Platform administrator overseeing all clinics"},
		{Name: models.RoleClinicAdmin, Description: "Clinic administrator managing doctors and staff"},
		{Name: models.RoleDoctor, Description: "Doctor managing schedule, patients and prescriptions"},
		{Name: models.RoleReceptionist, Description: "Front desk staff managing walk-ins and check-ins"},
		{Name: models.RolePatient, Description: "Patient who searches doctors and books appointments"},
	}

	for _, role := range roles {
		var existing models.Role
		if DB.Where("name = ?", role.Name).First(&existing).RowsAffected == 0 {
			DB.Create(&role)
		}
	}

	permissions := []models.Permission{
		{Name: "create_appointment", Description: "Book appointments", Resource: "appointments", Action: "create"},
		{Name: "read_appointments", Description: "View appointments", Resource: "appointments", Action: "read"},
		{Name: "update_appointment", Description: "Reschedule, cancel or transition appointments", Resource: "appointments", Action: "update"},
		{Name: "create_availability", Description: "Create availability and exceptions", Resource: "availability", Action: "create"},
		{Name: "read_availability", Description: "View availability", Resource: "availability", Action: "read"},
		{Name: "update_availability", Description: "Update weekly template and slot duration", Resource: "availability", Action: "update"},
		{Name: "delete_availability", Description: "Remove schedule exceptions", Resource: "availability", Action: "delete"},
		{Name: "read_users", Description: "View user list", Resource: "users", Action: "read"},
		{Name: "update_user", Description: "Update user details", Resource: "users", Action: "update"},
	}

	for _, permission := range permissions {
		var existing models.Permission
		if DB.Where("name = ?", permission.Name).First(&existing).RowsAffected == 0 {
			DB.Create(&permission)
		}
	}

	grants := map[string][]string{
		models.RoleSuperAdmin:   {"create_appointment", "read_appointments", "update_appointment", "create_availability", "read_availability", "update_availability", "delete_availability", "read_users", "update_user"},
		models.RoleClinicAdmin:  {"read_appointments", "update_appointment", "read_availability", "read_users", "update_user"},
		models.RoleDoctor:       {"read_appointments", "update_appointment", "create_availability", "read_availability", "update_availability", "delete_availability"},
		models.RoleReceptionist: {"create_appointment", "read_appointments", "update_appointment", "read_availability"},
		models.RolePatient:      {"create_appointment", "read_appointments", "update_appointment", "read_availability"},
	}

	for roleName, permNames := range grants {
		var role models.Role
		if DB.Where("name = ?", roleName).First(&role).RowsAffected == 0 {
			continue
		}
		var perms []models.Permission
		DB.Where("name IN ?", permNames).Find(&perms)
		DB.Model(&role).Association("Permissions").Replace(perms)
	}
}
