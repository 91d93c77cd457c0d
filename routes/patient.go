package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arogyadesk/clinic-app/controllers/patient"
	"github.com/arogyadesk/clinic-app/middleware"
)

// SetupPatientRoutes configures the patient-facing browse routes
func SetupPatientRoutes(app *fiber.App) {
	p := app.Group("/patient", middleware.Protected())

	p.Get("/doctors", patient.GetDoctors)
	p.Get("/doctors/:id", patient.GetDoctorDetails)
	p.Get("/appointments", patient.GetMyAppointments)
}
