package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arogyadesk/clinic-app/controllers"
	"github.com/arogyadesk/clinic-app/middleware"
	"github.com/arogyadesk/clinic-app/models"
)

// SetupAppointmentRoutes configures all appointment related routes
func SetupAppointmentRoutes(app *fiber.App) {
	appointment := app.Group("/appointments", middleware.Protected())

	appointment.Post("/book", middleware.RequirePermission("appointments", "create"), controllers.BookAppointment)
	appointment.Post("/walk-in", middleware.RequireRole(models.RoleReceptionist, models.RoleClinicAdmin), controllers.BookWalkIn)

	appointment.Get("/doctor/:doctor_id", middleware.RequireRole(models.RoleDoctor, models.RoleReceptionist, models.RoleClinicAdmin), controllers.GetDoctorDay)
	appointment.Get("/:id", controllers.GetAppointment)

	appointment.Put("/:id/reschedule", middleware.RequirePermission("appointments", "update"), controllers.RescheduleAppointment)
	appointment.Put("/:id/cancel", middleware.RequirePermission("appointments", "update"), controllers.CancelAppointment)
	appointment.Put("/:id/status", middleware.RequireRole(models.RoleDoctor, models.RoleReceptionist, models.RoleClinicAdmin), controllers.UpdateAppointmentStatus)
}
