package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arogyadesk/clinic-app/controllers/doctor"
	"github.com/arogyadesk/clinic-app/middleware"
	"github.com/arogyadesk/clinic-app/models"
)

// SetupDoctorRoutes configures the doctor self-service routes
func SetupDoctorRoutes(app *fiber.App) {
	d := app.Group("/doctor", middleware.Protected(), middleware.RequireRole(models.RoleDoctor))

	d.Get("/profile", doctor.GetProfile)
	d.Put("/profile", doctor.UpdateProfile)
	d.Post("/profile/photo", doctor.UploadPhoto)

	d.Get("/availability", doctor.GetWeeklyAvailability)
	d.Put("/availability", doctor.SetWeeklyAvailability)

	d.Get("/exceptions", doctor.GetExceptions)
	d.Post("/exceptions", doctor.CreateException)
	d.Delete("/exceptions/:id", doctor.DeleteException)
}
