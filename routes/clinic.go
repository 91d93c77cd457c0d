package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arogyadesk/clinic-app/controllers"
	"github.com/arogyadesk/clinic-app/middleware"
	"github.com/arogyadesk/clinic-app/models"
)

// SetupClinicRoutes configures the tenant management routes
func SetupClinicRoutes(app *fiber.App) {
	clinic := app.Group("/clinics", middleware.Protected())

	clinic.Get("/", controllers.GetClinics)
	clinic.Get("/:id", controllers.GetClinic)
	clinic.Post("/", middleware.RequireRole(models.RoleSuperAdmin), controllers.CreateClinic)
	clinic.Put("/:id", middleware.RequireRole(models.RoleSuperAdmin, models.RoleClinicAdmin), controllers.UpdateClinic)
}
