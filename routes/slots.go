package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arogyadesk/clinic-app/controllers"
	"github.com/arogyadesk/clinic-app/middleware"
)

// SetupSlotRoutes configures the slot availability routes
func SetupSlotRoutes(app *fiber.App) {
	slots := app.Group("/slots", middleware.Protected())
	slots.Get("/summary/:doctor_id", controllers.GetSlotSummary)
	slots.Get("/:doctor_id/:date", controllers.GetAvailableSlots)
}
