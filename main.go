package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/arogyadesk/clinic-app/cron"
	"github.com/arogyadesk/clinic-app/db"
	"github.com/arogyadesk/clinic-app/redis"
	"github.com/arogyadesk/clinic-app/routes"
)

func main() {
	app := fiber.New()
	db.Migrate()
	redis.InitRedis()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	routes.SetupAuthRoutes(app)
	routes.SetupClinicRoutes(app)
	routes.SetupSlotRoutes(app)
	routes.SetupAppointmentRoutes(app)
	routes.SetupDoctorRoutes(app)
	routes.SetupPatientRoutes(app)

	cron.StartCronJobs()

	log.Fatal(app.Listen(":8000"))
}
