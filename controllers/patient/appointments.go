package patient

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arogyadesk/clinic-app/db"
	"github.com/arogyadesk/clinic-app/models"
	"github.com/arogyadesk/clinic-app/schedule"
	"github.com/arogyadesk/clinic-app/utils"
)

// GetMyAppointments lists the patient's appointments, upcoming first. The
// scope query param selects "upcoming" (default) or "history".
func GetMyAppointments(c *fiber.Ctx) error {
	patientID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "User ID not found in context",
		})
	}

	today := schedule.Today(utils.ClinicLocation())
	query := db.DB.Preload("Doctor").Where("patient_id = ?", patientID)

	switch c.Query("scope", "upcoming") {
	case "upcoming":
		query = query.Where("date >= ? AND status IN ?", today, models.LiveStatuses).
			Order("date asc, start_time asc")
	case "history":
		query = query.Where("date < ? OR status NOT IN ?", today, models.LiveStatuses).
			Order("date desc, start_time desc")
	default:
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "scope must be upcoming or history",
		})
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch appointments",
			Error:   err.Error(),
		})
	}

	for i := range appointments {
		appointments[i].Doctor.Password = ""
	}

	return c.JSON(fiber.Map{
		"appointments": appointments,
		"count":        len(appointments),
	})
}
