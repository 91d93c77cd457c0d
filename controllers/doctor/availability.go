package doctor

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/clause"

	"github.com/arogyadesk/clinic-app/db"
	"github.com/arogyadesk/clinic-app/models"
	"github.com/arogyadesk/clinic-app/schedule"
	"github.com/arogyadesk/clinic-app/utils"
)

// validateWindows rejects malformed or mutually overlapping availability
// windows before they reach storage.
func validateWindows(windows schedule.Ranges) error {
	for i, w := range windows {
		if w.Start < 0 || w.End > 24*60 || w.End <= w.Start {
			return fmt.Errorf("invalid window %s-%s", w.Start, w.End)
		}
		for _, other := range windows[:i] {
			if w.Overlaps(other) {
				return fmt.Errorf("window %s-%s overlaps %s-%s", w.Start, w.End, other.Start, other.End)
			}
		}
	}
	return nil
}

// GetWeeklyAvailability returns the doctor's full recurring template
func GetWeeklyAvailability(c *fiber.Ctx) error {
	doctorID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "User ID not found in context",
		})
	}

	var days []models.WeeklyAvailability
	if err := db.DB.Where("doctor_id = ?", doctorID).Order("day_of_week asc").Find(&days).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to get weekly availability",
			Error:   err.Error(),
		})
	}
	return c.JSON(days)
}

// SetWeeklyAvailability upserts one weekday of the recurring template. The
// change only affects slots resolved after this call; booked appointments
// keep their stored times.
func SetWeeklyAvailability(c *fiber.Ctx) error {
	type DayInput struct {
		DayOfWeek   int             `json:"day_of_week"`
		IsAvailable bool            `json:"is_available"`
		Windows     schedule.Ranges `json:"windows"`
	}

	doctorID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "User ID not found in context",
		})
	}

	input := new(DayInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	if input.DayOfWeek < 0 || input.DayOfWeek > 6 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "day_of_week must be between 0 (Sunday) and 6 (Saturday)",
		})
	}
	if input.IsAvailable {
		if err := validateWindows(input.Windows); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
				Message: "Invalid availability windows",
				Error:   err.Error(),
			})
		}
	}

	day := models.WeeklyAvailability{
		DoctorID:    doctorID,
		DayOfWeek:   time.Weekday(input.DayOfWeek),
		IsAvailable: input.IsAvailable,
		Windows:     input.Windows,
	}
	if err := db.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doctor_id"}, {Name: "day_of_week"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_available", "windows", "updated_at"}),
	}).Create(&day).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to save weekly availability",
			Error:   err.Error(),
		})
	}
	return c.JSON(day)
}

// CreateException records a date-scoped deviation from the weekly template
func CreateException(c *fiber.Ctx) error {
	type ExceptionInput struct {
		Date    string          `json:"date"`
		Kind    string          `json:"kind"`
		Reason  string          `json:"reason"`
		Windows schedule.Ranges `json:"windows"`
	}

	doctorID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "User ID not found in context",
		})
	}

	input := new(ExceptionInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	date, err := schedule.ParseDate(input.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid date, use YYYY-MM-DD",
			Error:   err.Error(),
		})
	}

	switch input.Kind {
	case models.ExceptionHoliday, models.ExceptionLeave:
		input.Windows = nil
	case models.ExceptionOverride:
		if err := validateWindows(input.Windows); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
				Message: "Invalid override windows",
				Error:   err.Error(),
			})
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "kind must be holiday, leave or override",
		})
	}

	exception := models.ScheduleException{
		DoctorID: doctorID,
		Date:     date,
		Kind:     input.Kind,
		Reason:   input.Reason,
		Windows:  input.Windows,
	}
	if err := db.DB.Create(&exception).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "An exception already exists for that date",
			Error:   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(exception)
}

// GetExceptions lists the doctor's upcoming exceptions
func GetExceptions(c *fiber.Ctx) error {
	doctorID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "User ID not found in context",
		})
	}

	var exceptions []models.ScheduleException
	if err := db.DB.Where("doctor_id = ? AND date >= ?", doctorID, schedule.Today(utils.ClinicLocation())).
		Order("date asc").Find(&exceptions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to get exceptions",
			Error:   err.Error(),
		})
	}
	return c.JSON(exceptions)
}

// DeleteException removes an exception so the weekly template applies again.
// The delete is unscoped: the (doctor, date) unique index must stay free for
// a future exception on the same date.
func DeleteException(c *fiber.Ctx) error {
	doctorID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "User ID not found in context",
		})
	}

	id := c.Params("id")
	var exception models.ScheduleException
	if err := db.DB.Where("doctor_id = ?", doctorID).First(&exception, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Exception not found",
			Error:   err.Error(),
		})
	}
	if err := db.DB.Unscoped().Delete(&exception).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to delete exception",
			Error:   err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
