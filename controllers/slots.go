package controllers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arogyadesk/clinic-app/booking"
	"github.com/arogyadesk/clinic-app/db"
	"github.com/arogyadesk/clinic-app/redis"
	"github.com/arogyadesk/clinic-app/schedule"
	"github.com/arogyadesk/clinic-app/utils"
)

// SummaryWindowDays is the rolling window the date picker renders.
const SummaryWindowDays = 14

const summaryCacheTTL = 60 * time.Second

func bookingService() *booking.Service {
	return booking.NewService(booking.NewStore(db.GetDB()))
}

func bookingError(c *fiber.Ctx, message string, err error) error {
	return c.Status(booking.HTTPStatus(err)).JSON(utils.ErrorResponse{
		Message: message,
		Kind:    string(booking.KindOf(err)),
		Error:   err.Error(),
	})
}

// GetAvailableSlots returns the free bookable slots for a doctor on a date
func GetAvailableSlots(c *fiber.Ctx) error {
	doctorID, err := strconv.ParseUint(c.Params("doctor_id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid doctor id",
		})
	}

	date, err := schedule.ParseDate(c.Params("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid date, use YYYY-MM-DD",
			Kind:    string(booking.KindInvalidSchedule),
			Error:   err.Error(),
		})
	}

	free, err := bookingService().FreeSlots(c.Context(), uint(doctorID), date)
	if err != nil {
		return bookingError(c, "Failed to compute available slots", err)
	}

	return c.JSON(fiber.Map{
		"doctor_id":       doctorID,
		"date":            date,
		"available_slots": free,
	})
}

// GetSlotSummary returns the per-date availability aggregate for the
// rolling booking window. The aggregate is advisory and briefly cached in
// Redis; the booking commit never trusts it.
func GetSlotSummary(c *fiber.Ctx) error {
	doctorID, err := strconv.ParseUint(c.Params("doctor_id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid doctor id",
		})
	}

	from := schedule.Today(utils.ClinicLocation())
	cacheKey := "slot-summary:" + c.Params("doctor_id") + ":" + from.String()

	if redis.Client != nil {
		if cached, err := redis.Client.Get(redis.Ctx, cacheKey).Result(); err == nil {
			var summaries []booking.DaySummary
			if json.Unmarshal([]byte(cached), &summaries) == nil {
				return c.JSON(fiber.Map{
					"doctor_id": doctorID,
					"days":      summaries,
				})
			}
		}
	}

	summaries, err := bookingService().Summary(c.Context(), uint(doctorID), from, SummaryWindowDays)
	if err != nil {
		return bookingError(c, "Failed to compute slot summary", err)
	}

	if redis.Client != nil {
		if payload, err := json.Marshal(summaries); err == nil {
			redis.Client.Set(redis.Ctx, cacheKey, payload, summaryCacheTTL)
		}
	}

	return c.JSON(fiber.Map{
		"doctor_id": doctorID,
		"days":      summaries,
	})
}
