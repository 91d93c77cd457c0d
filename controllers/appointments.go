package controllers

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arogyadesk/clinic-app/booking"
	"github.com/arogyadesk/clinic-app/db"
	"github.com/arogyadesk/clinic-app/models"
	"github.com/arogyadesk/clinic-app/redis"
	"github.com/arogyadesk/clinic-app/schedule"
	"github.com/arogyadesk/clinic-app/utils"
)

const idempotencyCacheTTL = 24 * time.Hour

// BookAppointment books a slot for the authenticated patient. Walk-in
// bookings come through BookWalkIn instead.
func BookAppointment(c *fiber.Ctx) error {
	type BookInput struct {
		DoctorID  uint   `json:"doctor_id"`
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
		Notes     string `json:"notes"`
	}

	input := new(BookInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	patientID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "User ID not found in context",
		})
	}

	var doctor models.User
	if err := db.DB.First(&doctor, input.DoctorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Doctor not found",
			Error:   err.Error(),
		})
	}

	idempotencyKey := c.Get("Idempotency-Key")

	// Fast path: a retried request we already served. The cache key carries
	// the patient id so replays can only ever hit that patient's own booking.
	idemCacheKey := fmt.Sprintf("booking-idem:%d:%s", patientID, idempotencyKey)
	if idempotencyKey != "" && redis.Client != nil {
		if cached, err := redis.Client.Get(redis.Ctx, idemCacheKey).Result(); err == nil {
			if id, err := strconv.ParseUint(cached, 10, 64); err == nil {
				var appt models.Appointment
				if db.DB.First(&appt, uint(id)).Error == nil {
					return c.Status(fiber.StatusCreated).JSON(appt)
				}
			}
		}
	}

	appt, err := bookingService().Book(c.Context(), booking.BookRequest{
		ClinicID:       doctor.ClinicID,
		DoctorID:       input.DoctorID,
		PatientID:      patientID,
		BookedByID:     patientID,
		Date:           input.Date,
		StartTime:      input.StartTime,
		Type:           models.TypeOnline,
		Notes:          input.Notes,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return bookingError(c, "Failed to book appointment", err)
	}

	if idempotencyKey != "" && redis.Client != nil {
		redis.Client.Set(redis.Ctx, idemCacheKey, strconv.FormatUint(uint64(appt.ID), 10), idempotencyCacheTTL)
	}

	sendBookingEmails(appt)

	return c.Status(fiber.StatusCreated).JSON(appt)
}

// BookWalkIn creates a front-desk booking; the appointment starts out
// confirmed since there is no patient-side pending step.
func BookWalkIn(c *fiber.Ctx) error {
	type WalkInInput struct {
		DoctorID  uint   `json:"doctor_id"`
		PatientID uint   `json:"patient_id"`
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
		Notes     string `json:"notes"`
	}

	input := new(WalkInInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	bookedByID, _ := c.Locals("userID").(uint)

	var doctor models.User
	if err := db.DB.First(&doctor, input.DoctorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Doctor not found",
			Error:   err.Error(),
		})
	}

	appt, err := bookingService().Book(c.Context(), booking.BookRequest{
		ClinicID:   doctor.ClinicID,
		DoctorID:   input.DoctorID,
		PatientID:  input.PatientID,
		BookedByID: bookedByID,
		Date:       input.Date,
		StartTime:  input.StartTime,
		Type:       models.TypeWalkIn,
		Notes:      input.Notes,
	})
	if err != nil {
		return bookingError(c, "Failed to book walk-in appointment", err)
	}

	return c.Status(fiber.StatusCreated).JSON(appt)
}

// GetAppointment returns an appointment by ID
func GetAppointment(c *fiber.Ctx) error {
	id := c.Params("id")
	var appointment models.Appointment
	if err := db.DB.Preload("Doctor").Preload("Patient").First(&appointment, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Appointment not found",
			Error:   err.Error(),
		})
	}

	// Don't send password hashes
	appointment.Doctor.Password = ""
	appointment.Patient.Password = ""

	return c.JSON(appointment)
}

// GetDoctorDay returns a doctor's appointments for one date, the view the
// front desk works from.
func GetDoctorDay(c *fiber.Ctx) error {
	doctorID := c.Params("doctor_id")

	date, err := schedule.ParseDate(c.Query("date", schedule.Today(utils.ClinicLocation()).String()))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid date, use YYYY-MM-DD",
			Error:   err.Error(),
		})
	}

	var appointments []models.Appointment
	if err := db.DB.Preload("Patient").
		Where("doctor_id = ? AND date = ?", doctorID, date).
		Order("start_time asc").
		Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch appointments",
			Error:   err.Error(),
		})
	}

	for i := range appointments {
		appointments[i].Patient.Password = ""
	}

	return c.JSON(fiber.Map{
		"doctor_id":    doctorID,
		"date":         date,
		"appointments": appointments,
		"count":        len(appointments),
	})
}

// RescheduleAppointment moves an appointment to a new slot
func RescheduleAppointment(c *fiber.Ctx) error {
	type RescheduleInput struct {
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment id",
		})
	}

	input := new(RescheduleInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	appt, err := bookingService().Reschedule(c.Context(), uint(id), input.Date, input.StartTime)
	if err != nil {
		return bookingError(c, "Failed to reschedule appointment", err)
	}

	sendRescheduleEmail(appt)

	return c.JSON(appt)
}

// CancelAppointment transitions an appointment to cancelled
func CancelAppointment(c *fiber.Ctx) error {
	type CancelInput struct {
		Reason string `json:"reason"`
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment id",
		})
	}

	input := new(CancelInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	appt, err := bookingService().Cancel(c.Context(), uint(id), input.Reason)
	if err != nil {
		return bookingError(c, "Failed to cancel appointment", err)
	}

	return c.JSON(appt)
}

// UpdateAppointmentStatus applies a lifecycle transition (check-in,
// in-consultation, prescription-created, complete, no-show).
func UpdateAppointmentStatus(c *fiber.Ctx) error {
	type StatusInput struct {
		Status models.AppointmentStatus `json:"status"`
		Reason string                   `json:"reason"`
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment id",
		})
	}

	input := new(StatusInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	appt, err := bookingService().Transition(c.Context(), uint(id), input.Status, input.Reason)
	if err != nil {
		return bookingError(c, "Failed to update appointment status", err)
	}

	return c.JSON(appt)
}

// sendBookingEmails notifies the patient and doctor; delivery failures are
// logged, never surfaced to the booking flow.
func sendBookingEmails(appt *models.Appointment) {
	var patient, doctor models.User
	if err := db.DB.First(&patient, appt.PatientID).Error; err != nil {
		log.Printf("booking email: patient %d not found: %v", appt.PatientID, err)
		return
	}
	if err := db.DB.First(&doctor, appt.DoctorID).Error; err != nil {
		log.Printf("booking email: doctor %d not found: %v", appt.DoctorID, err)
		return
	}

	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your appointment has been booked.</p>
		<ul>
			<li><strong>Doctor:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s - %s</li>
			<li><strong>Reference:</strong> %s</li>
		</ul>
		<p>Best regards,<br>Your Clinic Team</p>
	`, patient.Name, doctor.Name, appt.Date, appt.StartTime, appt.EndTime, appt.Reference)
	if err := utils.SendEmail(patient.Email, "Appointment Booked", body); err != nil {
		log.Printf("Failed to send booking email to patient: %v", err)
	}

	body = fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>A new appointment has been booked with you.</p>
		<ul>
			<li><strong>Patient:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s - %s</li>
		</ul>
		<p>Best regards,<br>Your Clinic Team</p>
	`, doctor.Name, patient.Name, appt.Date, appt.StartTime, appt.EndTime)
	if err := utils.SendEmail(doctor.Email, "New Appointment Booked", body); err != nil {
		log.Printf("Failed to send booking email to doctor: %v", err)
	}
}

func sendRescheduleEmail(appt *models.Appointment) {
	var patient models.User
	if err := db.DB.First(&patient, appt.PatientID).Error; err != nil {
		log.Printf("reschedule email: patient %d not found: %v", appt.PatientID, err)
		return
	}

	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your appointment has been rescheduled.</p>
		<ul>
			<li><strong>New Date:</strong> %s</li>
			<li><strong>New Time:</strong> %s - %s</li>
			<li><strong>Reference:</strong> %s</li>
		</ul>
		<p>Best regards,<br>Your Clinic Team</p>
	`, patient.Name, appt.Date, appt.StartTime, appt.EndTime, appt.Reference)
	if err := utils.SendEmail(patient.Email, "Appointment Rescheduled", body); err != nil {
		log.Printf("Failed to send reschedule email: %v", err)
	}
}
