package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/arogyadesk/clinic-app/db"
	"github.com/arogyadesk/clinic-app/models"
	"github.com/arogyadesk/clinic-app/schedule"
	"github.com/arogyadesk/clinic-app/utils"
)

// noShowGrace is how long after an appointment's end the sweep waits before
// marking it a no-show.
const noShowGrace = 30 * time.Minute

// StartCronJobs initializes and starts the scheduler for appointment
// reminders and the no-show sweep
func StartCronJobs() {
	c := cron.New()
	// Check every minute for appointments starting in about an hour
	if _, err := c.AddFunc("* * * * *", sendAppointmentReminders); err != nil {
		log.Fatalf("Failed to add reminder cron job: %v", err)
	}
	// Sweep overdue appointments every ten minutes
	if _, err := c.AddFunc("*/10 * * * *", sweepNoShows); err != nil {
		log.Fatalf("Failed to add no-show cron job: %v", err)
	}
	c.Start()
	log.Println("Cron job scheduler started")
}

// sendAppointmentReminders emails patients whose appointment starts in the
// next hour
func sendAppointmentReminders() {
	loc := utils.ClinicLocation()
	now := time.Now().In(loc)
	today := schedule.DateOf(now)

	minuteOfDay := now.Hour()*60 + now.Minute()
	startWindow := schedule.Clock(minuteOfDay + 55)
	endWindow := schedule.Clock(minuteOfDay + 65)
	if endWindow > 24*60 {
		// The window crosses midnight; tomorrow's early slots get their
		// reminder once the clock wraps.
		endWindow = 24 * 60
	}

	var appointments []models.Appointment
	err := db.DB.Preload("Patient").Preload("Doctor").
		Where("date = ? AND start_time >= ? AND start_time < ? AND status IN ?",
			today, startWindow, endWindow,
			[]models.AppointmentStatus{models.StatusBooked, models.StatusConfirmed}).
		Find(&appointments).Error
	if err != nil {
		log.Printf("Error fetching appointments for reminders: %v", err)
		return
	}

	for _, appointment := range appointments {
		if err := sendReminderEmail(&appointment); err != nil {
			log.Printf("Failed to send reminder for appointment %d: %v", appointment.ID, err)
			continue
		}
		log.Printf("Sent reminder for appointment %d to %s", appointment.ID, appointment.Patient.Email)
	}
}

// sendReminderEmail constructs and sends the reminder email
func sendReminderEmail(appointment *models.Appointment) error {
	subject := "Reminder: Upcoming Appointment"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>This is a reminder for your upcoming appointment scheduled in one hour.</p>
		<p><strong>Details:</strong></p>
		<ul>
			<li><strong>Doctor:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s - %s</li>
			<li><strong>Reference:</strong> %s</li>
		</ul>
		<p>Please arrive on time. If you need to reschedule or cancel, contact us as soon as possible.</p>
		<p>Best regards,</p>
		<p>Your Clinic Team</p>
	`, appointment.Patient.Name, appointment.Doctor.Name,
		appointment.Date, appointment.StartTime, appointment.EndTime,
		appointment.Reference)

	return utils.SendEmail(appointment.Patient.Email, subject, body)
}

// sweepNoShows marks appointments the patient never showed up for. Only
// pre-check-in statuses are swept; an appointment that reached the desk is
// the staff's to close out.
func sweepNoShows() {
	loc := utils.ClinicLocation()
	now := time.Now().In(loc)
	cutoff := now.Add(-noShowGrace)
	today := schedule.DateOf(cutoff)
	cutoffClock := schedule.Clock(cutoff.Hour()*60 + cutoff.Minute())

	sweepable := []models.AppointmentStatus{
		models.StatusPending, models.StatusBooked, models.StatusConfirmed,
	}

	result := db.DB.Model(&models.Appointment{}).
		Where("status IN ? AND (date < ? OR (date = ? AND end_time < ?))",
			sweepable, today, today, cutoffClock).
		Update("status", models.StatusNoShow)
	if result.Error != nil {
		log.Printf("Error sweeping no-shows: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Marked %d appointments as no-show", result.RowsAffected)
	}
}
