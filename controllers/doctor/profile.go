package doctor

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/arogyadesk/clinic-app/db"
	"github.com/arogyadesk/clinic-app/models"
	"github.com/arogyadesk/clinic-app/utils"
)

// GetProfile retrieves the doctor's profile, creating an empty one on first
// access so the client always has a record to edit.
func GetProfile(c *fiber.Ctx) error {
	doctorID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "User ID not found in context",
		})
	}

	var profile models.DoctorProfile
	if err := db.DB.Preload("Doctor").Where("doctor_id = ?", doctorID).First(&profile).Error; err != nil {
		return c.JSON(models.DoctorProfile{DoctorID: doctorID})
	}
	return c.JSON(profile)
}

// UpdateProfile updates the doctor's specialization, fee and slot duration.
// A slot duration change applies to slots resolved from now on only.
func UpdateProfile(c *fiber.Ctx) error {
	doctorID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "User ID not found in context",
		})
	}

	type ProfileInput struct {
		Specialization      string  `json:"specialization"`
		Qualification       string  `json:"qualification"`
		ExperienceYears     int     `json:"experience_years"`
		ConsultationFee     float64 `json:"consultation_fee"`
		SlotDurationMinutes int     `json:"slot_duration_minutes"`
		About               string  `json:"about"`
	}

	input := new(ProfileInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	if input.SlotDurationMinutes < 0 || input.SlotDurationMinutes > 240 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "slot_duration_minutes must be between 0 and 240",
		})
	}

	var profile models.DoctorProfile
	err := db.DB.Where("doctor_id = ?", doctorID).First(&profile).Error
	profile.DoctorID = doctorID
	profile.Specialization = input.Specialization
	profile.Qualification = input.Qualification
	profile.ExperienceYears = input.ExperienceYears
	profile.ConsultationFee = input.ConsultationFee
	profile.SlotDurationMinutes = input.SlotDurationMinutes
	profile.About = input.About

	if err != nil {
		err = db.DB.Create(&profile).Error
	} else {
		err = db.DB.Save(&profile).Error
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to save profile",
			Error:   err.Error(),
		})
	}
	return c.JSON(profile)
}

// UploadPhoto stores the doctor's profile photo on Cloudinary and saves the
// returned URL on the profile.
func UploadPhoto(c *fiber.Ctx) error {
	doctorID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "User ID not found in context",
		})
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "photo file is required",
			Error:   err.Error(),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to read uploaded file",
			Error:   err.Error(),
		})
	}
	defer file.Close()

	url, err := utils.UploadProfilePhoto(file, fmt.Sprintf("doctor-%d", doctorID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to upload photo",
			Error:   err.Error(),
		})
	}

	var profile models.DoctorProfile
	if err := db.DB.Where("doctor_id = ?", doctorID).First(&profile).Error; err != nil {
		profile = models.DoctorProfile{DoctorID: doctorID, PhotoURL: url}
		if err := db.DB.Create(&profile).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
				Message: "Failed to save photo URL",
				Error:   err.Error(),
			})
		}
		return c.JSON(profile)
	}

	if err := db.DB.Model(&profile).Update("photo_url", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to save photo URL",
			Error:   err.Error(),
		})
	}
	profile.PhotoURL = url
	return c.JSON(profile)
}
