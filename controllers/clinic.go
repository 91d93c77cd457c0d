package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arogyadesk/clinic-app/db"
	"github.com/arogyadesk/clinic-app/models"
	"github.com/arogyadesk/clinic-app/utils"
)

// CreateClinic registers a new tenant
func CreateClinic(c *fiber.Ctx) error {
	clinic := new(models.Clinic)
	if err := c.BodyParser(clinic); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	clinic.IsActive = true
	if err := db.DB.Create(clinic).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to create clinic",
			Error:   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(clinic)
}

// GetClinics lists all active clinics
func GetClinics(c *fiber.Ctx) error {
	var clinics []models.Clinic
	if err := db.DB.Where("is_active = ?", true).Find(&clinics).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch clinics",
			Error:   err.Error(),
		})
	}
	return c.JSON(clinics)
}

// GetClinic returns one clinic by ID
func GetClinic(c *fiber.Ctx) error {
	id := c.Params("id")
	var clinic models.Clinic
	if err := db.DB.First(&clinic, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Clinic not found",
			Error:   err.Error(),
		})
	}
	return c.JSON(clinic)
}

// UpdateClinic updates tenant details
func UpdateClinic(c *fiber.Ctx) error {
	id := c.Params("id")
	var clinic models.Clinic
	if err := db.DB.First(&clinic, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Clinic not found",
			Error:   err.Error(),
		})
	}
	if err := c.BodyParser(&clinic); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	if err := db.DB.Save(&clinic).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to update clinic",
			Error:   err.Error(),
		})
	}
	return c.JSON(clinic)
}
