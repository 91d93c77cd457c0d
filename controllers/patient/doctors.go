package patient

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/arogyadesk/clinic-app/db"
	"github.com/arogyadesk/clinic-app/models"
	"github.com/arogyadesk/clinic-app/utils"
)

// GetDoctors returns doctors with pagination, optionally filtered by name or
// specialization via the search query param.
func GetDoctors(c *fiber.Ctx) error {
	var doctors []models.User

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	search := c.Query("search")

	query := db.DB.Preload("Role").
		Joins("JOIN roles ON users.role_id = roles.id").
		Where("roles.name = ?", models.RoleDoctor)
	if search != "" {
		query = query.Joins("LEFT JOIN doctor_profiles ON doctor_profiles.doctor_id = users.id").
			Where("users.name ILIKE ? OR doctor_profiles.specialization ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Limit(limit).Offset(offset).Find(&doctors).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch doctors",
			Error:   err.Error(),
		})
	}

	var count int64
	countQuery := db.DB.Model(&models.User{}).
		Joins("JOIN roles ON users.role_id = roles.id").
		Where("roles.name = ?", models.RoleDoctor)
	if search != "" {
		countQuery = countQuery.Joins("LEFT JOIN doctor_profiles ON doctor_profiles.doctor_id = users.id").
			Where("users.name ILIKE ? OR doctor_profiles.specialization ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	countQuery.Count(&count)

	for i := range doctors {
		doctors[i].Password = ""
	}

	return c.JSON(fiber.Map{
		"doctors": doctors,
		"total":   count,
		"page":    page,
		"limit":   limit,
		"pages":   (int(count) + limit - 1) / limit,
	})
}

// GetDoctorDetails returns one doctor together with the profile card
func GetDoctorDetails(c *fiber.Ctx) error {
	id := c.Params("id")

	var doctor models.User
	if err := db.DB.Preload("Role").First(&doctor, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Doctor not found",
			Error:   err.Error(),
		})
	}
	if doctor.Role.Name != models.RoleDoctor {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "User is not a doctor",
		})
	}

	var profile models.DoctorProfile
	db.DB.Where("doctor_id = ?", id).First(&profile)

	doctor.Password = ""

	return c.JSON(fiber.Map{
		"doctor":  doctor,
		"profile": profile,
	})
}
