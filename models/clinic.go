package models

import (
	"gorm.io/gorm"
)

// Clinic is a tenant. Every doctor, receptionist and appointment belongs to
// exactly one clinic; the platform super admin sees all of them.
type Clinic struct {
	gorm.Model
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	LogoURL     string `json:"logo_url"`
	IsActive    bool   `json:"is_active" gorm:"default:true"`
}
