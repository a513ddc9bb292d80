package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hospital-scheduling-server/internal/middleware"
	"hospital-scheduling-server/internal/models"
	"hospital-scheduling-server/internal/utils"
)

// PatientHandler exposes patient profiles.
type PatientHandler struct {
	DB *gorm.DB
}

func NewPatientHandler(db *gorm.DB) *PatientHandler {
	return &PatientHandler{DB: db}
}

// GetPatients lists patients, optionally filtered by ?status=.
func (h *PatientHandler) GetPatients(c *gin.Context) {
	query := h.DB.WithContext(c.Request.Context()).Order("last_name, first_name")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var patients []models.Patient
	if err := query.Find(&patients).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch patients")
		return
	}
	utils.Success(c, "Patients fetched successfully", patients)
}

// GetPatientByID returns a patient. Patients may only read their own profile.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patientID := c.Param("id")
	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)
	if role == models.RolePatient && userID != patientID {
		utils.Forbidden(c, "Patients can only view their own profile.")
		return
	}

	var patient models.Patient
	err := h.DB.WithContext(c.Request.Context()).First(&patient, "id = ?", patientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Patient not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	utils.Success(c, "Patient fetched successfully", patient)
}

// DeactivatePatient marks a patient Inactive. Existing and future bookings
// are unaffected.
func (h *PatientHandler) DeactivatePatient(c *gin.Context) {
	var patient models.Patient
	db := h.DB.WithContext(c.Request.Context())
	err := db.First(&patient, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Patient not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}

	if err := db.Model(&patient).Update("status", models.PatientInactive).Error; err != nil {
		utils.InternalServerError(c, "Failed to deactivate patient")
		return
	}
	patient.Status = models.PatientInactive
	utils.Success(c, "Patient deactivated successfully", patient)
}
