package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hospital-scheduling-server/internal/logger"
	"hospital-scheduling-server/internal/middleware"
	"hospital-scheduling-server/internal/models"
	"hospital-scheduling-server/internal/repository"
	"hospital-scheduling-server/internal/scheduling"
	"hospital-scheduling-server/internal/utils"
)

// DoctorHandler manages doctor accounts, working hours and specializations.
type DoctorHandler struct {
	DB *gorm.DB
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(db *gorm.DB) *DoctorHandler {
	return &DoctorHandler{DB: db}
}

// CreateDoctorRequest represents the request body for creating a doctor (admin).
type CreateDoctorRequest struct {
	FirstName         string   `json:"firstName" validate:"required"`
	LastName          string   `json:"lastName" validate:"required"`
	Email             string   `json:"email" validate:"required,email"`
	Password          string   `json:"password" validate:"required,min=8"`
	StartHour         string   `json:"startHour" validate:"omitempty,timeofday"`
	EndHour           string   `json:"endHour" validate:"omitempty,timeofday"`
	SpecializationIDs []string `json:"specializationIds"`
}

// CreateDoctor creates a doctor account and its scheduling profile.
func (h *DoctorHandler) CreateDoctor(c *gin.Context) {
	var req CreateDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	start, end := models.NewTimeOfDay(8, 0), models.NewTimeOfDay(16, 0)
	if req.StartHour != "" {
		start, _ = models.ParseTimeOfDay(req.StartHour)
	}
	if req.EndHour != "" {
		end, _ = models.ParseTimeOfDay(req.EndHour)
	}
	if err := validateWorkingHours(start, end); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	user := models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      models.RoleDoctor,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password")
		return
	}

	doctor := models.Doctor{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		StartHour: start,
		EndHour:   end,
	}
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		specs, err := loadSpecializations(tx, req.SpecializationIDs)
		if err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		doctor.ID = user.ID
		doctor.Specializations = specs
		return tx.Omit("Specializations.*").Create(&doctor).Error
	})
	if !h.writeError(c, err, "create doctor") {
		return
	}

	utils.Created(c, "Doctor created successfully", doctor)
}

// GetDoctors lists doctors, optionally only those with a specialization.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	query := h.DB.WithContext(c.Request.Context()).Preload("Specializations").Order("last_name, first_name")
	if specID := c.Query("specializationId"); specID != "" {
		query = query.Where("id IN (?)",
			h.DB.Table("doctor_specializations").Select("doctor_id").Where("specialization_id = ?", specID))
	}

	var doctors []models.Doctor
	if err := query.Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors")
		return
	}
	utils.Success(c, "Doctors fetched successfully", doctors)
}

// GetDoctorByID returns a doctor with specializations.
func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	var doctor models.Doctor
	err := h.DB.WithContext(c.Request.Context()).Preload("Specializations").First(&doctor, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Doctor not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	utils.Success(c, "Doctor fetched successfully", doctor)
}

// WorkingHoursRequest represents the request body for changing working hours.
type WorkingHoursRequest struct {
	StartHour string `json:"startHour" validate:"required,timeofday"`
	EndHour   string `json:"endHour" validate:"required,timeofday"`
}

// UpdateWorkingHours changes a doctor's working day. Doctors may only change
// their own hours.
func (h *DoctorHandler) UpdateWorkingHours(c *gin.Context) {
	doctorID := c.Param("id")
	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)
	if role == models.RoleDoctor && userID != doctorID {
		utils.Forbidden(c, "Doctors can only change their own working hours.")
		return
	}

	var req WorkingHoursRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	start, _ := models.ParseTimeOfDay(req.StartHour)
	end, _ := models.ParseTimeOfDay(req.EndHour)
	if err := validateWorkingHours(start, end); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	result := h.DB.WithContext(c.Request.Context()).
		Model(&models.Doctor{}).
		Where("id = ?", doctorID).
		Updates(map[string]interface{}{"start_hour": start, "end_hour": end})
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to update working hours")
		return
	}
	if result.RowsAffected == 0 {
		var count int64
		h.DB.WithContext(c.Request.Context()).Model(&models.Doctor{}).Where("id = ?", doctorID).Count(&count)
		if count == 0 {
			utils.NotFound(c, "Doctor not found")
			return
		}
	}
	utils.Success(c, "Working hours updated successfully", gin.H{"startHour": start, "endHour": end})
}

// SpecializationsRequest replaces a doctor's specializations.
type SpecializationsRequest struct {
	SpecializationIDs []string `json:"specializationIds"`
}

// SetSpecializations replaces the doctor's specialization set.
func (h *DoctorHandler) SetSpecializations(c *gin.Context) {
	var req SpecializationsRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var doctor models.Doctor
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&doctor, "id = ?", c.Param("id")).Error; err != nil {
			return err
		}
		specs, err := loadSpecializations(tx, req.SpecializationIDs)
		if err != nil {
			return err
		}
		if err := ensureSpecializationsUnused(tx, doctor.ID, specs); err != nil {
			return err
		}
		if err := tx.Model(&doctor).Omit("Specializations.*").Association("Specializations").Replace(specs); err != nil {
			return err
		}
		doctor.Specializations = specs
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Doctor not found")
		return
	}
	if !h.writeError(c, err, "set specializations") {
		return
	}
	utils.Success(c, "Specializations updated successfully", doctor)
}

// validateWorkingHours requires start < end with both on the slot grid.
func validateWorkingHours(start, end models.TimeOfDay) error {
	step := models.TimeOfDay(scheduling.SlotDuration.Minutes())
	if start%step != 0 || end%step != 0 {
		return fmt.Errorf("working hours must fall on %d-minute boundaries", int(step))
	}
	if start >= end {
		return errors.New("startHour must be before endHour")
	}
	return nil
}

var errUnknownSpecialization = errors.New("unknown specialization")

func loadSpecializations(tx *gorm.DB, ids []string) ([]models.Specialization, error) {
	specs := []models.Specialization{}
	if len(ids) == 0 {
		return specs, nil
	}
	if err := tx.Where("id IN ?", ids).Find(&specs).Error; err != nil {
		return nil, err
	}
	if len(specs) != len(uniqueStrings(ids)) {
		return nil, errUnknownSpecialization
	}
	return specs, nil
}

var errSpecializationInUse = errors.New("specialization in use")

// ensureSpecializationsUnused fails when a non-cancelled visit of the doctor
// uses a specialization outside keep.
func ensureSpecializationsUnused(tx *gorm.DB, doctorID string, keep []models.Specialization) error {
	q := tx.Model(&models.Visit{}).Where("doctor_id = ? AND status <> ?", doctorID, models.VisitCancelled)
	if len(keep) > 0 {
		ids := make([]string, len(keep))
		for i, s := range keep {
			ids[i] = s.ID
		}
		q = q.Where("specialization_id NOT IN ?", ids)
	}
	var visits int64
	if err := q.Count(&visits).Error; err != nil {
		return err
	}
	if visits > 0 {
		return errSpecializationInUse
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// writeError maps account write failures. It returns true when err is nil.
func (h *DoctorHandler) writeError(c *gin.Context, err error, op string) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, errUnknownSpecialization):
		utils.BadRequest(c, "One or more specializations do not exist")
	case errors.Is(err, errSpecializationInUse):
		utils.Conflict(c, "The doctor has visits in a specialization being removed")
	case repository.IsDuplicate(err):
		utils.Conflict(c, "User with this email already exists")
	default:
		logger.FromContext(c.Request.Context()).Error().Err(err).Str("op", op).Msg("doctor write failed")
		utils.InternalServerError(c, "Failed to "+op)
	}
	return false
}
