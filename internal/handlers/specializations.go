package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospital-scheduling-server/internal/models"
	"hospital-scheduling-server/internal/repository"
	"hospital-scheduling-server/internal/utils"
)

// SpecializationHandler manages specializations and the rooms they may use.
type SpecializationHandler struct {
	DB    *gorm.DB
	Cache RoomCache
}

// NewSpecializationHandler creates a new SpecializationHandler. cache may be nil.
func NewSpecializationHandler(db *gorm.DB, cache RoomCache) *SpecializationHandler {
	if cache == nil {
		cache = noRoomCache{}
	}
	return &SpecializationHandler{DB: db, Cache: cache}
}

// SpecializationRequest represents the request body for creating or updating
// a specialization.
type SpecializationRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Symptoms    string `json:"symptoms"`
}

// SpecializationDetail is a specialization with its eligible rooms.
type SpecializationDetail struct {
	models.Specialization
	Rooms []models.Room `json:"rooms"`
}

func (h *SpecializationHandler) GetSpecializations(c *gin.Context) {
	var specs []models.Specialization
	if err := h.DB.WithContext(c.Request.Context()).Order("name").Find(&specs).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch specializations")
		return
	}
	utils.Success(c, "Specializations fetched successfully", specs)
}

func (h *SpecializationHandler) GetSpecializationByID(c *gin.Context) {
	spec, ok := h.find(c, c.Param("id"))
	if !ok {
		return
	}

	rooms := []models.Room{}
	err := h.DB.WithContext(c.Request.Context()).
		Select("rooms.*").
		Joins("JOIN specialization_rooms ON specialization_rooms.room_id = rooms.id").
		Where("specialization_rooms.specialization_id = ?", spec.ID).
		Order("rooms.room_number").
		Find(&rooms).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch rooms")
		return
	}
	utils.Success(c, "Specialization fetched successfully", SpecializationDetail{Specialization: *spec, Rooms: rooms})
}

func (h *SpecializationHandler) CreateSpecialization(c *gin.Context) {
	var req SpecializationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	spec := models.Specialization{Name: req.Name, Description: req.Description, Symptoms: req.Symptoms}
	err := h.DB.WithContext(c.Request.Context()).Create(&spec).Error
	if repository.IsDuplicate(err) {
		utils.Conflict(c, "A specialization with this name already exists")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Failed to create specialization")
		return
	}
	utils.Created(c, "Specialization created successfully", spec)
}

func (h *SpecializationHandler) UpdateSpecialization(c *gin.Context) {
	var req SpecializationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	spec, ok := h.find(c, c.Param("id"))
	if !ok {
		return
	}

	spec.Name = req.Name
	spec.Description = req.Description
	spec.Symptoms = req.Symptoms
	err := h.DB.WithContext(c.Request.Context()).Save(spec).Error
	if repository.IsDuplicate(err) {
		utils.Conflict(c, "A specialization with this name already exists")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Failed to update specialization")
		return
	}
	utils.Success(c, "Specialization updated successfully", spec)
}

// DeleteSpecialization removes a specialization that no visit refers to.
func (h *SpecializationHandler) DeleteSpecialization(c *gin.Context) {
	spec, ok := h.find(c, c.Param("id"))
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var visits int64
	if err := h.DB.WithContext(ctx).Model(&models.Visit{}).Where("specialization_id = ?", spec.ID).Count(&visits).Error; err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	if visits > 0 {
		utils.Conflict(c, "Specialization has visits and cannot be deleted")
		return
	}

	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("specialization_id = ?", spec.ID).Delete(&models.SpecializationRoom{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM doctor_specializations WHERE specialization_id = ?", spec.ID).Error; err != nil {
			return err
		}
		return tx.Delete(spec).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to delete specialization")
		return
	}

	h.Cache.Invalidate(ctx, spec.ID)
	utils.Success(c, "Specialization deleted successfully", nil)
}

// AddRoom makes a room eligible for the specialization. Adding an existing
// link is a no-op.
func (h *SpecializationHandler) AddRoom(c *gin.Context) {
	spec, room, ok := h.findPair(c)
	if !ok {
		return
	}

	link := models.SpecializationRoom{SpecializationID: spec.ID, RoomID: room.ID}
	err := h.DB.WithContext(c.Request.Context()).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to link room")
		return
	}

	h.Cache.Invalidate(c.Request.Context(), spec.ID)
	utils.Success(c, "Room linked successfully", link)
}

// RemoveRoom makes a room ineligible for the specialization. The link stays
// while non-cancelled visits of that specialization are held in the room.
func (h *SpecializationHandler) RemoveRoom(c *gin.Context) {
	spec, room, ok := h.findPair(c)
	if !ok {
		return
	}

	var visits int64
	err := h.DB.WithContext(c.Request.Context()).
		Model(&models.Visit{}).
		Where("specialization_id = ? AND room_id = ? AND status <> ?", spec.ID, room.ID, models.VisitCancelled).
		Count(&visits).Error
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	if visits > 0 {
		utils.Conflict(c, "Room hosts visits of this specialization and cannot be unlinked")
		return
	}

	err = h.DB.WithContext(c.Request.Context()).
		Where("specialization_id = ? AND room_id = ?", spec.ID, room.ID).
		Delete(&models.SpecializationRoom{}).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to unlink room")
		return
	}

	h.Cache.Invalidate(c.Request.Context(), spec.ID)
	utils.Success(c, "Room unlinked successfully", nil)
}

func (h *SpecializationHandler) find(c *gin.Context, id string) (*models.Specialization, bool) {
	var spec models.Specialization
	err := h.DB.WithContext(c.Request.Context()).First(&spec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Specialization not found")
		return nil, false
	}
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return nil, false
	}
	return &spec, true
}

func (h *SpecializationHandler) findPair(c *gin.Context) (*models.Specialization, *models.Room, bool) {
	spec, ok := h.find(c, c.Param("id"))
	if !ok {
		return nil, nil, false
	}
	var room models.Room
	err := h.DB.WithContext(c.Request.Context()).First(&room, "id = ?", c.Param("roomId")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Room not found")
		return nil, nil, false
	}
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return nil, nil, false
	}
	return spec, &room, true
}
