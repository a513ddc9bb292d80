package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hospital-scheduling-server/internal/models"
	"hospital-scheduling-server/internal/repository"
	"hospital-scheduling-server/internal/utils"
)

// RoomCache drops cached eligible-room sets.
type RoomCache interface {
	Invalidate(ctx context.Context, specializationIDs ...string)
}

type noRoomCache struct{}

func (noRoomCache) Invalidate(context.Context, ...string) {}

// RoomHandler manages consultation rooms.
type RoomHandler struct {
	DB    *gorm.DB
	Cache RoomCache
}

// NewRoomHandler creates a new RoomHandler. cache may be nil.
func NewRoomHandler(db *gorm.DB, cache RoomCache) *RoomHandler {
	if cache == nil {
		cache = noRoomCache{}
	}
	return &RoomHandler{DB: db, Cache: cache}
}

// RoomRequest represents the request body for creating or updating a room.
type RoomRequest struct {
	RoomNumber int    `json:"roomNumber" validate:"required,gt=0"`
	RoomType   string `json:"roomType" validate:"required"`
}

// GetRooms lists rooms by number.
func (h *RoomHandler) GetRooms(c *gin.Context) {
	var rooms []models.Room
	if err := h.DB.WithContext(c.Request.Context()).Order("room_number").Find(&rooms).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch rooms")
		return
	}
	utils.Success(c, "Rooms fetched successfully", rooms)
}

// GetRoomByID returns one room.
func (h *RoomHandler) GetRoomByID(c *gin.Context) {
	room, ok := h.find(c)
	if !ok {
		return
	}
	utils.Success(c, "Room fetched successfully", room)
}

// CreateRoom adds a room.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req RoomRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	room := models.Room{RoomNumber: req.RoomNumber, RoomType: req.RoomType}
	err := h.DB.WithContext(c.Request.Context()).Create(&room).Error
	if repository.IsDuplicate(err) {
		utils.Conflict(c, "A room with this number already exists")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Failed to create room")
		return
	}
	utils.Created(c, "Room created successfully", room)
}

// UpdateRoom changes a room's number or type.
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	var req RoomRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	room, ok := h.find(c)
	if !ok {
		return
	}

	specIDs, err := h.linkedSpecializations(c, room.ID)
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}

	room.RoomNumber = req.RoomNumber
	room.RoomType = req.RoomType
	err = h.DB.WithContext(c.Request.Context()).Save(room).Error
	if repository.IsDuplicate(err) {
		utils.Conflict(c, "A room with this number already exists")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Failed to update room")
		return
	}

	h.Cache.Invalidate(c.Request.Context(), specIDs...)
	utils.Success(c, "Room updated successfully", room)
}

// DeleteRoom removes a room and its specialization links. Rooms that still
// host visits cannot be deleted.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	room, ok := h.find(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var visits int64
	if err := h.DB.WithContext(ctx).Model(&models.Visit{}).Where("room_id = ?", room.ID).Count(&visits).Error; err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	if visits > 0 {
		utils.Conflict(c, "Room has visits and cannot be deleted")
		return
	}

	specIDs, err := h.linkedSpecializations(c, room.ID)
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", room.ID).Delete(&models.SpecializationRoom{}).Error; err != nil {
			return err
		}
		return tx.Delete(room).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to delete room")
		return
	}

	h.Cache.Invalidate(ctx, specIDs...)
	utils.Success(c, "Room deleted successfully", nil)
}

func (h *RoomHandler) find(c *gin.Context) (*models.Room, bool) {
	var room models.Room
	err := h.DB.WithContext(c.Request.Context()).First(&room, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Room not found")
		return nil, false
	}
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return nil, false
	}
	return &room, true
}

// linkedSpecializations lists the specializations whose cached room sets
// include roomID.
func (h *RoomHandler) linkedSpecializations(c *gin.Context, roomID string) ([]string, error) {
	var ids []string
	err := h.DB.WithContext(c.Request.Context()).
		Model(&models.SpecializationRoom{}).
		Where("room_id = ?", roomID).
		Pluck("specialization_id", &ids).Error
	return ids, err
}
