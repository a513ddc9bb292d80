package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospital-scheduling-server/internal/models"
	"hospital-scheduling-server/internal/scheduling"
)

// GormGateway implements scheduling.Gateway on top of gorm.
type GormGateway struct {
	db *gorm.DB
}

// NewGormGateway creates a gateway over db.
func NewGormGateway(db *gorm.DB) *GormGateway {
	return &GormGateway{db: db}
}

var _ scheduling.Gateway = (*GormGateway)(nil)

func (g *GormGateway) FindDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := g.db.WithContext(ctx).Preload("Specializations").First(&doctor, "id = ?", id).Error
	if err != nil {
		return nil, notFound("doctor", id, err)
	}
	return &doctor, nil
}

func (g *GormGateway) FindPatient(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	if err := g.db.WithContext(ctx).First(&patient, "id = ?", id).Error; err != nil {
		return nil, notFound("patient", id, err)
	}
	return &patient, nil
}

func (g *GormGateway) FindRoomsForSpecialization(ctx context.Context, specializationID string) ([]models.Room, error) {
	var rooms []models.Room
	err := g.db.WithContext(ctx).
		Select("rooms.*").
		Joins("JOIN specialization_rooms ON specialization_rooms.room_id = rooms.id").
		Where("specialization_rooms.specialization_id = ?", specializationID).
		Order("rooms.room_number").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (g *GormGateway) IsRoomEligibleForSpecialization(ctx context.Context, roomID, specializationID string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&models.SpecializationRoom{}).
		Where("room_id = ? AND specialization_id = ?", roomID, specializationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (g *GormGateway) FindVisits(ctx context.Context, filter scheduling.VisitFilter) ([]models.Visit, error) {
	query := g.db.WithContext(ctx).Model(&models.Visit{})
	if filter.DoctorID != "" {
		query = query.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.PatientID != "" {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	if filter.RoomID != "" {
		query = query.Where("room_id = ?", filter.RoomID)
	}
	if filter.RoomIDs != nil {
		if len(filter.RoomIDs) == 0 {
			return []models.Visit{}, nil
		}
		query = query.Where("room_id IN ?", filter.RoomIDs)
	}
	if filter.Date != nil {
		query = query.Where("visit_date = ?", *filter.Date)
	}
	if filter.Time != nil {
		query = query.Where("visit_time = ?", *filter.Time)
	}
	if filter.ExcludeCancelled {
		query = query.Where("status <> ?", models.VisitCancelled)
	}
	if filter.WithRelations {
		query = withRelations(query)
	}

	var visits []models.Visit
	if err := query.Order("visit_date, visit_time").Find(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

func (g *GormGateway) FindVisitByID(ctx context.Context, id string, relations bool) (*models.Visit, error) {
	query := g.db.WithContext(ctx)
	if relations {
		query = withRelations(query)
	}
	var visit models.Visit
	if err := query.First(&visit, "id = ?", id).Error; err != nil {
		return nil, notFound("visit", id, err)
	}
	return &visit, nil
}

func (g *GormGateway) InsertVisit(ctx context.Context, v *models.Visit) error {
	v.SyncSlotKeys()
	err := g.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error
	return translateWriteError(err)
}

func (g *GormGateway) UpdateVisit(ctx context.Context, v *models.Visit) error {
	v.SyncSlotKeys()
	err := g.db.WithContext(ctx).Omit(clause.Associations).Save(v).Error
	return translateWriteError(err)
}

func withRelations(query *gorm.DB) *gorm.DB {
	return query.Preload("Doctor").Preload("Patient").Preload("Room").Preload("Specialization")
}

func notFound(entity, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", entity, id, scheduling.ErrNotFound)
	}
	return err
}
