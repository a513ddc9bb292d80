package scheduling

import (
	"context"

	"hospital-scheduling-server/internal/models"
)

// Gateway is the persistence boundary of the Engine.
//
// Finders return an error wrapping ErrNotFound when the record is absent.
// InsertVisit and UpdateVisit return ErrDoctorDoubleBooked or
// ErrRoomDoubleBooked when the write would put two non-cancelled visits on
// the same doctor or room slot. Any other error is treated as a storage
// failure.
type Gateway interface {
	FindDoctor(ctx context.Context, id string) (*models.Doctor, error)
	FindPatient(ctx context.Context, id string) (*models.Patient, error)
	FindRoomsForSpecialization(ctx context.Context, specializationID string) ([]models.Room, error)
	IsRoomEligibleForSpecialization(ctx context.Context, roomID, specializationID string) (bool, error)
	FindVisits(ctx context.Context, filter VisitFilter) ([]models.Visit, error)
	FindVisitByID(ctx context.Context, id string, withRelations bool) (*models.Visit, error)
	InsertVisit(ctx context.Context, v *models.Visit) error
	UpdateVisit(ctx context.Context, v *models.Visit) error
}

// VisitFilter narrows FindVisits. Zero-valued fields do not filter.
type VisitFilter struct {
	DoctorID         string
	PatientID        string
	RoomID           string
	RoomIDs          []string
	Date             *models.Date
	Time             *models.TimeOfDay
	ExcludeCancelled bool
	// WithRelations preloads doctor, patient, room and specialization.
	WithRelations bool
}
