package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"hospital-scheduling-server/internal/models"
)

// fakeGateway is an in-memory Gateway enforcing the same slot uniqueness
// the relational store does.
type fakeGateway struct {
	doctors   map[string]*models.Doctor
	patients  map[string]*models.Patient
	rooms     map[string]*models.Room
	specRooms map[string][]string
	specs     map[string]*models.Specialization
	visits    map[string]*models.Visit

	failWith error
	inserts  int
	updates  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		doctors:   make(map[string]*models.Doctor),
		patients:  make(map[string]*models.Patient),
		rooms:     make(map[string]*models.Room),
		specRooms: make(map[string][]string),
		specs:     make(map[string]*models.Specialization),
		visits:    make(map[string]*models.Visit),
	}
}

func (f *fakeGateway) addSpecialization(id, name string) *models.Specialization {
	s := &models.Specialization{BaseModel: models.BaseModel{ID: id}, Name: name}
	f.specs[id] = s
	return s
}

func (f *fakeGateway) addDoctor(id string, start, end models.TimeOfDay, specIDs ...string) *models.Doctor {
	d := &models.Doctor{BaseModel: models.BaseModel{ID: id}, FirstName: "Doc", LastName: id, StartHour: start, EndHour: end}
	for _, sid := range specIDs {
		d.Specializations = append(d.Specializations, *f.specs[sid])
	}
	f.doctors[id] = d
	return d
}

func (f *fakeGateway) addPatient(id string) *models.Patient {
	p := &models.Patient{BaseModel: models.BaseModel{ID: id}, FirstName: "Pat", LastName: id, Status: models.PatientActive}
	f.patients[id] = p
	return p
}

func (f *fakeGateway) addRoom(id string, number int, roomType string, specIDs ...string) *models.Room {
	r := &models.Room{BaseModel: models.BaseModel{ID: id}, RoomNumber: number, RoomType: roomType}
	f.rooms[id] = r
	for _, sid := range specIDs {
		f.specRooms[sid] = append(f.specRooms[sid], id)
	}
	return r
}

func (f *fakeGateway) addVisit(v models.Visit) *models.Visit {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	v.SyncSlotKeys()
	f.visits[v.ID] = &v
	return &v
}

func (f *fakeGateway) FindDoctor(_ context.Context, id string) (*models.Doctor, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	d, ok := f.doctors[id]
	if !ok {
		return nil, fmt.Errorf("doctor %s: %w", id, ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (f *fakeGateway) FindPatient(_ context.Context, id string) (*models.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient %s: %w", id, ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeGateway) FindRoomsForSpecialization(_ context.Context, specializationID string) ([]models.Room, error) {
	var rooms []models.Room
	for _, id := range f.specRooms[specializationID] {
		rooms = append(rooms, *f.rooms[id])
	}
	return rooms, nil
}

func (f *fakeGateway) IsRoomEligibleForSpecialization(_ context.Context, roomID, specializationID string) (bool, error) {
	for _, id := range f.specRooms[specializationID] {
		if id == roomID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGateway) FindVisits(_ context.Context, filter VisitFilter) ([]models.Visit, error) {
	var out []models.Visit
	for _, v := range f.visits {
		if filter.DoctorID != "" && v.DoctorID != filter.DoctorID {
			continue
		}
		if filter.PatientID != "" && v.PatientID != filter.PatientID {
			continue
		}
		if filter.RoomID != "" && v.RoomID != filter.RoomID {
			continue
		}
		if filter.RoomIDs != nil && !contains(filter.RoomIDs, v.RoomID) {
			continue
		}
		if filter.Date != nil && !v.VisitDate.Equal(*filter.Date) {
			continue
		}
		if filter.Time != nil && v.VisitTime != *filter.Time {
			continue
		}
		if filter.ExcludeCancelled && v.Status == models.VisitCancelled {
			continue
		}
		cp := *v
		if filter.WithRelations {
			f.join(&cp)
		}
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeGateway) FindVisitByID(_ context.Context, id string, withRelations bool) (*models.Visit, error) {
	v, ok := f.visits[id]
	if !ok {
		return nil, fmt.Errorf("visit %s: %w", id, ErrNotFound)
	}
	cp := *v
	if withRelations {
		f.join(&cp)
	}
	return &cp, nil
}

func (f *fakeGateway) InsertVisit(_ context.Context, v *models.Visit) error {
	if f.failWith != nil {
		return f.failWith
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	v.SyncSlotKeys()
	if err := f.checkUnique(v); err != nil {
		return err
	}
	cp := *v
	f.visits[v.ID] = &cp
	f.inserts++
	return nil
}

func (f *fakeGateway) UpdateVisit(_ context.Context, v *models.Visit) error {
	if f.failWith != nil {
		return f.failWith
	}
	v.SyncSlotKeys()
	if err := f.checkUnique(v); err != nil {
		return err
	}
	cp := *v
	cp.Doctor, cp.Patient, cp.Room, cp.Specialization = models.Doctor{}, models.Patient{}, models.Room{}, models.Specialization{}
	f.visits[v.ID] = &cp
	f.updates++
	return nil
}

// checkUnique reports the doctor index before the room index, like the
// database does when a row violates both.
func (f *fakeGateway) checkUnique(v *models.Visit) error {
	if v.DoctorSlotKey == nil {
		return nil
	}
	for id, other := range f.visits {
		if id != v.ID && other.DoctorSlotKey != nil && *other.DoctorSlotKey == *v.DoctorSlotKey {
			return ErrDoctorDoubleBooked
		}
	}
	for id, other := range f.visits {
		if id != v.ID && other.RoomSlotKey != nil && *other.RoomSlotKey == *v.RoomSlotKey {
			return ErrRoomDoubleBooked
		}
	}
	return nil
}

func (f *fakeGateway) join(v *models.Visit) {
	if d, ok := f.doctors[v.DoctorID]; ok {
		v.Doctor = *d
	}
	if p, ok := f.patients[v.PatientID]; ok {
		v.Patient = *p
	}
	if r, ok := f.rooms[v.RoomID]; ok {
		v.Room = *r
	}
	if s, ok := f.specs[v.SpecializationID]; ok {
		v.Specialization = *s
	}
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
