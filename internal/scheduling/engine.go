package scheduling

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"hospital-scheduling-server/internal/models"
)

// Engine applies the booking rules on top of a Gateway. It keeps no state
// between calls; double-booking races are closed by the Gateway's unique
// slot constraints.
type Engine struct {
	store    Gateway
	now      func() time.Time
	location *time.Location
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the timezone the clinic's calendar runs in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an Engine backed by store.
func NewEngine(store Gateway, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		now:      time.Now,
		location: time.Local,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateVisitRequest carries the fields of a new booking.
type CreateVisitRequest struct {
	DoctorID         string
	PatientID        string
	SpecializationID string
	RoomID           string
	Date             models.Date
	Time             models.TimeOfDay
	Reason           string
	AdditionalNotes  string
}

// EditVisitRequest overwrites the mutable fields of a visit.
type EditVisitRequest struct {
	ID               string
	Date             models.Date
	Time             models.TimeOfDay
	Status           string
	Reason           string
	AdditionalNotes  string
	VisitNotes       string
	PrescriptionText string
}

func (e *Engine) today() models.Date {
	return models.DateOf(e.now().In(e.location))
}

// ComputeAvailableSlots returns every slot of the doctor's working day with
// the rooms eligible for the specialization that are not occupied by a
// non-cancelled visit overlapping that slot. Rooms are ordered by number.
func (e *Engine) ComputeAvailableSlots(ctx context.Context, doctorID, specializationID string, date models.Date) ([]SlotAvailability, error) {
	doctor, err := e.findDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.HasSpecialization(specializationID) {
		return nil, ErrSpecializationMismatch
	}

	found, err := e.store.FindRoomsForSpecialization(ctx, specializationID)
	if err != nil {
		return nil, storageError("find rooms for specialization", err)
	}
	if len(found) == 0 {
		return nil, ErrNoRoomsForSpecialization
	}
	rooms := append([]models.Room(nil), found...)
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomNumber < rooms[j].RoomNumber })

	roomIDs := make([]string, len(rooms))
	for i, r := range rooms {
		roomIDs[i] = r.ID
	}
	roomVisits, err := e.store.FindVisits(ctx, VisitFilter{RoomIDs: roomIDs, Date: &date, ExcludeCancelled: true})
	if err != nil {
		return nil, storageError("find room visits", err)
	}
	doctorVisits, err := e.store.FindVisits(ctx, VisitFilter{DoctorID: doctorID, Date: &date, ExcludeCancelled: true})
	if err != nil {
		return nil, storageError("find doctor visits", err)
	}

	grid := SlotGrid(doctor.StartHour, doctor.EndHour)
	result := make([]SlotAvailability, 0, len(grid))
	for _, slot := range grid {
		occupied := make(map[string]bool)
		for _, v := range roomVisits {
			if v.Status != models.VisitCancelled && Overlaps(v.VisitTime, slot) {
				occupied[v.RoomID] = true
			}
		}
		free := make([]models.Room, 0, len(rooms))
		for _, r := range rooms {
			if !occupied[r.ID] {
				free = append(free, r)
			}
		}
		result = append(result, SlotAvailability{
			Time:            slot,
			FreeRooms:       free,
			DoctorAvailable: !busyAt(doctorVisits, slot),
		})
	}
	return result, nil
}

func busyAt(visits []models.Visit, slot models.TimeOfDay) bool {
	for _, v := range visits {
		if v.Status != models.VisitCancelled && Overlaps(v.VisitTime, slot) {
			return true
		}
	}
	return false
}

// ValidateAndCreateVisit books a visit. Checks run in a fixed order and the
// first failing one is returned; nothing is written unless all pass.
func (e *Engine) ValidateAndCreateVisit(ctx context.Context, req CreateVisitRequest) (*VisitView, error) {
	view, err := e.createVisit(ctx, req)
	if err != nil {
		e.log.Debug().Err(err).
			Str("doctor_id", req.DoctorID).
			Str("room_id", req.RoomID).
			Str("date", req.Date.String()).
			Str("time", req.Time.String()).
			Msg("visit booking rejected")
		return nil, err
	}
	e.log.Info().
		Str("visit_id", view.ID).
		Str("doctor_id", view.DoctorID).
		Str("room_id", view.RoomID).
		Str("date", view.VisitDate.String()).
		Str("time", view.VisitTime.String()).
		Msg("visit created")
	return view, nil
}

func (e *Engine) createVisit(ctx context.Context, req CreateVisitRequest) (*VisitView, error) {
	if !req.Date.After(e.today()) {
		return nil, ErrDateNotInFuture
	}

	doctor, err := e.findDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.HasSpecialization(req.SpecializationID) {
		return nil, ErrSpecializationMismatch
	}

	if _, err := e.store.FindPatient(ctx, req.PatientID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, storageError("find patient", err)
	}

	doctorBusy, err := e.store.FindVisits(ctx, VisitFilter{
		DoctorID:         req.DoctorID,
		Date:             &req.Date,
		Time:             &req.Time,
		ExcludeCancelled: true,
	})
	if err != nil {
		return nil, storageError("find doctor visits", err)
	}
	if len(doctorBusy) > 0 {
		return nil, ErrDoctorDoubleBooked
	}

	eligible, err := e.store.IsRoomEligibleForSpecialization(ctx, req.RoomID, req.SpecializationID)
	if err != nil {
		return nil, storageError("check room eligibility", err)
	}
	if !eligible {
		return nil, ErrRoomIneligible
	}

	roomBusy, err := e.store.FindVisits(ctx, VisitFilter{
		RoomID:           req.RoomID,
		Date:             &req.Date,
		Time:             &req.Time,
		ExcludeCancelled: true,
	})
	if err != nil {
		return nil, storageError("find room visits", err)
	}
	if len(roomBusy) > 0 {
		return nil, ErrRoomDoubleBooked
	}

	reason, err := models.ParseVisitReason(req.Reason)
	if err != nil {
		return nil, ErrInvalidReason
	}

	visit := &models.Visit{
		VisitDate:        req.Date,
		VisitTime:        req.Time,
		DoctorID:         req.DoctorID,
		PatientID:        req.PatientID,
		RoomID:           req.RoomID,
		SpecializationID: req.SpecializationID,
		Status:           models.VisitScheduled,
		Reason:           reason,
		AdditionalNotes:  req.AdditionalNotes,
	}
	if err := e.store.InsertVisit(ctx, visit); err != nil {
		return nil, storageError("insert visit", err)
	}

	created, err := e.store.FindVisitByID(ctx, visit.ID, true)
	if err != nil {
		return nil, storageError("reload visit", err)
	}
	view := NewVisitView(created)
	return &view, nil
}

// CancelVisit moves a Scheduled visit to Cancelled. Cancelling a visit that
// is already Completed or Cancelled fails with ErrCannotCancel.
func (e *Engine) CancelVisit(ctx context.Context, visitID string) (*VisitView, error) {
	visit, err := e.findVisit(ctx, visitID, true)
	if err != nil {
		return nil, err
	}
	if visit.Status != models.VisitScheduled {
		return nil, ErrCannotCancel
	}

	visit.Status = models.VisitCancelled
	if err := e.store.UpdateVisit(ctx, visit); err != nil {
		return nil, storageError("update visit", err)
	}
	e.log.Info().Str("visit_id", visit.ID).Msg("visit cancelled")

	view := NewVisitView(visit)
	return &view, nil
}

// CompleteVisit records the outcome of a visit and marks it Completed.
// The prior status is not checked.
func (e *Engine) CompleteVisit(ctx context.Context, visitID, notes, prescription string) (*VisitView, error) {
	visit, err := e.findVisit(ctx, visitID, true)
	if err != nil {
		return nil, err
	}

	visit.VisitNotes = notes
	visit.PrescriptionText = prescription
	visit.Status = models.VisitCompleted
	if err := e.store.UpdateVisit(ctx, visit); err != nil {
		return nil, storageError("update visit", err)
	}
	e.log.Info().Str("visit_id", visit.ID).Msg("visit completed")

	view := NewVisitView(visit)
	return &view, nil
}

// EditVisit overwrites date, time, notes, status and reason. Doctor and room
// conflicts are not re-checked here; the Gateway's slot constraints still
// reject a write that would double-book.
func (e *Engine) EditVisit(ctx context.Context, visitID string, req EditVisitRequest) error {
	if visitID != req.ID {
		return ErrIDMismatch
	}
	visit, err := e.findVisit(ctx, visitID, false)
	if err != nil {
		return err
	}
	status, err := models.ParseVisitStatus(req.Status)
	if err != nil {
		return ErrInvalidStatus
	}
	reason, err := models.ParseVisitReason(req.Reason)
	if err != nil {
		return ErrInvalidReason
	}

	visit.VisitDate = req.Date
	visit.VisitTime = req.Time
	visit.AdditionalNotes = req.AdditionalNotes
	visit.VisitNotes = req.VisitNotes
	visit.PrescriptionText = req.PrescriptionText
	visit.Status = status
	visit.Reason = reason
	if err := e.store.UpdateVisit(ctx, visit); err != nil {
		return storageError("update visit", err)
	}
	e.log.Info().Str("visit_id", visit.ID).Str("status", string(status)).Msg("visit edited")
	return nil
}

// ListVisitTimes returns the time and room label of every non-cancelled
// visit of the doctor on date, ordered by time. An unknown doctor yields an
// empty list.
func (e *Engine) ListVisitTimes(ctx context.Context, doctorID string, date models.Date) ([]VisitTime, error) {
	visits, err := e.store.FindVisits(ctx, VisitFilter{
		DoctorID:         doctorID,
		Date:             &date,
		ExcludeCancelled: true,
		WithRelations:    true,
	})
	if err != nil {
		return nil, storageError("find visits", err)
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].VisitTime < visits[j].VisitTime })

	times := make([]VisitTime, 0, len(visits))
	for _, v := range visits {
		if v.Status == models.VisitCancelled {
			continue
		}
		times = append(times, VisitTime{Time: v.VisitTime, Room: v.Room.RoomType})
	}
	return times, nil
}

// GetVisit returns one visit joined with its references.
func (e *Engine) GetVisit(ctx context.Context, visitID string) (*VisitView, error) {
	visit, err := e.findVisit(ctx, visitID, true)
	if err != nil {
		return nil, err
	}
	view := NewVisitView(visit)
	return &view, nil
}

// ListVisits returns the visits matching filter ordered by date and time.
func (e *Engine) ListVisits(ctx context.Context, filter VisitFilter) ([]VisitView, error) {
	filter.WithRelations = true
	visits, err := e.store.FindVisits(ctx, filter)
	if err != nil {
		return nil, storageError("find visits", err)
	}
	sort.Slice(visits, func(i, j int) bool {
		if !visits[i].VisitDate.Equal(visits[j].VisitDate) {
			return visits[i].VisitDate.Before(visits[j].VisitDate)
		}
		return visits[i].VisitTime < visits[j].VisitTime
	})

	views := make([]VisitView, len(visits))
	for i := range visits {
		views[i] = NewVisitView(&visits[i])
	}
	return views, nil
}

func (e *Engine) findDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	doctor, err := e.store.FindDoctor(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, storageError("find doctor", err)
	}
	return doctor, nil
}

func (e *Engine) findVisit(ctx context.Context, id string, withRelations bool) (*models.Visit, error) {
	visit, err := e.store.FindVisitByID(ctx, id, withRelations)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, storageError("find visit", err)
	}
	return visit, nil
}
