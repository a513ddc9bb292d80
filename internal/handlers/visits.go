package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"hospital-scheduling-server/internal/middleware"
	"hospital-scheduling-server/internal/models"
	"hospital-scheduling-server/internal/scheduling"
	"hospital-scheduling-server/internal/utils"
)

// Scheduler is the booking engine as seen by the HTTP layer.
type Scheduler interface {
	ComputeAvailableSlots(ctx context.Context, doctorID, specializationID string, date models.Date) ([]scheduling.SlotAvailability, error)
	ValidateAndCreateVisit(ctx context.Context, req scheduling.CreateVisitRequest) (*scheduling.VisitView, error)
	CancelVisit(ctx context.Context, visitID string) (*scheduling.VisitView, error)
	CompleteVisit(ctx context.Context, visitID, notes, prescription string) (*scheduling.VisitView, error)
	EditVisit(ctx context.Context, visitID string, req scheduling.EditVisitRequest) error
	ListVisitTimes(ctx context.Context, doctorID string, date models.Date) ([]scheduling.VisitTime, error)
	GetVisit(ctx context.Context, visitID string) (*scheduling.VisitView, error)
	ListVisits(ctx context.Context, filter scheduling.VisitFilter) ([]scheduling.VisitView, error)
}

// VisitHandler exposes booking, cancellation and completion of visits.
type VisitHandler struct {
	Scheduler Scheduler
}

// NewVisitHandler creates a new VisitHandler.
func NewVisitHandler(s Scheduler) *VisitHandler {
	return &VisitHandler{Scheduler: s}
}

// GetAvailableSlots lists the free rooms per slot of a doctor's working day.
func (h *VisitHandler) GetAvailableSlots(c *gin.Context) {
	doctorID := c.Query("doctorId")
	specializationID := c.Query("specializationId")
	if doctorID == "" || specializationID == "" {
		utils.BadRequest(c, "doctorId and specializationId are required")
		return
	}
	date, ok := queryDate(c, "date", true)
	if !ok {
		return
	}

	slots, err := h.Scheduler.ComputeAvailableSlots(c.Request.Context(), doctorID, specializationID, *date)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Available slots fetched successfully", slots)
}

// GetVisitTimes lists the occupied slots of a doctor on a date.
func (h *VisitHandler) GetVisitTimes(c *gin.Context) {
	doctorID := c.Query("doctorId")
	if doctorID == "" {
		utils.BadRequest(c, "doctorId is required")
		return
	}
	date, ok := queryDate(c, "date", true)
	if !ok {
		return
	}

	times, err := h.Scheduler.ListVisitTimes(c.Request.Context(), doctorID, *date)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Visit times fetched successfully", times)
}

// CreateVisitRequest represents the request body for booking a visit.
type CreateVisitRequest struct {
	DoctorID         string `json:"doctorId" validate:"required"`
	PatientID        string `json:"patientId"`
	SpecializationID string `json:"specializationId" validate:"required"`
	RoomID           string `json:"roomId" validate:"required"`
	VisitDate        string `json:"visitDate" validate:"required,date"`
	VisitTime        string `json:"visitTime" validate:"required,timeofday"`
	Reason           string `json:"reason" validate:"required"`
	AdditionalNotes  string `json:"additionalNotes"`
}

// CreateVisit books a visit. Patients always book for themselves.
func (h *VisitHandler) CreateVisit(c *gin.Context) {
	var req CreateVisitRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)
	if role == models.RolePatient {
		if req.PatientID != "" && req.PatientID != userID {
			utils.Forbidden(c, "Patients can only book visits for themselves.")
			return
		}
		req.PatientID = userID
	}
	if req.PatientID == "" {
		utils.BadRequest(c, "Validation failed: PatientID is required")
		return
	}

	date, _ := models.ParseDate(req.VisitDate)
	at, _ := models.ParseTimeOfDay(req.VisitTime)
	view, err := h.Scheduler.ValidateAndCreateVisit(c.Request.Context(), scheduling.CreateVisitRequest{
		DoctorID:         req.DoctorID,
		PatientID:        req.PatientID,
		SpecializationID: req.SpecializationID,
		RoomID:           req.RoomID,
		Date:             date,
		Time:             at,
		Reason:           req.Reason,
		AdditionalNotes:  req.AdditionalNotes,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Visit booked successfully", view)
}

// ListVisits returns visits visible to the caller. Patients see their own,
// doctors see the visits they run, admins may filter freely.
func (h *VisitHandler) ListVisits(c *gin.Context) {
	filter := scheduling.VisitFilter{
		DoctorID:         c.Query("doctorId"),
		PatientID:        c.Query("patientId"),
		RoomID:           c.Query("roomId"),
		ExcludeCancelled: c.Query("includeCancelled") != "true",
	}
	date, ok := queryDate(c, "date", false)
	if !ok {
		return
	}
	filter.Date = date

	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)
	switch role {
	case models.RolePatient:
		filter.PatientID = userID
	case models.RoleDoctor:
		filter.DoctorID = userID
	}

	visits, err := h.Scheduler.ListVisits(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Visits fetched successfully", visits)
}

// GetVisitByID returns one visit if the caller takes part in it.
func (h *VisitHandler) GetVisitByID(c *gin.Context) {
	view, ok := h.authorizedVisit(c, c.Param("id"))
	if !ok {
		return
	}
	utils.Success(c, "Visit fetched successfully", view)
}

// CancelVisit cancels a scheduled visit.
func (h *VisitHandler) CancelVisit(c *gin.Context) {
	visitID := c.Param("id")
	if _, ok := h.authorizedVisit(c, visitID); !ok {
		return
	}

	view, err := h.Scheduler.CancelVisit(c.Request.Context(), visitID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Visit cancelled successfully", view)
}

// CompleteVisitRequest represents the request body for closing a visit.
type CompleteVisitRequest struct {
	VisitNotes       string `json:"visitNotes"`
	PrescriptionText string `json:"prescriptionText"`
}

// CompleteVisit records notes and a prescription and marks the visit done.
// Only the visit's doctor or an admin may do this.
func (h *VisitHandler) CompleteVisit(c *gin.Context) {
	var req CompleteVisitRequest
	if c.Request.ContentLength != 0 && !utils.BindAndValidate(c, &req) {
		return
	}
	visitID := c.Param("id")
	if _, ok := h.authorizedVisit(c, visitID); !ok {
		return
	}

	view, err := h.Scheduler.CompleteVisit(c.Request.Context(), visitID, req.VisitNotes, req.PrescriptionText)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Visit completed successfully", view)
}

// EditVisitRequest represents the request body for an admin edit.
type EditVisitRequest struct {
	ID               string `json:"id" validate:"required"`
	VisitDate        string `json:"visitDate" validate:"required,date"`
	VisitTime        string `json:"visitTime" validate:"required,timeofday"`
	Status           string `json:"status" validate:"required"`
	Reason           string `json:"reason" validate:"required"`
	AdditionalNotes  string `json:"additionalNotes"`
	VisitNotes       string `json:"visitNotes"`
	PrescriptionText string `json:"prescriptionText"`
}

// EditVisit overwrites the mutable fields of a visit.
func (h *VisitHandler) EditVisit(c *gin.Context) {
	var req EditVisitRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	date, _ := models.ParseDate(req.VisitDate)
	at, _ := models.ParseTimeOfDay(req.VisitTime)
	err := h.Scheduler.EditVisit(c.Request.Context(), c.Param("id"), scheduling.EditVisitRequest{
		ID:               req.ID,
		Date:             date,
		Time:             at,
		Status:           req.Status,
		Reason:           req.Reason,
		AdditionalNotes:  req.AdditionalNotes,
		VisitNotes:       req.VisitNotes,
		PrescriptionText: req.PrescriptionText,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.NoContent(c)
}

// authorizedVisit loads the visit and checks that the caller is its
// patient, its doctor or an admin. It writes the error response itself.
func (h *VisitHandler) authorizedVisit(c *gin.Context, visitID string) (*scheduling.VisitView, bool) {
	view, err := h.Scheduler.GetVisit(c.Request.Context(), visitID)
	if err != nil {
		utils.RespondError(c, err)
		return nil, false
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)
	switch {
	case role == models.RoleAdmin:
	case role == models.RolePatient && view.PatientID == userID:
	case role == models.RoleDoctor && view.DoctorID == userID:
	default:
		utils.Forbidden(c, "You do not have access to this visit.")
		return nil, false
	}
	return view, true
}

// queryDate parses a YYYY-MM-DD query parameter. It writes a 400 and
// returns false when the value is malformed, or missing but required.
func queryDate(c *gin.Context, name string, required bool) (*models.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		if required {
			utils.BadRequest(c, name+" is required")
			return nil, false
		}
		return nil, true
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		utils.BadRequest(c, "Invalid "+name+": "+err.Error())
		return nil, false
	}
	return &date, true
}
