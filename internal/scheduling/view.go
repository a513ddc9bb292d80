package scheduling

import "hospital-scheduling-server/internal/models"

// VisitView is a visit joined with the display names of its references.
type VisitView struct {
	ID                 string             `json:"id"`
	VisitDate          models.Date        `json:"visitDate"`
	VisitTime          models.TimeOfDay   `json:"visitTime"`
	Status             models.VisitStatus `json:"status"`
	Reason             models.VisitReason `json:"reason"`
	AdditionalNotes    string             `json:"additionalNotes,omitempty"`
	VisitNotes         string             `json:"visitNotes,omitempty"`
	PrescriptionText   string             `json:"prescriptionText,omitempty"`
	DoctorID           string             `json:"doctorId"`
	DoctorName         string             `json:"doctorName"`
	PatientID          string             `json:"patientId"`
	PatientName        string             `json:"patientName"`
	RoomID             string             `json:"roomId"`
	RoomNumber         int                `json:"roomNumber"`
	RoomType           string             `json:"roomType"`
	SpecializationID   string             `json:"specializationId"`
	SpecializationName string             `json:"specializationName"`
}

// NewVisitView flattens v. Relations that were not loaded yield empty names.
func NewVisitView(v *models.Visit) VisitView {
	view := VisitView{
		ID:                 v.ID,
		VisitDate:          v.VisitDate,
		VisitTime:          v.VisitTime,
		Status:             v.Status,
		Reason:             v.Reason,
		AdditionalNotes:    v.AdditionalNotes,
		VisitNotes:         v.VisitNotes,
		PrescriptionText:   v.PrescriptionText,
		DoctorID:           v.DoctorID,
		PatientID:          v.PatientID,
		RoomID:             v.RoomID,
		RoomNumber:         v.Room.RoomNumber,
		RoomType:           v.Room.RoomType,
		SpecializationID:   v.SpecializationID,
		SpecializationName: v.Specialization.Name,
	}
	if v.Doctor.ID != "" {
		view.DoctorName = v.Doctor.FullName()
	}
	if v.Patient.ID != "" {
		view.PatientName = v.Patient.FullName()
	}
	return view
}

// SlotAvailability lists the eligible rooms still free for one slot.
type SlotAvailability struct {
	Time            models.TimeOfDay `json:"time"`
	FreeRooms       []models.Room    `json:"freeRooms"`
	DoctorAvailable bool             `json:"doctorAvailable"`
}

// VisitTime is one occupied slot of a doctor.
type VisitTime struct {
	Time models.TimeOfDay `json:"time"`
	Room string           `json:"room"`
}
