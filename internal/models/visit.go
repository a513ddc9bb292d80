package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Visit is a booked appointment of a patient with a doctor in a room.
type Visit struct {
	BaseModel
	VisitDate        Date        `gorm:"type:date;not null;index:idx_visits_date" json:"visitDate"`
	VisitTime        TimeOfDay   `gorm:"type:varchar(5);not null" json:"visitTime"`
	DoctorID         string      `gorm:"size:36;not null;index" json:"doctorId"`
	PatientID        string      `gorm:"size:36;not null;index" json:"patientId"`
	RoomID           string      `gorm:"size:36;not null;index" json:"roomId"`
	SpecializationID string      `gorm:"size:36;not null;index" json:"specializationId"`
	Status           VisitStatus `gorm:"size:20;not null;default:'Scheduled'" json:"status"`
	Reason           VisitReason `gorm:"size:20;not null" json:"reason"`
	AdditionalNotes  string      `gorm:"type:text" json:"additionalNotes,omitempty"`
	VisitNotes       string      `gorm:"type:text" json:"visitNotes,omitempty"`
	PrescriptionText string      `gorm:"type:text" json:"prescriptionText,omitempty"`

	// Set while the visit holds its slot, NULL once cancelled. The unique
	// indexes ignore NULLs, so only non-cancelled visits can collide.
	DoctorSlotKey *string `gorm:"size:64;uniqueIndex:idx_visits_doctor_slot" json:"-"`
	RoomSlotKey   *string `gorm:"size:64;uniqueIndex:idx_visits_room_slot" json:"-"`

	// Relations
	Doctor         Doctor         `gorm:"foreignKey:DoctorID" json:"-"`
	Patient        Patient        `gorm:"foreignKey:PatientID" json:"-"`
	Room           Room           `gorm:"foreignKey:RoomID" json:"-"`
	Specialization Specialization `gorm:"foreignKey:SpecializationID" json:"-"`
}

// Index names the storage layer reports on a double booking.
const (
	DoctorSlotIndex = "idx_visits_doctor_slot"
	RoomSlotIndex   = "idx_visits_room_slot"
)

// BeforeSave keeps the slot keys in step with the status.
func (v *Visit) BeforeSave(tx *gorm.DB) error {
	v.SyncSlotKeys()
	return nil
}

// SyncSlotKeys recomputes DoctorSlotKey and RoomSlotKey from the current fields.
func (v *Visit) SyncSlotKeys() {
	if v.Status == VisitCancelled {
		v.DoctorSlotKey = nil
		v.RoomSlotKey = nil
		return
	}
	doctorKey := slotKey(v.DoctorID, v.VisitDate, v.VisitTime)
	roomKey := slotKey(v.RoomID, v.VisitDate, v.VisitTime)
	v.DoctorSlotKey = &doctorKey
	v.RoomSlotKey = &roomKey
}

func slotKey(ownerID string, date Date, at TimeOfDay) string {
	return fmt.Sprintf("%s|%s|%s", ownerID, date, at)
}
