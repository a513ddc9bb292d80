package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitSyncSlotKeys(t *testing.T) {
	v := &Visit{
		VisitDate: NewDate(2025, time.October, 22),
		VisitTime: NewTimeOfDay(9, 30),
		DoctorID:  "doc-1",
		RoomID:    "room-1",
		Status:    VisitScheduled,
	}

	v.SyncSlotKeys()
	require.NotNil(t, v.DoctorSlotKey)
	require.NotNil(t, v.RoomSlotKey)
	assert.Equal(t, "doc-1|2025-10-22|09:30", *v.DoctorSlotKey)
	assert.Equal(t, "room-1|2025-10-22|09:30", *v.RoomSlotKey)

	v.Status = VisitCompleted
	v.SyncSlotKeys()
	assert.NotNil(t, v.DoctorSlotKey, "completed visits keep their slot")

	v.Status = VisitCancelled
	v.SyncSlotKeys()
	assert.Nil(t, v.DoctorSlotKey)
	assert.Nil(t, v.RoomSlotKey)
}

func TestDoctorHasSpecialization(t *testing.T) {
	d := &Doctor{Specializations: []Specialization{{BaseModel: BaseModel{ID: "spec-1"}, Name: "Cardiologist"}}}
	assert.True(t, d.HasSpecialization("spec-1"))
	assert.False(t, d.HasSpecialization("spec-2"))
}
