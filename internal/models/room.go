package models

// Room is a consultation room. RoomType doubles as the display label.
type Room struct {
	BaseModel
	RoomNumber int    `gorm:"uniqueIndex;not null" json:"roomNumber"`
	RoomType   string `gorm:"size:150;not null" json:"roomType"`
}

// Specialization is a medical specialty a doctor can practice.
type Specialization struct {
	BaseModel
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Symptoms    string `gorm:"type:text" json:"symptoms,omitempty"`
}

// SpecializationRoom marks a room as eligible for visits of a specialization.
type SpecializationRoom struct {
	SpecializationID string `gorm:"primaryKey;type:varchar(36)" json:"specializationId"`
	RoomID           string `gorm:"primaryKey;type:varchar(36)" json:"roomId"`

	Specialization Specialization `gorm:"foreignKey:SpecializationID" json:"-"`
	Room           Room           `gorm:"foreignKey:RoomID" json:"-"`
}
