package models

// Doctor is the scheduling profile of a doctor account. Working hours are
// the half-open interval [StartHour, EndHour).
type Doctor struct {
	BaseModel
	FirstName string    `gorm:"size:100;not null" json:"firstName"`
	LastName  string    `gorm:"size:100;not null" json:"lastName"`
	StartHour TimeOfDay `gorm:"type:varchar(5);not null;default:'08:00'" json:"startHour"`
	EndHour   TimeOfDay `gorm:"type:varchar(5);not null;default:'16:00'" json:"endHour"`

	Specializations []Specialization `gorm:"many2many:doctor_specializations" json:"specializations,omitempty"`
}

// FullName returns "FirstName LastName".
func (d *Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}

// HasSpecialization reports whether specializationID is assigned to the doctor.
func (d *Doctor) HasSpecialization(specializationID string) bool {
	for _, s := range d.Specializations {
		if s.ID == specializationID {
			return true
		}
	}
	return false
}
