package models

// Patient is the profile of a patient account.
type Patient struct {
	BaseModel
	FirstName string        `gorm:"size:100;not null" json:"firstName"`
	LastName  string        `gorm:"size:100;not null" json:"lastName"`
	Status    PatientStatus `gorm:"size:20;not null;default:'Active'" json:"status"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
