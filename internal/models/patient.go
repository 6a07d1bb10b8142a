package models

// Patient holds credentials plus an optional, independently editable profile.
type Patient struct {
	BaseModel
	Name  string `gorm:"size:255;not null" json:"name"`
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Credentials
	Age               *int   `json:"age,omitempty"`
	Gender            string `gorm:"size:50" json:"gender,omitempty"`
	Height            string `gorm:"size:50" json:"height,omitempty"`
	Weight            string `gorm:"size:50" json:"weight,omitempty"`
	BloodGroup        string `gorm:"size:10" json:"bloodGroup,omitempty"`
	AdditionalDetails string `gorm:"type:text" json:"additionalDetails,omitempty"`
}

// PatientSummary is returned from login.
type PatientSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary projects the fields safe to show after login.
func (p *Patient) Summary() PatientSummary {
	return PatientSummary{ID: p.ID, Name: p.Name, Email: p.Email}
}
