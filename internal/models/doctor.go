package models

// Doctor is registered under exactly one hospital.
type Doctor struct {
	BaseModel
	Name           string `gorm:"size:255;not null" json:"name"`
	Email          string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	HospitalID     string `gorm:"size:36;index;not null" json:"hospital"`
	Specialization string `gorm:"size:255;not null" json:"specialization"`
	Credentials
}

// DoctorSummary is returned from login.
type DoctorSummary struct {
	DoctorID       string `json:"doctorId"`
	DoctorName     string `json:"doctorName"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
	Hospital       string `json:"hospital"`
}

// Summary projects the fields safe to show after login.
func (d *Doctor) Summary() DoctorSummary {
	return DoctorSummary{
		DoctorID:       d.ID,
		DoctorName:     d.Name,
		Email:          d.Email,
		Specialization: d.Specialization,
		Hospital:       d.HospitalID,
	}
}
