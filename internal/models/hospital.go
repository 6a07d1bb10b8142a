package models

// Timing is one operating-hour window of a hospital.
type Timing struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// DateSlots holds the free slot labels of one doctor on one date.
type DateSlots struct {
	Date  string   `json:"date" binding:"required"`
	Slots []string `json:"slots"`
}

// DoctorEntry pairs a doctor with that doctor's slot inventory at one hospital.
type DoctorEntry struct {
	DoctorID       string      `json:"doctor" binding:"required"`
	AvailableSlots []DateSlots `json:"availableSlots" binding:"dive"`
}

// Hospital is the owner of the slot inventory. Timings and Doctors are stored
// as JSON documents on the hospital row; Version guards every rewrite of them.
type Hospital struct {
	BaseModel
	HospitalName string `gorm:"size:255;not null" json:"hospitalName"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Credentials
	State    string        `gorm:"size:100;index:idx_hospital_location" json:"state"`
	District string        `gorm:"size:100;index:idx_hospital_location" json:"district"`
	Timings  []Timing      `gorm:"type:json;serializer:json" json:"timings"`
	Doctors  []DoctorEntry `gorm:"type:json;serializer:json" json:"doctors"`
	Version  int64         `gorm:"not null;default:1" json:"-"`
}

// HospitalSummary is returned from login.
type HospitalSummary struct {
	HospitalID   string `json:"hospitalId"`
	HospitalName string `json:"hospitalName"`
	Email        string `json:"email"`
	State        string `json:"state"`
	District     string `json:"district"`
}

// Summary projects the fields safe to show after login.
func (h *Hospital) Summary() HospitalSummary {
	return HospitalSummary{
		HospitalID:   h.ID,
		HospitalName: h.HospitalName,
		Email:        h.Email,
		State:        h.State,
		District:     h.District,
	}
}
