package models

import (
	"time"
)

// Booking is the immutable record of a reserved slot.
type Booking struct {
	BaseModel
	PatientID     string    `gorm:"size:36;index;not null" json:"patient"`
	HospitalID    string    `gorm:"size:36;index;not null" json:"hospital"`
	DoctorID      string    `gorm:"size:36;index:idx_booking_doctor_date;not null" json:"doctor"`
	Date          string    `gorm:"size:32;index:idx_booking_doctor_date;not null" json:"date"`
	Slot          string    `gorm:"size:64;not null" json:"slot"`
	BookedAt      time.Time `gorm:"not null" json:"bookedAt"`
	BookingNumber int64     `gorm:"uniqueIndex;not null" json:"bookingNumber"`

	// Relations (not always preloaded)
	Patient *Patient `gorm:"foreignKey:PatientID" json:"patientDetails,omitempty"`
}
