package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-booking-server/internal/booking"
	"healthcare-booking-server/internal/config"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/utils"
)

// DoctorHandler handles doctor accounts and their appointment lists.
type DoctorHandler struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Bookings *booking.Service
	Logger   *zap.Logger
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(db *gorm.DB, cfg *config.Config, bookings *booking.Service, logger *zap.Logger) *DoctorHandler {
	return &DoctorHandler{DB: db, Cfg: cfg, Bookings: bookings, Logger: logger}
}

// RegisterDoctorRequest represents the request body for doctor registration.
type RegisterDoctorRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Hospital       string `json:"hospital" binding:"required"`
	Specialization string `json:"specialization" binding:"required"`
	Password       string `json:"password" binding:"required,strongpassword"`
}

// Register handles doctor registration.
func (h *DoctorHandler) Register(c *gin.Context) {
	var req RegisterDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	taken, err := emailTaken(h.DB.WithContext(c.Request.Context()), &models.Doctor{}, req.Email)
	if err != nil {
		serverError(c, h.Logger, "doctor lookup failed", err)
		return
	}
	if taken {
		utils.BadRequest(c, "Doctor already registered")
		return
	}

	doctor := models.Doctor{
		Name:           req.Name,
		Email:          req.Email,
		HospitalID:     req.Hospital,
		Specialization: req.Specialization,
	}
	if err := doctor.SetPassword(req.Password); err != nil {
		serverError(c, h.Logger, "failed to hash password", err)
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&doctor).Error; err != nil {
		serverError(c, h.Logger, "failed to create doctor", err)
		return
	}

	utils.Created(c, "Doctor registered successfully", gin.H{"doctorId": doctor.ID})
}

// Login handles doctor login.
func (h *DoctorHandler) Login(c *gin.Context) {
	req, ok := bindLogin(c)
	if !ok {
		return
	}

	var doctor models.Doctor
	if err := h.DB.WithContext(c.Request.Context()).Where("email = ?", req.Email).First(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.BadRequest(c, "Doctor not found")
			return
		}
		serverError(c, h.Logger, "doctor lookup failed", err)
		return
	}
	if !doctor.CheckPassword(req.Password) {
		utils.BadRequest(c, "Invalid credentials")
		return
	}

	token, err := issueToken(h.Cfg, doctor.ID, models.RoleDoctor)
	if err != nil {
		serverError(c, h.Logger, "failed to issue token", err)
		return
	}
	utils.Success(c, "Login successful", LoginResponse{Token: token, Doctor: doctor.Summary()})
}

// AppointmentPatient is the part of the patient shown next to an appointment.
type AppointmentPatient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Appointment is one booking as the doctor sees it.
type Appointment struct {
	ID            string              `json:"id"`
	Patient       *AppointmentPatient `json:"patient"`
	Hospital      string              `json:"hospital"`
	Doctor        string              `json:"doctor"`
	Date          string              `json:"date"`
	Slot          string              `json:"slot"`
	BookedAt      time.Time           `json:"bookedAt"`
	BookingNumber int64               `json:"bookingNumber"`
}

// Appointments lists a doctor's bookings on one date.
func (h *DoctorHandler) Appointments(c *gin.Context) {
	date := c.Query("date")
	doctorID := c.Query("doctorId")
	if date == "" || doctorID == "" {
		utils.BadRequest(c, "Missing date or doctorId query parameters")
		return
	}
	if !actingAs(c, h.Cfg, doctorID) {
		utils.Forbidden(c, "You can only view your own appointments")
		return
	}

	bookings, err := h.Bookings.Appointments(c.Request.Context(), doctorID, date)
	if err != nil {
		if errors.Is(err, booking.ErrMissingFields) {
			utils.BadRequest(c, "Missing date or doctorId query parameters")
			return
		}
		serverError(c, h.Logger, "failed to list appointments", err)
		return
	}

	appointments := make([]Appointment, 0, len(bookings))
	for _, b := range bookings {
		a := Appointment{
			ID:            b.ID,
			Hospital:      b.HospitalID,
			Doctor:        b.DoctorID,
			Date:          b.Date,
			Slot:          b.Slot,
			BookedAt:      b.BookedAt,
			BookingNumber: b.BookingNumber,
		}
		if b.Patient != nil {
			a.Patient = &AppointmentPatient{ID: b.Patient.ID, Name: b.Patient.Name}
		}
		appointments = append(appointments, a)
	}
	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetPatient shows a patient's profile to a doctor.
func (h *DoctorHandler) GetPatient(c *gin.Context) {
	var patient models.Patient
	if err := h.DB.WithContext(c.Request.Context()).First(&patient, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Patient not found")
			return
		}
		serverError(c, h.Logger, "patient lookup failed", err)
		return
	}
	utils.Success(c, "Patient fetched successfully", patient)
}
