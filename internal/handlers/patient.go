package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-booking-server/internal/booking"
	"healthcare-booking-server/internal/cache"
	"healthcare-booking-server/internal/config"
	"healthcare-booking-server/internal/inventory"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/utils"
)

// PatientHandler handles patient accounts, hospital search and booking.
type PatientHandler struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Store    *inventory.Store
	Bookings *booking.Service
	Cache    cache.Cache
	Logger   *zap.Logger
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB, cfg *config.Config, store *inventory.Store, bookings *booking.Service, c cache.Cache, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{DB: db, Cfg: cfg, Store: store, Bookings: bookings, Cache: c, Logger: logger}
}

// RegisterPatientRequest represents the request body for patient registration.
type RegisterPatientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register handles patient registration.
func (h *PatientHandler) Register(c *gin.Context) {
	var req RegisterPatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()

	taken, err := emailTaken(h.DB.WithContext(ctx), &models.Patient{}, req.Email)
	if err != nil {
		serverError(c, h.Logger, "patient lookup failed", err)
		return
	}
	if taken {
		utils.BadRequest(c, "Patient already registered")
		return
	}

	patient := models.Patient{Name: req.Name, Email: req.Email}
	if err := patient.SetPassword(req.Password); err != nil {
		serverError(c, h.Logger, "failed to hash password", err)
		return
	}
	if err := h.DB.WithContext(ctx).Create(&patient).Error; err != nil {
		serverError(c, h.Logger, "failed to create patient", err)
		return
	}

	utils.Created(c, "Patient registered successfully", gin.H{"patientId": patient.ID})
}

// Login handles patient login.
func (h *PatientHandler) Login(c *gin.Context) {
	req, ok := bindLogin(c)
	if !ok {
		return
	}

	var patient models.Patient
	if err := h.DB.WithContext(c.Request.Context()).Where("email = ?", req.Email).First(&patient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.BadRequest(c, "Invalid email or password")
			return
		}
		serverError(c, h.Logger, "patient lookup failed", err)
		return
	}
	if !patient.CheckPassword(req.Password) {
		utils.BadRequest(c, "Invalid email or password")
		return
	}

	token, err := issueToken(h.Cfg, patient.ID, models.RolePatient)
	if err != nil {
		serverError(c, h.Logger, "failed to issue token", err)
		return
	}
	utils.Success(c, "Login successful", LoginResponse{Token: token, Patient: patient.Summary()})
}

// SearchHospitals lists the hospitals in one state and district.
func (h *PatientHandler) SearchHospitals(c *gin.Context) {
	ctx := c.Request.Context()
	state := c.Query("state")
	district := c.Query("district")
	if state == "" || district == "" {
		utils.BadRequest(c, "State and district are required")
		return
	}

	key := cache.HospitalSearchKey(state, district)
	hospitals := []models.Hospital{}
	err := h.Cache.Get(ctx, key, &hospitals)
	if err == nil {
		utils.Success(c, "Hospitals fetched successfully", hospitals)
		return
	}
	if !errors.Is(err, cache.ErrMiss) {
		h.Logger.Warn("hospital search cache read failed", zap.String("key", key), zap.Error(err))
	}

	hospitals = []models.Hospital{}
	if err := h.DB.WithContext(ctx).
		Where("state = ? AND district = ?", state, district).
		Order("hospital_name asc").
		Find(&hospitals).Error; err != nil {
		serverError(c, h.Logger, "failed to search hospitals", err)
		return
	}
	if err := h.Cache.Set(ctx, key, hospitals); err != nil {
		h.Logger.Warn("hospital search cache write failed", zap.String("key", key), zap.Error(err))
	}
	utils.Success(c, "Hospitals fetched successfully", hospitals)
}

// HospitalDoctor is a doctor offered by a hospital, with that hospital's slots.
type HospitalDoctor struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Specialization string             `json:"specialization"`
	AvailableSlots []models.DateSlots `json:"availableSlots"`
}

// HospitalDoctors lists the doctors on a hospital's dashboard with their slots.
func (h *PatientHandler) HospitalDoctors(c *gin.Context) {
	ctx := c.Request.Context()
	hospital, err := h.Store.Load(ctx, c.Param("hospitalId"))
	if err != nil {
		if errors.Is(err, inventory.ErrHospitalNotFound) {
			utils.NotFound(c, "Hospital not found")
			return
		}
		serverError(c, h.Logger, "failed to load hospital", err)
		return
	}

	resolved, err := resolveDoctors(ctx, h.DB, hospital.Doctors)
	if err != nil {
		serverError(c, h.Logger, "failed to load doctors", err)
		return
	}

	doctors := make([]HospitalDoctor, 0, len(resolved))
	for _, d := range resolved {
		if d.Doctor == nil {
			continue
		}
		doctors = append(doctors, HospitalDoctor{
			ID:             d.Doctor.ID,
			Name:           d.Doctor.Name,
			Specialization: d.Doctor.Specialization,
			AvailableSlots: d.AvailableSlots,
		})
	}
	utils.Success(c, "Doctors fetched successfully", doctors)
}

// BookSlot reserves one slot for a patient.
func (h *PatientHandler) BookSlot(c *gin.Context) {
	var req booking.BookSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Missing required fields")
		return
	}
	if req.PatientID != "" && !actingAs(c, h.Cfg, req.PatientID) {
		utils.Forbidden(c, "You can only book slots for yourself")
		return
	}

	b, err := h.Bookings.BookSlot(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrMissingFields):
			utils.BadRequest(c, "Missing required fields")
		case errors.Is(err, inventory.ErrHospitalNotFound):
			utils.NotFound(c, "Hospital not found")
		case errors.Is(err, inventory.ErrDoctorNotOnHospital):
			utils.NotFound(c, "Doctor not found in this hospital")
		case errors.Is(err, inventory.ErrNoSlotsForDate):
			utils.BadRequest(c, "No slots available for this date")
		case errors.Is(err, inventory.ErrSlotUnavailable):
			utils.BadRequest(c, "Slot not available or already booked")
		case errors.Is(err, booking.ErrBusy):
			utils.Error(c, http.StatusConflict, "The schedule is busy, please try again")
		default:
			serverError(c, h.Logger, "failed to book slot", err)
		}
		return
	}
	utils.Success(c, "Slot booked successfully", gin.H{"booking": b})
}

// GetProfile returns a patient's own profile.
func (h *PatientHandler) GetProfile(c *gin.Context) {
	id := c.Param("id")
	if !actingAs(c, h.Cfg, id) {
		utils.Forbidden(c, "You can only view your own profile")
		return
	}

	var patient models.Patient
	if err := h.DB.WithContext(c.Request.Context()).First(&patient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Patient not found")
			return
		}
		serverError(c, h.Logger, "patient lookup failed", err)
		return
	}
	utils.Success(c, "Patient fetched successfully", patient)
}

// UpdateProfileRequest carries the profile fields to change; absent fields are
// left as they are.
type UpdateProfileRequest struct {
	Age               *int    `json:"age" binding:"omitempty,min=0,max=150"`
	Gender            *string `json:"gender"`
	Height            *string `json:"height"`
	Weight            *string `json:"weight"`
	BloodGroup        *string `json:"bloodGroup"`
	AdditionalDetails *string `json:"additionalDetails"`
}

// UpdateProfile applies a partial update to a patient's profile.
func (h *PatientHandler) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if !actingAs(c, h.Cfg, id) {
		utils.Forbidden(c, "You can only update your own profile")
		return
	}

	var req UpdateProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var patient models.Patient
	if err := h.DB.WithContext(ctx).First(&patient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Patient not found")
			return
		}
		serverError(c, h.Logger, "patient lookup failed", err)
		return
	}

	if req.Age != nil {
		patient.Age = req.Age
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.Height != nil {
		patient.Height = *req.Height
	}
	if req.Weight != nil {
		patient.Weight = *req.Weight
	}
	if req.BloodGroup != nil {
		patient.BloodGroup = *req.BloodGroup
	}
	if req.AdditionalDetails != nil {
		patient.AdditionalDetails = *req.AdditionalDetails
	}

	if err := h.DB.WithContext(ctx).Save(&patient).Error; err != nil {
		serverError(c, h.Logger, "failed to update patient", err)
		return
	}
	utils.Success(c, "Patient details updated successfully", patient)
}
