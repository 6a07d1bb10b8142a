package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-booking-server/internal/cache"
	"healthcare-booking-server/internal/config"
	"healthcare-booking-server/internal/inventory"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/utils"
)

// HospitalHandler handles hospital accounts and the slot dashboard.
type HospitalHandler struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Store  *inventory.Store
	Cache  cache.Cache
	Logger *zap.Logger
}

// NewHospitalHandler creates a new HospitalHandler.
func NewHospitalHandler(db *gorm.DB, cfg *config.Config, store *inventory.Store, c cache.Cache, logger *zap.Logger) *HospitalHandler {
	return &HospitalHandler{DB: db, Cfg: cfg, Store: store, Cache: c, Logger: logger}
}

// RegisterHospitalRequest represents the request body for hospital registration.
type RegisterHospitalRequest struct {
	HospitalName string `json:"hospitalName" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,strongpassword"`
	State        string `json:"state" binding:"required"`
	District     string `json:"district" binding:"required"`
}

// Register handles hospital registration.
func (h *HospitalHandler) Register(c *gin.Context) {
	var req RegisterHospitalRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()

	taken, err := emailTaken(h.DB.WithContext(ctx), &models.Hospital{}, req.Email)
	if err != nil {
		serverError(c, h.Logger, "hospital lookup failed", err)
		return
	}
	if taken {
		utils.BadRequest(c, "Hospital already registered")
		return
	}

	hospital := models.Hospital{
		HospitalName: req.HospitalName,
		Email:        req.Email,
		State:        req.State,
		District:     req.District,
		Timings:      []models.Timing{},
		Doctors:      []models.DoctorEntry{},
		Version:      1,
	}
	if err := hospital.SetPassword(req.Password); err != nil {
		serverError(c, h.Logger, "failed to hash password", err)
		return
	}
	if err := h.DB.WithContext(ctx).Create(&hospital).Error; err != nil {
		serverError(c, h.Logger, "failed to create hospital", err)
		return
	}
	InvalidateHospitalSearch(ctx, h.Cache, h.Logger, &hospital)

	utils.Created(c, "Hospital registered successfully", gin.H{"hospitalId": hospital.ID})
}

// Login handles hospital login.
func (h *HospitalHandler) Login(c *gin.Context) {
	req, ok := bindLogin(c)
	if !ok {
		return
	}

	var hospital models.Hospital
	if err := h.DB.WithContext(c.Request.Context()).Where("email = ?", req.Email).First(&hospital).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.BadRequest(c, "Hospital not found")
			return
		}
		serverError(c, h.Logger, "hospital lookup failed", err)
		return
	}
	if !hospital.CheckPassword(req.Password) {
		utils.BadRequest(c, "Invalid credentials")
		return
	}

	token, err := issueToken(h.Cfg, hospital.ID, models.RoleHospital)
	if err != nil {
		serverError(c, h.Logger, "failed to issue token", err)
		return
	}
	utils.Success(c, "Login successful", LoginResponse{Token: token, Hospital: hospital.Summary()})
}

// All lists every hospital.
func (h *HospitalHandler) All(c *gin.Context) {
	hospitals := []models.Hospital{}
	if err := h.DB.WithContext(c.Request.Context()).Order("hospital_name asc").Find(&hospitals).Error; err != nil {
		serverError(c, h.Logger, "failed to list hospitals", err)
		return
	}
	utils.Success(c, "Hospitals fetched successfully", hospitals)
}

// DashboardDoctor is a doctor entry with the doctor's record resolved.
type DashboardDoctor struct {
	Doctor         *models.Doctor     `json:"doctor"`
	AvailableSlots []models.DateSlots `json:"availableSlots"`
}

// Dashboard is everything the hospital's dashboard shows.
type Dashboard struct {
	HospitalID        string            `json:"hospitalId"`
	HospitalName      string            `json:"hospitalName"`
	Email             string            `json:"email"`
	Timings           []models.Timing   `json:"timings"`
	DashboardDoctors  []DashboardDoctor `json:"dashboardDoctors"`
	RegisteredDoctors []models.Doctor   `json:"registeredDoctors"`
	State             string            `json:"state"`
	District          string            `json:"district"`
}

// resolveDoctors loads the doctor record behind every entry. Entries whose
// doctor no longer exists keep a nil Doctor.
func resolveDoctors(ctx context.Context, db *gorm.DB, entries []models.DoctorEntry) ([]DashboardDoctor, error) {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.DoctorID)
	}
	byID := make(map[string]*models.Doctor, len(ids))
	if len(ids) > 0 {
		var doctors []models.Doctor
		if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&doctors).Error; err != nil {
			return nil, err
		}
		for i := range doctors {
			byID[doctors[i].ID] = &doctors[i]
		}
	}

	resolved := make([]DashboardDoctor, 0, len(entries))
	for _, e := range entries {
		slots := e.AvailableSlots
		if slots == nil {
			slots = []models.DateSlots{}
		}
		resolved = append(resolved, DashboardDoctor{Doctor: byID[e.DoctorID], AvailableSlots: slots})
	}
	return resolved, nil
}

func (h *HospitalHandler) dashboard(ctx context.Context, hospital *models.Hospital) (*Dashboard, error) {
	doctors, err := resolveDoctors(ctx, h.DB, hospital.Doctors)
	if err != nil {
		return nil, err
	}
	registered := []models.Doctor{}
	if err := h.DB.WithContext(ctx).Where("hospital_id = ?", hospital.ID).Order("name asc").Find(&registered).Error; err != nil {
		return nil, err
	}
	timings := hospital.Timings
	if timings == nil {
		timings = []models.Timing{}
	}
	return &Dashboard{
		HospitalID:        hospital.ID,
		HospitalName:      hospital.HospitalName,
		Email:             hospital.Email,
		Timings:           timings,
		DashboardDoctors:  doctors,
		RegisteredDoctors: registered,
		State:             hospital.State,
		District:          hospital.District,
	}, nil
}

// GetDashboard returns the hospital's profile, timings and slot inventory.
func (h *HospitalHandler) GetDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	hospitalID := c.Param("hospitalId")
	if !actingAs(c, h.Cfg, hospitalID) {
		utils.Forbidden(c, "You can only manage your own hospital")
		return
	}

	hospital, err := h.Store.Load(ctx, hospitalID)
	if err != nil {
		if errors.Is(err, inventory.ErrHospitalNotFound) {
			utils.NotFound(c, "Hospital not found")
			return
		}
		serverError(c, h.Logger, "failed to load hospital", err)
		return
	}

	view, err := h.dashboard(ctx, hospital)
	if err != nil {
		serverError(c, h.Logger, "failed to build dashboard", err)
		return
	}
	utils.Success(c, "Dashboard fetched successfully", view)
}

// AddDoctorSlotsRequest represents the request body for adding slots to a doctor.
type AddDoctorSlotsRequest struct {
	DoctorID       string             `json:"doctorId" binding:"required"`
	AvailableSlots []models.DateSlots `json:"availableSlots" binding:"required,min=1,dive"`
}

// AddDoctorSlots merges new slots into the doctor's entry, creating the entry
// when the doctor is not on the dashboard yet.
func (h *HospitalHandler) AddDoctorSlots(c *gin.Context) {
	ctx := c.Request.Context()
	hospitalID := c.Param("hospitalId")
	if !actingAs(c, h.Cfg, hospitalID) {
		utils.Forbidden(c, "You can only manage your own hospital")
		return
	}

	var req AddDoctorSlotsRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if _, err := h.Store.Load(ctx, hospitalID); err != nil {
		if errors.Is(err, inventory.ErrHospitalNotFound) {
			utils.NotFound(c, "Hospital not found")
			return
		}
		serverError(c, h.Logger, "failed to load hospital", err)
		return
	}

	var doctor models.Doctor
	if err := h.DB.WithContext(ctx).First(&doctor, "id = ?", req.DoctorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor not found")
			return
		}
		serverError(c, h.Logger, "doctor lookup failed", err)
		return
	}

	var (
		merged  models.DoctorEntry
		existed bool
	)
	_, err := h.Store.Update(ctx, hospitalID, func(hospital *models.Hospital) error {
		existed = inventory.Find(hospital.Doctors, req.DoctorID) != -1
		hospital.Doctors, merged = inventory.Merge(hospital.Doctors, req.DoctorID, req.AvailableSlots)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrHospitalNotFound):
			utils.NotFound(c, "Hospital not found")
		case errors.Is(err, inventory.ErrStaleHospital):
			utils.Error(c, http.StatusConflict, "Hospital schedule changed, please retry")
		default:
			serverError(c, h.Logger, "failed to save doctor slots", err)
		}
		return
	}

	message := "Doctor added to dashboard successfully"
	if existed {
		message = "Doctor slots updated successfully"
	}
	utils.Success(c, message, gin.H{
		"doctor": DashboardDoctor{Doctor: &doctor, AvailableSlots: merged.AvailableSlots},
	})
}

// UpdateDashboardRequest represents the request body for replacing the dashboard.
type UpdateDashboardRequest struct {
	Timings []models.Timing      `json:"timings" binding:"dive"`
	Doctors []models.DoctorEntry `json:"doctors" binding:"dive"`
}

// UpdateDashboard overwrites the hospital's timings and doctor entries.
func (h *HospitalHandler) UpdateDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	hospitalID := c.Param("hospitalId")
	if !actingAs(c, h.Cfg, hospitalID) {
		utils.Forbidden(c, "You can only manage your own hospital")
		return
	}

	var req UpdateDashboardRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if req.Timings == nil || req.Doctors == nil {
		utils.BadRequest(c, "Timings and Doctors are required")
		return
	}
	if err := inventory.Validate(req.Doctors); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	hospital, err := h.Store.Update(ctx, hospitalID, func(hospital *models.Hospital) error {
		return inventory.Replace(hospital, req.Timings, req.Doctors)
	})
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrHospitalNotFound):
			utils.NotFound(c, "Hospital not found")
		case errors.Is(err, inventory.ErrInvalidInventory):
			utils.BadRequest(c, err.Error())
		case errors.Is(err, inventory.ErrStaleHospital):
			utils.Error(c, http.StatusConflict, "Hospital schedule changed, please retry")
		default:
			serverError(c, h.Logger, "failed to update dashboard", err)
		}
		return
	}

	view, err := h.dashboard(ctx, hospital)
	if err != nil {
		serverError(c, h.Logger, "failed to build dashboard", err)
		return
	}
	utils.Success(c, "Dashboard updated successfully!", view)
}

// InvalidateHospitalSearch drops the cached search results that could list h.
func InvalidateHospitalSearch(ctx context.Context, c cache.Cache, logger *zap.Logger, h *models.Hospital) {
	if err := c.Delete(ctx, cache.HospitalSearchKey(h.State, h.District)); err != nil {
		logger.Warn("failed to invalidate hospital search cache",
			zap.String("hospital_id", h.ID),
			zap.Error(err))
	}
}
