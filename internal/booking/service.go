// Package booking reserves slots from a hospital's inventory.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-booking-server/internal/inventory"
	"healthcare-booking-server/internal/models"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	// ErrBusy is returned when the hospital kept changing underneath every attempt.
	ErrBusy = errors.New("hospital schedule is busy")
)

// BookSlotRequest identifies the slot to reserve and who reserves it.
type BookSlotRequest struct {
	PatientID  string `json:"patientId"`
	HospitalID string `json:"hospitalId"`
	DoctorID   string `json:"doctorId"`
	Date       string `json:"date"`
	Slot       string `json:"slot"`
}

func (r BookSlotRequest) complete() bool {
	for _, v := range []string{r.PatientID, r.HospitalID, r.DoctorID, r.Date, r.Slot} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Service books slots and lists the resulting appointments.
type Service struct {
	db     *gorm.DB
	store  *inventory.Store
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewService creates a booking Service.
func NewService(db *gorm.DB, store *inventory.Store, logger *zap.Logger) *Service {
	return &Service{
		db:     db,
		store:  store,
		logger: logger,
		tracer: otel.Tracer("healthcare-booking-server/internal/booking"),
		now:    time.Now,
	}
}

// BookSlot removes the slot from the doctor's list at the hospital and records
// a Booking for it. Both writes commit together or not at all, and the
// hospital write only succeeds against the version that was read, so two
// requests for the same slot cannot both succeed.
func (s *Service) BookSlot(ctx context.Context, req BookSlotRequest) (*models.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.BookSlot", trace.WithAttributes(
		attribute.String("hospital.id", req.HospitalID),
		attribute.String("doctor.id", req.DoctorID),
		attribute.String("slot.date", req.Date),
	))
	defer span.End()

	if !req.complete() {
		return nil, ErrMissingFields
	}

	var booking *models.Booking
	_, err := s.store.Update(ctx, req.HospitalID,
		func(h *models.Hospital) error {
			return inventory.Remove(h.Doctors, req.DoctorID, req.Date, req.Slot)
		},
		func(tx *gorm.DB, h *models.Hospital) error {
			number, err := models.NextSequenceValue(tx, models.BookingSequence)
			if err != nil {
				return err
			}
			b := &models.Booking{
				PatientID:     req.PatientID,
				HospitalID:    h.ID,
				DoctorID:      req.DoctorID,
				Date:          req.Date,
				Slot:          req.Slot,
				BookedAt:      s.now(),
				BookingNumber: number,
			}
			if err := tx.Create(b).Error; err != nil {
				return fmt.Errorf("create booking: %w", err)
			}
			booking = b
			return nil
		})
	if errors.Is(err, inventory.ErrStaleHospital) {
		err = ErrBusy
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.logger.Info("slot booked",
		zap.String("booking_id", booking.ID),
		zap.Int64("booking_number", booking.BookingNumber),
		zap.String("hospital_id", booking.HospitalID),
		zap.String("doctor_id", booking.DoctorID),
		zap.String("date", booking.Date),
		zap.String("slot", booking.Slot))
	return booking, nil
}

// Appointments lists a doctor's bookings on date, with the patient's name.
func (s *Service) Appointments(ctx context.Context, doctorID, date string) ([]models.Booking, error) {
	if strings.TrimSpace(doctorID) == "" || strings.TrimSpace(date) == "" {
		return nil, ErrMissingFields
	}

	bookings := []models.Booking{}
	err := s.db.WithContext(ctx).
		Preload("Patient", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		Where("doctor_id = ? AND date = ?", doctorID, date).
		Order("booked_at asc").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return bookings, nil
}
