package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-booking-server/internal/models"
)

var (
	ErrHospitalNotFound = errors.New("hospital not found")
	ErrStaleHospital    = errors.New("hospital was modified concurrently")
)

// Store loads hospitals and writes their inventory back with a compare-and-swap
// on the version column.
type Store struct {
	db         *gorm.DB
	logger     *zap.Logger
	maxRetries int
	onSave     []func(ctx context.Context, h *models.Hospital)
}

// NewStore creates a Store. maxRetries bounds how many times Update re-reads a
// hospital after losing a race.
func NewStore(db *gorm.DB, logger *zap.Logger, maxRetries int) *Store {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Store{db: db, logger: logger, maxRetries: maxRetries}
}

// OnSave registers fn to run after every committed Update.
func (s *Store) OnSave(fn func(ctx context.Context, h *models.Hospital)) {
	s.onSave = append(s.onSave, fn)
}

// Load reads a hospital by id.
func (s *Store) Load(ctx context.Context, hospitalID string) (*models.Hospital, error) {
	return load(s.db.WithContext(ctx), hospitalID)
}

func load(tx *gorm.DB, hospitalID string) (*models.Hospital, error) {
	var hospital models.Hospital
	if err := tx.First(&hospital, "id = ?", hospitalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHospitalNotFound
		}
		return nil, fmt.Errorf("load hospital %s: %w", hospitalID, err)
	}
	return &hospital, nil
}

// Save writes the timings and doctor entries of h if nobody else has written
// them since h was read. On success h.Version is advanced.
func Save(tx *gorm.DB, h *models.Hospital) error {
	res := tx.Model(&models.Hospital{}).
		Where("id = ? AND version = ?", h.ID, h.Version).
		Select("timings", "doctors", "version", "updated_at").
		Updates(&models.Hospital{
			Timings: h.Timings,
			Doctors: h.Doctors,
			Version: h.Version + 1,
			BaseModel: models.BaseModel{
				UpdatedAt: time.Now(),
			},
		})
	if res.Error != nil {
		return fmt.Errorf("save hospital %s: %w", h.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleHospital
	}
	h.Version++
	return nil
}

// Update loads the hospital inside a transaction, applies mutate to it, saves
// it and then runs each follow-up in the same transaction. Any error rolls the
// whole transaction back. Losing the compare-and-swap restarts from a fresh
// read, up to the configured number of attempts.
func (s *Store) Update(ctx context.Context, hospitalID string, mutate func(h *models.Hospital) error, followUps ...func(tx *gorm.DB, h *models.Hospital) error) (*models.Hospital, error) {
	var saved *models.Hospital
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			hospital, err := load(tx, hospitalID)
			if err != nil {
				return err
			}
			if err := mutate(hospital); err != nil {
				return err
			}
			if err := Save(tx, hospital); err != nil {
				return err
			}
			for _, f := range followUps {
				if err := f(tx, hospital); err != nil {
					return err
				}
			}
			saved = hospital
			return nil
		})
		if errors.Is(err, ErrStaleHospital) {
			s.logger.Debug("hospital inventory changed underneath, retrying",
				zap.String("hospital_id", hospitalID),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, fn := range s.onSave {
			fn(ctx, saved)
		}
		return saved, nil
	}
	return nil, ErrStaleHospital
}
