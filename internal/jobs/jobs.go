// Package jobs runs periodic maintenance on the slot inventory.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-booking-server/internal/inventory"
	"healthcare-booking-server/internal/models"
)

var errNothingToPrune = errors.New("nothing to prune")

// Scheduler owns the cron runner.
type Scheduler struct {
	cron   *cron.Cron
	db     *gorm.DB
	store  *inventory.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduler creates a Scheduler. Nothing runs until Start.
func NewScheduler(db *gorm.DB, store *inventory.Store, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		db:     db,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the slot prune job on schedule (standard five-field cron) and
// starts the runner.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.logger.Info("running expired slot cleanup")
		if _, err := s.PruneExpiredSlots(context.Background()); err != nil {
			s.logger.Error("expired slot cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop stops the runner and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// PruneExpiredSlots drops every date-entry dated before today from every
// hospital. It returns the number of date-entries removed. A hospital that
// fails is logged and skipped.
func (s *Scheduler) PruneExpiredSlots(ctx context.Context) (int, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Hospital{}).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	total := 0
	for _, id := range ids {
		removed := 0
		_, err := s.store.Update(ctx, id, func(h *models.Hospital) error {
			h.Doctors, removed = inventory.PruneBefore(h.Doctors, today)
			if removed == 0 {
				return errNothingToPrune
			}
			return nil
		})
		switch {
		case errors.Is(err, errNothingToPrune):
			continue
		case err != nil:
			s.logger.Warn("failed to prune hospital slots",
				zap.String("hospital_id", id),
				zap.Error(err))
			continue
		}
		total += removed
	}

	s.logger.Info("expired slot cleanup finished", zap.Int("date_entries_removed", total))
	return total, nil
}
