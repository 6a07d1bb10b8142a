package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"healthcare-booking-server/internal/inventory"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/testutil"
)

func TestPruneExpiredSlots(t *testing.T) {
	db := testutil.NewDB(t)
	stale := testutil.SeedHospital(t, db, models.DoctorEntry{
		DoctorID: "doc-1",
		AvailableSlots: []models.DateSlots{
			{Date: "2025-01-09", Slots: []string{"09:00-09:30"}},
			{Date: "2025-01-10", Slots: []string{"09:00-09:30"}},
			{Date: "2025-01-11", Slots: []string{"10:00-10:30"}},
		},
	})
	fresh := testutil.SeedHospital(t, db, models.DoctorEntry{
		DoctorID:       "doc-2",
		AvailableSlots: []models.DateSlots{{Date: "2025-02-01", Slots: []string{"09:00-09:30"}}},
	})

	store := inventory.NewStore(db, zap.NewNop(), 3)
	s := NewScheduler(db, store, zap.NewNop())
	s.now = func() time.Time { return time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC) }

	removed, err := s.PruneExpiredSlots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	h, err := store.Load(context.Background(), stale.ID)
	require.NoError(t, err)
	require.Len(t, h.Doctors[0].AvailableSlots, 2)
	assert.Equal(t, "2025-01-10", h.Doctors[0].AvailableSlots[0].Date)

	untouched, err := store.Load(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), untouched.Version)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewScheduler(db, inventory.NewStore(db, zap.NewNop(), 1), zap.NewNop())

	assert.Error(t, s.Start("not a schedule"))
	require.NoError(t, s.Start("0 2 * * *"))
	s.Stop(context.Background())
}
