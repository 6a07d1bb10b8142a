package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-booking-server/internal/inventory"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/testutil"
)

func TestStore_LoadMissingHospital(t *testing.T) {
	db := testutil.NewDB(t)
	store := inventory.NewStore(db, zap.NewNop(), 3)

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, inventory.ErrHospitalNotFound)
}

func TestSave_RejectsStaleVersion(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedHospital(t, db)
	store := inventory.NewStore(db, zap.NewNop(), 3)

	first, err := store.Load(context.Background(), seeded.ID)
	require.NoError(t, err)
	second, err := store.Load(context.Background(), seeded.ID)
	require.NoError(t, err)

	first.Doctors, _ = inventory.Merge(first.Doctors, "doc-1", []models.DateSlots{{Date: "2025-01-10", Slots: []string{"a"}}})
	require.NoError(t, inventory.Save(db, first))
	assert.Equal(t, int64(2), first.Version)

	second.Doctors, _ = inventory.Merge(second.Doctors, "doc-2", []models.DateSlots{{Date: "2025-01-10", Slots: []string{"b"}}})
	assert.ErrorIs(t, inventory.Save(db, second), inventory.ErrStaleHospital)

	stored, err := store.Load(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, stored.Doctors, 1)
	assert.Equal(t, "doc-1", stored.Doctors[0].DoctorID)
}

func TestStore_UpdateRetriesAfterLostRace(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedHospital(t, db)
	store := inventory.NewStore(db, zap.NewNop(), 3)

	calls := 0
	updated, err := store.Update(context.Background(), seeded.ID, func(h *models.Hospital) error {
		calls++
		if calls == 1 {
			// pretend another writer got in first
			h.Version--
		}
		h.Doctors, _ = inventory.Merge(h.Doctors, "doc-1", []models.DateSlots{{Date: "2025-01-10", Slots: []string{"a"}}})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(2), updated.Version)
}

func TestStore_UpdateGivesUpAfterMaxRetries(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedHospital(t, db)
	store := inventory.NewStore(db, zap.NewNop(), 2)

	_, err := store.Update(context.Background(), seeded.ID, func(h *models.Hospital) error {
		h.Version = 99
		return nil
	})
	assert.ErrorIs(t, err, inventory.ErrStaleHospital)
}

func TestStore_FollowUpFailureRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedHospital(t, db, models.DoctorEntry{
		DoctorID:       "doc-1",
		AvailableSlots: []models.DateSlots{{Date: "2025-01-10", Slots: []string{"a"}}},
	})
	store := inventory.NewStore(db, zap.NewNop(), 3)

	_, err := store.Update(context.Background(), seeded.ID,
		func(h *models.Hospital) error {
			return inventory.Remove(h.Doctors, "doc-1", "2025-01-10", "a")
		},
		func(tx *gorm.DB, h *models.Hospital) error {
			return assert.AnError
		})
	assert.ErrorIs(t, err, assert.AnError)

	stored, err := store.Load(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, stored.Doctors[0].AvailableSlots[0].Slots)
	assert.Equal(t, int64(1), stored.Version)
}

func TestStore_OnSaveRunsAfterCommitOnly(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedHospital(t, db)
	store := inventory.NewStore(db, zap.NewNop(), 3)

	var seen []int64
	store.OnSave(func(_ context.Context, h *models.Hospital) {
		seen = append(seen, h.Version)
	})

	_, err := store.Update(context.Background(), seeded.ID, func(h *models.Hospital) error { return nil })
	require.NoError(t, err)

	_, err = store.Update(context.Background(), seeded.ID, func(h *models.Hospital) error { return assert.AnError })
	require.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, []int64{2}, seen)
}
