package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-server/internal/models"
)

func entriesFixture() []models.DoctorEntry {
	return []models.DoctorEntry{
		{
			DoctorID: "doc-1",
			AvailableSlots: []models.DateSlots{
				{Date: "2025-01-12", Slots: []string{"10:00-10:30"}},
				{Date: "2025-01-10", Slots: []string{"09:00-09:30", "09:30-10:00"}},
			},
		},
	}
}

func TestMerge_CreatesEntryForNewDoctor(t *testing.T) {
	updated, entry := Merge(nil, "doc-9", []models.DateSlots{
		{Date: "2025-01-10", Slots: []string{"09:00-09:30"}},
	})

	require.Len(t, updated, 1)
	assert.Equal(t, "doc-9", entry.DoctorID)
	assert.Equal(t, []models.DateSlots{{Date: "2025-01-10", Slots: []string{"09:00-09:30"}}}, entry.AvailableSlots)
}

func TestMerge_UnionsLabelsWithoutDuplicates(t *testing.T) {
	before := entriesFixture()

	updated, entry := Merge(before, "doc-1", []models.DateSlots{
		{Date: "2025-01-10", Slots: []string{"09:30-10:00", "10:00-10:30", "10:00-10:30"}},
	})

	require.Len(t, updated, 1)
	assert.Equal(t, "2025-01-10", entry.AvailableSlots[0].Date)
	assert.Equal(t, []string{"09:00-09:30", "09:30-10:00", "10:00-10:30"}, entry.AvailableSlots[0].Slots)

	// the caller's slice is not modified
	assert.Equal(t, entriesFixture(), before)
}

func TestMerge_NeverDropsExistingLabels(t *testing.T) {
	before := entriesFixture()
	_, entry := Merge(before, "doc-1", []models.DateSlots{{Date: "2025-01-12", Slots: nil}})

	seen := map[string][]string{}
	for _, d := range entry.AvailableSlots {
		seen[d.Date] = d.Slots
	}
	for _, d := range before[0].AvailableSlots {
		for _, l := range d.Slots {
			assert.Contains(t, seen[d.Date], l)
		}
	}
	require.NoError(t, Validate([]models.DoctorEntry{entry}))
}

func TestMerge_SortsDatesAscending(t *testing.T) {
	_, entry := Merge(entriesFixture(), "doc-1", []models.DateSlots{
		{Date: "2025-01-01", Slots: []string{"08:00-08:30"}},
		{Date: "2025-02-01", Slots: []string{"08:00-08:30"}},
	})

	var dates []string
	for _, d := range entry.AvailableSlots {
		dates = append(dates, d.Date)
	}
	assert.Equal(t, []string{"2025-01-01", "2025-01-10", "2025-01-12", "2025-02-01"}, dates)
}

func TestRemove(t *testing.T) {
	entries := entriesFixture()

	assert.ErrorIs(t, Remove(entries, "doc-2", "2025-01-10", "09:00-09:30"), ErrDoctorNotOnHospital)
	assert.ErrorIs(t, Remove(entries, "doc-1", "2025-03-01", "09:00-09:30"), ErrNoSlotsForDate)
	assert.ErrorIs(t, Remove(entries, "doc-1", "2025-01-10", "11:00-11:30"), ErrSlotUnavailable)

	require.NoError(t, Remove(entries, "doc-1", "2025-01-10", "09:00-09:30"))
	assert.Equal(t, []string{"09:30-10:00"}, entries[0].AvailableSlots[1].Slots)

	// a second removal of the same label is a conflict
	assert.ErrorIs(t, Remove(entries, "doc-1", "2025-01-10", "09:00-09:30"), ErrSlotUnavailable)
}

func TestRemove_KeepsEmptyDateEntry(t *testing.T) {
	entries := entriesFixture()
	require.NoError(t, Remove(entries, "doc-1", "2025-01-12", "10:00-10:30"))

	assert.Empty(t, entries[0].AvailableSlots[0].Slots)
	assert.ErrorIs(t, Remove(entries, "doc-1", "2025-01-12", "10:00-10:30"), ErrSlotUnavailable)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(entriesFixture()))

	dupDoctor := append(entriesFixture(), entriesFixture()...)
	assert.ErrorIs(t, Validate(dupDoctor), ErrInvalidInventory)

	dupDate := []models.DoctorEntry{{DoctorID: "d", AvailableSlots: []models.DateSlots{
		{Date: "2025-01-10"}, {Date: "2025-01-10"},
	}}}
	assert.ErrorIs(t, Validate(dupDate), ErrInvalidInventory)

	dupLabel := []models.DoctorEntry{{DoctorID: "d", AvailableSlots: []models.DateSlots{
		{Date: "2025-01-10", Slots: []string{"a", "a"}},
	}}}
	assert.ErrorIs(t, Validate(dupLabel), ErrInvalidInventory)

	assert.ErrorIs(t, Validate([]models.DoctorEntry{{DoctorID: " "}}), ErrInvalidInventory)
}

func TestReplace(t *testing.T) {
	h := &models.Hospital{Doctors: entriesFixture()}
	timings := []models.Timing{{From: "08:00", To: "18:00"}}

	require.NoError(t, Replace(h, timings, []models.DoctorEntry{{DoctorID: "doc-5"}}))
	assert.Equal(t, timings, h.Timings)
	require.Len(t, h.Doctors, 1)
	assert.Equal(t, "doc-5", h.Doctors[0].DoctorID)

	err := Replace(h, nil, append(entriesFixture(), entriesFixture()...))
	assert.ErrorIs(t, err, ErrInvalidInventory)
	assert.Equal(t, "doc-5", h.Doctors[0].DoctorID)
}

func TestPruneBefore(t *testing.T) {
	entries := entriesFixture()
	entries[0].AvailableSlots = append(entries[0].AvailableSlots, models.DateSlots{Date: "someday", Slots: []string{"x"}})

	cutoff := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
	pruned, removed := PruneBefore(entries, cutoff)

	assert.Equal(t, 1, removed)
	var dates []string
	for _, d := range pruned[0].AvailableSlots {
		dates = append(dates, d.Date)
	}
	assert.Equal(t, []string{"2025-01-12", "someday"}, dates)
	assert.Len(t, entries[0].AvailableSlots, 3)
}
