// Package inventory maintains the per-doctor slot lists embedded in a hospital.
//
// The list operations in this file work on in-memory values only; Store
// persists them and guards them against concurrent writers.
package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"healthcare-booking-server/internal/models"
)

// DateLayout is the layout slot dates are compared with when they parse.
const DateLayout = "2006-01-02"

var (
	ErrDoctorNotOnHospital = errors.New("doctor not found in this hospital")
	ErrNoSlotsForDate      = errors.New("no slots available for this date")
	ErrSlotUnavailable     = errors.New("slot not available or already booked")
	ErrInvalidInventory    = errors.New("invalid doctor slot inventory")
)

// Find returns the index of the doctor's entry, or -1.
func Find(entries []models.DoctorEntry, doctorID string) int {
	for i := range entries {
		if entries[i].DoctorID == doctorID {
			return i
		}
	}
	return -1
}

func findDate(dates []models.DateSlots, date string) int {
	for i := range dates {
		if dates[i].Date == date {
			return i
		}
	}
	return -1
}

func contains(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// Merge adds incoming date/slot pairs to the doctor's entry, creating the entry
// when the doctor has none. Labels already present are skipped and existing
// labels are never dropped. Date-entries end up sorted by date ascending.
// The input slice is left untouched; the updated list and the doctor's merged
// entry are returned.
func Merge(entries []models.DoctorEntry, doctorID string, incoming []models.DateSlots) ([]models.DoctorEntry, models.DoctorEntry) {
	updated := Clone(entries)

	idx := Find(updated, doctorID)
	if idx == -1 {
		updated = append(updated, models.DoctorEntry{DoctorID: doctorID, AvailableSlots: []models.DateSlots{}})
		idx = len(updated) - 1
	}

	dates := updated[idx].AvailableSlots
	for _, in := range incoming {
		d := findDate(dates, in.Date)
		if d == -1 {
			dates = append(dates, models.DateSlots{Date: in.Date, Slots: []string{}})
			d = len(dates) - 1
		}
		for _, label := range in.Slots {
			if !contains(dates[d].Slots, label) {
				dates[d].Slots = append(dates[d].Slots, label)
			}
		}
	}
	SortDates(dates)
	updated[idx].AvailableSlots = dates

	return updated, updated[idx]
}

// Remove takes exactly one occurrence of slot out of the doctor's list for date.
// It edits entries in place.
func Remove(entries []models.DoctorEntry, doctorID, date, slot string) error {
	idx := Find(entries, doctorID)
	if idx == -1 {
		return ErrDoctorNotOnHospital
	}
	dates := entries[idx].AvailableSlots
	d := findDate(dates, date)
	if d == -1 {
		return ErrNoSlotsForDate
	}
	labels := dates[d].Slots
	for i, l := range labels {
		if l == slot {
			dates[d].Slots = append(labels[:i:i], labels[i+1:]...)
			return nil
		}
	}
	return ErrSlotUnavailable
}

// Replace overwrites the hospital's timings and doctor entries wholesale.
func Replace(h *models.Hospital, timings []models.Timing, doctors []models.DoctorEntry) error {
	if err := Validate(doctors); err != nil {
		return err
	}
	h.Timings = timings
	h.Doctors = Clone(doctors)
	for i := range h.Doctors {
		SortDates(h.Doctors[i].AvailableSlots)
	}
	return nil
}

// Validate checks the per-hospital invariants: one entry per doctor, one
// date-entry per date, unique labels within a date.
func Validate(entries []models.DoctorEntry) error {
	doctors := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.DoctorID) == "" {
			return fmt.Errorf("%w: doctor reference is required", ErrInvalidInventory)
		}
		if _, dup := doctors[e.DoctorID]; dup {
			return fmt.Errorf("%w: doctor %s listed twice", ErrInvalidInventory, e.DoctorID)
		}
		doctors[e.DoctorID] = struct{}{}

		dates := make(map[string]struct{}, len(e.AvailableSlots))
		for _, d := range e.AvailableSlots {
			if strings.TrimSpace(d.Date) == "" {
				return fmt.Errorf("%w: date is required", ErrInvalidInventory)
			}
			if _, dup := dates[d.Date]; dup {
				return fmt.Errorf("%w: date %s listed twice for doctor %s", ErrInvalidInventory, d.Date, e.DoctorID)
			}
			dates[d.Date] = struct{}{}

			labels := make(map[string]struct{}, len(d.Slots))
			for _, l := range d.Slots {
				if _, dup := labels[l]; dup {
					return fmt.Errorf("%w: slot %q listed twice on %s", ErrInvalidInventory, l, d.Date)
				}
				labels[l] = struct{}{}
			}
		}
	}
	return nil
}

// PruneBefore drops every date-entry dated strictly before cutoff. Dates that
// do not parse are kept. It returns the new list and the number of date-entries
// removed.
func PruneBefore(entries []models.DoctorEntry, cutoff time.Time) ([]models.DoctorEntry, int) {
	updated := Clone(entries)
	removed := 0
	for i := range updated {
		kept := updated[i].AvailableSlots[:0]
		for _, d := range updated[i].AvailableSlots {
			t, err := time.Parse(DateLayout, d.Date)
			if err == nil && t.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, d)
		}
		updated[i].AvailableSlots = kept
	}
	return updated, removed
}

// SortDates orders date-entries by calendar date, falling back to string order
// for dates that do not parse.
func SortDates(dates []models.DateSlots) {
	sort.SliceStable(dates, func(i, j int) bool {
		a, errA := time.Parse(DateLayout, dates[i].Date)
		b, errB := time.Parse(DateLayout, dates[j].Date)
		if errA == nil && errB == nil {
			return a.Before(b)
		}
		return dates[i].Date < dates[j].Date
	})
}

// Clone deep-copies a doctor entry list.
func Clone(entries []models.DoctorEntry) []models.DoctorEntry {
	if entries == nil {
		return nil
	}
	out := make([]models.DoctorEntry, len(entries))
	for i, e := range entries {
		out[i].DoctorID = e.DoctorID
		out[i].AvailableSlots = make([]models.DateSlots, len(e.AvailableSlots))
		for j, d := range e.AvailableSlots {
			out[i].AvailableSlots[j] = models.DateSlots{
				Date:  d.Date,
				Slots: append([]string{}, d.Slots...),
			}
		}
	}
	return out
}
