package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-booking-server/internal/inventory"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/testutil"
)

const (
	slotDate  = "2025-01-10"
	slotLabel = "09:00-09:30"
)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	store    *inventory.Store
	hospital *models.Hospital
	doctor   *models.Doctor
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := testutil.NewDB(t)
	hospital := testutil.SeedHospital(t, db)
	doctor := testutil.SeedDoctor(t, db, hospital.ID, "Dr. Rao")

	store := inventory.NewStore(db, zap.NewNop(), 3)
	_, err := store.Update(context.Background(), hospital.ID, func(h *models.Hospital) error {
		h.Doctors, _ = inventory.Merge(h.Doctors, doctor.ID, []models.DateSlots{
			{Date: slotDate, Slots: []string{slotLabel, "09:30-10:00"}},
		})
		return nil
	})
	require.NoError(t, err)

	svc := NewService(db, store, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC) }
	return fixture{db: db, svc: svc, store: store, hospital: hospital, doctor: doctor}
}

func (f fixture) request(patientID string) BookSlotRequest {
	return BookSlotRequest{
		PatientID:  patientID,
		HospitalID: f.hospital.ID,
		DoctorID:   f.doctor.ID,
		Date:       slotDate,
		Slot:       slotLabel,
	}
}

func (f fixture) bookingCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Booking{}).Count(&n).Error)
	return n
}

func (f fixture) freeSlots(t *testing.T) []string {
	t.Helper()
	h, err := f.store.Load(context.Background(), f.hospital.ID)
	require.NoError(t, err)
	idx := inventory.Find(h.Doctors, f.doctor.ID)
	require.NotEqual(t, -1, idx)
	return h.Doctors[idx].AvailableSlots[0].Slots
}

func TestBookSlot_SecondPatientFindsSlotTaken(t *testing.T) {
	f := newFixture(t)
	p := testutil.SeedPatient(t, f.db, "P")
	q := testutil.SeedPatient(t, f.db, "Q")

	booking, err := f.svc.BookSlot(context.Background(), f.request(p.ID))
	require.NoError(t, err)
	assert.Equal(t, p.ID, booking.PatientID)
	assert.Equal(t, f.hospital.ID, booking.HospitalID)
	assert.Equal(t, f.doctor.ID, booking.DoctorID)
	assert.Equal(t, slotDate, booking.Date)
	assert.Equal(t, slotLabel, booking.Slot)
	assert.Equal(t, int64(1), booking.BookingNumber)
	assert.NotEmpty(t, booking.ID)

	assert.Equal(t, []string{"09:30-10:00"}, f.freeSlots(t))

	_, err = f.svc.BookSlot(context.Background(), f.request(q.ID))
	assert.ErrorIs(t, err, inventory.ErrSlotUnavailable)
	assert.Equal(t, int64(1), f.bookingCount(t))
}

func TestBookSlot_NumbersBookingsInOrder(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.BookSlot(context.Background(), f.request("p-1"))
	require.NoError(t, err)

	req := f.request("p-2")
	req.Slot = "09:30-10:00"
	second, err := f.svc.BookSlot(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.BookingNumber+1, second.BookingNumber)
}

func TestBookSlot_Failures(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(r *BookSlotRequest)
		want   error
	}{
		{"missing patient", func(r *BookSlotRequest) { r.PatientID = "" }, ErrMissingFields},
		{"blank slot", func(r *BookSlotRequest) { r.Slot = "  " }, ErrMissingFields},
		{"unknown hospital", func(r *BookSlotRequest) { r.HospitalID = "missing" }, inventory.ErrHospitalNotFound},
		{"doctor not on hospital", func(r *BookSlotRequest) { r.DoctorID = "someone-else" }, inventory.ErrDoctorNotOnHospital},
		{"no date entry", func(r *BookSlotRequest) { r.Date = "2025-02-01" }, inventory.ErrNoSlotsForDate},
		{"unknown slot", func(r *BookSlotRequest) { r.Slot = "23:00-23:30" }, inventory.ErrSlotUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request("p-1")
			tt.mutate(&req)

			booking, err := f.svc.BookSlot(context.Background(), req)
			assert.Nil(t, booking)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Zero(t, f.bookingCount(t))
	assert.Equal(t, []string{slotLabel, "09:30-10:00"}, f.freeSlots(t))
}

func TestBookSlot_SlotSurvivesFailedBookingInsert(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Migrator().DropTable(&models.Booking{}))

	_, err := f.svc.BookSlot(context.Background(), f.request("p-1"))
	require.Error(t, err)

	assert.Equal(t, []string{slotLabel, "09:30-10:00"}, f.freeSlots(t))
}

// Concurrent requests for one slot: exactly one wins, the rest see the slot gone.
// testutil.NewDB has a single connection, so the transactions run one after
// another here; lost version checks are covered by the LoseVersionRaces tests.
func TestBookSlot_ConcurrentRequestsForSameSlot(t *testing.T) {
	f := newFixture(t)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.BookSlot(context.Background(), f.request("p"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, inventory.ErrSlotUnavailable):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, int64(1), f.bookingCount(t))
}

func TestBookSlot_RetriesAfterLostVersionCheck(t *testing.T) {
	f := newFixture(t)
	lost := testutil.LoseVersionRaces(t, f.db, 2)

	booking, err := f.svc.BookSlot(context.Background(), f.request("p-1"))
	require.NoError(t, err)

	assert.Equal(t, int32(2), lost.Load())
	assert.Equal(t, int64(1), booking.BookingNumber)
	assert.Equal(t, int64(1), f.bookingCount(t))
	assert.Equal(t, []string{"09:30-10:00"}, f.freeSlots(t))
}

func TestBookSlot_BusyWhenEveryAttemptLoses(t *testing.T) {
	f := newFixture(t)
	lost := testutil.LoseVersionRaces(t, f.db, 3)

	booking, err := f.svc.BookSlot(context.Background(), f.request("p-1"))
	assert.Nil(t, booking)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, int32(3), lost.Load())
	assert.Zero(t, f.bookingCount(t))
	assert.Equal(t, []string{slotLabel, "09:30-10:00"}, f.freeSlots(t))

	// Nothing from the failed attempts was kept, including the booking number.
	booking, err = f.svc.BookSlot(context.Background(), f.request("p-1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), booking.BookingNumber)
}

func TestAppointments(t *testing.T) {
	f := newFixture(t)
	p := testutil.SeedPatient(t, f.db, "Asha")

	_, err := f.svc.BookSlot(context.Background(), f.request(p.ID))
	require.NoError(t, err)

	list, err := f.svc.Appointments(context.Background(), f.doctor.ID, slotDate)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Patient)
	assert.Equal(t, "Asha", list[0].Patient.Name)

	none, err := f.svc.Appointments(context.Background(), f.doctor.ID, "2030-01-01")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.Appointments(context.Background(), "", slotDate)
	assert.ErrorIs(t, err, ErrMissingFields)
}
