// Package testutil builds throwaway dependencies for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-booking-server/internal/models"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
// A single connection is used so transactions serialise like row locks would.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := models.InitDB(models.DatabaseConfig{
		Driver:       models.DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
		Silent:       true,
	}, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedHospital stores a hospital with the given doctor entries.
func SeedHospital(t *testing.T, db *gorm.DB, doctors ...models.DoctorEntry) *models.Hospital {
	t.Helper()

	h := &models.Hospital{
		HospitalName: "City Care",
		Email:        uuid.NewString() + "@hospital.test",
		State:        "Karnataka",
		District:     "Mysuru",
		Timings:      []models.Timing{{From: "09:00", To: "17:00"}},
		Doctors:      doctors,
		Version:      1,
	}
	require.NoError(t, h.SetPassword("Secret#123"))
	require.NoError(t, db.Create(h).Error)
	return h
}

// SeedDoctor stores a doctor registered under hospitalID.
func SeedDoctor(t *testing.T, db *gorm.DB, hospitalID, name string) *models.Doctor {
	t.Helper()

	d := &models.Doctor{
		Name:           name,
		Email:          uuid.NewString() + "@doctor.test",
		HospitalID:     hospitalID,
		Specialization: "Cardiology",
	}
	require.NoError(t, d.SetPassword("Secret#123"))
	require.NoError(t, db.Create(d).Error)
	return d
}

// SeedPatient stores a patient.
func SeedPatient(t *testing.T, db *gorm.DB, name string) *models.Patient {
	t.Helper()

	p := &models.Patient{
		Name:  name,
		Email: uuid.NewString() + "@patient.test",
	}
	require.NoError(t, p.SetPassword("Secret#123"))
	require.NoError(t, db.Create(p).Error)
	return p
}

// LoseVersionRaces makes the next n hospital saves on db miss their version
// check, as if another writer had committed first. The returned counter
// reports how many saves were made to lose.
func LoseVersionRaces(t *testing.T, db *gorm.DB, n int32) *atomic.Int32 {
	t.Helper()

	const name = "testutil:lose_version_race"
	lost := &atomic.Int32{}
	err := db.Callback().Update().Before("gorm:update").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != "hospitals" || lost.Load() >= n {
			return
		}
		lost.Add(1)
		// Runs on the caller's transaction, so the bump rolls back with it.
		if err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE hospitals SET version = version + 1").Error; err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Callback().Update().Remove(name) })
	return lost
}
