package models

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingSequence numbers bookings.
const BookingSequence = "booking"

// Sequence is a named counter incremented inside the transaction that consumes it.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null"`
}

// EnsureSequence creates the counter row if it does not exist yet.
func EnsureSequence(db *gorm.DB, name string) error {
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&Sequence{Name: name}).Error
	if err != nil {
		return fmt.Errorf("ensure sequence %s: %w", name, err)
	}
	return nil
}

// NextSequenceValue increments the named counter and returns the new value.
// The increment takes a row lock, so concurrent callers in separate
// transactions receive distinct values.
func NextSequenceValue(tx *gorm.DB, name string) (int64, error) {
	res := tx.Model(&Sequence{}).
		Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("value + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("increment sequence %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("sequence %s is missing", name)
	}

	var seq Sequence
	if err := tx.First(&seq, "name = ?", name).Error; err != nil {
		return 0, fmt.Errorf("read sequence %s: %w", name, err)
	}
	return seq.Value, nil
}
