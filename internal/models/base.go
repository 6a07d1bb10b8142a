package models

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// BaseModel contains common columns for all tables
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// Supported values for DatabaseConfig.Driver.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxRetries   int
	Silent       bool
}

func dialector(config DatabaseConfig) (gorm.Dialector, error) {
	switch config.Driver {
	case DriverMySQL, "":
		return mysql.Open(config.DSN), nil
	case DriverPostgres:
		return postgres.Open(config.DSN), nil
	case DriverSQLite:
		return sqlite.Open(config.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
}

// OpenDB connects to the configured database, retrying with a linear backoff.
func OpenDB(config DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	dial, err := dialector(config)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	}
	if config.Silent {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	attempts := config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var db *gorm.DB
	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(dial, gormConfig)
		if err == nil {
			break
		}
		logger.Warn("failed to connect to database, retrying...",
			zap.String("driver", config.Driver),
			zap.Error(err),
			zap.Int("attempt", i+1))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		return nil, fmt.Errorf("database connection failed after %d attempts: %w", attempts, err)
	}

	if config.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}

	return db, nil
}

// Migrate creates or updates the tables for every model and seeds the
// counters bookings are numbered from.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Hospital{},
		&Doctor{},
		&Patient{},
		&Booking{},
		&Sequence{},
		&ContactMessage{},
	)
	if err != nil {
		return err
	}
	return EnsureSequence(db, BookingSequence)
}

// InitDB opens the database and migrates the schema.
func InitDB(config DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	db, err := OpenDB(config, logger)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}
