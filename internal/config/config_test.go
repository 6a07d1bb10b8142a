package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "root:@tcp(localhost:3306)/healthcare?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.DSN)
	assert.False(t, cfg.AuthRequired)
	assert.Equal(t, "0 2 * * *", cfg.SlotPruneSchedule)
	assert.Equal(t, time.Hour, cfg.TokenTTL())
	assert.Equal(t, time.Minute, cfg.CacheTTL())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USERNAME", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("BOOKING_MAX_RETRIES", "7")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=healthcare sslmode=disable", cfg.Database.DSN)
	assert.True(t, cfg.AuthRequired)
	assert.Equal(t, 7, cfg.BookingMaxRetries)
	assert.InDelta(t, 0.25, cfg.OTelSamplingRatio, 1e-9)
}

func TestLoadConfig_DatabaseURLWins(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:dev.db")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "file:dev.db", cfg.Database.DSN)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "oracle"}},
		{"zero retries", map[string]string{"BOOKING_MAX_RETRIES": "0"}},
		{"sampling ratio above one", map[string]string{"OTEL_SAMPLING_RATIO": "2"}},
		{"default secret in production", map[string]string{"ENV": "production"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
