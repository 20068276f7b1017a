package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "PUBLIC_ORIGIN", "STORE_DRIVER", "KAFKA_BROKERS", "CORS_ORIGINS", "RATE_WINDOW", "MAX_UPLOAD_MB", "CAPTURE_HEADLESS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, ":8001", cfg.HTTPAddr)
	assert.Equal(t, "http://localhost:8001", cfg.PublicOrigin)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.True(t, cfg.CaptureHeadless)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PUBLIC_ORIGIN", "https://cards.example/")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RATE_WINDOW", "30s")
	t.Setenv("CAPTURE_HEADLESS", "false")

	cfg := Load()
	assert.Equal(t, "https://cards.example", cfg.PublicOrigin)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.RateWindow)
	assert.False(t, cfg.CaptureHeadless)
}

func TestOpenSQLiteFile(t *testing.T) {
	db, err := OpenSQLite(t.TempDir() + "/nested/profiles.db")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping())
}
