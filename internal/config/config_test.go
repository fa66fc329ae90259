package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryBackendDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env here
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("ATTENDANCE_BACKEND", "memory")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, BackendMemory, cfg.Attendance.Backend)
	assert.Equal(t, 5*time.Second, cfg.Attendance.StorageTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.App.AllowedOrigins)
	assert.Equal(t, "http://localhost:8080/uploads", cfg.Storage.BaseURL)
}

func TestLoad_PostgresRequiresPassword(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("ATTENDANCE_BACKEND", "postgres")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_PASSWORD")
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("ATTENDANCE_BACKEND", "memory")
	t.Setenv("ATTENDANCE_STORAGE_TIMEOUT", "forever")

	_, err := Load()
	assert.ErrorContains(t, err, "ATTENDANCE_STORAGE_TIMEOUT")
}

func TestDatabaseURLAndLogLevel(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "n", SSLMode: "disable"},
		App:      AppConfig{LogLevel: "DEBUG"},
	}
	assert.Equal(t, "postgres://u:p@db:5433/n?sslmode=disable", cfg.DatabaseURL())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	cfg.App.LogLevel = "verbose"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
