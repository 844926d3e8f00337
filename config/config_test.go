package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"courierbot/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVICE_NAME", "LOGGER_LEVEL", "APP_PORT", "TELEGRAM_BOT_TOKEN",
		"ADMIN_ID", "ADMIN_USERNAME", "DATA_FILE", "LOCKS_DIR",
		"ARCHIVE_DAYS", "GROUP_LOG_ROTATE_BYTES",
	} {
		t.Setenv(key, "")
	}

	cfg := config.Load()
	assert.Equal(t, "courierbot", cfg.ServiceName)
	assert.Equal(t, "debug", cfg.LoggerLevel)
	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, int64(0), cfg.AdminID)
	assert.Equal(t, "data.json", cfg.DataFile)
	assert.Equal(t, "locks", cfg.LocksDir)
	assert.Equal(t, 7, cfg.ArchiveDays)
	assert.Equal(t, int64(5*1024*1024), cfg.GroupLogRotateBytes)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVICE_NAME", "dispatch")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("ADMIN_ID", "123456789")
	t.Setenv("DATA_FILE", "/var/lib/bot/data.json")
	t.Setenv("ARCHIVE_DAYS", "30")

	cfg := config.Load()
	assert.Equal(t, "dispatch", cfg.ServiceName)
	assert.Equal(t, 9090, cfg.AppPort)
	assert.Equal(t, int64(123456789), cfg.AdminID)
	assert.Equal(t, "/var/lib/bot/data.json", cfg.DataFile)
	assert.Equal(t, 30, cfg.ArchiveDays)
}

func TestAdminIDStripsShellNoise(t *testing.T) {
	// values pasted from shells sometimes arrive as "$env:123456789"
	t.Setenv("ADMIN_ID", "$env:123456789")
	cfg := config.Load()
	assert.Equal(t, int64(123456789), cfg.AdminID)
}
