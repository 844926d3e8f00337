package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	AppPort int

	TelegramBotToken string
	AdminID          int64
	AdminUsername    string

	DataFile string
	LocksDir string

	ArchiveDays         int
	GroupLogRotateBytes int64
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "courierbot"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.AppPort = cast.ToInt(getOrReturnDefault("APP_PORT", 8080))

	cfg.TelegramBotToken = cast.ToString(getOrReturnDefault("TELEGRAM_BOT_TOKEN", ""))
	// ADMIN_ID may arrive wrapped in shell noise like "$env:12345"; keep digits only.
	cfg.AdminID = cast.ToInt64(digitsOnly(os.Getenv("ADMIN_ID")))
	cfg.AdminUsername = cast.ToString(getOrReturnDefault("ADMIN_USERNAME", ""))

	cfg.DataFile = cast.ToString(getOrReturnDefault("DATA_FILE", "data.json"))
	cfg.LocksDir = cast.ToString(getOrReturnDefault("LOCKS_DIR", "locks"))

	cfg.ArchiveDays = cast.ToInt(getOrReturnDefault("ARCHIVE_DAYS", 7))
	cfg.GroupLogRotateBytes = cast.ToInt64(getOrReturnDefault("GROUP_LOG_ROTATE_BYTES", 5*1024*1024))

	return cfg
}

func digitsOnly(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
