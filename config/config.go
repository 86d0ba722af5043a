package config

import (
	"os"
	"strconv"
	"time"
)

// Config gathers every environment-driven setting so the wiring in main can
// pass values explicitly instead of reading ambient state.
type Config struct {
	Port      string
	JWTSecret string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	CalendarBaseURL  string
	CalendarToken    string
	DirectoryBaseURL string
	DirectoryToken   string

	// VAPID key material for Web Push, injected into the notification
	// scheduler at construction.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string

	NotifyLead time.Duration
	Timezone   *time.Location
}

func Load() Config {
	cfg := Config{
		Port:      getenv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "roomly"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getenv("DB_NAME", "roomly"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),

		CalendarBaseURL:  getenv("CALENDAR_BASE_URL", "https://calendar.example.com"),
		CalendarToken:    os.Getenv("CALENDAR_TOKEN"),
		DirectoryBaseURL: getenv("DIRECTORY_BASE_URL", "https://directory.example.com"),
		DirectoryToken:   os.Getenv("DIRECTORY_TOKEN"),

		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubscriber: getenv("VAPID_SUBSCRIBER", "mailto:ops@roomly.app"),
	}

	leadMinutes := 5
	if v := os.Getenv("NOTIFY_LEAD_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			leadMinutes = n
		}
	}
	cfg.NotifyLead = time.Duration(leadMinutes) * time.Minute

	cfg.Timezone = time.Local
	if tz := os.Getenv("BOOKING_TIMEZONE"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			cfg.Timezone = loc
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
