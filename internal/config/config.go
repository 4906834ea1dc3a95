package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/goalvault/savings-engine/internal/dto"
)

// Schedules holds the cron expression for each independent trigger.
// Defaults mirror the production schedule: rule cadences fire in the early
// morning, one hour apart, with the custom-trigger check running hourly.
type Schedules struct {
	Daily        string
	Weekly       string
	Monthly      string
	Payday       string
	RoundUp      string
	Custom       string
	Progress     string
	WeeklyReport string
}

type Config struct {
	ProjectID        string
	HTTPAddr         string
	LogLevel         string
	PlaidClientID    string
	PlaidSecret      string
	PlaidEnvironment dto.PlaidEnvironment
	KMSKeyName       string
	NATSURL          string
	GatewayTimeout   time.Duration
	Schedules        Schedules
}

func New() *Config {
	// Load .env file if present (local development only).
	_ = godotenv.Load()

	return &Config{
		ProjectID:        os.Getenv("PROJECTID"),
		HTTPAddr:         getEnv("HTTPADDR", ":8080"),
		LogLevel:         getEnv("LOGLEVEL", "info"),
		PlaidClientID:    os.Getenv("PLAIDCLIENTID"),
		PlaidSecret:      os.Getenv("PLAIDSECRET"),
		PlaidEnvironment: getPlaidEnvironment(os.Getenv("PLAIDENVIRONMENT")),
		KMSKeyName:       os.Getenv("KMSKEYNAME"),
		NATSURL:          getEnv("NATSURL", "nats://localhost:4222"),
		GatewayTimeout:   getDuration("GATEWAYTIMEOUT", 30*time.Second),
		Schedules: Schedules{
			Daily:        getEnv("SCHEDULE_DAILY", "0 1 * * *"),
			Weekly:       getEnv("SCHEDULE_WEEKLY", "0 2 * * 1"),
			Monthly:      getEnv("SCHEDULE_MONTHLY", "0 3 1 * *"),
			Payday:       getEnv("SCHEDULE_PAYDAY", "0 4 * * *"),
			RoundUp:      getEnv("SCHEDULE_ROUNDUP", "0 5 * * *"),
			Custom:       getEnv("SCHEDULE_CUSTOM", "0 * * * *"),
			Progress:     getEnv("SCHEDULE_PROGRESS", "0 6 * * *"),
			WeeklyReport: getEnv("SCHEDULE_WEEKLY_REPORT", "0 7 * * 1"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getPlaidEnvironment(env string) dto.PlaidEnvironment {
	switch env {
	case "sandbox":
		return dto.PlaidSandbox
	case "development":
		return dto.PlaidDevelopment
	default: // "production"
		return dto.PlaidProduction
	}
}
