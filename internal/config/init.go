package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Init loads .env and checks the variables the app cannot run without.
// REDIS_ADDR is deliberately not required: without it the trending
// ranking is disabled and the service runs against the database only.
func Init() {
	if err := godotenv.Load(); err != nil {
		Logger.Info("No .env file found, using system environment variables")
	}

	if os.Getenv("DB_DSN") == "" {
		Logger.Fatal("DB_DSN is not set")
	}

	if os.Getenv("JWT_SECRET") == "" {
		Logger.Fatal("JWT_SECRET is not set")
	}
}
