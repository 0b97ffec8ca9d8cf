package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPayMongoBaseURL = "https://api.paymongo.com"
	defaultGatewayTimeout  = 15 * time.Second
	defaultSessionTTL      = 30 * time.Minute
	defaultCORSOrigin      = "http://localhost:3000"
)

type Config struct {
	DBHost            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBPort            string
	AppPort           string
	AppEnv            string
	PayMongoSecretKey string
	PayMongoPublicKey string
	PayMongoBaseURL   string
	PaymentReturnURL  string
	JWTSecret         string
	InternalSecretKey string
	CORSOrigin        string
	GatewayTimeout    time.Duration
	SessionTTL        time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:            os.Getenv("DB_HOST"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		DBPort:            os.Getenv("DB_PORT"),
		AppPort:           os.Getenv("APP_PORT"),
		AppEnv:            os.Getenv("APP_ENV"),
		PayMongoSecretKey: os.Getenv("PAYMONGO_SECRET_KEY"),
		PayMongoPublicKey: os.Getenv("PAYMONGO_PUBLIC_KEY"),
		PayMongoBaseURL:   getEnvDefault("PAYMONGO_BASE_URL", defaultPayMongoBaseURL),
		PaymentReturnURL:  os.Getenv("PAYMENT_RETURN_URL"),
		JWTSecret:         os.Getenv("SECRET_KEY"),
		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),
		CORSOrigin:        getEnvDefault("CORS_ALLOWED_ORIGIN", defaultCORSOrigin),
		GatewayTimeout:    getDuration("GATEWAY_TIMEOUT", defaultGatewayTimeout),
		SessionTTL:        getDuration("SESSION_TTL", defaultSessionTTL),
	}

	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration parses a Go duration string; malformed or non-positive values fall back.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using default %s", key, raw, fallback)
		return fallback
	}
	return d
}
