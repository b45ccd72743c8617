package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	Port        string
	JWTSecret   string

	// OTP issuance
	OTPTTL      time.Duration
	OTPDigits   int
	OTPWindow   time.Duration
	OTPMaxPerWindow int

	// Device sessions / access tokens
	SessionTTL time.Duration

	// DevMode exposes the raw OTP code in the send-otp response.
	// Never enable in production.
	DevMode bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:            "8080",
		OTPTTL:          300 * time.Second,
		OTPDigits:       6,
		OTPWindow:       600 * time.Second,
		OTPMaxPerWindow: 3,
		SessionTTL:      86400 * time.Second,
	}

	// DATABASE_URL (required)
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.DatabaseURL = databaseURL

	// JWT_SECRET (required); a missing signing secret aborts startup
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	cfg.JWTSecret = jwtSecret

	// PORT (optional, defaults to 8080)
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	var err error
	if cfg.OTPTTL, err = secondsEnv("OTP_TTL_SECONDS", cfg.OTPTTL); err != nil {
		return nil, err
	}
	if cfg.OTPWindow, err = secondsEnv("OTP_WINDOW_SECONDS", cfg.OTPWindow); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = secondsEnv("SESSION_TTL_SECONDS", cfg.SessionTTL); err != nil {
		return nil, err
	}
	if cfg.OTPMaxPerWindow, err = intEnv("OTP_MAX_REQUESTS", cfg.OTPMaxPerWindow); err != nil {
		return nil, err
	}
	if cfg.OTPDigits, err = intEnv("OTP_DIGITS", cfg.OTPDigits); err != nil {
		return nil, err
	}

	cfg.DevMode = os.Getenv("DEV_MODE") == "true"

	return cfg, nil
}

func secondsEnv(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, raw)
	}
	return time.Duration(n) * time.Second, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, raw)
	}
	return n, nil
}
