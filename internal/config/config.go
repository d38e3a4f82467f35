package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port string
	// DatabaseURL selects the Postgres directory when set; otherwise data lives in memory.
	DatabaseURL string
	OTPSalt     string
	// OTPDevMode echoes issued codes in the send-otp response.
	OTPDevMode        bool
	SignupRequiresOTP bool
	SeedDemo          bool
	StoryTTL          time.Duration

	CORSOrigins       []string
	CookieSecure      bool
	SessionCookieName string

	WSInsecureSkipVerify bool
	SweepInterval        time.Duration

	// Per-IP limits over RateLimitWindow.
	OTPIPLimit      int
	VerifyIPLimit   int
	RateLimitWindow time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              "8080",
		SignupRequiresOTP: true,
		StoryTTL:          24 * time.Hour,
		CORSOrigins:       []string{"*"},
		SessionCookieName: "bizchat_session",
		SweepInterval:     10 * time.Minute,
		OTPIPLimit:        10,
		VerifyIPLimit:     20,
		RateLimitWindow:   10 * time.Minute,
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	// Load OTP_SALT (required)
	cfg.OTPSalt = os.Getenv("OTP_SALT")
	if cfg.OTPSalt == "" {
		return nil, fmt.Errorf("OTP_SALT environment variable is required")
	}

	var err error
	if cfg.OTPDevMode, err = envBool("OTP_DEV_MODE", false); err != nil {
		return nil, err
	}
	if cfg.SignupRequiresOTP, err = envBool("SIGNUP_REQUIRES_OTP", cfg.SignupRequiresOTP); err != nil {
		return nil, err
	}
	if cfg.SeedDemo, err = envBool("SEED_DEMO", false); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = envBool("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.WSInsecureSkipVerify, err = envBool("WS_INSECURE_SKIP_VERIFY", false); err != nil {
		return nil, err
	}
	if cfg.StoryTTL, err = envDuration("STORY_TTL", cfg.StoryTTL); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = envDuration("SWEEP_INTERVAL", cfg.SweepInterval); err != nil {
		return nil, err
	}
	if cfg.OTPIPLimit, err = envInt("OTP_IP_LIMIT", cfg.OTPIPLimit); err != nil {
		return nil, err
	}
	if cfg.VerifyIPLimit, err = envInt("VERIFY_IP_LIMIT", cfg.VerifyIPLimit); err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(os.Getenv("SESSION_COOKIE_NAME")); name != "" {
		cfg.SessionCookieName = name
	}
	if origins := splitList(os.Getenv("CORS_ORIGIN")); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}

	return cfg, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: invalid positive integer %q", key, v)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
