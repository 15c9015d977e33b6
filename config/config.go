package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"waitlistlottery/internal/domain"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const devJWTSecret = "dev-secret-change-me"

// SeedEvent is an event created at startup in whichever store is configured.
type SeedEvent struct {
	ID           string
	OrganizerID  string
	EntrantLimit *int
}

// Config holds all configuration for the application
type Config struct {
	Environment string
	LogLevel    slog.Level
	Port        string
	DBUrl       string
	StoreDriver string

	JWTSecret string
	JWTIssuer string

	// RequestTimeout bounds entrant and event service calls.
	RequestTimeout time.Duration
	// LotteryTimeout bounds one allocation run, reads and commit included.
	LotteryTimeout         time.Duration
	RanCheck               domain.RanCheck
	PoolZeroLimitUnlimited bool

	CORSAllowedOrigins []string
	SeedEvents         []SeedEvent
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// In production the environment is the only source.
	if env != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}
	return FromEnv(env, os.Getenv)
}

// FromEnv builds a Config from getenv. Every invalid value is reported, not just the first.
func FromEnv(env string, getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Environment: env,
		Port:        getenv("PORT"),
		DBUrl:       getenv("DATABASE_URL"),
		StoreDriver: strings.ToLower(strings.TrimSpace(getenv("STORE_DRIVER"))),
		JWTSecret:   getenv("JWT_SECRET"),
		JWTIssuer:   getenv("JWT_ISSUER"),
	}
	var errs []error

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "waitlistlottery"
	}

	switch cfg.StoreDriver {
	case "":
		cfg.StoreDriver = DriverMemory
		if cfg.DBUrl != "" {
			cfg.StoreDriver = DriverPostgres
		}
	case DriverMemory:
	case DriverPostgres:
		if cfg.DBUrl == "" {
			errs = append(errs, errors.New("STORE_DRIVER=postgres requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver))
	}

	if cfg.JWTSecret == "" {
		if env == "production" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
		cfg.JWTSecret = devJWTSecret
	}

	var err error
	if cfg.RequestTimeout, err = durationOr(getenv("REQUEST_TIMEOUT"), 5*time.Second); err != nil {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT: %w", err))
	}
	if cfg.LotteryTimeout, err = durationOr(getenv("LOTTERY_TIMEOUT"), 10*time.Second); err != nil {
		errs = append(errs, fmt.Errorf("LOTTERY_TIMEOUT: %w", err))
	}
	if cfg.LogLevel, err = ParseLevel(getenv("LOG_LEVEL")); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if cfg.RanCheck, err = domain.ParseRanCheck(getenv("LOTTERY_RAN_CHECK")); err != nil {
		errs = append(errs, fmt.Errorf("LOTTERY_RAN_CHECK: %w", err))
	}
	if v := getenv("POOL_ZERO_LIMIT_UNLIMITED"); v != "" {
		if cfg.PoolZeroLimitUnlimited, err = strconv.ParseBool(v); err != nil {
			errs = append(errs, fmt.Errorf("POOL_ZERO_LIMIT_UNLIMITED: %w", err))
		}
	}

	cfg.CORSAllowedOrigins = splitList(getenv("CORS_ALLOWED_ORIGINS"))
	if cfg.SeedEvents, err = ParseSeedEvents(getenv("SEED_EVENTS")); err != nil {
		errs = append(errs, fmt.Errorf("SEED_EVENTS: %w", err))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func durationOr(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseSeedEvents parses a comma-separated list of eventID=organizerID[:limit].
func ParseSeedEvents(s string) ([]SeedEvent, error) {
	var out []SeedEvent
	for _, item := range splitList(s) {
		id, rest, ok := strings.Cut(item, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("%q: want eventID=organizerID[:limit]", item)
		}
		organizer, limitStr, hasLimit := strings.Cut(rest, ":")
		organizer = strings.TrimSpace(organizer)
		if organizer == "" {
			return nil, fmt.Errorf("%q: organizer is required", item)
		}
		ev := SeedEvent{ID: id, OrganizerID: organizer}
		if hasLimit {
			n, err := strconv.Atoi(strings.TrimSpace(limitStr))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%q: limit must be a non-negative integer", item)
			}
			ev.EntrantLimit = &n
		}
		out = append(out, ev)
	}
	return out, nil
}
