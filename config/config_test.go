package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlistlottery/internal/domain"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv("development", envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.LotteryTimeout)
	assert.Equal(t, domain.RanCheckCurrentInvited, cfg.RanCheck)
	assert.False(t, cfg.PoolZeroLimitUnlimited)
	assert.Empty(t, cfg.SeedEvents)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestFromEnv_Values(t *testing.T) {
	cfg, err := FromEnv("production", envMap(map[string]string{
		"PORT":                      "9000",
		"DATABASE_URL":              "postgres://localhost/waitlist",
		"JWT_SECRET":                "s3cret",
		"LOTTERY_TIMEOUT":           "3s",
		"LOG_LEVEL":                 "debug",
		"LOTTERY_RAN_CHECK":         "persisted_flag",
		"POOL_ZERO_LIMIT_UNLIMITED": "true",
		"CORS_ALLOWED_ORIGINS":      "https://a.example.com, https://b.example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 3*time.Second, cfg.LotteryTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, domain.RanCheckPersistedFlag, cfg.RanCheck)
	assert.True(t, cfg.PoolZeroLimitUnlimited)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		vars    map[string]string
		wantMsg []string
	}{
		{name: "unknown driver", vars: map[string]string{"STORE_DRIVER": "redis"}, wantMsg: []string{"STORE_DRIVER"}},
		{name: "postgres without url", vars: map[string]string{"STORE_DRIVER": "postgres"}, wantMsg: []string{"DATABASE_URL"}},
		{name: "production without secret", env: "production", wantMsg: []string{"JWT_SECRET"}},
		{name: "bad timeout", vars: map[string]string{"LOTTERY_TIMEOUT": "soon"}, wantMsg: []string{"LOTTERY_TIMEOUT"}},
		{name: "negative timeout", vars: map[string]string{"REQUEST_TIMEOUT": "-1s"}, wantMsg: []string{"REQUEST_TIMEOUT"}},
		{name: "bad log level", vars: map[string]string{"LOG_LEVEL": "chatty"}, wantMsg: []string{"LOG_LEVEL"}},
		{name: "bad ran check", vars: map[string]string{"LOTTERY_RAN_CHECK": "always"}, wantMsg: []string{"LOTTERY_RAN_CHECK"}},
		{name: "bad bool", vars: map[string]string{"POOL_ZERO_LIMIT_UNLIMITED": "maybe"}, wantMsg: []string{"POOL_ZERO_LIMIT_UNLIMITED"}},
		{
			name:    "all errors reported",
			vars:    map[string]string{"STORE_DRIVER": "redis", "SEED_EVENTS": "broken", "LOG_LEVEL": "loud"},
			wantMsg: []string{"STORE_DRIVER", "SEED_EVENTS", "LOG_LEVEL"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := tt.env
			if env == "" {
				env = "development"
			}
			_, err := FromEnv(env, envMap(tt.vars))
			require.Error(t, err)
			for _, msg := range tt.wantMsg {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestParseSeedEvents(t *testing.T) {
	got, err := ParseSeedEvents("ev-1=org-1:10, ev-2=org-2")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ev-1", got[0].ID)
	assert.Equal(t, "org-1", got[0].OrganizerID)
	require.NotNil(t, got[0].EntrantLimit)
	assert.Equal(t, 10, *got[0].EntrantLimit)
	assert.Nil(t, got[1].EntrantLimit)

	for _, bad := range []string{"ev-1", "=org", "ev-1=", "ev-1=org:-2", "ev-1=org:x"} {
		_, err := ParseSeedEvents(bad)
		assert.Error(t, err, bad)
	}

	empty, err := ParseSeedEvents("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown", "event_id", "ev-1")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"event_id":"ev-1"`)

	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}
