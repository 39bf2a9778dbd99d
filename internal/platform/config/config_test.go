package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Backend.Kind)
	assert.Equal(t, ModeSerialized, cfg.Store.ConcurrencyMode)
	assert.True(t, cfg.Booking.EnforceCapacity)
	assert.False(t, cfg.Booking.ReleaseOnCancel)
	assert.Equal(t, "100", cfg.Booking.DefaultFee)
	assert.Equal(t, 2*time.Second, cfg.Payment.Delay)
	assert.Empty(t, cfg.Audit.KafkaBrokers)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CAREBOOK_BACKEND", "redis")
	t.Setenv("CAREBOOK_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CAREBOOK_CONCURRENCY_MODE", "unguarded")
	t.Setenv("CAREBOOK_ENFORCE_CAPACITY", "false")
	t.Setenv("CAREBOOK_RELEASE_ON_CANCEL", "true")
	t.Setenv("CAREBOOK_PAYMENT_DELAY", "10ms")
	t.Setenv("CAREBOOK_AUDIT_KAFKA_BROKERS", "a:9092, b:9092,")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Backend.Kind)
	assert.Equal(t, ModeUnguarded, cfg.Store.ConcurrencyMode)
	assert.False(t, cfg.Booking.EnforceCapacity)
	assert.True(t, cfg.Booking.ReleaseOnCancel)
	assert.Equal(t, 10*time.Millisecond, cfg.Payment.Delay)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Audit.KafkaBrokers)
}

func TestFromEnv_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"malformed bool":       {"CAREBOOK_ENFORCE_CAPACITY": "maybe"},
		"malformed duration":   {"CAREBOOK_PAYMENT_DELAY": "soon"},
		"unknown backend":      {"CAREBOOK_BACKEND": "sqlite"},
		"redis without url":    {"CAREBOOK_BACKEND": "redis"},
		"unknown mode":         {"CAREBOOK_CONCURRENCY_MODE": "optimistic"},
		"zero retries":         {"CAREBOOK_STORE_MAX_RETRIES": "0"},
		"postgres without dsn": {"CAREBOOK_BACKEND": "postgres"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
