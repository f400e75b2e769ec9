package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "5000", cfg.AppPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 10*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, time.Hour, cfg.ReminderInterval)
	assert.True(t, cfg.RequireVerifiedSignup)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.Equal(t, "pending_verifications", cfg.DynamoTables.PendingVerifications)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("REQUIRE_VERIFIED_SIGNUP", "false")
	t.Setenv("NOTIFY_WORKERS", "4")
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	t.Setenv("FRONTEND_URL", "https://fest.example.com/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.com,https://b.com")

	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.False(t, cfg.RequireVerifiedSignup)
	assert.Equal(t, 4, cfg.NotifyWorkers)
	assert.True(t, cfg.TrustProxyHeaders)
	assert.Equal(t, "https://fest.example.com", cfg.FrontendURL)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "tomorrow")
	t.Setenv("NOTIFY_QUEUE_SIZE", "lots")
	t.Setenv("SMS_REMINDERS_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 256, cfg.NotifyQueueSize)
	assert.False(t, cfg.SMSRemindersEnabled)
}
