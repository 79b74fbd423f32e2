package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 5, cfg.OutreachConcurrency)
	assert.Equal(t, 15*time.Second, cfg.OutreachTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_ENVIRONMENT", "production")
	t.Setenv("OUTREACH_CONCURRENCY", "12")
	t.Setenv("OUTREACH_TIMEOUT", "3s")
	t.Setenv("FEATURE_CRON_JOBS", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 12, cfg.OutreachConcurrency)
	assert.Equal(t, 3*time.Second, cfg.OutreachTimeout)
	assert.False(t, cfg.FeatureCronJobs)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_EXPIRATION_HOURS", "forever")
	t.Setenv("AI_TIMEOUT", "soon")
	t.Setenv("FEATURE_CRON_JOBS", "maybe")

	cfg := Load()

	assert.Equal(t, 24, cfg.JWTExpirationHours)
	assert.Equal(t, 30*time.Second, cfg.AITimeout)
	assert.True(t, cfg.FeatureCronJobs)
}
