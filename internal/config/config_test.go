package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GHUB_MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("GHUB_SMTP_HOST", "smtp.example.com")
	t.Setenv("GHUB_SMTP_USERNAME", "mailer@example.com")
	t.Setenv("GHUB_SMTP_PASSWORD", "app-password")
	t.Setenv("GHUB_AUTH_SESSION_SECRET", "super-secret")
	t.Setenv("GHUB_AUTH_ADMIN_PASSWORD", "hunter2")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	assert.Equal(t, "gaminghub", cfg.Mongo.Database)
	assert.Equal(t, 5*time.Minute, cfg.Auth.CodeTTL)
	assert.Equal(t, "Gaming Hub", cfg.Site.Name)
	assert.Equal(t, "smtp.example.com:587", cfg.SMTP.Addr())
	// From falls back to the SMTP username
	assert.Equal(t, "mailer@example.com", cfg.SMTP.From)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GHUB_SERVER_PORT", "8081")
	t.Setenv("GHUB_SITE_CONTACT_URL", "https://formspree.io/f/abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "https://formspree.io/f/abc", cfg.Site.ContactURL)
}

func TestLoad_MissingRequiredValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GHUB_AUTH_ADMIN_PASSWORD", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
