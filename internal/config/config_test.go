package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("FCS_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "FCS Record API", cfg.AppName)
	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, "admin", cfg.BootstrapAdminKey)
	require.Equal(t, "unlock", cfg.BootstrapUnlockKey)
	require.Equal(t, 5*time.Minute, cfg.TrendCacheTTL)
	require.Equal(t, 2*time.Second, cfg.UnlockDeniedWindow)
	require.Equal(t, "SYS-001", cfg.SeedStudentID)
	require.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("FCS_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("FCS_JWT_SECRET", "test-secret")
	t.Setenv("FCS_APP_PORT", ":9000")
	t.Setenv("FCS_TREND_CACHE_TTL", "90s")
	t.Setenv("FCS_UNLOCK_DENIED_WINDOW", "5s")
	t.Setenv("FCS_BOOTSTRAP_ADMIN_KEY", "first-run")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.HTTPAddress())
	require.Equal(t, 90*time.Second, cfg.TrendCacheTTL)
	require.Equal(t, 5*time.Second, cfg.UnlockDeniedWindow)
	require.Equal(t, "first-run", cfg.BootstrapAdminKey)
}

func TestLoadRejectsMalformedDurations(t *testing.T) {
	t.Setenv("FCS_JWT_SECRET", "test-secret")
	t.Setenv("FCS_TREND_CACHE_TTL", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
}
