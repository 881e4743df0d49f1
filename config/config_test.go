package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 6*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 2*time.Second, cfg.ItemDelay)
	assert.Equal(t, 20*time.Second, cfg.NavTimeout)
	assert.Equal(t, 7*time.Second, cfg.SelectorTimeout)
	assert.True(t, cfg.Headless)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REFRESH_INTERVAL_HOURS", "12")
	t.Setenv("ITEM_DELAY_SECONDS", "5")
	t.Setenv("HEADLESS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 12*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Second, cfg.ItemDelay)
	assert.False(t, cfg.Headless)
}

func TestLoadRejectsSelectorTimeoutAtOrAboveNavTimeout(t *testing.T) {
	t.Setenv("NAV_TIMEOUT_SECONDS", "20")
	t.Setenv("SELECTOR_TIMEOUT_SECONDS", "30")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "selector timeout")
}
