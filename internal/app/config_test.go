package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, int32(10), cfg.PGMaxConns)
	require.Equal(t, 30*24*time.Hour, cfg.RefundCompletedWindow)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsInvertedPoolBounds(t *testing.T) {
	t.Setenv("PG_MIN_CONNS", "20")
	t.Setenv("PG_MAX_CONNS", "5")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv("KARSA_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv("KARSA_TEST_MODE", "")
	RefreshTestMode()
	require.False(t, InTestMode())
}
