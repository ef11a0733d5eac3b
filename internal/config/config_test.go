package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("INTELINK_DB_PATH", filepath.Join(dir, "data", "intelink.db"))
	t.Setenv("INTELINK_BACKEND_URL", "")
	t.Setenv("EXPO_PUBLIC_BACKEND_URL", "")
	t.Setenv("INTELINK_REQUEST_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.DirExists(t, filepath.Join(dir, "data"))
}

func TestLoadBackendURLFallsBackToExpoVariable(t *testing.T) {
	t.Setenv("INTELINK_DB_PATH", filepath.Join(t.TempDir(), "intelink.db"))
	t.Setenv("INTELINK_BACKEND_URL", "")
	t.Setenv("EXPO_PUBLIC_BACKEND_URL", "https://api.intelink.example/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.intelink.example", cfg.BackendURL)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("INTELINK_DB_PATH", filepath.Join(t.TempDir(), "intelink.db"))
	t.Setenv("INTELINK_REQUEST_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("INTELINK_REQUEST_TIMEOUT", "-1s")
	_, err = Load()
	assert.Error(t, err)
}

func TestGetBool(t *testing.T) {
	t.Setenv("INTELINK_DEBUG", "true")
	assert.True(t, getBool("INTELINK_DEBUG", false))

	t.Setenv("INTELINK_DEBUG", "nope")
	assert.False(t, getBool("INTELINK_DEBUG", false))
}
