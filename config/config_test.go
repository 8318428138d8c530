package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.False(t, cfg.UseSQLServer)
	assert.Equal(t, "data/demo.db", cfg.SQLiteDBPath)
	assert.True(t, cfg.MockMode)
	assert.Equal(t, "127.0.0.1", cfg.APIHost)
	assert.Equal(t, 8001, cfg.APIPort)
	assert.True(t, cfg.BrowserHeadless)
	assert.Equal(t, 10*time.Second, cfg.BrowserTimeout)
	assert.Equal(t, "reports", cfg.ReportsDir)
	assert.Equal(t, "DEMO", cfg.XrayProjectKey)
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("MOCK_MODE", "false")
	t.Setenv("API_PORT", "9090")
	t.Setenv("SQLITE_DB_PATH", "tmp/other.db")
	t.Setenv("BROWSER_TIMEOUT_SECONDS", "30")

	cfg, err := New()
	require.NoError(t, err)

	assert.False(t, cfg.MockMode)
	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, "tmp/other.db", cfg.SQLiteDBPath)
	assert.Equal(t, 30*time.Second, cfg.BrowserTimeout)
}

func TestNewBadPort(t *testing.T) {
	t.Setenv("API_PORT", "not-a-number")

	_, err := New()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.UseSQLServer = true
	cfg.SQLServerDSN = ""
	assert.Error(t, cfg.Validate())

	cfg.UseSQLServer = false
	cfg.APIPort = -1
	assert.Error(t, cfg.Validate())
}

func TestURLs(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8001", cfg.APIBaseURL())
	assert.Equal(t, "http://127.0.0.1:8001/dashboard", cfg.DashboardURL())
}
