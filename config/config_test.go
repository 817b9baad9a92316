package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.ini"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 7912, cfg.Agent.PortBase)
	assert.Equal(t, 5, cfg.Agent.HealthAttempts)
	assert.Equal(t, time.Second, cfg.Agent.HealthInterval)
	assert.Equal(t, 3*time.Second, cfg.Pacing.Settle)
}

func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bumx.ini")
	content := `[resources]
dir = /opt/atx

[agent]
port_base = 8000
find_timeout = 10s
health_attempts = 3

[pacing]
settle = 1s
error_backoff = 250ms

[log]
file = /tmp/run.log

[server]
listen = localhost:12100
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/atx", cfg.Resources.Dir)
	assert.Equal(t, filepath.Join("/opt/atx", "atx-agent"), cfg.Resources.AgentPath())
	assert.Equal(t, filepath.Join("/opt/atx", "app-uiautomator.apk"), cfg.Resources.APKPath())
	assert.Equal(t, defaultAgentURL, cfg.Resources.AgentURL)
	assert.Equal(t, 8000, cfg.Agent.PortBase)
	assert.Equal(t, 7912, cfg.Agent.RemotePort)
	assert.Equal(t, 10*time.Second, cfg.Agent.FindTimeout)
	assert.Equal(t, 3, cfg.Agent.HealthAttempts)
	assert.Equal(t, time.Second, cfg.Pacing.Settle)
	assert.Equal(t, 250*time.Millisecond, cfg.Pacing.ErrorBackoff)
	assert.Equal(t, 5*time.Second, cfg.Pacing.Job)
	assert.Equal(t, "/tmp/run.log", cfg.LogFile)
	assert.Equal(t, "localhost:12100", cfg.Listen)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bumx.ini")
	require.NoError(t, os.WriteFile(path, []byte("[agent]\nport_base = 70000\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "port_base")
}
