package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/tabletctl/internal/testutil/testlog"
	"github.com/danmuck/tabletctl/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tabletctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadOverlaysDefinedKeysOnly(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
target_network = "tcp"
target_path = "127.0.0.1:9301"
priority = "high"
timeout = "none"
connect_timeout = "500ms"

[[sim_tablets]]
name = "Cintiq 16"
model = "DTK-1660"
transducers = ["Pro Pen 2"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, "tcp", cfg.Target.Network)
	assert.Equal(t, "127.0.0.1:9301", cfg.Target.Path)
	assert.Equal(t, def.Target.BundleID, cfg.Target.BundleID)
	assert.Equal(t, transport.PriorityHigh, cfg.Priority)
	assert.Equal(t, transport.NoTimeout, cfg.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Session.ConnectTimeout)
	assert.Equal(t, def.Session.DefaultTimeout, cfg.Session.DefaultTimeout)
	require.Len(t, cfg.Sim.Tablets, 1)
	assert.Equal(t, "DTK-1660", cfg.Sim.Tablets[0].Model)

	sim := cfg.SimulatorConfig()
	assert.Equal(t, cfg.Target.BundleID, sim.BundleID)
	assert.Equal(t, cfg.Sim.Tablets, sim.Tablets)
}

func TestLoadRejectsBadValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"priority":        `priority = "urgent"`,
		"duration":        `default_timeout = "soon"`,
		"zero default":    `default_timeout = "0s"`,
		"network":         `target_network = "udp"`,
		"unknown key":     `target_host = "x"`,
		"unnamed tablet":  "[[sim_tablets]]\nmodel = \"PTH-660\"",
		"negative write":  `write_timeout = "-1s"`,
		"empty bundle id": `bundle_id = " "`,
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	testlog.Start(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestTemplateLoadsAsDefault(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "tabletctl.toml")
	require.NoError(t, WriteTemplate(path, false))
	assert.Error(t, WriteTemplate(path, false))
	require.NoError(t, WriteTemplate(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	def := Default()
	assert.Equal(t, def.Target, cfg.Target)
	assert.Equal(t, def.Session, cfg.Session)
	assert.Equal(t, def.Priority, cfg.Priority)
	assert.Zero(t, cfg.Timeout)
	assert.Equal(t, def.Sim.Tablets, cfg.Sim.Tablets)
}
