package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/sink"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, sink.DefaultElements(), cfg.SinkElements())
	assert.Empty(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
elements:
  download: d3d12download
  convert: d3d12convert
max_buffers: 3
drop: false
metrics_addr: ":9464"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "d3d12download", cfg.Elements.Download)
	assert.Equal(t, "d3d12convert", cfg.Elements.Convert)
	assert.Equal(t, "glsinkbin", cfg.Elements.GLSinkBin, "unset keys keep defaults")
	assert.Equal(t, uint(3), cfg.MaxBuffers)
	assert.False(t, cfg.Drop)
	assert.Equal(t, ":9464", cfg.MetricsAddr)
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RENDER_BRIDGE_MAX_BUFFERS", "4")
	t.Setenv("RENDER_BRIDGE_ELEMENTS_UPLOAD", "glupload2")
	t.Setenv("RENDER_BRIDGE_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint(4), cfg.MaxBuffers)
	assert.Equal(t, "glupload2", cfg.Elements.Upload)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errs   int
	}{
		{"defaults", func(*Config) {}, 0},
		{"no download", func(c *Config) { c.Elements.Download = "" }, 1},
		{"zero max buffers", func(c *Config) { c.MaxBuffers = 0 }, 1},
		{"negative interval", func(c *Config) { c.StatsIntervalSeconds = -1 }, 1},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, 1},
		{"several", func(c *Config) { c.MaxBuffers = 0; c.LogLevel = "" }, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Len(t, cfg.Validate(), tt.errs)
		})
	}
}
