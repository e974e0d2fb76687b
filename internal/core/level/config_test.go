package level

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/slicer/internal/core/observability/log"
)

const levelYAML = `
width: 100
height: 100
require_clear_rate: 50
slices:
  - [50, 0, 50, 100]
sprites:
  - {x: 10, y: 10, width: 5, height: 5, vx: 30}
log_level: debug
`

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.InDelta(t, 1.0/60, c.TickInterval(), 1e-12)
	assert.Equal(t, 100.0, c.RequireClearRate)
}

func TestLoadYAML(t *testing.T) {
	c, err := LoadYAML(strings.NewReader(levelYAML))
	require.NoError(t, err)

	assert.Equal(t, 100.0, c.Width)
	assert.Equal(t, 50.0, c.RequireClearRate)
	assert.Equal(t, [][4]float64{{50, 0, 50, 100}}, c.Slices)
	require.Len(t, c.Sprites, 1)
	assert.Equal(t, 30.0, c.Sprites[0].VX)
	assert.Equal(t, log.LevelDebug, c.LogLevel)
	// Omitted keys keep their defaults.
	assert.Equal(t, 60.0, c.TickRate)
	assert.Equal(t, 2.0, c.SliceWidth)
}

func TestLoadYAMLEmptyUsesDefaults(t *testing.T) {
	c, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 320.0, c.Width)
	assert.Empty(t, c.Sprites)
}

func TestLoadJSON(t *testing.T) {
	c, err := LoadJSON(strings.NewReader(`{"width": 40, "height": 30, "slices": [[0, 0, 40, 30]], "tick_rate": 30}`))
	require.NoError(t, err)
	assert.Equal(t, 40.0, c.Width)
	assert.Equal(t, 30.0, c.TickRate)
	assert.Len(t, c.Slices, 1)

	_, err = LoadJSON(strings.NewReader(`{"width": `))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"clear rate above 100", func(c *Config) { c.RequireClearRate = 150 }},
		{"zero tick rate", func(c *Config) { c.TickRate = 0 }},
		{"negative slice width", func(c *Config) { c.SliceWidth = -1 }},
		{"zero edge thickness", func(c *Config) { c.EdgeThickness = 0 }},
		{"sprite outside", func(c *Config) { c.Sprites[0].X = 1000 }},
		{"empty sprite", func(c *Config) { c.Sprites[0].Width = 0 }},
		{"zero length slice", func(c *Config) { c.Slices = [][4]float64{{5, 5, 5, 5}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "level.yaml")
	require.NoError(t, os.WriteFile(path, []byte(levelYAML), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 100.0, c.Height)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"width": -1, "height": 5}`), 0o600))
	_, err = LoadFile(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "bad.json")

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
