package level

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/slicer/internal/core/canvas"
	"github.com/zeusync/slicer/internal/core/geom"
	"github.com/zeusync/slicer/internal/core/observability/log"
)

// SpriteConfig places one sprite. Velocity is in level units per second.
type SpriteConfig struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	VX     float64 `json:"vx,omitempty" yaml:"vx,omitempty"`
	VY     float64 `json:"vy,omitempty" yaml:"vy,omitempty"`
	Lethal bool    `json:"lethal,omitempty" yaml:"lethal,omitempty"`
}

func (s SpriteConfig) Rect() geom.Rect      { return geom.R(s.X, s.Y, s.Width, s.Height) }
func (s SpriteConfig) Velocity() geom.Point { return geom.Pt(s.VX, s.VY) }

// Config describes a level as loaded from a level file.
type Config struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	// Slices are applied in order at load, each encoded as
	// (startX, startY, endX, endY).
	Slices           [][4]float64   `json:"slices,omitempty" yaml:"slices,omitempty"`
	Sprites          []SpriteConfig `json:"sprites,omitempty" yaml:"sprites,omitempty"`
	RequireClearRate float64        `json:"require_clear_rate" yaml:"require_clear_rate"`
	SliceWidth       float64        `json:"slice_width" yaml:"slice_width"`
	TickRate         float64        `json:"tick_rate" yaml:"tick_rate"`
	SnapTolerance    float64        `json:"snap_tolerance" yaml:"snap_tolerance"`
	EdgeThickness    float64        `json:"edge_thickness" yaml:"edge_thickness"`
	LogLevel         log.Level      `json:"log_level" yaml:"log_level"`
}

// DefaultConfig is a 320x240 field with two bouncing sprites.
func DefaultConfig() Config {
	return Config{
		Width:  320,
		Height: 240,
		Sprites: []SpriteConfig{
			{X: 60, Y: 60, Width: 12, Height: 12, VX: 90, VY: 70},
			{X: 220, Y: 150, Width: 12, Height: 12, VX: -80, VY: 60},
		},
		RequireClearRate: 100,
		SliceWidth:       2,
		TickRate:         60,
		SnapTolerance:    8,
		EdgeThickness:    10,
		LogLevel:         log.LevelInfo,
	}
}

// TickInterval is the nominal simulation step in seconds.
func (c Config) TickInterval() float64 { return 1 / c.TickRate }

func (c Config) CanvasConfig() canvas.Config {
	return canvas.Config{
		Width:         c.Width,
		Height:        c.Height,
		SliceWidth:    c.SliceWidth,
		SnapTolerance: c.SnapTolerance,
	}
}

// Validate checks the config for values a level cannot be built from.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return errors.Wrapf(ErrInvalidConfig, "field size %gx%g", c.Width, c.Height)
	case c.RequireClearRate < 0 || c.RequireClearRate > 100:
		return errors.Wrapf(ErrInvalidConfig, "require_clear_rate %g outside [0,100]", c.RequireClearRate)
	case c.TickRate <= 0:
		return errors.Wrapf(ErrInvalidConfig, "tick_rate %g", c.TickRate)
	case c.SliceWidth < 0:
		return errors.Wrapf(ErrInvalidConfig, "slice_width %g", c.SliceWidth)
	case c.SnapTolerance < 0:
		return errors.Wrapf(ErrInvalidConfig, "snap_tolerance %g", c.SnapTolerance)
	case c.EdgeThickness <= 0:
		return errors.Wrapf(ErrInvalidConfig, "edge_thickness %g", c.EdgeThickness)
	}
	field := geom.R(0, 0, c.Width, c.Height)
	for i, s := range c.Sprites {
		r := s.Rect()
		if r.Empty() || !field.Contains(r.Min()) || !field.Contains(r.Max()) {
			return errors.Wrapf(ErrInvalidConfig, "sprite %d %+v outside field", i, r)
		}
	}
	for i, q := range c.Slices {
		if !geom.VectorFromQuad(q).IsValid() {
			return errors.Wrapf(ErrInvalidConfig, "slice %d is zero length", i)
		}
	}
	return nil
}

// LoadYAML decodes a level over DefaultConfig, so omitted keys keep their
// defaults.
func LoadYAML(r io.Reader) (Config, error) {
	c := DefaultConfig()
	c.Sprites = nil
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decode yaml level")
	}
	return c, c.Validate()
}

// LoadJSON is LoadYAML for JSON level files.
func LoadJSON(r io.Reader) (Config, error) {
	c := DefaultConfig()
	c.Sprites = nil
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return Config{}, errors.Wrap(err, "decode json level")
	}
	return c, c.Validate()
}

// LoadFile picks the decoder from the file extension; anything other than
// .json is read as YAML.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "open level")
	}
	defer f.Close()

	var c Config
	if strings.EqualFold(filepath.Ext(path), ".json") {
		c, err = LoadJSON(f)
	} else {
		c, err = LoadYAML(f)
	}
	return c, errors.Wrapf(err, "load level %s", path)
}
