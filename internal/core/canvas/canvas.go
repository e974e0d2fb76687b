// Package canvas holds the play surfaces of a level and applies player cuts
// to them.
//
// A canvas starts as one surface covering the whole field. Every cut is
// stretched across the field and clips each surface it separates, keeping
// the side the sprites live on. When sprites sit on both sides, the surface
// is duplicated into both fragments. A cut whose blade footprint touches a
// sprite is lethal and leaves the canvas untouched.
package canvas

import (
	"github.com/zeusync/slicer/internal/core/geom"
	"github.com/zeusync/slicer/internal/core/observability/log"
)

// Config sizes a canvas.
type Config struct {
	Width  float64
	Height float64
	// SliceWidth is the blade width in level units; zero makes the blade a
	// bare line.
	SliceWidth float64
	// SnapTolerance is the distance within which cut intersections are merged.
	SnapTolerance float64
}

// Canvas is the set of play surfaces of one level. It is not safe for
// concurrent use.
type Canvas struct {
	cfg      Config
	field    geom.Polygon
	surfaces []geom.Polygon
	logger   log.Log
}

func New(cfg Config, logger log.Log) *Canvas {
	if logger == nil {
		logger = log.Nop()
	}
	field := geom.R(0, 0, cfg.Width, cfg.Height).Polygon()
	return &Canvas{
		cfg:      cfg,
		field:    field,
		surfaces: []geom.Polygon{field},
		logger:   logger.With(log.String("component", "canvas")),
	}
}

func (c *Canvas) Config() Config { return c.cfg }

// Field is the full field rectangle as a clockwise loop.
func (c *Canvas) Field() geom.Polygon { return c.field }

// Reset drops every cut and restores the single full-field surface.
func (c *Canvas) Reset() {
	c.surfaces = []geom.Polygon{c.field}
}

// Surfaces returns the current surfaces in order. Polygons are immutable, so
// the returned values stay valid after later cuts.
func (c *Canvas) Surfaces() []geom.Polygon {
	return append([]geom.Polygon(nil), c.surfaces...)
}

func (c *Canvas) Surface(i int) (geom.Polygon, bool) {
	if i < 0 || i >= len(c.surfaces) {
		return geom.Polygon{}, false
	}
	return c.surfaces[i], true
}

// SurfaceOf returns the index of the first surface containing p, or -1.
func (c *Canvas) SurfaceOf(p geom.Point) int {
	for i, s := range c.surfaces {
		if s.Contains(p) {
			return i
		}
	}
	return -1
}

// Loops returns the boundary of every surface, one slice per surface.
func (c *Canvas) Loops() [][]geom.Vector {
	out := make([][]geom.Vector, 0, len(c.surfaces))
	for _, s := range c.surfaces {
		out = append(out, s.Vectors())
	}
	return out
}

// Edges returns the boundary edges of all surfaces in surface order.
func (c *Canvas) Edges() []geom.Vector {
	var out []geom.Vector
	for _, s := range c.surfaces {
		out = append(out, s.Vectors()...)
	}
	return out
}

// SurfaceClearRate is the share of the field, in percent, that surface i no
// longer covers.
func (c *Canvas) SurfaceClearRate(i int) float64 {
	if i < 0 || i >= len(c.surfaces) {
		return 100
	}
	return clearRate(c.surfaces[i].Area(), c.field.Area())
}

// ClearRate is the lowest clear rate across surfaces, so duplicating a
// surface never counts the same region twice and the value never decreases
// while cuts are applied.
func (c *Canvas) ClearRate() float64 {
	if len(c.surfaces) == 0 {
		return 100
	}
	rate := 100.0
	for i := range c.surfaces {
		rate = min(rate, c.SurfaceClearRate(i))
	}
	return rate
}

func clearRate(area, fieldArea float64) float64 {
	if fieldArea <= 0 {
		return 0
	}
	return 100 - area/fieldArea*100
}

// Stretch extends v across the whole field.
func (c *Canvas) Stretch(v geom.Vector) geom.Vector {
	return v.StretchedToEdges(geom.Pt(0, 0), geom.Pt(c.cfg.Width, c.cfg.Height))
}

// Footprint is the quadrilateral the blade sweeps along line: the line
// widened by half the slice width on each side.
func (c *Canvas) Footprint(line geom.Vector) geom.Polygon {
	off := line.Perpendicular().Unit().Delta().Scale(c.cfg.SliceWidth / 2)
	return geom.NewPolygon(
		line.Start.Add(off),
		line.End.Add(off),
		line.End.Sub(off),
		line.Start.Sub(off),
	)
}

// blocks reports whether the blade along line touches r.
func (c *Canvas) blocks(line geom.Vector, footprint geom.Polygon, r geom.Rect) bool {
	if c.cfg.SliceWidth <= 0 {
		return line.CrossesRect(r)
	}
	return footprint.Overlaps(r.Polygon())
}
