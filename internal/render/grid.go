package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/zeusync/slicer/internal/core/geom"
	"github.com/zeusync/slicer/internal/core/level"
)

// Glyphs used by the grid.
const (
	GlyphEmpty   = ' '
	GlyphSurface = '░'
	GlyphSprite  = '█'
	GlyphHazard  = '▓'
	GlyphBlade   = '•'
)

// Cell is one character of the grid.
type Cell struct {
	Rune rune
	Fg   color.RGBA
	Bg   color.RGBA
}

// Grid is a character picture of a level. The last row carries the status
// line; the rows above map onto the field.
type Grid struct {
	Cols, Rows int
	Cells      []Cell
	// Scale is level units per column and per row.
	ScaleX, ScaleY float64
}

func NewGrid(cols, rows int) *Grid {
	return &Grid{Cols: cols, Rows: rows, Cells: make([]Cell, cols*rows)}
}

func (g *Grid) At(x, y int) Cell { return g.Cells[y*g.Cols+x] }

func (g *Grid) set(x, y int, c Cell) {
	if x < 0 || y < 0 || x >= g.Cols || y >= g.Rows {
		return
	}
	g.Cells[y*g.Cols+x] = c
}

// fieldRows is the number of rows the field occupies.
func (g *Grid) fieldRows() int { return max(g.Rows-1, 0) }

// CellCenter maps a grid cell onto the level point at its centre.
func (g *Grid) CellCenter(x, y int) geom.Point {
	return geom.Pt((float64(x)+0.5)*g.ScaleX, (float64(y)+0.5)*g.ScaleY)
}

// ToLevel maps a grid cell onto the level, clamped to the field.
func (g *Grid) ToLevel(x, y int, width, height float64) geom.Point {
	p := g.CellCenter(x, y)
	return geom.Pt(clamp(p.X, 0, width), clamp(p.Y, 0, height))
}

func (g *Grid) toCell(p geom.Point) (int, int) {
	return int(math.Floor(p.X / g.ScaleX)), int(math.Floor(p.Y / g.ScaleY))
}

// Rasterize draws s onto a cols x rows grid: surface fills from their
// meshes, sprites on top, then the blade, and a status line at the bottom.
func Rasterize(s level.Snapshot, cols, rows int, pal Palette) (*Grid, error) {
	g := NewGrid(cols, rows)
	if cols == 0 || rows < 2 || s.Width <= 0 || s.Height <= 0 {
		return g, nil
	}
	g.ScaleX = s.Width / float64(cols)
	g.ScaleY = s.Height / float64(g.fieldRows())

	meshes, err := Meshes(s.Surfaces)
	if err != nil {
		return nil, err
	}

	for y := 0; y < g.fieldRows(); y++ {
		for x := 0; x < cols; x++ {
			c := Cell{Rune: GlyphEmpty, Fg: pal.Text, Bg: pal.Background}
			p := g.CellCenter(x, y)
			for _, m := range meshes {
				if m.Contains(p) {
					c = Cell{Rune: GlyphSurface, Fg: pal.Edge, Bg: pal.Surface(m.Surface)}
					break
				}
			}
			g.set(x, y, c)
		}
	}

	for _, sp := range s.Sprites {
		glyph, fg := GlyphSprite, pal.Sprite
		if sp.Lethal {
			glyph, fg = GlyphHazard, pal.Hazard
		}
		x0, y0 := g.toCell(sp.Rect.Min())
		x1, y1 := g.toCell(sp.Rect.Max())
		for y := y0; y <= min(y1, g.fieldRows()-1); y++ {
			for x := x0; x <= x1; x++ {
				if x < 0 || y < 0 || x >= cols {
					continue
				}
				c := g.At(x, y)
				c.Rune, c.Fg = glyph, fg
				g.set(x, y, c)
			}
		}
	}

	if s.Blade != nil {
		g.line(*s.Blade, GlyphBlade, pal.Blade)
	}

	g.status(statusText(s, cols), pal, s.ClearRate)
	return g, nil
}

// line plots v by sampling it at half-cell steps.
func (g *Grid) line(v geom.Vector, glyph rune, fg color.RGBA) {
	step := math.Min(g.ScaleX, g.ScaleY) / 2
	n := int(math.Ceil(v.Distance()/step)) + 1
	for i := 0; i <= n; i++ {
		x, y := g.toCell(v.At(float64(i) / float64(n)))
		if y >= g.fieldRows() || x < 0 || y < 0 || x >= g.Cols {
			continue
		}
		c := g.At(x, y)
		c.Rune, c.Fg = glyph, fg
		g.set(x, y, c)
	}
}

type statusField struct {
	text string
	// priority orders which fields survive a narrow grid; 0 goes last.
	priority int
}

// statusText lays out the status fields in display order, leaving out
// whole fields, least important first, that do not fit in cols.
func statusText(s level.Snapshot, cols int) string {
	fields := []statusField{
		{fmt.Sprintf(" clear %5.1f%% / %.0f%%", s.ClearRate, s.RequireClearRate), 0},
	}
	if s.Cleared {
		fields = append(fields, statusField{"  CLEARED", 1})
	}
	fields = append(fields,
		statusField{fmt.Sprintf("  surfaces %d", len(s.Surfaces)), 2},
		statusField{fmt.Sprintf("  tick %d", s.Tick), 3})

	keep := make([]bool, len(fields))
	width := 0
	for p := 0; p <= 3; p++ {
		for i, f := range fields {
			if f.priority == p && (p == 0 || width+len(f.text) <= cols) {
				keep[i] = true
				width += len(f.text)
			}
		}
	}
	var b strings.Builder
	for i, f := range fields {
		if keep[i] {
			b.WriteString(f.text)
		}
	}
	return b.String()
}

func (g *Grid) status(text string, pal Palette, rate float64) {
	y := g.Rows - 1
	bg := pal.Progress(rate)
	for x := 0; x < g.Cols; x++ {
		g.set(x, y, Cell{Rune: ' ', Fg: pal.Text, Bg: bg})
	}
	for i, r := range []rune(text) {
		g.set(i, y, Cell{Rune: r, Fg: pal.Text, Bg: bg})
	}
}
