// Package render turns level snapshots into pictures: triangle meshes for
// surface fills, a character grid, and a tcell terminal view with mouse
// driven cuts.
package render

import (
	"github.com/pkg/errors"
	"github.com/rclancey/earcut"

	"github.com/zeusync/slicer/internal/core/geom"
)

// ErrDegenerateSurface is returned for a loop with fewer than three points.
var ErrDegenerateSurface = errors.New("degenerate surface")

// Triangle is one face of a surface mesh.
type Triangle [3]geom.Point

// Contains reports whether p lies inside or on the triangle.
func (t Triangle) Contains(p geom.Point) bool {
	d1 := geom.Cross(t[1].Sub(t[0]), p.Sub(t[0]))
	d2 := geom.Cross(t[2].Sub(t[1]), p.Sub(t[1]))
	d3 := geom.Cross(t[0].Sub(t[2]), p.Sub(t[2]))
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

// Mesh is the triangulation of one surface.
type Mesh struct {
	Surface   int
	Triangles []Triangle
}

// Contains reports whether any triangle of m covers p.
func (m Mesh) Contains(p geom.Point) bool {
	for _, t := range m.Triangles {
		if t.Contains(p) {
			return true
		}
	}
	return false
}

// Triangulate ear-clips a surface loop.
func Triangulate(points []geom.Point) ([]Triangle, error) {
	if len(points) < 3 {
		return nil, errors.Wrapf(ErrDegenerateSurface, "%d vertices", len(points))
	}

	// Flat [x0, y0, x1, y1, ...] as earcut expects.
	coords := make([]float64, len(points)*2)
	for i, p := range points {
		coords[i*2] = p.X
		coords[i*2+1] = p.Y
	}

	indices, err := earcut.Earcut(coords, nil, 2)
	if err != nil {
		return nil, errors.Wrapf(err, "triangulate %d-vertex surface", len(points))
	}
	if len(indices)%3 != 0 {
		return nil, errors.Errorf("triangulate: %d indices", len(indices))
	}

	out := make([]Triangle, len(indices)/3)
	for i := range out {
		for k := 0; k < 3; k++ {
			v := indices[i*3+k]
			out[i][k] = geom.Pt(coords[v*2], coords[v*2+1])
		}
	}
	return out, nil
}

// Meshes triangulates every surface loop in order.
func Meshes(surfaces [][]geom.Point) ([]Mesh, error) {
	out := make([]Mesh, 0, len(surfaces))
	for i, s := range surfaces {
		tris, err := Triangulate(s)
		if err != nil {
			return nil, errors.Wrapf(err, "surface %d", i)
		}
		out = append(out, Mesh{Surface: i, Triangles: tris})
	}
	return out, nil
}
