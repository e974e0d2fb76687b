package geom

import (
	"fmt"
	"math"
)

// Vector is a directed segment from Start to End. Operations return new
// vectors; Scale is the single in-place operation.
type Vector struct {
	Start Point `json:"start" yaml:"start"`
	End   Point `json:"end" yaml:"end"`
}

func V(x1, y1, x2, y2 float64) Vector {
	return Vector{Start: Point{x1, y1}, End: Point{x2, y2}}
}

// VectorFromQuad decodes the flat (startX, startY, endX, endY) encoding used by level files.
func VectorFromQuad(q [4]float64) Vector { return V(q[0], q[1], q[2], q[3]) }

func (v Vector) Quad() [4]float64 { return [4]float64{v.Start.X, v.Start.Y, v.End.X, v.End.Y} }

func (v Vector) X() float64 { return v.End.X - v.Start.X }
func (v Vector) Y() float64 { return v.End.Y - v.Start.Y }

// Delta is the direction of v as a point offset.
func (v Vector) Delta() Point { return Point{v.X(), v.Y()} }

func (v Vector) IsValid() bool { return v.Start != v.End }

// Distance is the length of the segment; degenerate vectors have length 0.
func (v Vector) Distance() float64 {
	if !v.IsValid() {
		return 0
	}
	return math.Hypot(v.X(), v.Y())
}

// DirectionOf returns cross(End-Start, p-End). Its sign tells which side of
// the infinite line through v the point lies on; zero means collinear.
func (v Vector) DirectionOf(p Point) float64 {
	return v.X()*(p.Y-v.End.Y) - v.Y()*(p.X-v.End.X)
}

// Intersect returns the crossing point of two segments. Parallel and
// collinear segments never intersect.
func (v Vector) Intersect(o Vector) (Point, bool) {
	d := v.X()*o.Y() - v.Y()*o.X()
	if d == 0 {
		return Point{}, false
	}
	w := o.Start.Sub(v.Start)
	u := (w.X*o.Y() - w.Y*o.X()) / d
	t := (w.X*v.Y() - w.Y*v.X()) / d
	if u < 0 || u > 1 || t < 0 || t > 1 {
		return Point{}, false
	}
	return v.At(u), true
}

// At returns the point at parameter t along v (0 = Start, 1 = End).
func (v Vector) At(t float64) Point {
	return Point{v.Start.X + v.X()*t, v.Start.Y + v.Y()*t}
}

// Project returns the signed distance of p's projection from Start along v.
func (v Vector) Project(p Point) float64 {
	l := v.Distance()
	if l == 0 {
		return 0
	}
	return Dot(p.Sub(v.Start), v.Delta()) / l
}

// IntersectRect returns the points where v crosses the border of r.
func (v Vector) IntersectRect(r Rect) []Point {
	var out []Point
	for _, e := range r.Edges() {
		if p, ok := v.Intersect(e); ok {
			out = appendUnique(out, p)
		}
	}
	return out
}

// CrossesRect reports whether any part of v lies inside or on r.
func (v Vector) CrossesRect(r Rect) bool {
	if r.Contains(v.Start) || r.Contains(v.End) {
		return true
	}
	return len(v.IntersectRect(r)) > 0
}

// IntersectPolygon returns the points where v crosses the boundary of p.
func (v Vector) IntersectPolygon(p Polygon) []Point {
	var out []Point
	for _, e := range p.Vectors() {
		if q, ok := v.Intersect(e); ok {
			out = appendUnique(out, q)
		}
	}
	return out
}

// CrossesPolygon reports whether any part of v lies inside or on p.
func (v Vector) CrossesPolygon(p Polygon) bool {
	if p.Contains(v.Start) || p.Contains(v.End) {
		return true
	}
	return len(v.IntersectPolygon(p)) > 0
}

// StretchedToEdges extends v in both directions until it spans the box
// given by topLeft and bottomRight. The dominant axis drives the
// extrapolation so the slope never divides by a near-zero delta.
func (v Vector) StretchedToEdges(topLeft, bottomRight Point) Vector {
	if !v.IsValid() {
		return v
	}
	dx, dy := v.X(), v.Y()
	if math.Abs(dx) >= math.Abs(dy) {
		slope := dy / dx
		at := func(x float64) Point { return Point{x, v.Start.Y + (x-v.Start.X)*slope} }
		if dx > 0 {
			return Vector{at(topLeft.X), at(bottomRight.X)}
		}
		return Vector{at(bottomRight.X), at(topLeft.X)}
	}
	slope := dx / dy
	at := func(y float64) Point { return Point{v.Start.X + (y-v.Start.Y)*slope, y} }
	if dy > 0 {
		return Vector{at(topLeft.Y), at(bottomRight.Y)}
	}
	return Vector{at(bottomRight.Y), at(topLeft.Y)}
}

// Perpendicular rotates the direction of v by 90 degrees around Start.
func (v Vector) Perpendicular() Vector {
	return Vector{v.Start, Point{v.Start.X - v.Y(), v.Start.Y + v.X()}}
}

// Unit returns a vector of length 1 starting at Start. Degenerate vectors are returned as is.
func (v Vector) Unit() Vector {
	l := v.Distance()
	if l == 0 {
		return v
	}
	return v.Scaled(1 / l)
}

func (v Vector) Scaled(f float64) Vector {
	return Vector{v.Start, Point{v.Start.X + v.X()*f, v.Start.Y + v.Y()*f}}
}

// Scale moves End so that the length of v is multiplied by f.
func (v *Vector) Scale(f float64) {
	v.End = Point{v.Start.X + v.X()*f, v.Start.Y + v.Y()*f}
}

func (v Vector) Translated(dx, dy float64) Vector {
	return Vector{Point{v.Start.X + dx, v.Start.Y + dy}, Point{v.End.X + dx, v.End.Y + dy}}
}

func (v Vector) Reversed() Vector { return Vector{v.End, v.Start} }

func (v Vector) Midpoint() Point {
	return Point{(v.Start.X + v.End.X) / 2, (v.Start.Y + v.End.Y) / 2}
}

// Angle is the heading of v in degrees.
func (v Vector) Angle() float64 { return math.Atan2(v.Y(), v.X()) * 180 / math.Pi }

func (v Vector) String() string {
	return fmt.Sprintf("(%g,%g)->(%g,%g)", v.Start.X, v.Start.Y, v.End.X, v.End.Y)
}

func appendUnique(pts []Point, p Point) []Point {
	for _, q := range pts {
		if q == p {
			return pts
		}
	}
	return append(pts, p)
}
