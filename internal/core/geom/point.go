// Package geom holds the float geometry the slicing engine is built on:
// points, axis-aligned rectangles, directed segments (Vector) and convex
// point loops (Polygon).
//
// Level space is y-down: the field rectangle (0,0),(w,0),(w,h),(0,h) is a
// clockwise loop with positive signed area.
package geom

import "math"

// Point is a 2D position in level space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }
func (p Point) Neg() Point            { return Point{-p.X, -p.Y} }
func (p Point) Len() float64          { return math.Hypot(p.X, p.Y) }
func (p Point) IsZero() bool          { return p.X == 0 && p.Y == 0 }

// Rotated rotates p around pivot by deg degrees (clockwise on screen, since y points down).
func (p Point) Rotated(pivot Point, deg float64) Point {
	if deg == 0 {
		return p
	}
	sin, cos := math.Sincos(deg * math.Pi / 180)
	d := p.Sub(pivot)
	return Point{
		X: pivot.X + d.X*cos - d.Y*sin,
		Y: pivot.Y + d.X*sin + d.Y*cos,
	}
}

// Near reports whether p and q are within tol of each other on both axes.
func (p Point) Near(q Point, tol float64) bool {
	return math.Abs(p.X-q.X) <= tol && math.Abs(p.Y-q.Y) <= tol
}

func Dot(p, q Point) float64   { return p.X*q.X + p.Y*q.Y }
func Cross(p, q Point) float64 { return p.X*q.Y - p.Y*q.X }

// Dist computes the Euclidean distance between two points.
func Dist(p, q Point) float64 { return math.Hypot(q.X-p.X, q.Y-p.Y) }

// cross3 is the cross product of OA and OB.
func cross3(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
