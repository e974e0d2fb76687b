package geom

import (
	"math"
	"sort"
)

// containsMargin pushes the ray-cast target past the polygon's max X so the
// ray never ends on a vertex.
const containsMargin = 1

// Polygon is an immutable closed point loop; the last point connects back to
// the first. Slicing returns a new Polygon and never edits the receiver.
type Polygon struct {
	points []Point
}

// NewPolygon copies points into a new loop.
func NewPolygon(points ...Point) Polygon {
	return Polygon{points: append([]Point(nil), points...)}
}

func (p Polygon) Len() int { return len(p.points) }

func (p Polygon) Point(i int) Point { return p.points[i] }

// Points returns a copy of the loop.
func (p Polygon) Points() []Point { return append([]Point(nil), p.points...) }

// SignedArea is the shoelace sum; positive for clockwise loops in level space.
func (p Polygon) SignedArea() float64 {
	n := len(p.points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := range p.points {
		a, b := p.points[i], p.points[(i+1)%n]
		sum += a.X*b.Y - a.Y*b.X
	}
	return sum / 2
}

func (p Polygon) Area() float64 { return math.Abs(p.SignedArea()) }

// extreme returns the index of the lexicographically most top-right point:
// greatest X, then smallest Y. That corner is always convex.
func (p Polygon) extreme() int {
	best := 0
	for i, q := range p.points {
		b := p.points[best]
		if q.X > b.X || (q.X == b.X && q.Y < b.Y) {
			best = i
		}
	}
	return best
}

// turn evaluates DirectionOf at the extreme corner.
func (p Polygon) turn() float64 {
	n := len(p.points)
	if n < 3 {
		return 0
	}
	i := p.extreme()
	prev := p.points[(i+n-1)%n]
	next := p.points[(i+1)%n]
	return Vector{prev, p.points[i]}.DirectionOf(next)
}

// IsValid reports whether the loop turns at its extreme corner and encloses area.
func (p Polygon) IsValid() bool {
	return p.turn() != 0 && p.SignedArea() != 0
}

func (p Polygon) IsClockwise() bool { return p.turn() > 0 }

// Bounds is the axis-aligned bounding rectangle of the loop.
func (p Polygon) Bounds() Rect {
	if len(p.points) == 0 {
		return Rect{}
	}
	minP, maxP := p.points[0], p.points[0]
	for _, q := range p.points[1:] {
		minP.X, minP.Y = math.Min(minP.X, q.X), math.Min(minP.Y, q.Y)
		maxP.X, maxP.Y = math.Max(maxP.X, q.X), math.Max(maxP.Y, q.Y)
	}
	return RectFromPoints(minP, maxP)
}

// Centroid is the area-weighted centre of the loop.
func (p Polygon) Centroid() Point {
	a := p.SignedArea()
	if a == 0 {
		var c Point
		for _, q := range p.points {
			c = c.Add(q)
		}
		if len(p.points) > 0 {
			c = c.Scale(1 / float64(len(p.points)))
		}
		return c
	}
	n := len(p.points)
	var cx, cy float64
	for i := range p.points {
		s, t := p.points[i], p.points[(i+1)%n]
		f := s.X*t.Y - t.X*s.Y
		cx += (s.X + t.X) * f
		cy += (s.Y + t.Y) * f
	}
	return Point{cx / (6 * a), cy / (6 * a)}
}

// Contains casts a horizontal ray from pt toward the right of the loop and
// counts edge crossings; an odd count means inside. Edges use a half-open
// rule on Y so a ray through a vertex is counted once.
func (p Polygon) Contains(pt Point) bool {
	n := len(p.points)
	if n < 3 {
		return false
	}
	ray := Vector{pt, Point{p.points[p.extreme()].X + containsMargin, pt.Y}}
	if ray.End.X <= pt.X {
		return false
	}
	crossings := 0
	for i := range p.points {
		a, b := p.points[i], p.points[(i+1)%n]
		if (a.Y > pt.Y) == (b.Y > pt.Y) {
			continue
		}
		x := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		if x >= pt.X && x <= ray.End.X {
			crossings++
		}
	}
	return crossings%2 == 1
}

// Vectors returns the boundary edges in loop order.
func (p Polygon) Vectors() []Vector {
	n := len(p.points)
	out := make([]Vector, 0, n)
	for i := range p.points {
		out = append(out, Vector{p.points[i], p.points[(i+1)%n]})
	}
	return out
}

const (
	// sliceEpsilon is the distance under which a vertex counts as lying on
	// the cutting line, and two fragment points count as one.
	sliceEpsilon = 1e-9
	// minFragmentArea rejects slivers left by a line grazing a vertex.
	minFragmentArea = 1e-6
)

// Sliced clips the loop with the infinite line through v and returns the
// fragment lying on the positive DirectionOf side. The result starts with
// the enter and exit points on the line, then walks the original vertices
// from just after the exit edge around to the enter edge. It reports false
// when the line does not strictly separate the vertices or the fragment
// would be degenerate. Vertices within sliceEpsilon of the line count as on
// it.
func (p Polygon) Sliced(v Vector) (Polygon, bool) {
	n := len(p.points)
	if n < 3 || !v.IsValid() {
		return Polygon{}, false
	}

	side := make([]float64, n)
	var pos, neg bool
	onLine := sliceEpsilon * v.Distance()
	for i, q := range p.points {
		side[i] = v.DirectionOf(q)
		if math.Abs(side[i]) <= onLine {
			side[i] = 0
		}
		pos = pos || side[i] > 0
		neg = neg || side[i] < 0
	}
	if !pos || !neg {
		return Polygon{}, false
	}

	enter, exit := -1, -1
	for i := 0; i < n && (enter < 0 || exit < 0); i++ {
		sa, sb := side[i], side[(i+1)%n]
		switch {
		case enter < 0 && sa > 0 && sb <= 0:
			enter = i
		case exit < 0 && sa <= 0 && sb > 0:
			exit = i
		}
	}
	if enter < 0 || exit < 0 {
		return Polygon{}, false
	}

	enterPt := p.edgeCrossing(enter, side)
	exitPt := p.edgeCrossing(exit, side)

	out := make([]Point, 0, n+2)
	out = append(out, enterPt, exitPt)
	for i := (exit + 1) % n; ; i = (i + 1) % n {
		out = append(out, p.points[i])
		if i == enter {
			break
		}
	}

	res := Polygon{points: dedupe(out)}
	if len(res.points) < 3 || !res.IsValid() || res.Area() < minFragmentArea {
		return Polygon{}, false
	}
	return res, true
}

// dedupe drops points within sliceEpsilon of their predecessor, including
// across the closing edge.
func dedupe(pts []Point) []Point {
	out := pts[:0]
	for _, q := range pts {
		if len(out) > 0 && q.Near(out[len(out)-1], sliceEpsilon) {
			continue
		}
		out = append(out, q)
	}
	for len(out) > 1 && out[len(out)-1].Near(out[0], sliceEpsilon) {
		out = out[:len(out)-1]
	}
	return out
}

// edgeCrossing interpolates where edge i meets the cutting line, given the
// per-vertex sides. Endpoints lying on the line are returned exactly.
func (p Polygon) edgeCrossing(i int, side []float64) Point {
	n := len(p.points)
	j := (i + 1) % n
	sa, sb := side[i], side[j]
	switch {
	case sa == 0:
		return p.points[i]
	case sb == 0:
		return p.points[j]
	}
	t := sa / (sa - sb)
	return Vector{p.points[i], p.points[j]}.At(t)
}

// ConvexHull returns the hull of pts with Andrew's monotone chain, as a
// clockwise loop in level space.
func ConvexHull(pts []Point) Polygon {
	n := len(pts)
	if n < 3 {
		return NewPolygon(pts...)
	}
	sorted := append([]Point(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X == sorted[j].X {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lower []Point
	for _, q := range sorted {
		for len(lower) >= 2 && cross3(lower[len(lower)-2], lower[len(lower)-1], q) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, q)
	}
	var upper []Point
	for i := n - 1; i >= 0; i-- {
		q := sorted[i]
		for len(upper) >= 2 && cross3(upper[len(upper)-2], upper[len(upper)-1], q) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, q)
	}
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	return Polygon{points: hull}
}

// Overlaps reports whether two convex loops share any point, touching
// included. It looks for a separating axis among the edge normals of both.
func (p Polygon) Overlaps(o Polygon) bool {
	if len(p.points) == 0 || len(o.points) == 0 {
		return false
	}
	return !p.separatedBy(o) && !o.separatedBy(p)
}

func (p Polygon) separatedBy(o Polygon) bool {
	for _, e := range p.Vectors() {
		axis := Point{-e.Y(), e.X()}
		if axis.IsZero() {
			continue
		}
		pMin, pMax := project(p.points, axis)
		oMin, oMax := project(o.points, axis)
		if pMax < oMin || oMax < pMin {
			return true
		}
	}
	return false
}

func project(pts []Point, axis Point) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, q := range pts {
		d := Dot(q, axis)
		lo, hi = math.Min(lo, d), math.Max(hi, d)
	}
	return lo, hi
}
