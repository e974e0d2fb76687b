package physics

import (
	"math"

	"github.com/zeusync/slicer/internal/core/geom"
)

const (
	// rotatedEntrySnap rounds tiny rotated entry times down to zero so a body
	// resting against a slanted edge does not creep into it.
	rotatedEntrySnap = 0.0001
	// contactSlop is the penetration depth, in level units, still treated as
	// touching.
	contactSlop = 1e-9
)

// contact is a candidate collision along a displacement.
type contact struct {
	other  Object
	entry  float64
	exit   float64
	normal geom.Point
}

// sweep tests mover against other along d. Unrotated pairs use the slab
// method; anything rotated goes through the Minkowski cast.
func sweep(mover, other *Body, d geom.Point) (contact, bool) {
	if !mover.Rotated() && !other.Rotated() {
		return sweepAABB(mover.WorldRect(), other.WorldRect(), d)
	}
	return sweepPolygon(mover.Corners(), other.Corners(), d)
}

// sweepAABB computes per-axis entry and exit times; the overall entry is the
// latest axis entry, the exit the earliest axis exit.
func sweepAABB(a, b geom.Rect, d geom.Point) (contact, bool) {
	xEntry, xExit, ok := slab(a.X, a.X+a.W, b.X, b.X+b.W, d.X)
	if !ok {
		return contact{}, false
	}
	yEntry, yExit, ok := slab(a.Y, a.Y+a.H, b.Y, b.Y+b.H, d.Y)
	if !ok {
		return contact{}, false
	}

	entry := math.Max(xEntry, yEntry)
	exit := math.Min(xExit, yExit)
	if entry >= exit || entry < 0 || entry > 1 {
		return contact{}, false
	}

	var normal geom.Point
	if xEntry > yEntry {
		normal.X = -sign(d.X)
	} else {
		normal.Y = -sign(d.Y)
	}
	return contact{entry: entry, exit: exit, normal: normal}, true
}

// slab returns the entry and exit times of [aMin,aMax] moving by delta
// through [bMin,bMax]. A zero delta needs strict overlap on the axis and
// then never limits the other axis.
func slab(aMin, aMax, bMin, bMax, delta float64) (entry, exit float64, ok bool) {
	if delta == 0 {
		if aMax <= bMin || aMin >= bMax {
			return 0, 0, false
		}
		return math.Inf(-1), math.Inf(1), true
	}
	var entryDist, exitDist float64
	if delta > 0 {
		entryDist = bMin - aMax
		exitDist = bMax - aMin
	} else {
		entryDist = bMax - aMin
		exitDist = bMin - aMax
	}
	if entryDist/delta < 0 && math.Abs(entryDist) < contactSlop {
		entryDist = 0
	}
	return entryDist / delta, exitDist / delta, true
}

// sweepPolygon casts d against the Minkowski difference other ⊖ mover: the
// mover overlaps other after moving t·d exactly when t·d lies inside it.
// Each hull edge is a half-plane; entering edges raise the entry time,
// leaving edges lower the exit time, and the last entering edge gives the
// contact normal.
func sweepPolygon(mover, other [4]geom.Point, d geom.Point) (contact, bool) {
	pts := make([]geom.Point, 0, 16)
	for _, o := range other {
		for _, m := range mover {
			pts = append(pts, o.Sub(m))
		}
	}
	hull := geom.ConvexHull(pts)
	if !hull.IsValid() {
		return contact{}, false
	}

	entry, exit := math.Inf(-1), math.Inf(1)
	var normal geom.Point
	for _, e := range hull.Vectors() {
		// Outward unit normal; the hull is clockwise so the interior is on
		// the positive DirectionOf side.
		n := e.Perpendicular().Unit().Delta().Neg()
		dist := -geom.Dot(n, e.Start) // > 0 when the origin is outside this edge
		den := geom.Dot(n, d)
		if den == 0 {
			if dist > contactSlop {
				return contact{}, false
			}
			continue
		}
		t := -dist / den
		if den < 0 {
			if dist > -contactSlop && t < 0 {
				t = 0
			}
			if t > entry {
				entry, normal = t, n
			}
		} else if t < exit {
			exit = t
		}
	}

	if entry >= 0 && entry < rotatedEntrySnap {
		entry = 0
	}
	if entry >= exit || entry < 0 || entry > 1 {
		return contact{}, false
	}
	return contact{entry: entry, exit: exit, normal: normal}, true
}

func sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}
