package canvas

import (
	"slices"
	"sort"

	"github.com/zeusync/slicer/internal/core/geom"
	"github.com/zeusync/slicer/internal/core/observability/log"
)

// Slice applies the cut v. Sprites are the level space rectangles of every
// live sprite; only those inside a separated surface take part. When
// restrict is non-empty only the listed surfaces may be cut.
func (c *Canvas) Slice(v geom.Vector, sprites []geom.Rect, restrict ...int) Result {
	res := Result{Before: c.ClearRate()}
	res.After = res.Before
	if !v.IsValid() {
		res.Outcome = OutcomeRejected
		return res
	}

	line := c.Stretch(v)
	res.Line = line

	type split struct {
		pos, neg geom.Polygon
	}
	splits := make(map[int]split)
	for i, s := range c.surfaces {
		if len(restrict) > 0 && !slices.Contains(restrict, i) {
			continue
		}
		pos, okPos := s.Sliced(line)
		neg, okNeg := s.Sliced(line.Reversed())
		switch {
		case okPos && okNeg:
			splits[i] = split{pos: pos, neg: neg}
			res.Affected = append(res.Affected, i)
		case okPos != okNeg:
			res.Skipped++
			c.logger.Warn("Degenerate slice fragment skipped",
				log.Int("surface", i),
				log.Stringer("line", line))
		}
	}
	if len(res.Affected) == 0 {
		res.Outcome = OutcomeMissed
		return res
	}

	// Sprite membership is decided once, before any surface changes.
	owner := make([]int, len(sprites))
	for j, r := range sprites {
		owner[j] = c.SurfaceOf(r.Center())
	}

	footprint := c.Footprint(line)
	for j, r := range sprites {
		if _, ok := splits[owner[j]]; !ok {
			continue
		}
		if c.blocks(line, footprint, r) {
			res.Blocking = append(res.Blocking, j)
		}
	}
	if len(res.Blocking) > 0 {
		res.Outcome = OutcomeLethal
		c.logger.Debug("Slice blocked by sprite",
			log.Stringer("line", line),
			log.Int("sprites", len(res.Blocking)))
		return res
	}

	next := make([]geom.Polygon, 0, len(c.surfaces)+len(splits))
	for i, s := range c.surfaces {
		sp, ok := splits[i]
		if !ok {
			next = append(next, s)
			continue
		}
		var pos, neg int
		for j, r := range sprites {
			if owner[j] != i {
				continue
			}
			if line.DirectionOf(r.Center()) > 0 {
				pos++
			} else {
				neg++
			}
		}
		switch {
		case pos > 0 && neg > 0:
			next = append(next, sp.pos, sp.neg)
			res.Duplicated++
		case neg > 0:
			next = append(next, sp.neg)
		default:
			next = append(next, sp.pos)
		}
	}
	c.surfaces = next

	res.Outcome = OutcomeApplied
	res.After = c.ClearRate()
	c.logger.Debug("Slice applied",
		log.Stringer("line", line),
		log.Int("affected", len(res.Affected)),
		log.Int("duplicated", res.Duplicated),
		log.Float64("clear_rate", res.After))
	return res
}

// hit is a crossing of a stretched drag with a surface edge.
type hit struct {
	at      geom.Point
	along   float64
	surface int
}

// Validate snaps an interactive drag v onto the surfaces. The drag is
// stretched across the field and intersected with every surface edge; the
// crossings are ordered along the drag and crossings of the same surface
// closer than the snap tolerance are merged. The first surface whose entry
// and exit crossings both fall within the drag, give or take the tolerance,
// yields the snapped cut.
func (c *Canvas) Validate(v geom.Vector) (Snap, bool) {
	if !v.IsValid() {
		return Snap{}, false
	}
	line := c.Stretch(v)
	tol := c.cfg.SnapTolerance

	var hits []hit
	for i, s := range c.surfaces {
		for _, e := range s.Vectors() {
			if p, ok := line.Intersect(e); ok {
				hits = append(hits, hit{at: p, along: line.Project(p), surface: i})
			}
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].along < hits[b].along })

	merged := hits[:0]
	for _, h := range hits {
		dup := false
		for k := len(merged) - 1; k >= 0 && h.along-merged[k].along <= tol; k-- {
			if merged[k].surface == h.surface {
				dup = true
				break
			}
		}
		if !dup {
			merged = append(merged, h)
		}
	}

	from, to := line.Project(v.Start), line.Project(v.End)
	seen := make(map[int]bool)
	for _, h := range merged {
		if seen[h.surface] {
			continue
		}
		seen[h.surface] = true

		exit, ok := lastHit(merged, h.surface)
		if !ok || exit.along-h.along <= tol {
			continue
		}
		if from <= h.along+tol && to >= exit.along-tol {
			return Snap{Cut: geom.Vector{Start: h.at, End: exit.at}, Surface: h.surface}, true
		}
	}
	return Snap{}, false
}

func lastHit(hits []hit, surface int) (hit, bool) {
	for i := len(hits) - 1; i >= 0; i-- {
		if hits[i].surface == surface {
			return hits[i], true
		}
	}
	return hit{}, false
}
