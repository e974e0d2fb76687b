package physics

import (
	"github.com/zeusync/slicer/internal/core/geom"
	"github.com/zeusync/slicer/internal/core/observability/log"
)

const (
	// RecursionCap is the number of consecutive near-zero collision moves
	// after which the rest of a tick is dropped.
	RecursionCap = 4

	// nearZeroMove is the step length below which a collision move counts
	// toward the recursion cap.
	nearZeroMove = 1e-6
	// minRemaining is the smallest tick fraction worth continuing with.
	minRemaining = 1e-6
	// maxContinuations bounds re-entrant resolution within a single tick.
	maxContinuations = 32

	// wallScale sizes the boundary walls relative to the field.
	wallScale = 3
)

// Move summarises one MoveObject call.
type Move struct {
	Moved      geom.Point
	Collisions int
	Lethal     bool
	Capped     bool
}

// World owns the registered objects of one play level. It is not safe for
// concurrent use; the owning level drives it from the simulation goroutine.
type World struct {
	width, height float64

	walls   [4]*Static
	edges   []*Static
	objects []Object
	index   map[*Body]struct{}

	listener Listener
	logger   log.Log
}

// NewWorld creates a world for a width x height field enclosed by four
// permanent walls, each three times the field dimension and placed just
// outside its edge.
func NewWorld(width, height float64, logger log.Log) *World {
	if logger == nil {
		logger = log.Nop()
	}
	w := &World{
		width:  width,
		height: height,
		index:  make(map[*Body]struct{}),
		logger: logger.With(log.String("component", "physics")),
	}

	const k = wallScale
	w.walls = [4]*Static{
		NewWall(geom.R(-width, -k*height, k*width, k*height)), // top
		NewWall(geom.R(width, -height, k*width, k*height)),    // right
		NewWall(geom.R(-width, height, k*width, k*height)),    // bottom
		NewWall(geom.R(-k*width, -height, k*width, k*height)), // left
	}
	for _, wall := range w.walls {
		w.add(wall)
	}
	return w
}

func (w *World) Size() (width, height float64) { return w.width, w.height }

// SetListener installs the lethal collision listener; nil removes it.
func (w *World) SetListener(l Listener) { w.listener = l }

// Register adds o to the world. Registering the same object twice fails.
func (w *World) Register(o Object) error {
	if o == nil || o.Body() == nil {
		return ErrNilObject
	}
	if _, ok := w.index[o.Body()]; ok {
		return ErrAlreadyRegistered
	}
	w.add(o)
	return nil
}

func (w *World) add(o Object) {
	w.index[o.Body()] = struct{}{}
	w.objects = append(w.objects, o)
}

// Unregister removes o, keeping the registration order of the rest.
// Walls cannot be removed.
func (w *World) Unregister(o Object) error {
	if o == nil || o.Body() == nil {
		return ErrNilObject
	}
	if o.Body().Kind == KindWall {
		return ErrNotRegistered
	}
	if _, ok := w.index[o.Body()]; !ok {
		return ErrNotRegistered
	}
	delete(w.index, o.Body())
	for i, other := range w.objects {
		if other.Body() == o.Body() {
			w.objects = append(w.objects[:i:i], w.objects[i+1:]...)
			break
		}
	}
	return nil
}

func (w *World) Registered(o Object) bool {
	if o == nil || o.Body() == nil {
		return false
	}
	_, ok := w.index[o.Body()]
	return ok
}

// Objects returns the registered objects in registration order, walls first.
func (w *World) Objects() []Object {
	return append([]Object(nil), w.objects...)
}

func (w *World) Walls() [4]*Static { return w.walls }

// SetEdges replaces the polygon edge bodies with one slab per vector. Each
// loop gets its own collision layer, numbered from 1 in argument order, so
// a body on layer i only bounces off the boundary of loop i.
func (w *World) SetEdges(thickness float64, loops ...[]geom.Vector) {
	for _, e := range w.edges {
		_ = w.Unregister(e)
	}
	w.edges = w.edges[:0]
	for i, loop := range loops {
		for _, v := range loop {
			if !v.IsValid() {
				continue
			}
			e := NewEdge(v, thickness)
			e.body.Layer = uint32(i + 1)
			w.add(e)
			w.edges = append(w.edges, e)
		}
	}
	w.logger.Debug("Collision edges rebuilt",
		log.Int("loops", len(loops)),
		log.Int("edges", len(w.edges)))
}

// Edges returns the edge vectors currently backing collision bodies.
func (w *World) Edges() []geom.Vector {
	out := make([]geom.Vector, 0, len(w.edges))
	for _, e := range w.edges {
		b := e.Body()
		end := geom.Pt(b.Position.X+b.Bounds.W, b.Position.Y).Rotated(b.Position, b.Rotation)
		out = append(out, geom.Vector{Start: b.Position, End: end})
	}
	return out
}

// MoveObject moves o by (dx, dy), stopping at the nearest obstruction and
// continuing with the displacement o's collision callback returns while
// time remains in the tick.
func (w *World) MoveObject(o Object, dx, dy float64) Move {
	var m Move
	w.move(o, geom.Pt(dx, dy), &m, 0)
	return m
}

func (w *World) move(o Object, d geom.Point, m *Move, depth int) {
	if d.IsZero() {
		return
	}
	b := o.Body()

	hit, ok := w.nearest(o, d)
	if !ok {
		b.Position = b.Position.Add(d)
		m.Moved = m.Moved.Add(d)
		b.recursiveCheck = 0
		return
	}

	step := d.Scale(hit.entry)
	b.Position = b.Position.Add(step)
	m.Moved = m.Moved.Add(step)
	m.Collisions++

	if step.Len() < nearZeroMove {
		b.recursiveCheck++
	} else {
		b.recursiveCheck = 0
	}

	remaining := 1 - hit.entry
	if b.recursiveCheck >= RecursionCap {
		remaining = 0
		m.Capped = true
	}
	rest := d.Scale(remaining)

	next := o.Collided(Collision{
		Other:        hit.other,
		Normal:       hit.normal,
		Time:         hit.entry,
		Remaining:    remaining,
		Displacement: rest,
	})
	hit.other.Collided(Collision{
		Other:        o,
		Normal:       hit.normal.Neg(),
		Time:         hit.entry,
		Remaining:    remaining,
		Displacement: rest,
		Struck:       true,
	})

	if b.Lethal || hit.other.Body().Lethal {
		m.Lethal = true
		if w.listener != nil {
			w.listener.OnLethalCollision(o, hit.other)
		}
	}

	if remaining <= minRemaining {
		return
	}
	if depth >= maxContinuations {
		w.logger.Warn("Collision continuation limit reached",
			log.Stringer("kind", b.Kind),
			log.String("id", b.ID.String()))
		return
	}
	w.move(o, next, m, depth+1)
}

// nearest finds the obstruction with the earliest entry time. Ties keep
// registration order.
func (w *World) nearest(o Object, d geom.Point) (contact, bool) {
	b := o.Body()
	from := b.AABB()
	swept := union(from, from.Translated(d.X, d.Y))

	var best contact
	found := false
	for _, other := range w.objects {
		ob := other.Body()
		if ob == b || !b.Interacts(ob) || !touches(swept, ob.AABB()) {
			continue
		}
		c, ok := sweep(b, ob, d)
		if !ok {
			continue
		}
		if !found || c.entry < best.entry {
			c.other = other
			best = c
			found = true
		}
	}
	return best, found
}

func union(a, b geom.Rect) geom.Rect {
	minP := geom.Pt(min(a.X, b.X), min(a.Y, b.Y))
	maxP := geom.Pt(max(a.X+a.W, b.X+b.W), max(a.Y+a.H, b.Y+b.H))
	return geom.RectFromPoints(minP, maxP)
}

// touches is an inclusive overlap test; resting contact still needs a sweep.
func touches(a, b geom.Rect) bool {
	return a.X <= b.X+b.W && a.X+a.W >= b.X && a.Y <= b.Y+b.H && a.Y+a.H >= b.Y
}
