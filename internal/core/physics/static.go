package physics

import "github.com/zeusync/slicer/internal/core/geom"

// Static is a body that never moves on its own: boundary walls, polygon
// edges and the blade.
type Static struct {
	body Body
}

var _ Object = (*Static)(nil)

func (s *Static) Body() *Body                   { return &s.body }
func (s *Static) Collided(Collision) geom.Point { return geom.Point{} }

// NewWall is an axis-aligned, non-lethal boundary rectangle given in level space.
func NewWall(r geom.Rect) *Static {
	return &Static{body: NewBody(KindWall, r.Min(), geom.R(0, 0, r.W, r.H))}
}

// NewEdge turns a polygon edge into a rotated slab of the given thickness
// lying on the negative DirectionOf side of v, i.e. outside a clockwise
// surface.
func NewEdge(v geom.Vector, thickness float64) *Static {
	s := &Static{body: NewBody(KindEdge, v.Start, geom.R(0, -thickness, v.Distance(), thickness))}
	s.body.Rotation = v.Angle()
	return s
}

// NewBlade is the lethal collider for an in-progress cut: a slab of the
// given width centred on v.
func NewBlade(v geom.Vector, width float64) *Static {
	s := &Static{body: NewBody(KindBlade, v.Start, geom.R(0, -width/2, v.Distance(), width))}
	s.body.Rotation = v.Angle()
	s.body.Lethal = true
	return s
}
