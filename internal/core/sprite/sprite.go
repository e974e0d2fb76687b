// Package sprite implements the bouncing bodies that roam a play surface.
package sprite

import (
	"github.com/zeusync/slicer/internal/core/geom"
	"github.com/zeusync/slicer/internal/core/physics"
)

// Mover is the part of the physics world a sprite needs to advance.
type Mover interface {
	MoveObject(o physics.Object, dx, dy float64) physics.Move
}

// Sprite is an axis-aligned box moving at constant speed and bouncing off
// whatever it hits.
type Sprite struct {
	body     physics.Body
	Velocity geom.Point

	bounces int
}

var _ physics.Object = (*Sprite)(nil)

// New places a sprite with the given level space rectangle and velocity in
// level units per second.
func New(r geom.Rect, velocity geom.Point) *Sprite {
	return &Sprite{
		body:     physics.NewBody(physics.KindSprite, r.Min(), geom.R(0, 0, r.W, r.H)),
		Velocity: velocity,
	}
}

func (s *Sprite) Body() *physics.Body { return &s.body }

// SetLethal flags the sprite as a hazard that ends a cut on contact.
func (s *Sprite) SetLethal(lethal bool) { s.body.Lethal = lethal }

// SetLayer binds the sprite to the boundary of one play surface.
func (s *Sprite) SetLayer(layer uint32) { s.body.Layer = layer }

func (s *Sprite) Rect() geom.Rect      { return s.body.WorldRect() }
func (s *Sprite) Center() geom.Point   { return s.body.WorldRect().Center() }
func (s *Sprite) Position() geom.Point { return s.body.Position }
func (s *Sprite) Bounces() int         { return s.bounces }

// Step advances the sprite by its velocity over dt seconds.
func (s *Sprite) Step(world Mover, dt float64) physics.Move {
	return world.MoveObject(s, s.Velocity.X*dt, s.Velocity.Y*dt)
}

// Collided reflects the velocity off the contact normal when the sprite is
// heading into it and continues with the reflected remainder.
func (s *Sprite) Collided(c physics.Collision) geom.Point {
	if geom.Dot(s.Velocity, c.Normal) < 0 {
		s.Velocity = reflect(s.Velocity, c.Normal)
		s.bounces++
	}
	if c.Struck {
		return geom.Point{}
	}
	return reflect(c.Displacement, c.Normal)
}

func reflect(v, n geom.Point) geom.Point {
	if geom.Dot(v, n) >= 0 {
		return v
	}
	return v.Sub(n.Scale(2 * geom.Dot(v, n)))
}
