// Package physics is the swept-collision world sprites move through. Every
// participant exposes a Body; a mover sweeps its bounds along the requested
// displacement against every other registered body and stops at the nearest
// obstruction, continuing with whatever displacement its collision callback
// returns.
package physics

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zeusync/slicer/internal/core/geom"
)

// Kind tags the flavour of a body.
type Kind uint8

const (
	KindWall Kind = iota
	KindEdge
	KindSprite
	KindBlade
)

func (k Kind) String() string {
	switch k {
	case KindWall:
		return "wall"
	case KindEdge:
		return "edge"
	case KindSprite:
		return "sprite"
	case KindBlade:
		return "blade"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Body is the state the world reads and moves. Bounds and Pivot are in the
// body's local frame; Position translates that frame into level space after
// rotating it by Rotation degrees around Pivot.
type Body struct {
	ID       uuid.UUID
	Kind     Kind
	Position geom.Point
	Bounds   geom.Rect
	Rotation float64
	Pivot    geom.Point
	Lethal   bool
	// Layer groups bodies that can touch each other. Zero touches every
	// layer; two non-zero layers only touch when equal.
	Layer uint32

	recursiveCheck int
}

func NewBody(kind Kind, position geom.Point, bounds geom.Rect) Body {
	return Body{
		ID:       uuid.New(),
		Kind:     kind,
		Position: position,
		Bounds:   bounds,
	}
}

func (b *Body) Rotated() bool { return b.Rotation != 0 }

// Interacts reports whether b and o share a collision layer.
func (b *Body) Interacts(o *Body) bool {
	return b.Layer == 0 || o.Layer == 0 || b.Layer == o.Layer
}

// RecursiveCheck is the number of consecutive near-zero collision moves.
func (b *Body) RecursiveCheck() int { return b.recursiveCheck }

// WorldRect is the bounds translated into level space, ignoring rotation.
func (b *Body) WorldRect() geom.Rect {
	return b.Bounds.Translated(b.Position.X, b.Position.Y)
}

// Corners are the level space corners of the bounds, rotation applied.
func (b *Body) Corners() [4]geom.Point {
	c := b.Bounds.Corners()
	if !b.Rotated() {
		for i := range c {
			c[i] = c[i].Add(b.Position)
		}
		return c
	}
	for i := range c {
		c[i] = c[i].Rotated(b.Pivot, b.Rotation).Add(b.Position)
	}
	return c
}

// Polygon is the level space outline of the body.
func (b *Body) Polygon() geom.Polygon {
	c := b.Corners()
	return geom.NewPolygon(c[:]...)
}

// AABB is the axis-aligned box around the rotated corners.
func (b *Body) AABB() geom.Rect {
	if !b.Rotated() {
		return b.WorldRect()
	}
	return b.Polygon().Bounds()
}

// Collision describes one resolved contact from the receiver's point of view.
type Collision struct {
	// Other is the body on the other side of the contact.
	Other Object
	// Normal is the unit contact normal pointing away from Other.
	Normal geom.Point
	// Time is the entry time as a fraction of the requested displacement.
	Time float64
	// Remaining is the unmoved fraction of the tick, zeroed once the recursion cap engages.
	Remaining float64
	// Displacement is the part of the mover's displacement still to travel.
	Displacement geom.Point
	// Struck is set when the receiver was hit rather than moving.
	Struck bool
}

// Object is anything the world can register.
type Object interface {
	Body() *Body
	// Collided is called on both participants of a contact. For the mover the
	// returned displacement continues the move for the rest of the tick; the
	// struck side's return value is ignored.
	Collided(c Collision) geom.Point
}

// Listener receives lethal collisions. The world does not own it.
type Listener interface {
	OnLethalCollision(mover, struck Object)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(mover, struck Object)

func (f ListenerFunc) OnLethalCollision(mover, struck Object) { f(mover, struck) }
