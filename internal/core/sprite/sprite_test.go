package sprite

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/slicer/internal/core/geom"
	"github.com/zeusync/slicer/internal/core/physics"
)

func TestStepBouncesOffWalls(t *testing.T) {
	w := physics.NewWorld(100, 100, nil)
	s := New(geom.R(10, 10, 10, 10), geom.Pt(200, 0))
	require.NoError(t, w.Register(s))

	m := s.Step(w, 1)
	assert.Equal(t, 2, m.Collisions)
	assert.Equal(t, 2, s.Bounces())
	assert.InDelta(t, 30, s.Position().X, 1e-9)
	assert.InDelta(t, 10, s.Position().Y, 1e-9)
	assert.InDelta(t, 20, m.Moved.X, 1e-9)
	assert.Equal(t, geom.Pt(200, 0), s.Velocity)
}

func TestStepReflectsOffSlantedEdge(t *testing.T) {
	w := physics.NewWorld(100, 100, nil)
	w.SetEdges(10, []geom.Vector{geom.V(100, 0, 0, 100)})
	s := New(geom.R(20, 20, 4, 4), geom.Pt(100, 100))
	require.NoError(t, w.Register(s))

	m := s.Step(w, 0.2)
	assert.Zero(t, m.Collisions)

	m = s.Step(w, 0.1)
	require.Equal(t, 1, m.Collisions)
	assert.InDelta(t, -100, s.Velocity.X, 1e-6)
	assert.InDelta(t, -100, s.Velocity.Y, 1e-6)
	// 6 units to contact, 4 back out.
	assert.InDelta(t, 42, s.Position().X, 1e-6)
	assert.InDelta(t, 42, s.Position().Y, 1e-6)
}

func TestStruckSpriteReflectsWithoutMoving(t *testing.T) {
	w := physics.NewWorld(100, 100, nil)
	a := New(geom.R(10, 10, 10, 10), geom.Pt(40, 0))
	b := New(geom.R(40, 10, 10, 10), geom.Pt(-10, 0))
	require.NoError(t, w.Register(a))
	require.NoError(t, w.Register(b))

	a.Step(w, 1)
	assert.Equal(t, geom.Pt(10, 0), b.Velocity)
	assert.Equal(t, geom.Pt(-40, 0), a.Velocity)
	assert.Equal(t, geom.Pt(40, 10), b.Position())
	assert.InDelta(t, 10, a.Position().X, 1e-9)
}

func TestWedgedSpriteRecovers(t *testing.T) {
	w := physics.NewWorld(100, 100, nil)
	s := New(geom.R(90, 90, 10, 10), geom.Pt(50, 50))
	require.NoError(t, w.Register(s))

	for n := 0; n < physics.RecursionCap; n++ {
		s.Step(w, 1.0/60)
	}
	assert.Zero(t, s.Body().RecursiveCheck())
	assert.Equal(t, geom.Pt(-50, -50), s.Velocity)
	assert.Less(t, s.Rect().Max().X, 100.0)
	assert.Less(t, s.Rect().Max().Y, 100.0)
}

func TestLethalSpriteReportsWallContact(t *testing.T) {
	w := physics.NewWorld(100, 100, nil)
	var lethal int
	w.SetListener(physics.ListenerFunc(func(mover, struck physics.Object) { lethal++ }))

	s := New(geom.R(80, 10, 10, 10), geom.Pt(30, 0))
	s.SetLethal(true)
	require.NoError(t, w.Register(s))

	m := s.Step(w, 1)
	assert.True(t, m.Lethal)
	assert.Equal(t, 1, lethal)
}

func TestSpritesStayInsideField(t *testing.T) {
	const size = 100.0
	for _, edges := range []bool{false, true} {
		w := physics.NewWorld(size, size, nil)
		if edges {
			w.SetEdges(8, geom.R(0, 0, size, size).Polygon().Vectors())
		}
		rng := rand.New(rand.NewSource(7))

		var sprites []*Sprite
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				v := geom.Pt(rng.Float64()*400-200, rng.Float64()*400-200)
				s := New(geom.R(5+float64(i)*25, 5+float64(j)*25, 6, 6), v)
				require.NoError(t, w.Register(s))
				sprites = append(sprites, s)
			}
		}

		for tick := 0; tick < 2000; tick++ {
			for _, s := range sprites {
				s.Step(w, 1.0/60)
				r := s.Rect()
				require.GreaterOrEqual(t, r.X, -1e-6, "tick %d", tick)
				require.GreaterOrEqual(t, r.Y, -1e-6, "tick %d", tick)
				require.LessOrEqual(t, r.Max().X, size+1e-6, "tick %d", tick)
				require.LessOrEqual(t, r.Max().Y, size+1e-6, "tick %d", tick)
			}
		}
	}
}
