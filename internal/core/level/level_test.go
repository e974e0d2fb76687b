package level

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/slicer/internal/core/canvas"
	"github.com/zeusync/slicer/internal/core/events/bus"
	"github.com/zeusync/slicer/internal/core/geom"
	"github.com/zeusync/slicer/internal/core/physics"
	"github.com/zeusync/slicer/internal/core/sprite"
)

const tol = 1e-9

func testConfig(sprites ...SpriteConfig) Config {
	c := DefaultConfig()
	c.Width, c.Height = 100, 100
	c.Sprites = sprites
	c.SnapTolerance = 5
	return c
}

// recorder collects every event published on a bus.
type recorder struct {
	events []bus.Event
}

func record(t *testing.T, l *Level) *recorder {
	t.Helper()
	r := &recorder{}
	_, err := l.Bus().Subscribe(bus.Wildcard, func(e bus.Event) error {
		r.events = append(r.events, e)
		return nil
	})
	require.NoError(t, err)
	return r
}

func (r *recorder) types() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type())
	}
	return out
}

func newLevel(t *testing.T, cfg Config) *Level {
	t.Helper()
	l, err := New(cfg, nil, nil)
	require.NoError(t, err)
	return l
}

func TestNewAppliesInitialSlices(t *testing.T) {
	cfg := testConfig(SpriteConfig{X: 10, Y: 10, Width: 5, Height: 5, VX: 30})
	cfg.Slices = [][4]float64{{50, 0, 50, 100}}
	l := newLevel(t, cfg)

	require.Len(t, l.Canvas().Surfaces(), 1)
	assert.InDelta(t, 50, l.ClearRate(), tol)
	assert.Len(t, l.Edges(), 4)
	assert.Len(t, l.World().Edges(), 4)
	assert.Equal(t, uint32(1), l.Sprites()[0].Body().Layer)
}

func TestNewSkipsBlockedInitialSlice(t *testing.T) {
	cfg := testConfig(SpriteConfig{X: 48, Y: 40, Width: 5, Height: 5})
	cfg.Slices = [][4]float64{{50, 0, 50, 100}}
	l := newLevel(t, cfg)

	assert.Zero(t, l.ClearRate())
	assert.False(t, l.Cleared())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Width = -1
	_, err := New(cfg, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSliceDuplicatesAndRebuildsBoundaries(t *testing.T) {
	l := newLevel(t, testConfig(
		SpriteConfig{X: 10, Y: 10, Width: 5, Height: 5},
		SpriteConfig{X: 80, Y: 10, Width: 5, Height: 5},
	))
	rec := record(t, l)

	res := l.Slice(geom.V(50, 0, 50, 100))
	require.Equal(t, canvas.OutcomeApplied, res.Outcome)
	assert.Equal(t, []string{EventSliceApplied}, rec.types())

	ev, ok := rec.events[0].Data().(SliceEvent)
	require.True(t, ok)
	assert.Equal(t, 1, ev.Duplicated)
	assert.Equal(t, 2, ev.Surfaces)
	assert.InDelta(t, 50, ev.ClearRate, tol)

	assert.Len(t, l.World().Edges(), 8)
	sprites := l.Sprites()
	assert.Equal(t, uint32(1), sprites[0].Body().Layer)
	assert.Equal(t, uint32(2), sprites[1].Body().Layer)
}

func TestSliceLethalKeepsState(t *testing.T) {
	l := newLevel(t, testConfig(SpriteConfig{X: 48, Y: 40, Width: 5, Height: 5}))
	require.True(t, l.SetBlade(geom.V(50, 0, 50, 30)))
	rec := record(t, l)

	res := l.Slice(geom.V(50, 0, 50, 100))
	assert.Equal(t, canvas.OutcomeLethal, res.Outcome)
	require.Equal(t, []string{EventSliceLethal, EventLethalHit}, rec.types())
	hit, ok := rec.events[1].Data().(LethalHit)
	require.True(t, ok)
	assert.Equal(t, 0, hit.Sprite)
	assert.True(t, hit.Blade)
	assert.Equal(t, physics.KindBlade.String(), hit.Mover)
	assert.Equal(t, physics.KindSprite.String(), hit.Struck)
	assert.Equal(t, uint64(1), l.Metrics().LethalHits)
	assert.Zero(t, l.ClearRate())
	assert.Len(t, l.Canvas().Surfaces(), 1)

	_, ok = l.Blade()
	assert.False(t, ok, "a lethal cut drops the blade")
}

func TestSliceRejectedAndMissedPublishNothing(t *testing.T) {
	l := newLevel(t, testConfig())
	rec := record(t, l)

	assert.Equal(t, canvas.OutcomeRejected, l.Slice(geom.V(3, 3, 3, 3)).Outcome)
	assert.Equal(t, canvas.OutcomeMissed, l.Slice(geom.V(50, 0, 50, 100), 4).Outcome)
	assert.Empty(t, rec.events)
}

func TestClearedPublishedOnTransition(t *testing.T) {
	cfg := testConfig(SpriteConfig{X: 10, Y: 10, Width: 5, Height: 5})
	cfg.RequireClearRate = 50
	l := newLevel(t, cfg)
	rec := record(t, l)
	require.False(t, l.Cleared())

	l.Slice(geom.V(50, 0, 50, 100))
	assert.True(t, l.Cleared())
	l.Slice(geom.V(0, 50, 100, 50))
	assert.InDelta(t, 75, l.ClearRate(), tol)

	assert.Equal(t, []string{EventSliceApplied, EventCleared, EventSliceApplied}, rec.types())
	ev, ok := rec.events[1].Data().(ClearedEvent)
	require.True(t, ok)
	assert.InDelta(t, 50, ev.ClearRate, tol)
	assert.Equal(t, 50.0, ev.RequireClearRate)
}

func TestResetSlices(t *testing.T) {
	l := newLevel(t, testConfig(SpriteConfig{X: 10, Y: 10, Width: 5, Height: 5}))
	l.Slice(geom.V(50, 0, 50, 100))
	l.SetBlade(geom.V(0, 90, 100, 90))
	rec := record(t, l)

	for n := 0; n < 2; n++ {
		l.ResetSlices()
		assert.Zero(t, l.ClearRate())
		assert.Len(t, l.Edges(), 4)
		assert.Len(t, l.World().Edges(), 4)
		assert.Equal(t, geom.R(0, 0, 100, 100).Polygon().Points(), l.Canvas().Surfaces()[0].Points())
		_, ok := l.Blade()
		assert.False(t, ok)
	}
	assert.Equal(t, []string{EventReset, EventReset}, rec.types())
}

func TestBladeLethalHit(t *testing.T) {
	l := newLevel(t, testConfig(SpriteConfig{X: 10, Y: 45, Width: 10, Height: 10, VX: 600}))
	rec := record(t, l)

	assert.False(t, l.SetBlade(geom.V(50, 50, 50, 50)))
	require.True(t, l.SetBlade(geom.V(50, 0, 50, 100)))
	cut, ok := l.Blade()
	require.True(t, ok)
	assert.Equal(t, geom.V(50, 0, 50, 100), cut)

	for n := 0; n < 5; n++ {
		l.Update(1.0 / 60)
	}

	require.Equal(t, []string{EventLethalHit}, rec.types())
	hit, ok := rec.events[0].Data().(LethalHit)
	require.True(t, ok)
	assert.True(t, hit.Blade)
	assert.Equal(t, 0, hit.Sprite)
	assert.Equal(t, "sprite", hit.Mover)
	assert.Equal(t, "blade", hit.Struck)
	assert.Equal(t, uint64(3), hit.Tick)

	_, ok = l.Blade()
	assert.False(t, ok)
	l.ClearBlade()
	assert.Equal(t, uint64(1), l.Metrics().LethalHits)
	assert.Less(t, l.Sprites()[0].Velocity.X, 0.0)
}

func TestLethalSpriteHitsWall(t *testing.T) {
	l := newLevel(t, testConfig(SpriteConfig{X: 80, Y: 10, Width: 10, Height: 10, VX: 600, Lethal: true}))
	require.True(t, l.SetBlade(geom.V(0, 90, 30, 90)))
	rec := record(t, l)

	l.Update(1.0 / 60)
	require.Equal(t, []string{EventLethalHit}, rec.types())
	hit := rec.events[0].Data().(LethalHit)
	assert.False(t, hit.Blade)
	assert.Equal(t, "sprite", hit.Mover)
	// The field edge slab and the wall behind it sit on the same line.
	assert.Contains(t, []string{"wall", "edge"}, hit.Struck)

	_, ok := l.Blade()
	assert.True(t, ok, "only blade hits drop the blade")
}

func TestUpdateClampsDelta(t *testing.T) {
	l := newLevel(t, testConfig(SpriteConfig{X: 10, Y: 10, Width: 5, Height: 5, VX: 60}))

	l.Update(10)
	assert.InDelta(t, 15, l.Sprites()[0].Position().X, tol)
	assert.Equal(t, uint64(1), l.Tick())

	l.Update(0)
	l.Update(-1)
	m := l.Metrics()
	assert.Equal(t, uint64(1), l.Tick())
	assert.Equal(t, uint64(1), m.ExecutionCount)
	assert.Equal(t, uint64(1), m.ClampedTicks)
	assert.LessOrEqual(t, m.MinExecutionTime, m.MaxExecutionTime)
}

func TestSpritesStayInTheirSurface(t *testing.T) {
	l := newLevel(t, testConfig(
		SpriteConfig{X: 10, Y: 10, Width: 6, Height: 6, VX: 130, VY: 70},
		SpriteConfig{X: 70, Y: 60, Width: 6, Height: 6, VX: -110, VY: 90},
	))
	require.Equal(t, canvas.OutcomeApplied, l.Slice(geom.V(50, 0, 50, 100)).Outcome)

	left, right := l.Sprites()[0], l.Sprites()[1]
	for tick := 0; tick < 600; tick++ {
		l.Update(1.0 / 60)
		require.LessOrEqual(t, left.Rect().Max().X, 50+1e-6, "tick %d", tick)
		require.GreaterOrEqual(t, right.Rect().X, 50-1e-6, "tick %d", tick)
		require.GreaterOrEqual(t, left.Rect().X, -1e-6, "tick %d", tick)
		require.LessOrEqual(t, right.Rect().Max().X, 100+1e-6, "tick %d", tick)
	}
	assert.Positive(t, left.Bounces())
	assert.Positive(t, right.Bounces())
}

func TestAddAndClearSprites(t *testing.T) {
	l := newLevel(t, testConfig())
	assert.ErrorIs(t, l.AddSprite(nil), ErrNilSprite)

	s := sprite.New(geom.R(20, 20, 4, 4), geom.Pt(10, 0))
	require.NoError(t, l.AddSprite(s))
	assert.ErrorIs(t, l.AddSprite(s), physics.ErrAlreadyRegistered)
	assert.Equal(t, uint32(1), s.Body().Layer)
	assert.Len(t, l.Sprites(), 1)

	l.ClearSprites()
	assert.Empty(t, l.Sprites())
	assert.False(t, l.World().Registered(s))
	assert.Len(t, l.World().Objects(), 8)
}

func TestValidateThenSlice(t *testing.T) {
	l := newLevel(t, testConfig(SpriteConfig{X: 10, Y: 10, Width: 5, Height: 5}))

	snap, ok := l.ValidateSlice(geom.V(3, 50, 97, 50))
	require.True(t, ok)
	assert.Equal(t, 0, snap.Surface)

	res := l.Slice(snap.Cut, snap.Surface)
	require.Equal(t, canvas.OutcomeApplied, res.Outcome)
	assert.InDelta(t, 50, l.ClearRate(), tol)
}

func TestSnapshot(t *testing.T) {
	l := newLevel(t, testConfig(
		SpriteConfig{X: 10, Y: 10, Width: 5, Height: 5},
		SpriteConfig{X: 80, Y: 10, Width: 5, Height: 5, Lethal: true},
	))
	l.Slice(geom.V(50, 0, 50, 100))
	l.SetBlade(geom.V(0, 90, 30, 90))

	s := l.Snapshot()
	assert.Len(t, s.Surfaces, 2)
	assert.Len(t, s.Boundaries, 8)
	require.Len(t, s.Sprites, 2)
	assert.Equal(t, 0, s.Sprites[0].Surface)
	assert.Equal(t, 1, s.Sprites[1].Surface)
	assert.True(t, s.Sprites[1].Lethal)
	require.NotNil(t, s.Blade)
	assert.Equal(t, geom.V(0, 90, 30, 90), *s.Blade)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "clear_rate")
	assert.Contains(t, decoded, "blade")
	assert.Equal(t, 100.0, decoded["width"])
}

func TestApplyCommands(t *testing.T) {
	l := newLevel(t, testConfig(SpriteConfig{X: 10, Y: 10, Width: 5, Height: 5}))

	_, err := l.Apply(Command{Type: CommandBlade, Cut: geom.V(3, 50, 60, 50)})
	require.NoError(t, err)
	_, ok := l.Blade()
	assert.True(t, ok)

	_, err = l.Apply(Command{Type: CommandCancel})
	require.NoError(t, err)
	_, ok = l.Blade()
	assert.False(t, ok)

	res, err := l.Apply(Command{Type: CommandSlice, Cut: geom.V(3, 50, 97, 50)})
	require.NoError(t, err)
	assert.Equal(t, canvas.OutcomeApplied, res.Outcome)
	assert.Equal(t, []int{0}, res.Affected)

	// Too short to snap, applied as drawn and stretched across the field.
	res, err = l.Apply(Command{Type: CommandSlice, Cut: geom.V(30, 0, 30, 10)})
	require.NoError(t, err)
	assert.Equal(t, canvas.OutcomeApplied, res.Outcome)

	_, err = l.Apply(Command{Type: CommandReset})
	require.NoError(t, err)
	assert.Zero(t, l.ClearRate())

	_, err = l.Apply(Command{Type: "warp"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestCommandJSON(t *testing.T) {
	var cmd Command
	require.NoError(t, json.Unmarshal(
		[]byte(`{"type":"slice","cut":{"start":{"x":1,"y":2},"end":{"x":3,"y":4}}}`), &cmd))
	assert.Equal(t, Command{Type: CommandSlice, Cut: geom.V(1, 2, 3, 4)}, cmd)
}

func TestCommandTypeValid(t *testing.T) {
	for _, typ := range []CommandType{CommandBlade, CommandCancel, CommandSlice, CommandReset} {
		assert.True(t, typ.Valid(), typ)
	}
	assert.False(t, CommandType("").Valid())
	assert.False(t, CommandType("explode").Valid())
}
