// Package level runs one play level: it owns the canvas of play surfaces,
// the physics world and the sprites roaming it, applies player cuts and
// reports what happened on an event bus.
//
// A Level is driven from a single simulation goroutine. Inputs arriving from
// elsewhere (terminal, network) must be handed to that goroutine before they
// touch the level.
package level

import (
	"time"

	"github.com/zeusync/slicer/internal/core/canvas"
	"github.com/zeusync/slicer/internal/core/events/bus"
	"github.com/zeusync/slicer/internal/core/geom"
	"github.com/zeusync/slicer/internal/core/observability/log"
	"github.com/zeusync/slicer/internal/core/physics"
	"github.com/zeusync/slicer/internal/core/sprite"
)

// maxTickScale bounds how many nominal ticks a single Update may simulate.
const maxTickScale = 5

// Level is one running play level.
type Level struct {
	cfg Config

	canvas  *canvas.Canvas
	world   *physics.World
	sprites []*sprite.Sprite

	blade    *physics.Static
	bladeCut geom.Vector

	bus    bus.EventBus
	logger log.Log

	tick    uint64
	cleared bool
	pending []LethalHit
	metrics TickMetrics
}

var _ physics.Listener = (*Level)(nil)

// New builds a level from cfg, places its sprites and applies its initial
// slices in order. A nil bus gets a private one.
func New(cfg Config, logger log.Log, eb bus.EventBus) (*Level, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}
	if eb == nil {
		eb = bus.New()
	}
	logger = logger.With(log.String("component", "level"))

	l := &Level{
		cfg:    cfg,
		canvas: canvas.New(cfg.CanvasConfig(), logger),
		world:  physics.NewWorld(cfg.Width, cfg.Height, logger),
		bus:    eb,
		logger: logger,
	}
	l.world.SetListener(l)

	for _, sc := range cfg.Sprites {
		s := sprite.New(sc.Rect(), sc.Velocity())
		s.SetLethal(sc.Lethal)
		if err := l.AddSprite(s); err != nil {
			return nil, err
		}
	}
	for i, q := range cfg.Slices {
		res := l.canvas.Slice(geom.VectorFromQuad(q), l.spriteRects())
		if res.Outcome != canvas.OutcomeApplied {
			l.logger.Warn("Initial slice not applied",
				log.Int("slice", i),
				log.Stringer("outcome", res.Outcome))
		}
	}
	l.rebuild()
	l.cleared = l.Cleared()

	l.logger.Info("Level loaded",
		log.Float64("width", cfg.Width),
		log.Float64("height", cfg.Height),
		log.Int("sprites", len(l.sprites)),
		log.Int("surfaces", len(l.canvas.Surfaces())),
		log.Float64("clear_rate", l.ClearRate()))
	return l, nil
}

func (l *Level) Config() Config            { return l.cfg }
func (l *Level) Canvas() *canvas.Canvas    { return l.canvas }
func (l *Level) World() *physics.World     { return l.world }
func (l *Level) Bus() bus.EventBus         { return l.bus }
func (l *Level) Tick() uint64              { return l.tick }
func (l *Level) Metrics() TickMetrics      { return l.metrics }
func (l *Level) Sprites() []*sprite.Sprite { return append([]*sprite.Sprite(nil), l.sprites...) }

// ClearRate is the percentage of the field no longer covered by play
// surfaces.
func (l *Level) ClearRate() float64 { return l.canvas.ClearRate() }

// Cleared reports whether the clear rate has reached the required rate.
func (l *Level) Cleared() bool { return l.ClearRate() >= l.cfg.RequireClearRate }

// Edges are the boundary edges of every play surface.
func (l *Level) Edges() []geom.Vector { return l.canvas.Edges() }

// ResetSlices restores the full field and drops any blade in progress.
func (l *Level) ResetSlices() {
	l.ClearBlade()
	l.canvas.Reset()
	l.rebuild()
	l.cleared = l.Cleared()
	l.publish(EventReset, nil)
	l.logger.Debug("Slices reset")
}

// Slice applies the cut v. When restrict is given only those surfaces may
// be cut; see canvas.Canvas.Slice. A cut blocked by sprites also publishes
// one EventLethalHit per blocking sprite.
func (l *Level) Slice(v geom.Vector, restrict ...int) canvas.Result {
	res := l.canvas.Slice(v, l.spriteRects(), restrict...)
	switch res.Outcome {
	case canvas.OutcomeLethal:
		l.ClearBlade()
		l.publish(EventSliceLethal, l.sliceEvent(res))
		for _, i := range res.Blocking {
			l.metrics.LethalHits++
			l.publish(EventLethalHit, LethalHit{
				Tick:   l.tick,
				Sprite: i,
				Mover:  physics.KindBlade.String(),
				Struck: physics.KindSprite.String(),
				Blade:  true,
			})
		}
	case canvas.OutcomeApplied:
		l.rebuild()
		l.publish(EventSliceApplied, l.sliceEvent(res))
		if cleared := l.Cleared(); cleared && !l.cleared {
			l.publish(EventCleared, ClearedEvent{
				ClearRate:        res.After,
				RequireClearRate: l.cfg.RequireClearRate,
			})
			l.logger.Info("Level cleared", log.Float64("clear_rate", res.After))
		}
		l.cleared = l.Cleared()
	}
	return res
}

// ValidateSlice snaps an interactive drag onto the current surfaces.
func (l *Level) ValidateSlice(v geom.Vector) (canvas.Snap, bool) {
	return l.canvas.Validate(v)
}

// SetBlade registers the lethal blade collider along v, replacing any
// previous one. It reports false for a zero-length v.
func (l *Level) SetBlade(v geom.Vector) bool {
	if !v.IsValid() {
		return false
	}
	l.ClearBlade()
	width := l.cfg.SliceWidth
	if width <= 0 {
		width = minBladeWidth
	}
	l.blade = physics.NewBlade(v, width)
	l.bladeCut = v
	if err := l.world.Register(l.blade); err != nil {
		l.logger.Warn("Blade registration failed", log.Error(err))
		l.blade = nil
		return false
	}
	return true
}

// minBladeWidth keeps the blade collider a real slab when the configured
// slice width is zero.
const minBladeWidth = 1e-3

// ClearBlade removes the blade collider. Calling it without a blade is a
// no-op.
func (l *Level) ClearBlade() {
	if l.blade == nil {
		return
	}
	_ = l.world.Unregister(l.blade)
	l.blade = nil
	l.bladeCut = geom.Vector{}
}

func (l *Level) Blade() (geom.Vector, bool) { return l.bladeCut, l.blade != nil }

// AddSprite registers s with the physics world.
func (l *Level) AddSprite(s *sprite.Sprite) error {
	if s == nil {
		return ErrNilSprite
	}
	if err := l.world.Register(s); err != nil {
		return err
	}
	l.sprites = append(l.sprites, s)
	l.assignLayer(s)
	return nil
}

// ClearSprites unregisters every sprite.
func (l *Level) ClearSprites() {
	for _, s := range l.sprites {
		_ = l.world.Unregister(s)
	}
	l.sprites = nil
}

// Update advances every sprite by dt seconds, in registration order. dt is
// clamped to a few nominal ticks so a stalled caller cannot tunnel sprites
// through the boundary. Lethal collisions raised during the tick are
// published once every sprite has moved.
func (l *Level) Update(dt float64) {
	if dt <= 0 {
		return
	}
	start := time.Now()
	if limit := maxTickScale * l.cfg.TickInterval(); dt > limit {
		dt = limit
		l.metrics.ClampedTicks++
	}
	l.tick++

	for _, s := range l.sprites {
		m := s.Step(l.world, dt)
		l.metrics.Collisions += uint64(m.Collisions)
	}

	if len(l.pending) > 0 {
		hits := l.pending
		l.pending = nil
		blade := false
		for _, h := range hits {
			blade = blade || h.Blade
			l.metrics.LethalHits++
			l.publish(EventLethalHit, h)
		}
		if blade {
			l.ClearBlade()
		}
	}
	l.metrics.record(start, time.Since(start))
}

// OnLethalCollision queues the hit; Update publishes it after the tick.
func (l *Level) OnLethalCollision(mover, struck physics.Object) {
	mb, sb := mover.Body(), struck.Body()
	hit := LethalHit{
		Tick:   l.tick,
		Sprite: -1,
		Mover:  mb.Kind.String(),
		Struck: sb.Kind.String(),
		Blade:  mb.Kind == physics.KindBlade || sb.Kind == physics.KindBlade,
	}
	for i, s := range l.sprites {
		if s.Body() == mb || s.Body() == sb {
			hit.Sprite = i
			break
		}
	}
	l.pending = append(l.pending, hit)
}

// rebuild recreates the boundary collision bodies from the surfaces and
// binds every sprite to the surface it is in.
func (l *Level) rebuild() {
	l.world.SetEdges(l.cfg.EdgeThickness, l.canvas.Loops()...)
	for _, s := range l.sprites {
		l.assignLayer(s)
	}
}

func (l *Level) assignLayer(s *sprite.Sprite) {
	s.SetLayer(uint32(l.canvas.SurfaceOf(s.Center()) + 1))
}

func (l *Level) spriteRects() []geom.Rect {
	out := make([]geom.Rect, len(l.sprites))
	for i, s := range l.sprites {
		out[i] = s.Rect()
	}
	return out
}

func (l *Level) sliceEvent(res canvas.Result) SliceEvent {
	return SliceEvent{
		Outcome:    res.Outcome,
		Line:       res.Line,
		Affected:   res.Affected,
		Blocking:   res.Blocking,
		Duplicated: res.Duplicated,
		ClearRate:  res.After,
		Surfaces:   len(l.canvas.Surfaces()),
	}
}

func (l *Level) publish(typ string, data any) {
	if err := l.bus.Publish(bus.NewEvent(typ, EventSource, data)); err != nil {
		l.logger.Warn("Event handler failed", log.String("event", typ), log.Error(err))
	}
}
