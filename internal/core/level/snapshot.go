package level

import "github.com/zeusync/slicer/internal/core/geom"

// Snapshot is a read-only copy of the level state for renderers and the
// debug stream.
type Snapshot struct {
	Tick             uint64         `json:"tick"`
	Width            float64        `json:"width"`
	Height           float64        `json:"height"`
	Surfaces         [][]geom.Point `json:"surfaces"`
	Boundaries       []geom.Vector  `json:"boundaries"`
	Sprites          []SpriteState  `json:"sprites"`
	Blade            *geom.Vector   `json:"blade,omitempty"`
	ClearRate        float64        `json:"clear_rate"`
	RequireClearRate float64        `json:"require_clear_rate"`
	Cleared          bool           `json:"cleared"`
}

type SpriteState struct {
	ID       string     `json:"id"`
	Rect     geom.Rect  `json:"rect"`
	Velocity geom.Point `json:"velocity"`
	Lethal   bool       `json:"lethal,omitempty"`
	// Surface is the index of the surface the sprite roams, or -1.
	Surface int `json:"surface"`
}

// Snapshot copies the current state.
func (l *Level) Snapshot() Snapshot {
	s := Snapshot{
		Tick:             l.tick,
		Width:            l.cfg.Width,
		Height:           l.cfg.Height,
		Boundaries:       l.world.Edges(),
		ClearRate:        l.ClearRate(),
		RequireClearRate: l.cfg.RequireClearRate,
		Cleared:          l.Cleared(),
	}
	for _, p := range l.canvas.Surfaces() {
		s.Surfaces = append(s.Surfaces, p.Points())
	}
	for _, sp := range l.sprites {
		s.Sprites = append(s.Sprites, SpriteState{
			ID:       sp.Body().ID.String(),
			Rect:     sp.Rect(),
			Velocity: sp.Velocity,
			Lethal:   sp.Body().Lethal,
			Surface:  int(sp.Body().Layer) - 1,
		})
	}
	if l.blade != nil {
		v := l.bladeCut
		s.Blade = &v
	}
	return s
}
