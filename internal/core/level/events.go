package level

import (
	"github.com/zeusync/slicer/internal/core/canvas"
	"github.com/zeusync/slicer/internal/core/geom"
)

// Event types published on the level bus.
const (
	EventSliceApplied = "slice.applied"
	EventSliceLethal  = "slice.lethal"
	EventLethalHit    = "collision.lethal"
	EventCleared      = "canvas.cleared"
	EventReset        = "slices.reset"
)

// EventSource is the Source of every event a level publishes.
const EventSource = "level"

// SliceEvent is the payload of EventSliceApplied and EventSliceLethal.
type SliceEvent struct {
	Outcome    canvas.Outcome `json:"outcome"`
	Line       geom.Vector    `json:"line"`
	Affected   []int          `json:"affected,omitempty"`
	Blocking   []int          `json:"blocking,omitempty"`
	Duplicated int            `json:"duplicated,omitempty"`
	ClearRate  float64        `json:"clear_rate"`
	Surfaces   int            `json:"surfaces"`
}

// LethalHit is the payload of EventLethalHit: a collision during a tick in
// which either side was lethal.
type LethalHit struct {
	Tick uint64 `json:"tick"`
	// Sprite is the index of the sprite involved, or -1.
	Sprite int    `json:"sprite"`
	Mover  string `json:"mover"`
	Struck string `json:"struck"`
	// Blade is set when the hit was against the interactive blade.
	Blade bool `json:"blade"`
}

// ClearedEvent is the payload of EventCleared.
type ClearedEvent struct {
	ClearRate        float64 `json:"clear_rate"`
	RequireClearRate float64 `json:"require_clear_rate"`
}
