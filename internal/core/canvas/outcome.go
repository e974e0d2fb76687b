package canvas

import (
	"fmt"

	"github.com/zeusync/slicer/internal/core/geom"
)

// Outcome classifies what a cut did.
type Outcome uint8

const (
	// OutcomeRejected means the cut was a zero-length vector.
	OutcomeRejected Outcome = iota
	// OutcomeMissed means no surface was separated by the cut.
	OutcomeMissed
	// OutcomeLethal means the blade touched a sprite; nothing changed.
	OutcomeLethal
	// OutcomeApplied means at least one surface was clipped.
	OutcomeApplied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeMissed:
		return "missed"
	case OutcomeLethal:
		return "lethal"
	case OutcomeApplied:
		return "applied"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Result reports a Slice call.
type Result struct {
	Outcome Outcome
	// Line is the cut stretched across the field.
	Line geom.Vector
	// Affected lists the indices, before the cut, of the surfaces it separated.
	Affected []int
	// Blocking lists the indices of the sprite rectangles the blade touched.
	Blocking []int
	// Duplicated counts surfaces that were split into both fragments.
	Duplicated int
	// Skipped counts separated surfaces left alone because a fragment was
	// degenerate.
	Skipped int
	// Before and After are the canvas clear rates around the cut.
	Before, After float64
}

// Snap is a drag cut adjusted onto the boundary of one surface.
type Snap struct {
	Cut     geom.Vector
	Surface int
}
