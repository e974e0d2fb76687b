package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertNearColor(t *testing.T, want, got color.RGBA) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, 1)
	assert.InDelta(t, want.G, got.G, 1)
	assert.InDelta(t, want.B, got.B, 1)
}

func TestPaletteSurfacesDiffer(t *testing.T) {
	p := DefaultPalette(200)
	seen := make(map[color.RGBA]bool)
	for i := 0; i < 6; i++ {
		c := p.Surface(i)
		assert.Equal(t, uint8(255), c.A)
		assert.False(t, seen[c], "surface %d repeats a colour", i)
		seen[c] = true
	}
	assert.Equal(t, p.Surface(2), p.Surface(2))
}

func TestPaletteProgress(t *testing.T) {
	p := DefaultPalette(0)
	assertNearColor(t, p.Background, p.Progress(0))
	assertNearColor(t, p.Blade, p.Progress(100))
	assertNearColor(t, p.Blade, p.Progress(250))
	assert.NotEqual(t, p.Progress(0), p.Progress(50))
}
