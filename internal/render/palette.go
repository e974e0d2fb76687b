package render

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spreads successive surface hues around the wheel.
const goldenAngle = 137.50776405

// Palette holds the colours of a level view.
type Palette struct {
	Background color.RGBA
	Edge       color.RGBA
	Sprite     color.RGBA
	Hazard     color.RGBA
	Blade      color.RGBA
	Text       color.RGBA

	baseHue    float64
	saturation float64
	value      float64
}

func hsv(h, s, v float64) color.RGBA {
	r, g, b := colorful.Hsv(math.Mod(h, 360), clamp(s, 0, 1), clamp(v, 0, 1)).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// DefaultPalette starts surface hues at baseHue degrees.
func DefaultPalette(baseHue float64) Palette {
	return Palette{
		Background: hsv(0, 0, 0.05),
		Edge:       hsv(baseHue, 0.1, 0.95),
		Sprite:     hsv(baseHue+180, 0.6, 1),
		Hazard:     hsv(0, 0.9, 1),
		Blade:      hsv(50, 1, 1),
		Text:       hsv(0, 0, 0.85),
		baseHue:    baseHue,
		saturation: 0.55,
		value:      0.55,
	}
}

// Surface is the fill colour of surface i.
func (p Palette) Surface(i int) color.RGBA {
	return hsv(p.baseHue+float64(i)*goldenAngle, p.saturation, p.value)
}

// Progress blends from the background towards the blade colour as the clear
// rate, in percent, approaches 100.
func (p Palette) Progress(rate float64) color.RGBA {
	from := colorful.Color{R: float64(p.Background.R) / 255, G: float64(p.Background.G) / 255, B: float64(p.Background.B) / 255}
	to := colorful.Color{R: float64(p.Blade.R) / 255, G: float64(p.Blade.G) / 255, B: float64(p.Blade.B) / 255}
	r, g, b := from.BlendLab(to, clamp(rate/100, 0, 1)).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
