package render

import (
	"image/color"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/slicer/internal/core/geom"
	"github.com/zeusync/slicer/internal/core/level"
)

// Signal tells the caller what to do with a handled terminal event.
type Signal uint8

const (
	SignalNone Signal = iota
	// SignalCommand means the returned command should reach the level.
	SignalCommand
	SignalRedraw
	SignalQuit
)

// View draws snapshots on a terminal screen and turns mouse drags into
// blade and slice commands. Draw and Handle may run on different
// goroutines.
type View struct {
	screen tcell.Screen
	pal    Palette

	mu            sync.Mutex
	grid          *Grid
	width, height float64
	dragging      bool
	dragStart     geom.Point
}

func NewView(screen tcell.Screen, pal Palette) *View {
	return &View{screen: screen, pal: pal}
}

// Draw rasterizes s to the screen size and shows it.
func (v *View) Draw(s level.Snapshot) error {
	cols, rows := v.screen.Size()
	g, err := Rasterize(s, cols, rows, v.pal)
	if err != nil {
		return err
	}
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			c := g.At(x, y)
			v.screen.SetContent(x, y, c.Rune, nil, style(c))
		}
	}
	v.screen.Show()

	v.mu.Lock()
	v.grid, v.width, v.height = g, s.Width, s.Height
	v.mu.Unlock()
	return nil
}

// Handle translates one terminal event. Pressing the left button starts a
// drag, moving with it held sends blade updates and releasing it sends the
// slice; 'r' resets, 'q', Esc and Ctrl-C quit.
func (v *View) Handle(ev tcell.Event) (level.Command, Signal) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return level.Command{}, SignalQuit
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return level.Command{}, SignalQuit
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'r':
			return level.Command{Type: level.CommandReset}, SignalCommand
		}
	case *tcell.EventResize:
		v.screen.Sync()
		return level.Command{}, SignalRedraw
	case *tcell.EventMouse:
		return v.mouse(ev)
	}
	return level.Command{}, SignalNone
}

func (v *View) mouse(ev *tcell.EventMouse) (level.Command, Signal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.grid == nil {
		return level.Command{}, SignalNone
	}

	x, y := ev.Position()
	at := v.grid.ToLevel(x, y, v.width, v.height)
	pressed := ev.Buttons()&tcell.Button1 != 0

	switch {
	case pressed && !v.dragging:
		v.dragging, v.dragStart = true, at
	case pressed:
		cut := geom.Vector{Start: v.dragStart, End: at}
		if cut.IsValid() {
			return level.Command{Type: level.CommandBlade, Cut: cut}, SignalCommand
		}
	case v.dragging:
		v.dragging = false
		cut := geom.Vector{Start: v.dragStart, End: at}
		if !cut.IsValid() {
			return level.Command{Type: level.CommandCancel}, SignalCommand
		}
		return level.Command{Type: level.CommandSlice, Cut: cut}, SignalCommand
	}
	return level.Command{}, SignalNone
}

func style(c Cell) tcell.Style {
	return tcell.StyleDefault.Foreground(rgb(c.Fg)).Background(rgb(c.Bg))
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
