package main

import (
	"fmt"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"volview/pkg/logging"
	"volview/pkg/view"
	"volview/pkg/visualization"
)

var mouseButtons = []struct {
	eb ebiten.MouseButton
	vb view.Button
}{
	{ebiten.MouseButtonLeft, view.ButtonLeft},
	{ebiten.MouseButtonRight, view.ButtonRight},
}

// hostGame feeds ebiten input to the view dispatcher once per tick and
// presents the software-rendered frame
type hostGame struct {
	views    *view.Dispatcher
	renderer *visualization.Renderer
	frameImg *ebiten.Image

	width, height    int
	layoutW, layoutH int

	shift            bool
	cursorX, cursorY int
	hasCursor        bool

	screenshotKey string
	screenshotDir string
	screenshots   int
}

// runWindow opens the viewer window and blocks until it is closed
func runWindow(g *hostGame, title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(g)
	if err == ebiten.Termination {
		return nil
	}
	return err
}

func (g *hostGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if g.layoutW > 0 && g.layoutH > 0 && (g.layoutW != g.width || g.layoutH != g.height) {
		g.width, g.height = g.layoutW, g.layoutH
		g.renderer.Resize(g.width, g.height)
		g.views.OnResize(g.width, g.height)
	}

	if shift := ebiten.IsKeyPressed(ebiten.KeyShift); shift != g.shift {
		g.shift = shift
		g.views.OnModifierChange(shift)
	}

	for _, b := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(b.eb) {
			g.views.OnButton(b.vb, true)
		}
		if inpututil.IsMouseButtonJustReleased(b.eb) {
			g.views.OnButton(b.vb, false)
		}
	}

	if x, y := ebiten.CursorPosition(); !g.hasCursor || x != g.cursorX || y != g.cursorY {
		g.hasCursor = true
		g.cursorX, g.cursorY = x, y
		g.views.OnPointerMove(float64(x), float64(y))
	}

	// ebiten reports wheel motion in lines
	if _, dy := ebiten.Wheel(); dy != 0 {
		g.views.OnWheel(dy, true)
	}

	for _, k := range inpututil.AppendJustReleasedKeys(nil) {
		name := k.String()
		if g.screenshotKey != "" && name == g.screenshotKey {
			g.saveScreenshot()
			continue
		}
		g.views.OnKeyRelease(view.Key(name))
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	g.views.Draw(g.renderer)
	frame := g.renderer.Frame()
	if frame == nil {
		return
	}
	w, h := frame.Bounds().Dx(), frame.Bounds().Dy()
	if g.frameImg == nil || g.frameImg.Bounds().Dx() != w || g.frameImg.Bounds().Dy() != h {
		if g.frameImg != nil {
			g.frameImg.Deallocate()
		}
		g.frameImg = ebiten.NewImage(w, h)
	}
	g.frameImg.WritePixels(frame.Pix)
	screen.DrawImage(g.frameImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.layoutW, g.layoutH = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

func (g *hostGame) saveScreenshot() {
	g.screenshots++
	path := filepath.Join(g.screenshotDir, fmt.Sprintf("volview_%03d.jpg", g.screenshots))
	if err := g.renderer.SaveFrame(path); err != nil {
		logging.Errorf("Failed to save screenshot: %v", err)
		return
	}
	logging.Infof("Saved screenshot to %s", path)
}
