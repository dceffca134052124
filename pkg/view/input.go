package view

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"volview/pkg/logging"
)

// minWindowWidth keeps the contrast mapping invertible under right-drag
const minWindowWidth = 1e-3

// OnKeyRelease handles the cycle-axis and reset-view keys; other keys are ignored
func (v *VolumeView) OnKeyRelease(key Key) {
	switch {
	case keyMatches(key, v.params.CycleAxisKey):
		v.CycleAxis()
	case keyMatches(key, v.params.ResetViewKey):
		v.view = mgl32.Ident4()
	}
}

func keyMatches(key, binding Key) bool {
	return binding != "" && strings.EqualFold(string(key), string(binding))
}

// OnModifierChange records whether shift is held
func (v *VolumeView) OnModifierChange(shift bool) {
	v.input.shift = shift
}

// OnButton records button state. Releasing a button forgets the last pointer
// position so the next drag starts from a fresh delta.
func (v *VolumeView) OnButton(button Button, pressed bool) {
	switch button {
	case ButtonLeft:
		v.input.left = pressed
	case ButtonRight:
		v.input.right = pressed
	default:
		return
	}
	if !pressed {
		v.input.hasPrev = false
	}
}

// OnPointerMove pans while the left button is held and adjusts the image
// window while the right button is held
func (v *VolumeView) OnPointerMove(x, y float64) {
	if v.input.hasPrev {
		if v.input.left && v.height > 0 {
			h := float64(v.height)
			dx := (x - v.input.prevX) / h * 2
			dy := -(y - v.input.prevY) / h * 2
			v.view[12] += float32(dx)
			v.view[13] += float32(dy)
		}
		if v.input.right && v.image.Loaded() {
			s := v.params.DragSensitivity
			w := v.image.window
			w.Width += float32(x-v.input.prevX) * s
			w.Level -= float32(y-v.input.prevY) * s
			if w.Width < minWindowWidth {
				w.Width = minWindowWidth
			}
			v.image.window = w
		}
	}
	v.input.hasPrev = true
	v.input.prevX, v.input.prevY = x, y
}

// OnWheel zooms while shift is held and scrolls through slices otherwise.
// Pixel-based deltas are ignored in both modes.
func (v *VolumeView) OnWheel(dy float64, isLine bool) {
	if v.input.shift {
		scale := float32(1)
		if isLine {
			scale = 1 + float32(dy)/v.params.ZoomStep
		}
		v.zoom(scale)
		return
	}
	if !isLine {
		return
	}
	vol := v.image.Volume()
	if vol == nil {
		return
	}
	a := v.axis
	v.cursor[a] = clamp(v.cursor[a]+int(math.Round(dy)), 0, vol.Dim(a)-1)
}

// zoom scales the view about the last pointer position, or about the origin
// of the view when no pointer position is known
func (v *VolumeView) zoom(scale float32) {
	if scale == 1 {
		return
	}
	if !(scale > 0) {
		logging.Debugf("Ignoring zoom by %g", scale)
		return
	}
	s := mgl32.Scale3D(scale, scale, 1)
	if !v.input.hasPrev || v.width <= 0 || v.height <= 0 {
		v.view = s.Mul4(v.view)
		return
	}
	x, y := v.planeCoords(v.input.prevX, v.input.prevY)
	pre := mgl32.Translate3D(-x, -y, 0)
	post := mgl32.Translate3D(x, y, 0)
	v.view = post.Mul4(s).Mul4(pre).Mul4(v.view)
}

// planeCoords maps a framebuffer position to the plane the view matrix
// operates in, undoing the projection scale
func (v *VolumeView) planeCoords(px, py float64) (float32, float32) {
	x := (float32(px)/float32(v.width)*2 - 1) / v.projection.At(0, 0)
	y := (1 - float32(py)/float32(v.height)*2) / v.projection.At(1, 1)
	return x, y
}

// OnResize recomputes the projection so the display quad keeps a 1:1 aspect
func (v *VolumeView) OnResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	v.width, v.height = width, height
	v.projection = projectionMatrix(width, height)
}

// projectionMatrix leaves the longer framebuffer axis unscaled and shrinks
// the shorter one by the aspect ratio
func projectionMatrix(width, height int) mgl32.Mat4 {
	if width <= 0 || height <= 0 {
		return mgl32.Ident4()
	}
	aspect := float32(height) / float32(width)
	if aspect < 1 {
		return mgl32.Diag4(mgl32.Vec4{aspect, 1, 1, 1})
	}
	return mgl32.Diag4(mgl32.Vec4{1, 1 / aspect, 1, 1})
}

// OnLoad loads path and logs a failure instead of returning it
func (v *VolumeView) OnLoad(path string) {
	if err := v.Load(path); err != nil {
		logging.Errorf("Failed to load %s: %v", path, err)
	}
}
