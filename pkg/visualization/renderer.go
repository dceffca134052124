package visualization

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"volview/internal/models"
	"volview/pkg/view"
)

// Renderer is a software implementation of the fragment stage: it samples
// the active slice of the image volume with nearest filtering, applies the
// contrast window and blends the mask on top
type Renderer struct {
	store *TextureStore
	frame *image.RGBA

	// Background fills pixels outside the display quad
	Background color.RGBA

	// OverlayColor and OverlayOpacity control how the mask is blended
	OverlayColor   color.RGBA
	OverlayOpacity float32
}

// NewRenderer creates a renderer drawing into a width x height frame
func NewRenderer(store *TextureStore, width, height int, opacity float32) *Renderer {
	r := &Renderer{
		store:          store,
		Background:     color.RGBA{0, 0, 255, 255},
		OverlayColor:   color.RGBA{255, 0, 0, 255},
		OverlayOpacity: opacity,
	}
	r.Resize(width, height)
	return r
}

// Resize reallocates the frame when the framebuffer size changes
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if r.frame != nil && r.frame.Bounds().Dx() == width && r.frame.Bounds().Dy() == height {
		return
	}
	r.frame = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Frame returns the most recently drawn frame
func (r *Renderer) Frame() *image.RGBA {
	return r.frame
}

// ndc converts the center of pixel (px, py) to normalised device coordinates
func ndc(px, py, width, height int) mgl32.Vec4 {
	return mgl32.Vec4{
		(float32(px)+0.5)/float32(width)*2 - 1,
		1 - (float32(py)+0.5)/float32(height)*2,
		0,
		1,
	}
}

// unproject inverts projection*view*model. A singular transform has no
// visible quad.
func unproject(m mgl32.Mat4) (mgl32.Mat4, error) {
	if m.Det() == 0 {
		return mgl32.Mat4{}, errors.New("singular view transform")
	}
	return m.Inv(), nil
}

// DrawVolume renders one slice of the image volume with the mask overlay
func (r *Renderer) DrawVolume(u view.Uniforms) error {
	if r.frame == nil {
		return errors.New("no framebuffer")
	}
	img, err := r.store.volume(u.Image)
	if err != nil {
		return err
	}
	var mask *models.Volume
	if u.HasMask {
		if mask, err = r.store.volume(u.Mask); err != nil {
			return err
		}
	}
	inv, err := unproject(u.Projection.Mul4(u.View).Mul4(u.Model))
	if err != nil {
		return err
	}

	w, h := r.frame.Bounds().Dx(), r.frame.Bounds().Dy()
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			q := inv.Mul4x1(ndc(px, py, w, h))
			if img == nil || q[0] < -1 || q[0] > 1 || q[1] < -1 || q[1] > 1 {
				r.frame.SetRGBA(px, py, r.Background)
				continue
			}
			g := windowed(sampleSlice(img, u.Axis, u.Cursor, (q[0]+1)/2, (q[1]+1)/2), u.Window)
			c := color.RGBA{uint8(g * 255), uint8(g * 255), uint8(g * 255), 255}

			if mask != nil {
				mq := u.MaskTransform.Mul4x1(mgl32.Vec4{q[0], q[1], 0, 1})
				if mq[0] >= -1 && mq[0] <= 1 && mq[1] >= -1 && mq[1] <= 1 {
					m := windowed(sampleSlice(mask, u.Axis, u.Cursor, (mq[0]+1)/2, (mq[1]+1)/2), u.MaskWindow)
					c = blend(c, r.OverlayColor, m*r.OverlayOpacity)
				}
			}
			r.frame.SetRGBA(px, py, c)
		}
	}
	return nil
}

// DrawPlanar renders a 2D picture on a quad spanning [-0.5, 0.5]
func (r *Renderer) DrawPlanar(u view.PlanarUniforms) error {
	if r.frame == nil {
		return errors.New("no framebuffer")
	}
	pic, err := r.store.picture(u.Texture)
	if err != nil {
		return err
	}
	inv, err := unproject(u.Projection.Mul4(u.Matrix))
	if err != nil {
		return err
	}

	w, h := r.frame.Bounds().Dx(), r.frame.Bounds().Dy()
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			q := inv.Mul4x1(ndc(px, py, w, h))
			if pic == nil || q[0] < -0.5 || q[0] > 0.5 || q[1] < -0.5 || q[1] > 0.5 {
				r.frame.SetRGBA(px, py, r.Background)
				continue
			}
			b := pic.Bounds()
			x := b.Min.X + texel(q[0]+0.5, b.Dx())
			y := b.Min.Y + b.Dy() - 1 - texel(q[1]+0.5, b.Dy())
			r.frame.SetRGBA(px, py, pic.RGBAAt(x, y))
		}
	}
	return nil
}

// texel maps a coordinate in [0,1] to the nearest texel index in [0,n-1]
func texel(s float32, n int) int {
	i := int(math.Floor(float64(s) * float64(n)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// sliceTexel maps a normalised cursor position back to its voxel index
func sliceTexel(c float32, n int) int {
	i := int(math.Round(float64(c) * float64(n)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// sampleSlice reads the voxel at display coordinates (s, t) of the slice
// through the cursor along axis. The higher-index in-plane axis runs
// horizontally and the lower-index one vertically.
func sampleSlice(vol *models.Volume, axis models.Axis, cursor [3]float32, s, t float32) float32 {
	nx, ny, nz := vol.Shape[0], vol.Shape[1], vol.Shape[2]
	if nx == 0 || ny == 0 || nz == 0 {
		return 0
	}
	var x, y, z int
	switch axis {
	case models.Sagittal:
		x, y, z = sliceTexel(cursor[0], nx), texel(t, ny), texel(s, nz)
	case models.Coronal:
		x, y, z = texel(t, nx), sliceTexel(cursor[1], ny), texel(s, nz)
	default:
		x, y, z = texel(t, nx), texel(s, ny), sliceTexel(cursor[2], nz)
	}
	return vol.Samples[vol.Index(x, y, z)]
}

// windowed maps a sample through the contrast window onto [0,1]
func windowed(v float32, w view.Window) float32 {
	if w.Width <= 0 {
		return 0
	}
	g := (v - (w.Level - w.Width/2)) / w.Width
	if g < 0 {
		return 0
	}
	if g > 1 {
		return 1
	}
	return g
}

func blend(base, over color.RGBA, alpha float32) color.RGBA {
	if alpha <= 0 {
		return base
	}
	if alpha > 1 {
		alpha = 1
	}
	mix := func(a, b uint8) uint8 {
		return uint8(float32(a)*(1-alpha) + float32(b)*alpha + 0.5)
	}
	return color.RGBA{mix(base.R, over.R), mix(base.G, over.G), mix(base.B, over.B), 255}
}
