package view

import (
	"github.com/go-gl/mathgl/mgl32"

	"volview/internal/models"
	"volview/pkg/logging"
)

// Uniforms is everything the renderer needs to draw one frame of a VolumeView
type Uniforms struct {
	Axis models.Axis

	// Cursor is the slice position along each axis normalised by the image
	// extent along that axis
	Cursor [3]float32

	View       mgl32.Mat4
	Projection mgl32.Mat4
	Model      mgl32.Mat4
	MaskModel  mgl32.Mat4

	// MaskTransform maps image quad coordinates into mask quad coordinates
	MaskTransform mgl32.Mat4

	Window     Window
	MaskWindow Window

	Image   TextureHandle
	Mask    TextureHandle
	HasMask bool
}

// Renderer draws frames from uniform bundles
type Renderer interface {
	DrawVolume(u Uniforms) error
	DrawPlanar(u PlanarUniforms) error
}

// Uniforms derives the per-frame uniform set. It does not modify the view.
func (v *VolumeView) Uniforms() Uniforms {
	u := Uniforms{
		Axis:          v.axis,
		View:          v.view,
		Projection:    v.projection,
		Model:         v.image.model,
		MaskModel:     v.mask.model,
		MaskTransform: v.image.model.Mul4(v.mask.model.Inv()),
		Window:        v.image.window,
		MaskWindow:    v.mask.window,
		Image:         v.image.texture,
		Mask:          v.mask.texture,
		HasMask:       v.mask.Loaded(),
	}
	if vol := v.image.Volume(); vol != nil {
		for a := models.Sagittal; a <= models.Axial; a++ {
			if n := vol.Dim(a); n > 0 {
				u.Cursor[a] = float32(v.cursor[a]) / float32(n)
			}
		}
	}
	return u
}

// Draw renders one frame. A renderer failure skips the frame only.
func (v *VolumeView) Draw(r Renderer) {
	if err := r.DrawVolume(v.Uniforms()); err != nil {
		logging.Warningf("Skipping frame: %v", err)
	}
}
