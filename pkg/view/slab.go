package view

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"volview/internal/models"
	"volview/pkg/logging"
)

// TextureHandle is an opaque reference to a texture owned by a TextureStore.
// The zero handle refers to no texture.
type TextureHandle uint32

// TextureStore uploads textures to the rendering backend
type TextureStore interface {
	Upload3D(vol *models.Volume) (TextureHandle, error)
	Upload2D(img *image.RGBA) (TextureHandle, error)
	Release(h TextureHandle)
}

// Slab is one volume resident in the texture store, together with the view
// independent state derived from it
type Slab struct {
	volume  *models.Volume
	texture TextureHandle
	model   mgl32.Mat4
	window  Window
}

func newSlab() Slab {
	return Slab{
		model:  mgl32.Ident4(),
		window: Window{Width: 1, Level: 0},
	}
}

// Volume returns the loaded volume, or nil before the first load
func (s *Slab) Volume() *models.Volume { return s.volume }

// Texture returns the handle of the uploaded volume texture
func (s *Slab) Texture() TextureHandle { return s.texture }

// ModelMatrix returns the aspect-correcting model matrix for the current axis
func (s *Slab) ModelMatrix() mgl32.Mat4 { return s.model }

// Window returns the contrast parameters
func (s *Slab) Window() Window { return s.window }

// Loaded reports whether a volume has been installed
func (s *Slab) Loaded() bool { return s.volume != nil }

// modelMatrix scales the unit quad by the spacing of the two axes orthogonal
// to axis. The higher-index axis is horizontal, the lower-index one vertical.
func modelMatrix(axis models.Axis, vol *models.Volume) mgl32.Mat4 {
	if !axis.Valid() {
		panic(fmt.Sprintf("invalid axis: %d", axis))
	}
	if vol == nil {
		return mgl32.Ident4()
	}
	sp := vol.Spacing
	var horiz, vert float32
	switch axis {
	case models.Sagittal:
		horiz, vert = sp[2], sp[1]
	case models.Coronal:
		horiz, vert = sp[2], sp[0]
	case models.Axial:
		horiz, vert = sp[1], sp[0]
	}
	return mgl32.Diag4(mgl32.Vec4{horiz, vert, 1, 1})
}

func (s *Slab) setModelMatrix(axis models.Axis) {
	s.model = modelMatrix(axis, s.volume)
}

// setVolume uploads vol and installs it. The previous texture is released
// only after the new one is resident; on upload failure the slab is left
// untouched. Windowing defaults apply only to a slab that has never held a
// volume.
func (s *Slab) setVolume(vol *models.Volume, axis models.Axis, store TextureStore, defaults Window) error {
	if !axis.Valid() {
		panic(fmt.Sprintf("invalid axis: %d", axis))
	}
	h, err := store.Upload3D(vol)
	if err != nil {
		return fmt.Errorf("uploading volume texture: %w", err)
	}
	if s.texture != 0 {
		store.Release(s.texture)
	}
	if s.volume == nil {
		s.window = defaults
		logging.Debugf("Applied default window %g/%g", defaults.Width, defaults.Level)
	}
	s.texture = h
	s.volume = vol
	s.setModelMatrix(axis)
	return nil
}

// release frees the texture when the view shuts down
func (s *Slab) release(store TextureStore) {
	if s.texture != 0 {
		store.Release(s.texture)
	}
	s.texture = 0
}
