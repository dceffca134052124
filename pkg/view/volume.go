// Package view holds the interactive state of the viewer: the slabs of the
// image and mask volumes, the slicing cursor, the pan/zoom view transform,
// and the handlers that apply host input events to them.
package view

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"volview/internal/models"
	"volview/pkg/logging"
)

// VolumeLoader decodes a scan file into a volume
type VolumeLoader interface {
	Load(path string) (*models.Volume, error)
}

// inputState tracks raw input between events
type inputState struct {
	left  bool
	right bool
	shift bool

	hasPrev      bool
	prevX, prevY float64
}

// VolumeView shows one slice of an image volume with an optional mask
// overlay. It is driven from a single goroutine.
type VolumeView struct {
	params Params
	loader VolumeLoader
	store  TextureStore

	image Slab
	mask  Slab

	axis   models.Axis
	cursor [3]int

	view       mgl32.Mat4
	projection mgl32.Mat4
	width      int
	height     int

	input inputState
}

// NewVolumeView creates an empty volume view
func NewVolumeView(params Params, loader VolumeLoader, store TextureStore) *VolumeView {
	v := &VolumeView{
		params: params,
		loader: loader,
		store:  store,
		image:  newSlab(),
		mask:   newSlab(),
		axis:   models.Axial,
		view:   mgl32.Ident4(),
	}
	v.width, v.height = params.ViewportWidth, params.ViewportHeight
	v.projection = projectionMatrix(v.width, v.height)
	return v
}

// Axis returns the active slicing axis
func (v *VolumeView) Axis() models.Axis { return v.axis }

// Cursor returns the slice index along every axis
func (v *VolumeView) Cursor() [3]int { return v.cursor }

// ViewMatrix returns the pan/zoom transform
func (v *VolumeView) ViewMatrix() mgl32.Mat4 { return v.view }

// ProjectionMatrix returns the aspect-correction transform
func (v *VolumeView) ProjectionMatrix() mgl32.Mat4 { return v.projection }

// Image returns the slab of the intensity volume
func (v *VolumeView) Image() *Slab { return &v.image }

// Mask returns the slab of the segmentation volume
func (v *VolumeView) Mask() *Slab { return &v.mask }

// SetAxis selects the slicing axis. An out-of-range axis is a programming
// error and panics.
func (v *VolumeView) SetAxis(axis models.Axis) {
	if !axis.Valid() {
		panic(fmt.Sprintf("invalid axis: %d", axis))
	}
	v.axis = axis
	v.image.setModelMatrix(axis)
	v.mask.setModelMatrix(axis)
}

// CycleAxis advances to the next slicing axis. The cursor is kept so that
// returning to an axis shows the same slice again.
func (v *VolumeView) CycleAxis() {
	v.SetAxis(v.axis.Next())
	logging.Debugf("Slicing axis is now %v", v.axis)
}

// Load decodes path and installs it in the mask or image slab depending on
// the volume's mask flag. Decoder errors are returned unchanged and leave the
// view as it was.
func (v *VolumeView) Load(path string) error {
	vol, err := v.loader.Load(path)
	if err != nil {
		return err
	}
	if logging.Mode() <= logging.InfoMode {
		stats := vol.Stats()
		logging.Infof("Image shape %v, %d voxels, spacing %v, intensity [%g, %g] mean %.3g",
			vol.Shape, stats.NumVoxels, vol.Spacing, stats.Min, stats.Max, stats.Mean)
	}

	if vol.IsMask {
		if err := v.mask.setVolume(vol, v.axis, v.store, v.params.MaskWindow); err != nil {
			return err
		}
	} else {
		first := !v.image.Loaded() && !v.mask.Loaded()
		axis := v.axis
		if first {
			axis = models.Axial
		}
		if err := v.image.setVolume(vol, axis, v.store, v.params.ImageWindow); err != nil {
			return err
		}
		if first {
			v.axis = axis
			v.mask.setModelMatrix(axis)
			v.cursor = vol.Center()
		}
	}
	v.clampCursor()
	logging.Infof("Image loaded")
	return nil
}

// clampCursor keeps every cursor component inside the image volume
func (v *VolumeView) clampCursor() {
	vol := v.image.Volume()
	if vol == nil {
		return
	}
	for a := models.Sagittal; a <= models.Axial; a++ {
		v.cursor[a] = clamp(v.cursor[a], 0, vol.Dim(a)-1)
	}
}

func clamp(x, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Close releases both volume textures
func (v *VolumeView) Close() {
	v.image.release(v.store)
	v.mask.release(v.store)
}
