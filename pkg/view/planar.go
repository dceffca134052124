package view

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"volview/pkg/logging"
)

// PlanarUniforms is the uniform set for drawing a 2D image
type PlanarUniforms struct {
	Matrix     mgl32.Mat4
	Projection mgl32.Mat4
	Texture    TextureHandle
	Size       [2]int
}

// PlanarView shows a single 2D picture with pan and zoom
type PlanarView struct {
	params  Params
	store   TextureStore
	texture TextureHandle
	size    [2]int

	matrix mgl32.Mat4
	width  int
	height int

	input inputState
}

// NewPlanarView creates an empty 2D view
func NewPlanarView(params Params, store TextureStore) *PlanarView {
	return &PlanarView{
		params: params,
		store:  store,
		matrix: mgl32.Ident4(),
		width:  params.ViewportWidth,
		height: params.ViewportHeight,
	}
}

// Matrix returns the pan/zoom transform of the picture
func (p *PlanarView) Matrix() mgl32.Mat4 { return p.matrix }

// Size returns the pixel size of the loaded picture
func (p *PlanarView) Size() [2]int { return p.size }

// LoadImage decodes a PNG or JPEG file into RGBA pixels
func LoadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}

// Load decodes and uploads the picture at path, replacing the current one
func (p *PlanarView) Load(path string) error {
	img, err := LoadImage(path)
	if err != nil {
		return err
	}
	h, err := p.store.Upload2D(img)
	if err != nil {
		return fmt.Errorf("uploading picture texture: %w", err)
	}
	if p.texture != 0 {
		p.store.Release(p.texture)
	}
	p.texture = h
	p.size = [2]int{img.Bounds().Dx(), img.Bounds().Dy()}
	logging.Infof("Picture %s loaded, %dx%d", path, p.size[0], p.size[1])
	return nil
}

func (p *PlanarView) OnLoad(path string) {
	if err := p.Load(path); err != nil {
		logging.Errorf("Failed to load %s: %v", path, err)
	}
}

func (p *PlanarView) OnKeyRelease(key Key) {
	if keyMatches(key, p.params.ResetViewKey) {
		p.matrix = mgl32.Ident4()
	}
}

func (p *PlanarView) OnModifierChange(shift bool) {
	p.input.shift = shift
}

func (p *PlanarView) OnButton(button Button, pressed bool) {
	switch button {
	case ButtonLeft:
		p.input.left = pressed
	case ButtonRight:
		p.input.right = pressed
	}
}

// OnPointerMove pans while the left button is held. The pointer position is
// only remembered during a drag.
func (p *PlanarView) OnPointerMove(x, y float64) {
	if !p.input.left {
		p.input.hasPrev = false
		return
	}
	if p.input.hasPrev && p.height > 0 {
		h := float64(p.height)
		p.matrix[12] += float32((x - p.input.prevX) / h * 2)
		p.matrix[13] += float32(-(y - p.input.prevY) / h * 2)
	}
	p.input.hasPrev = true
	p.input.prevX, p.input.prevY = x, y
}

// OnWheel zooms about the picture origin while shift is held
func (p *PlanarView) OnWheel(dy float64, isLine bool) {
	if !p.input.shift || !isLine {
		return
	}
	scale := 1 + float32(dy)/p.params.ZoomStep
	if !(scale > 0) {
		return
	}
	p.matrix[0] *= scale
	p.matrix[5] *= scale
}

func (p *PlanarView) OnResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	p.width, p.height = width, height
}

// Uniforms derives the per-frame uniform set
func (p *PlanarView) Uniforms() PlanarUniforms {
	proj := mgl32.Ident4()
	if p.width > 0 && p.height > 0 {
		proj[0] = float32(p.height) / float32(p.width)
	}
	return PlanarUniforms{
		Matrix:     p.matrix,
		Projection: proj,
		Texture:    p.texture,
		Size:       p.size,
	}
}

func (p *PlanarView) Draw(r Renderer) {
	if err := r.DrawPlanar(p.Uniforms()); err != nil {
		logging.Warningf("Skipping frame: %v", err)
	}
}

// Close releases the picture texture
func (p *PlanarView) Close() {
	if p.texture != 0 {
		p.store.Release(p.texture)
		p.texture = 0
	}
}
