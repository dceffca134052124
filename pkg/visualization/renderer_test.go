package visualization

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"volview/internal/models"
	"volview/pkg/view"
)

func axialUniforms(store *TextureStore, img, mask view.TextureHandle) view.Uniforms {
	return view.Uniforms{
		Axis:          models.Axial,
		Cursor:        [3]float32{0.5, 0.5, 0.5},
		View:          mgl32.Ident4(),
		Projection:    mgl32.Ident4(),
		Model:         mgl32.Ident4(),
		MaskModel:     mgl32.Ident4(),
		MaskTransform: mgl32.Ident4(),
		Window:        view.Window{Width: 64, Level: 32},
		MaskWindow:    view.Window{Width: 1, Level: 0.5},
		Image:         img,
		Mask:          mask,
		HasMask:       mask != 0,
	}
}

func TestDrawVolumeSamplesActiveSlice(t *testing.T) {
	store := NewTextureStore()
	h, err := store.Upload3D(newPatternVolume(4, 4, 4))
	if err != nil {
		t.Fatal(err)
	}
	r := NewRenderer(store, 10, 10, 0.4)

	if err := r.DrawVolume(axialUniforms(store, h, 0)); err != nil {
		t.Fatalf("DrawVolume failed: %v", err)
	}

	// bottom-left pixel samples voxel (0,0,2) = 32 -> half intensity
	if got := r.Frame().RGBAAt(0, 9); got != (color.RGBA{127, 127, 127, 255}) {
		t.Errorf("Expected mid grey at bottom-left, got %v", got)
	}
	// top-right pixel samples voxel (3,3,2) = 47
	if got := r.Frame().RGBAAt(9, 0).R; got != 187 {
		t.Errorf("Expected intensity 187 at top-right, got %d", got)
	}
}

func TestDrawVolumeBackgroundOutsideQuad(t *testing.T) {
	store := NewTextureStore()
	h, _ := store.Upload3D(newPatternVolume(4, 4, 4))
	r := NewRenderer(store, 10, 10, 0.4)

	u := axialUniforms(store, h, 0)
	u.View = mgl32.Scale3D(0.5, 0.5, 1)
	if err := r.DrawVolume(u); err != nil {
		t.Fatal(err)
	}
	if got := r.Frame().RGBAAt(0, 0); got != r.Background {
		t.Errorf("Expected background outside the zoomed-out quad, got %v", got)
	}
	if got := r.Frame().RGBAAt(5, 5); got == r.Background {
		t.Error("Expected the quad to cover the center")
	}
}

func TestDrawVolumeMaskOverlay(t *testing.T) {
	store := NewTextureStore()
	img := &models.Volume{Samples: make([]float32, 8), Shape: [3]int{2, 2, 2}, Spacing: [3]float32{1, 1, 1}}
	mask := &models.Volume{Samples: []float32{1, 1, 1, 1, 1, 1, 1, 1}, Shape: [3]int{2, 2, 2}, Spacing: [3]float32{1, 1, 1}, IsMask: true}
	hi, _ := store.Upload3D(img)
	hm, _ := store.Upload3D(mask)
	r := NewRenderer(store, 4, 4, 0.4)

	if err := r.DrawVolume(axialUniforms(store, hi, hm)); err != nil {
		t.Fatal(err)
	}
	if got := r.Frame().RGBAAt(1, 1); got != (color.RGBA{102, 0, 0, 255}) {
		t.Errorf("Expected red overlay at 40%%, got %v", got)
	}
}

func TestDrawVolumeErrors(t *testing.T) {
	store := NewTextureStore()
	r := NewRenderer(store, 4, 4, 0.4)

	if err := r.DrawVolume(axialUniforms(store, 99, 0)); err == nil {
		t.Error("Expected unknown texture handle to fail")
	}

	u := axialUniforms(store, 0, 0)
	u.View = mgl32.Scale3D(0, 0, 1)
	if err := r.DrawVolume(u); err == nil {
		t.Error("Expected singular view transform to fail")
	}

	if err := (&Renderer{store: store}).DrawVolume(u); err == nil {
		t.Error("Expected missing framebuffer to fail")
	}
}

func TestDrawPlanar(t *testing.T) {
	store := NewTextureStore()
	pic := image.NewRGBA(image.Rect(0, 0, 2, 2))
	pic.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	pic.SetRGBA(1, 1, color.RGBA{0, 255, 0, 255})
	h, _ := store.Upload2D(pic)
	r := NewRenderer(store, 8, 8, 0.4)

	u := view.PlanarUniforms{Matrix: mgl32.Ident4(), Projection: mgl32.Ident4(), Texture: h, Size: [2]int{2, 2}}
	if err := r.DrawPlanar(u); err != nil {
		t.Fatalf("DrawPlanar failed: %v", err)
	}
	if got := r.Frame().RGBAAt(2, 2); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("Expected top-left picture pixel at (2,2), got %v", got)
	}
	if got := r.Frame().RGBAAt(5, 5); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("Expected bottom-right picture pixel at (5,5), got %v", got)
	}
	if got := r.Frame().RGBAAt(0, 0); got != r.Background {
		t.Errorf("Expected background outside the picture, got %v", got)
	}
}

func TestTextureStoreLifecycle(t *testing.T) {
	store := NewTextureStore()
	vol := newPatternVolume(2, 2, 2)

	a, err := store.Upload3D(vol)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := store.Upload2D(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if a == b || a == 0 || b == 0 {
		t.Fatalf("Expected distinct non-zero handles, got %d and %d", a, b)
	}
	if store.Live() != 2 || store.ResidentBytes() != 32+16 {
		t.Errorf("Expected 2 textures and 48 bytes, got %d and %d", store.Live(), store.ResidentBytes())
	}

	store.Release(a)
	store.Release(a)
	store.Release(b)
	if store.Live() != 0 || store.ResidentBytes() != 0 {
		t.Errorf("Expected empty store, got %d textures and %d bytes", store.Live(), store.ResidentBytes())
	}

	bad := &models.Volume{Samples: make([]float32, 3), Shape: [3]int{2, 2, 2}, Spacing: [3]float32{1, 1, 1}}
	if _, err := store.Upload3D(bad); err == nil {
		t.Error("Expected inconsistent volume to be rejected")
	}
}
