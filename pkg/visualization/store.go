package visualization

import (
	"errors"
	"fmt"
	"image"

	"github.com/dustin/go-humanize"

	"volview/internal/models"
	"volview/pkg/logging"
	"volview/pkg/view"
)

// TextureStore keeps uploaded volumes and pictures in host memory, keyed by
// the handles the views hold
type TextureStore struct {
	next     view.TextureHandle
	volumes  map[view.TextureHandle]*models.Volume
	pictures map[view.TextureHandle]*image.RGBA
	bytes    uint64
}

// NewTextureStore creates an empty store
func NewTextureStore() *TextureStore {
	return &TextureStore{
		volumes:  make(map[view.TextureHandle]*models.Volume),
		pictures: make(map[view.TextureHandle]*image.RGBA),
	}
}

func (s *TextureStore) allocate() view.TextureHandle {
	s.next++
	return s.next
}

// Upload3D makes vol available to the renderer
func (s *TextureStore) Upload3D(vol *models.Volume) (view.TextureHandle, error) {
	if vol == nil {
		return 0, errors.New("nil volume")
	}
	if err := vol.Validate(); err != nil {
		return 0, fmt.Errorf("invalid volume texture: %w", err)
	}
	h := s.allocate()
	s.volumes[h] = vol
	s.bytes += uint64(len(vol.Samples)) * 4
	logging.Debugf("Uploaded %dx%dx%d texture %d, %s resident",
		vol.Shape[0], vol.Shape[1], vol.Shape[2], h, humanize.Bytes(s.bytes))
	return h, nil
}

// Upload2D makes img available to the renderer
func (s *TextureStore) Upload2D(img *image.RGBA) (view.TextureHandle, error) {
	if img == nil {
		return 0, errors.New("nil picture")
	}
	h := s.allocate()
	s.pictures[h] = img
	s.bytes += uint64(len(img.Pix))
	logging.Debugf("Uploaded %v picture %d, %s resident", img.Bounds().Size(), h, humanize.Bytes(s.bytes))
	return h, nil
}

// Release frees the texture behind h. Unknown handles are ignored.
func (s *TextureStore) Release(h view.TextureHandle) {
	if vol, ok := s.volumes[h]; ok {
		s.bytes -= uint64(len(vol.Samples)) * 4
		delete(s.volumes, h)
	}
	if img, ok := s.pictures[h]; ok {
		s.bytes -= uint64(len(img.Pix))
		delete(s.pictures, h)
	}
}

// Live returns the number of resident textures
func (s *TextureStore) Live() int {
	return len(s.volumes) + len(s.pictures)
}

// ResidentBytes returns the memory held by resident textures
func (s *TextureStore) ResidentBytes() uint64 {
	return s.bytes
}

func (s *TextureStore) volume(h view.TextureHandle) (*models.Volume, error) {
	if h == 0 {
		return nil, nil
	}
	vol, ok := s.volumes[h]
	if !ok {
		return nil, fmt.Errorf("unknown volume texture %d", h)
	}
	return vol, nil
}

func (s *TextureStore) picture(h view.TextureHandle) (*image.RGBA, error) {
	if h == 0 {
		return nil, nil
	}
	img, ok := s.pictures[h]
	if !ok {
		return nil, fmt.Errorf("unknown picture texture %d", h)
	}
	return img, nil
}
