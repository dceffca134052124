package view

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"volview/internal/models"
)

// fakeLoader returns preset volumes or errors by path
type fakeLoader struct {
	volumes map[string]*models.Volume
	errs    map[string]error
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{volumes: map[string]*models.Volume{}, errs: map[string]error{}}
}

func (l *fakeLoader) Load(path string) (*models.Volume, error) {
	if err, ok := l.errs[path]; ok {
		return nil, err
	}
	if vol, ok := l.volumes[path]; ok {
		return vol, nil
	}
	return nil, errors.New("no such file")
}

// fakeStore hands out sequential handles and tracks which are live
type fakeStore struct {
	next     TextureHandle
	live     map[TextureHandle]bool
	failNext bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{live: map[TextureHandle]bool{}}
}

func (s *fakeStore) upload() (TextureHandle, error) {
	if s.failNext {
		s.failNext = false
		return 0, errors.New("out of texture memory")
	}
	s.next++
	s.live[s.next] = true
	return s.next, nil
}

func (s *fakeStore) Upload3D(*models.Volume) (TextureHandle, error) { return s.upload() }
func (s *fakeStore) Upload2D(*image.RGBA) (TextureHandle, error)    { return s.upload() }
func (s *fakeStore) Release(h TextureHandle)                        { delete(s.live, h) }

// fakeRenderer records the last uniforms it was given
type fakeRenderer struct {
	volume *Uniforms
	planar *PlanarUniforms
	err    error
}

func (r *fakeRenderer) DrawVolume(u Uniforms) error {
	r.volume = &u
	return r.err
}

func (r *fakeRenderer) DrawPlanar(u PlanarUniforms) error {
	r.planar = &u
	return r.err
}

func testVolume(shape [3]int, spacing [3]float32, mask bool) *models.Volume {
	return &models.Volume{
		Samples: make([]float32, shape[0]*shape[1]*shape[2]),
		Shape:   shape,
		Spacing: spacing,
		IsMask:  mask,
	}
}

func approxEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func assertDiag(t *testing.T, name string, m mgl32.Mat4, want mgl32.Vec4) {
	t.Helper()
	got := m.Diag()
	for i := range want {
		if !approxEqual(got[i], want[i]) {
			t.Errorf("%s: expected diagonal %v, got %v", name, want, got)
			return
		}
	}
}
