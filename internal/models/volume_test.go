package models

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func newTestVolume(nx, ny, nz int) *Volume {
	v := &Volume{
		Samples: make([]float32, nx*ny*nz),
		Shape:   [3]int{nx, ny, nz},
		Spacing: [3]float32{1, 1, 1},
	}
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				v.Samples[v.Index(x, y, z)] = float32(x + 10*y + 100*z)
			}
		}
	}
	return v
}

func TestAxisNext(t *testing.T) {
	for _, start := range []Axis{Sagittal, Coronal, Axial} {
		a := start
		for i := 0; i < 3; i++ {
			a = a.Next()
			if !a.Valid() {
				t.Fatalf("Next produced invalid axis %d", a)
			}
		}
		if a != start {
			t.Errorf("Expected three cycles to return to %v, got %v", start, a)
		}
	}

	if Axis(3).Valid() || Axis(-1).Valid() {
		t.Error("Expected out-of-range axes to be invalid")
	}
}

func TestVolumeIndexing(t *testing.T) {
	v := newTestVolume(4, 3, 2)

	if got := v.At(3, 2, 1); got != 123 {
		t.Errorf("Expected sample 123 at (3,2,1), got %v", got)
	}
	if got := v.At(4, 0, 0); got != 0 {
		t.Errorf("Expected 0 outside the volume, got %v", got)
	}
	if v.Dim(Coronal) != 3 {
		t.Errorf("Expected coronal extent 3, got %d", v.Dim(Coronal))
	}

	var empty *Volume
	if empty.Dim(Axial) != 0 {
		t.Error("Expected nil volume to have zero extent")
	}

	if c := v.Center(); c != [3]int{2, 1, 1} {
		t.Errorf("Expected center (2,1,1), got %v", c)
	}
}

func TestVolumeValidate(t *testing.T) {
	v := newTestVolume(4, 3, 2)
	if err := v.Validate(); err != nil {
		t.Fatalf("Expected valid volume, got %v", err)
	}

	bad := *v
	bad.Samples = bad.Samples[:5]
	if err := bad.Validate(); err == nil {
		t.Error("Expected sample count mismatch to be rejected")
	}

	bad = *v
	bad.Spacing = [3]float32{1, 0, 1}
	if err := bad.Validate(); err == nil {
		t.Error("Expected zero spacing to be rejected")
	}

	// 2^32 * 2^32 wraps to 0 in int arithmetic
	bad = Volume{Shape: [3]int{1 << 32, 1 << 32, 1}, Spacing: [3]float32{1, 1, 1}}
	if err := bad.Validate(); err == nil {
		t.Error("Expected overflowing shape to be rejected")
	}
}

func TestVoxelCount(t *testing.T) {
	tests := []struct {
		shape [3]int
		size  int
		want  int
		ok    bool
	}{
		{[3]int{256, 256, 180}, 2, 256 * 256 * 180, true},
		{[3]int{0, 1 << 40, 1 << 40}, 4, 0, true},
		{[3]int{-1, 2, 2}, 1, 0, false},
		{[3]int{1 << 32, 1 << 32, 1}, 4, 0, false},
		{[3]int{1e6, 1e6, 1e6}, 4, 1e18, true},
		{[3]int{1e7, 1e7, 1e7}, 4, 0, false},
		{[3]int{math.MaxInt / 4, 1, 1}, 4, math.MaxInt / 4, true},
		{[3]int{math.MaxInt/4 + 1, 1, 1}, 4, 0, false},
	}
	for _, tt := range tests {
		got, ok := VoxelCount(tt.shape, tt.size)
		if got != tt.want || ok != tt.ok {
			t.Errorf("VoxelCount(%v, %d) = %d, %v; want %d, %v", tt.shape, tt.size, got, ok, tt.want, tt.ok)
		}
	}

	v := &Volume{Shape: [3]int{1 << 32, 1 << 32, 1}}
	if v.NumVoxels() != -1 {
		t.Errorf("Expected -1 for overflowing shape, got %d", v.NumVoxels())
	}
}

func TestVolumeStats(t *testing.T) {
	v := &Volume{
		Samples: []float32{1, 2, 3, 4},
		Shape:   [3]int{2, 2, 1},
		Spacing: [3]float32{1, 1, 1},
	}
	s := v.Stats()

	if s.Min != 1 || s.Max != 4 {
		t.Errorf("Expected range [1,4], got [%v,%v]", s.Min, s.Max)
	}
	if math.Abs(s.Mean-2.5) > 1e-9 {
		t.Errorf("Expected mean 2.5, got %v", s.Mean)
	}
	if math.Abs(s.StdDev-math.Sqrt(5.0/3.0)) > 1e-9 {
		t.Errorf("Expected sample standard deviation %v, got %v", math.Sqrt(5.0/3.0), s.StdDev)
	}
	if s.NumVoxels != 4 {
		t.Errorf("Expected 4 voxels, got %d", s.NumVoxels)
	}
}

func TestVolumeStatsAcrossChunks(t *testing.T) {
	defer func(n int) { statsChunk = n }(statsChunk)
	statsChunk = 7

	v := newTestVolume(5, 4, 3)
	data := make([]float64, len(v.Samples))
	for i, s := range v.Samples {
		data[i] = float64(s)
	}
	mean, std := stat.MeanStdDev(data, nil)

	s := v.Stats()
	if s.Min != 0 || s.Max != 234 {
		t.Errorf("Expected range [0,234], got [%v,%v]", s.Min, s.Max)
	}
	if math.Abs(s.Mean-mean) > 1e-9 {
		t.Errorf("Expected mean %v, got %v", mean, s.Mean)
	}
	if math.Abs(s.StdDev-std) > 1e-9 {
		t.Errorf("Expected standard deviation %v, got %v", std, s.StdDev)
	}
	if s.NumVoxels != 60 {
		t.Errorf("Expected 60 voxels, got %d", s.NumVoxels)
	}
}
