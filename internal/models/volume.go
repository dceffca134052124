package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Axis identifies one of the three volume axes
type Axis int

const (
	Sagittal Axis = iota
	Coronal
	Axial
)

// NumAxes is the number of volume axes
const NumAxes = 3

// Valid reports whether a is one of Sagittal, Coronal or Axial
func (a Axis) Valid() bool {
	return a >= Sagittal && a <= Axial
}

// Next returns the axis that follows a in the cycle Sagittal → Coronal → Axial → Sagittal
func (a Axis) Next() Axis {
	return (a + 1) % NumAxes
}

func (a Axis) String() string {
	switch a {
	case Sagittal:
		return "sagittal"
	case Coronal:
		return "coronal"
	case Axial:
		return "axial"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// Volume represents one loaded 3D scan. A Volume is never modified after
// the decoder returns it; loading a new scan produces a new Volume.
type Volume struct {
	// Samples holds one scalar per voxel with x varying fastest
	Samples []float32

	// Shape is the number of voxels along x, y and z
	Shape [3]int

	// Spacing is the physical size of one voxel step along x, y and z in mm
	Spacing [3]float32

	// IsMask marks label/segmentation volumes
	IsMask bool
}

// Dim returns the number of voxels along axis, or 0 for a nil volume
func (v *Volume) Dim(axis Axis) int {
	if v == nil || !axis.Valid() {
		return 0
	}
	return v.Shape[axis]
}

// Center returns the voxel index at the middle of each axis
func (v *Volume) Center() [3]int {
	return [3]int{v.Shape[0] / 2, v.Shape[1] / 2, v.Shape[2] / 2}
}

// VoxelCount returns nx*ny*nz for shape. It reports false when an extent is
// negative or when the count times bytesPerVoxel does not fit in an int.
func VoxelCount(shape [3]int, bytesPerVoxel int) (int, bool) {
	if bytesPerVoxel < 1 {
		bytesPerVoxel = 1
	}
	for _, d := range shape {
		if d < 0 {
			return 0, false
		}
	}
	n := 1
	for _, d := range shape {
		if d == 0 {
			return 0, true
		}
		if n > math.MaxInt/bytesPerVoxel/d {
			return 0, false
		}
		n *= d
	}
	return n, true
}

// NumVoxels returns nx*ny*nz, or -1 if the shape is negative or overflows
func (v *Volume) NumVoxels() int {
	n, ok := VoxelCount(v.Shape, 4)
	if !ok {
		return -1
	}
	return n
}

// Index returns the offset of voxel (x, y, z) in Samples
func (v *Volume) Index(x, y, z int) int {
	return z*v.Shape[0]*v.Shape[1] + y*v.Shape[0] + x
}

// At returns the sample at voxel (x, y, z). Out-of-range coordinates yield 0.
func (v *Volume) At(x, y, z int) float32 {
	if x < 0 || y < 0 || z < 0 || x >= v.Shape[0] || y >= v.Shape[1] || z >= v.Shape[2] {
		return 0
	}
	return v.Samples[v.Index(x, y, z)]
}

// Validate checks that shape, spacing and sample count agree
func (v *Volume) Validate() error {
	for i, n := range v.Shape {
		if n < 0 {
			return fmt.Errorf("negative extent %d along axis %d", n, i)
		}
	}
	for i, s := range v.Spacing {
		if !(s > 0) {
			return fmt.Errorf("spacing along axis %d must be positive, got %g", i, s)
		}
	}
	n := v.NumVoxels()
	if n < 0 {
		return fmt.Errorf("shape %v overflows the voxel count", v.Shape)
	}
	if len(v.Samples) != n {
		return fmt.Errorf("sample count %d does not match shape %v", len(v.Samples), v.Shape)
	}
	return nil
}

// statsChunk bounds the float64 scratch space used by Stats
var statsChunk = 1 << 16

// IntensityStats summarises the sample distribution of a volume
type IntensityStats struct {
	Min, Max  float64
	Mean      float64
	StdDev    float64
	NumVoxels int
}

// Stats computes the intensity summary of the volume samples
func (v *Volume) Stats() IntensityStats {
	if len(v.Samples) == 0 {
		return IntensityStats{}
	}

	// Chunk moments are merged with the pairwise update of Chan et al.
	buf := make([]float64, min(statsChunk, len(v.Samples)))
	out := IntensityStats{Min: math.Inf(1), Max: math.Inf(-1)}
	var m2 float64
	for start := 0; start < len(v.Samples); start += statsChunk {
		chunk := v.Samples[start:min(start+statsChunk, len(v.Samples))]
		data := buf[:len(chunk)]
		for i, s := range chunk {
			data[i] = float64(s)
		}
		out.Min = math.Min(out.Min, floats.Min(data))
		out.Max = math.Max(out.Max, floats.Max(data))

		nb := float64(len(data))
		meanB, m2B := stat.Mean(data, nil), 0.0
		if len(data) > 1 {
			m2B = stat.Variance(data, nil) * (nb - 1)
		}
		na := float64(out.NumVoxels)
		n := na + nb
		delta := meanB - out.Mean
		out.Mean += delta * nb / n
		m2 += m2B + delta*delta*na*nb/n
		out.NumVoxels += len(data)
	}
	if out.NumVoxels > 1 {
		out.StdDev = math.Sqrt(m2 / float64(out.NumVoxels-1))
	}
	return out
}
