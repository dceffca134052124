package volumeio

import "errors"

var (
	// ErrUnsupportedFormat is returned when a file is not a recognised scan
	// container, by extension or by header signature.
	ErrUnsupportedFormat = errors.New("unsupported volume format")

	// ErrUnsupportedSampleType is returned when the stored voxel datatype has
	// no conversion to float32.
	ErrUnsupportedSampleType = errors.New("unsupported sample type")
)
