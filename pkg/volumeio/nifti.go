package volumeio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"volview/internal/models"
)

// Datatype is the NIfTI-1 datatype code of the stored voxels
type Datatype int16

const (
	DTUint8   Datatype = 2
	DTInt16   Datatype = 4
	DTInt32   Datatype = 8
	DTFloat32 Datatype = 16
	DTFloat64 Datatype = 64
	DTInt8    Datatype = 256
	DTUint16  Datatype = 512
	DTUint32  Datatype = 768
)

// bytesPerVoxel returns the stored size of one voxel, or 0 if the datatype
// has no float32 conversion
func (d Datatype) bytesPerVoxel() int {
	switch d {
	case DTUint8, DTInt8:
		return 1
	case DTInt16, DTUint16:
		return 2
	case DTInt32, DTUint32, DTFloat32:
		return 4
	case DTFloat64:
		return 8
	}
	return 0
}

// IsFloat reports whether voxels are stored as floating point
func (d Datatype) IsFloat() bool {
	return d == DTFloat32 || d == DTFloat64
}

const (
	niftiHeaderSize = 348
	niftiMinOffset  = 352
)

// rawHeader mirrors the 348-byte NIfTI-1 header
type rawHeader struct {
	SizeofHdr     int32
	DataType      [10]byte
	DbName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       byte
	DimInfo       byte
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XyztUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QoffsetX      float32
	QoffsetY      float32
	QoffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

// Header is the subset of NIfTI-1 header metadata the viewer uses
type Header struct {
	Shape     [3]int
	Frames    int
	Spacing   [3]float32
	Datatype  Datatype
	VoxOffset int64
	SclSlope  float32
	SclInter  float32
	Paired    bool // voxels live in a separate .img file
	ByteOrder binary.ByteOrder
}

// readHeader decodes a NIfTI-1 header of either byte order
func readHeader(r io.Reader) (Header, error) {
	buf := make([]byte, niftiHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Header{}, fmt.Errorf("short header: %w", ErrUnsupportedFormat)
		}
		return Header{}, err
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(buf) == niftiHeaderSize:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(buf) == niftiHeaderSize:
		order = binary.BigEndian
	default:
		return Header{}, fmt.Errorf("bad header size field: %w", ErrUnsupportedFormat)
	}

	var raw rawHeader
	if err := binary.Read(bytes.NewReader(buf), order, &raw); err != nil {
		return Header{}, fmt.Errorf("decoding header: %w", err)
	}

	if !(raw.VoxOffset >= 0 && raw.VoxOffset <= math.MaxInt32) {
		return Header{}, fmt.Errorf("bad vox_offset %g: %w", raw.VoxOffset, ErrUnsupportedFormat)
	}

	h := Header{
		Datatype:  Datatype(raw.Datatype),
		VoxOffset: int64(raw.VoxOffset),
		SclSlope:  raw.SclSlope,
		SclInter:  raw.SclInter,
		ByteOrder: order,
		Frames:    1,
	}
	switch string(raw.Magic[:3]) {
	case "n+1":
	case "ni1":
		h.Paired = true
	default:
		return Header{}, fmt.Errorf("bad magic %q: %w", raw.Magic[:3], ErrUnsupportedFormat)
	}

	ndim := int(raw.Dim[0])
	if ndim < 1 || ndim > 7 {
		return Header{}, fmt.Errorf("bad dimension count %d: %w", ndim, ErrUnsupportedFormat)
	}
	for i := 0; i < 3; i++ {
		h.Shape[i] = 1
		h.Spacing[i] = 1
		if i+1 <= ndim {
			h.Shape[i] = int(raw.Dim[i+1])
			if p := raw.Pixdim[i+1]; p > 0 && !math.IsInf(float64(p), 0) {
				h.Spacing[i] = p
			}
		}
		if h.Shape[i] < 0 {
			return Header{}, fmt.Errorf("negative extent along axis %d: %w", i, ErrUnsupportedFormat)
		}
	}
	if ndim >= 4 && raw.Dim[4] > 1 {
		h.Frames = int(raw.Dim[4])
	}
	if !h.Paired && h.VoxOffset < niftiMinOffset {
		h.VoxOffset = niftiMinOffset
	}
	return h, nil
}

// readSamples reads the first frame of voxels from r, positioned just after
// the header for single-file volumes or at the start of a paired .img file,
// and converts them to float32. fileSize is the size of the uncompressed
// file behind r, or -1 when it is not known up front.
func readSamples(r io.Reader, h Header, consumed, fileSize int64) ([]float32, error) {
	size := h.Datatype.bytesPerVoxel()
	if size == 0 {
		return nil, fmt.Errorf("datatype %d: %w", h.Datatype, ErrUnsupportedSampleType)
	}
	n, ok := models.VoxelCount(h.Shape, size)
	if !ok || n == 0 {
		return nil, fmt.Errorf("unusable shape %v: %w", h.Shape, ErrUnsupportedFormat)
	}
	want := int64(n) * int64(size)
	if fileSize >= 0 && want > fileSize-h.VoxOffset {
		return nil, fmt.Errorf("shape %v needs %d bytes at offset %d, file holds %d: %w",
			h.Shape, want, h.VoxOffset, fileSize, ErrUnsupportedFormat)
	}

	if skip := h.VoxOffset - consumed; skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, fmt.Errorf("seeking to voxel data: %w", err)
		}
	}

	raw, err := readPayload(r, want)
	if err != nil {
		return nil, fmt.Errorf("reading %d voxels: %w", n, err)
	}

	samples := convertSamples(raw, h.Datatype, h.ByteOrder, n)

	if h.SclSlope != 0 && !(h.SclSlope == 1 && h.SclInter == 0) {
		for i := range samples {
			samples[i] = samples[i]*h.SclSlope + h.SclInter
		}
	}
	return samples, nil
}

// readPayload reads exactly want bytes. Memory grows with the bytes actually
// present, so a header promising more data than the stream holds fails with
// io.ErrUnexpectedEOF instead of allocating the promised size.
func readPayload(r io.Reader, want int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, want))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) != want {
		return nil, fmt.Errorf("got %d of %d bytes: %w", len(raw), want, io.ErrUnexpectedEOF)
	}
	return raw, nil
}

func convertSamples(raw []byte, dt Datatype, order binary.ByteOrder, n int) []float32 {
	out := make([]float32, n)
	switch dt {
	case DTUint8:
		for i := range out {
			out[i] = float32(raw[i])
		}
	case DTInt8:
		for i := range out {
			out[i] = float32(int8(raw[i]))
		}
	case DTInt16:
		for i := range out {
			out[i] = float32(int16(order.Uint16(raw[2*i:])))
		}
	case DTUint16:
		for i := range out {
			out[i] = float32(order.Uint16(raw[2*i:]))
		}
	case DTInt32:
		for i := range out {
			out[i] = float32(int32(order.Uint32(raw[4*i:])))
		}
	case DTUint32:
		for i := range out {
			out[i] = float32(order.Uint32(raw[4*i:]))
		}
	case DTFloat32:
		for i := range out {
			out[i] = math.Float32frombits(order.Uint32(raw[4*i:]))
		}
	case DTFloat64:
		for i := range out {
			out[i] = float32(math.Float64frombits(order.Uint64(raw[8*i:])))
		}
	}
	return out
}
