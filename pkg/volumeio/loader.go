// Package volumeio decodes volumetric scan files into models.Volume values.
// Supported containers are NIfTI-1 (.nii, .nii.gz, .hdr/.img pairs, optionally
// gzipped) and the viewer's own raw volume cache (.vol + .raw).
package volumeio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"

	"volview/internal/models"
	"volview/pkg/logging"
)

// Options controls how decoded volumes are classified
type Options struct {
	// Classify decides IsMask for NIfTI files; nil means every file is an image
	Classify Classifier
}

// Loader decodes scan files from the local filesystem
type Loader struct {
	Options Options
}

// NewLoader creates a loader with the given options
func NewLoader(opts Options) *Loader {
	return &Loader{Options: opts}
}

type container int

const (
	unknownContainer container = iota
	niftiSingle
	niftiPair
	rawCache
)

// detectContainer classifies path by extension and reports whether it is gzipped
func detectContainer(path string) (container, bool) {
	name := strings.ToLower(filepath.Base(path))
	gz := strings.HasSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".gz")
	switch filepath.Ext(name) {
	case ".nii":
		return niftiSingle, gz
	case ".hdr":
		return niftiPair, gz
	case ".vol":
		if gz {
			return unknownContainer, false
		}
		return rawCache, false
	}
	return unknownContainer, false
}

// Load decodes the scan at path. It fails with ErrUnsupportedFormat for
// unknown containers and ErrUnsupportedSampleType for voxel types without a
// float32 conversion. No partial volume is ever returned.
func (l *Loader) Load(path string) (*models.Volume, error) {
	logging.Infof("Loading volume from %s", path)

	kind, gz := detectContainer(path)
	var (
		vol *models.Volume
		err error
	)
	switch kind {
	case niftiSingle:
		vol, err = l.loadNIfTI(path, gz)
	case niftiPair:
		vol, err = l.loadPair(path, gz)
	case rawCache:
		vol, err = LoadCache(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := vol.Validate(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	logging.Infof("Volume shape %v, spacing %v, mask %v, %s of samples",
		vol.Shape, vol.Spacing, vol.IsMask, humanize.Bytes(uint64(len(vol.Samples))*4))
	return vol, nil
}

func openMaybeGzip(path string, gz bool) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !gz {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	return &gzipFile{Reader: zr, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (l *Loader) loadNIfTI(path string, gz bool) (*models.Volume, error) {
	r, err := openMaybeGzip(path, gz)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if h.Paired {
		return nil, fmt.Errorf("single-file volume carries pair magic: %w", ErrUnsupportedFormat)
	}
	size, err := plainSize(path, gz)
	if err != nil {
		return nil, err
	}
	samples, err := readSamples(r, h, niftiHeaderSize, size)
	if err != nil {
		return nil, err
	}
	return l.newVolume(path, h, samples), nil
}

// plainSize returns the size of an uncompressed file, or -1 for gzip streams
// whose decoded size is unknown until read
func plainSize(path string, gz bool) (int64, error) {
	if gz {
		return -1, nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// pairedImagePath returns the .img file next to a .hdr header
func pairedImagePath(hdrPath string, gz bool) string {
	base := hdrPath
	if gz {
		base = base[:len(base)-len(".gz")]
	}
	img := base[:len(base)-len(".hdr")] + ".img"
	if gz {
		img += ".gz"
	}
	return img
}

func (l *Loader) loadPair(path string, gz bool) (*models.Volume, error) {
	hr, err := openMaybeGzip(path, gz)
	if err != nil {
		return nil, err
	}
	h, err := readHeader(hr)
	hr.Close()
	if err != nil {
		return nil, err
	}
	if !h.Paired {
		return nil, fmt.Errorf("header without pair magic: %w", ErrUnsupportedFormat)
	}

	imgPath := pairedImagePath(path, gz)
	size, err := plainSize(imgPath, gz)
	if err != nil {
		return nil, err
	}
	ir, err := openMaybeGzip(imgPath, gz)
	if err != nil {
		return nil, err
	}
	defer ir.Close()

	samples, err := readSamples(ir, h, 0, size)
	if err != nil {
		return nil, err
	}
	return l.newVolume(path, h, samples), nil
}

func (l *Loader) newVolume(path string, h Header, samples []float32) *models.Volume {
	if h.Frames > 1 {
		logging.Warningf("%s holds %d frames; showing the first", path, h.Frames)
	}
	isMask := false
	if l.Options.Classify != nil {
		isMask = l.Options.Classify(path, h)
	}
	logging.Debugf("Decoded datatype %d (%s on disk)", h.Datatype,
		humanize.Bytes(uint64(len(samples)*h.Datatype.bytesPerVoxel())))
	return &models.Volume{
		Samples: samples,
		Shape:   h.Shape,
		Spacing: h.Spacing,
		IsMask:  isMask,
	}
}
