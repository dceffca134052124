package volumeio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"volview/internal/models"
	"volview/pkg/logging"
)

const cacheEncoding = "zstd/float32le"

// cacheHeader is the YAML document stored in a .vol file. Samples live in
// the sibling .raw file.
type cacheHeader struct {
	Shape    [3]int     `yaml:"shape"`
	Spacing  [3]float32 `yaml:"spacing"`
	IsMask   bool       `yaml:"isMask"`
	Encoding string     `yaml:"encoding"`
}

func rawPath(volPath string) string {
	return strings.TrimSuffix(volPath, filepath.Ext(volPath)) + ".raw"
}

// SaveCache writes vol as a .vol header and a zstd-compressed .raw sample
// file. Reloading the pair skips NIfTI decoding and keeps the mask flag.
func SaveCache(path string, vol *models.Volume) error {
	if err := vol.Validate(); err != nil {
		return fmt.Errorf("refusing to cache invalid volume: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".vol") {
		return fmt.Errorf("%s: cache header must use the .vol extension: %w", path, ErrUnsupportedFormat)
	}

	f, err := os.Create(rawPath(path))
	if err != nil {
		return fmt.Errorf("error creating sample file: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("error creating zstd encoder: %w", err)
	}
	w := bufio.NewWriter(enc)
	var word [4]byte
	for _, s := range vol.Samples {
		binary.LittleEndian.PutUint32(word[:], math.Float32bits(s))
		if _, err := w.Write(word[:]); err != nil {
			enc.Close()
			return fmt.Errorf("error writing samples: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("error writing samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("error finishing sample file: %w", err)
	}

	data, err := yaml.Marshal(cacheHeader{
		Shape:    vol.Shape,
		Spacing:  vol.Spacing,
		IsMask:   vol.IsMask,
		Encoding: cacheEncoding,
	})
	if err != nil {
		return fmt.Errorf("error marshaling cache header: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing cache header: %w", err)
	}

	logging.Infof("Cached volume to %s (%s of samples)", path, humanize.Bytes(uint64(len(vol.Samples))*4))
	return nil
}

// LoadCache reads a volume written by SaveCache
func LoadCache(path string) (*models.Volume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var h cacheHeader
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing cache header: %v: %w", err, ErrUnsupportedFormat)
	}
	if h.Encoding != cacheEncoding {
		return nil, fmt.Errorf("cache encoding %q: %w", h.Encoding, ErrUnsupportedSampleType)
	}

	f, err := os.Open(rawPath(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening zstd stream: %w", err)
	}
	defer dec.Close()

	n, ok := models.VoxelCount(h.Shape, 4)
	if !ok || n == 0 {
		return nil, fmt.Errorf("unusable cached shape %v: %w", h.Shape, ErrUnsupportedFormat)
	}
	vol := &models.Volume{Shape: h.Shape, Spacing: h.Spacing, IsMask: h.IsMask}
	raw, err := readPayload(dec, int64(n)*4)
	if err != nil {
		return nil, fmt.Errorf("reading %d cached voxels: %w", n, err)
	}
	vol.Samples = convertSamples(raw, DTFloat32, binary.LittleEndian, n)
	return vol, nil
}
