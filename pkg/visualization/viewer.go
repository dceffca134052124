// Package visualization draws the uniform bundles produced by the views into
// host memory frames, and exports volume slices as JPEG images.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"volview/internal/models"
	"volview/pkg/view"
)

// sliceSize returns the width and height of a slice through axis, using the
// same orientation as the display: the higher-index in-plane axis runs
// horizontally
func sliceSize(vol *models.Volume, axis models.Axis) (int, int) {
	switch axis {
	case models.Sagittal:
		return vol.Shape[2], vol.Shape[1]
	case models.Coronal:
		return vol.Shape[2], vol.Shape[0]
	default:
		return vol.Shape[1], vol.Shape[0]
	}
}

// ExtractSlice extracts the windowed 2D slice at position along axis. Row 0
// of the image holds the highest vertical voxel index, as on screen.
func ExtractSlice(vol *models.Volume, axis models.Axis, position int, win view.Window) (*image.Gray16, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("invalid axis: %d", axis)
	}
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	if n := vol.Dim(axis); position >= n {
		return nil, fmt.Errorf("position %d exceeds %v extent %d", position, axis, n)
	}

	width, height := sliceSize(vol, axis)
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for row := 0; row < height; row++ {
		vert := height - 1 - row
		for col := 0; col < width; col++ {
			var x, y, z int
			switch axis {
			case models.Sagittal:
				x, y, z = position, vert, col
			case models.Coronal:
				x, y, z = vert, position, col
			default:
				x, y, z = vert, col, position
			}
			g := windowed(vol.At(x, y, z), win)
			img.SetGray16(col, row, color.Gray16{Y: uint16(g * 65535)})
		}
	}
	return img, nil
}

// SaveSlice saves an image as a JPEG file
func SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along axis
func SaveSliceSequence(vol *models.Volume, axis models.Axis, win view.Window, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < vol.Dim(axis); pos++ {
		img, err := ExtractSlice(vol, axis, pos, win)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// SaveFrame writes the last rendered frame as a JPEG screenshot
func (r *Renderer) SaveFrame(filename string) error {
	if r.frame == nil {
		return fmt.Errorf("no frame to save")
	}
	return SaveSlice(r.frame, filename)
}
