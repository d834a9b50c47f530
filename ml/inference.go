package ml

import (
	"fmt"

	"github.com/b0tShaman/idxreduce/tensor"
)

// ImageLoader decodes an image file into width x height gray levels,
// row-major.
type ImageLoader func(path string, width, height int) ([]uint8, error)

// EncodeImage runs a single image file through the encoder. The image is
// resized to rows x cols and normalized to [0, 1] exactly as the reduction
// pipeline does, so the result is the unscaled latent vector.
func (e *NetworkEncoder) EncodeImage(path string, rows, cols int, load ImageLoader) ([]float64, error) {
	// 1. Load & Convert
	pixels, err := load(path, cols, rows)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	img, err := tensor.FromUint8(pixels, 1, rows, cols, 1)
	if err != nil {
		return nil, err
	}

	// 2. Normalize (0-255 -> 0.0-1.0), 3. Encode
	z, err := e.Encode(img.Scale(1.0 / 255))
	if err != nil {
		return nil, err
	}
	return z.Row(0), nil
}
