package data

import (
	"image"
	_ "image/gif"  // Registers GIF format
	_ "image/jpeg" // Essential: Registers JPEG format
	_ "image/png"
	"math"
	"os"

	"golang.org/x/image/draw"
)

// LoadGray decodes an image of any size and format, resizes it to
// targetW x targetH and returns its gray levels row-major.
func LoadGray(path string, targetW, targetH int) ([]uint8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return Gray(src, targetW, targetH), nil
}

// Gray resizes src with Catmull-Rom interpolation and converts it to 8-bit
// luma.
func Gray(src image.Image, targetW, targetH int) []uint8 {
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Rect, src, src.Bounds(), draw.Over, nil)

	out := make([]uint8, 0, targetW*targetH)
	bounds := dst.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := dst.At(x, y).RGBA()
			// Standard Grayscale formula
			gray := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			out = append(out, uint8(math.Min(255, math.Round(gray))))
		}
	}
	return out
}
