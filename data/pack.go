// Package data converts between ordinary image files and dataset containers.
package data

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/b0tShaman/idxreduce/idx"
)

// Pack decodes every image in paths, resizes it to cols x rows gray levels
// and stores them, in order, in a new container. Images are decoded
// concurrently.
func Pack(ctx context.Context, paths []string, rows, cols int, magic int32) (*idx.Container, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("pack: invalid image shape %dx%d", rows, cols)
	}
	images := make([][]uint8, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := LoadGray(p, cols, rows)
			if err != nil {
				return fmt.Errorf("pack %s: %w", p, err)
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return idx.New(magic, uint32(rows), uint32(cols), images)
}

// ExportPNG writes image i of c as an 8-bit gray PNG of Cols x Rows pixels.
func ExportPNG(w io.Writer, c *idx.Container, i int) error {
	if i < 0 || i >= len(c.Images) {
		return fmt.Errorf("export: image %d out of range [0, %d)", i, len(c.Images))
	}
	img := image.NewGray(image.Rect(0, 0, int(c.Cols), int(c.Rows)))
	copy(img.Pix, c.Images[i])
	return png.Encode(w, img)
}
