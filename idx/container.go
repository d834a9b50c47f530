package idx

import (
	"fmt"

	"github.com/b0tShaman/idxreduce/tensor"
)

// Container is the in-memory form of a dataset file: a Header and Items
// images of Rows*Cols samples each. Every image is stored flat, row-major.
//
// Containers are built by Decode or by New and are not modified afterwards.
type Container struct {
	Header
	Images [][]uint8
}

// New builds a Container from images that each hold rows*cols samples.
// The images are copied into a single backing array.
func New(magic int32, rows, cols uint32, images [][]uint8) (*Container, error) {
	if uint64(len(images)) > uint64(^uint32(0)) {
		return nil, &ShapeMismatchError{Field: "items", Expected: uint64(^uint32(0)), Actual: uint64(len(images))}
	}
	h := Header{Magic: magic, Items: uint32(len(images)), Rows: rows, Cols: cols}
	size := h.ImageSize()
	for i, img := range images {
		if uint64(len(img)) != size {
			return nil, &ShapeMismatchError{Field: fmt.Sprintf("image %d", i), Expected: size, Actual: uint64(len(img))}
		}
	}
	flat := make([]uint8, 0, uint64(len(images))*size)
	for _, img := range images {
		flat = append(flat, img...)
	}
	return &Container{Header: h, Images: split(flat, len(images), int(size))}, nil
}

// FromTensor builds a Container from a uint8 tensor of shape [N, rows, cols],
// [N, rows, cols, 1] or [N, D]. A rank-2 tensor yields rows=D and cols=1.
func FromTensor(magic int32, t *tensor.Tensor) (*Container, error) {
	if t.DType() != tensor.Uint8 {
		return nil, fmt.Errorf("idx: container from %s tensor", t.DType())
	}
	shape := t.Shape()
	var rows, cols int
	switch {
	case len(shape) == 2:
		rows, cols = shape[1], 1
	case len(shape) == 3:
		rows, cols = shape[1], shape[2]
	case len(shape) == 4 && shape[3] == 1:
		rows, cols = shape[1], shape[2]
	default:
		return nil, fmt.Errorf("idx: cannot store tensor of shape %v", shape)
	}
	n := shape[0]
	c := &Container{
		Header: Header{Magic: magic, Items: uint32(n), Rows: uint32(rows), Cols: uint32(cols)},
		Images: split(t.Uint8s(), n, rows*cols),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the images agree with the header.
func (c *Container) Validate() error {
	if uint64(len(c.Images)) != uint64(c.Items) {
		return &ShapeMismatchError{Field: "items", Expected: uint64(c.Items), Actual: uint64(len(c.Images))}
	}
	size := c.ImageSize()
	for i, img := range c.Images {
		if uint64(len(img)) != size {
			return &ShapeMismatchError{Field: fmt.Sprintf("image %d", i), Expected: size, Actual: uint64(len(img))}
		}
	}
	return nil
}

// At returns the sample at row r, column col of image i.
func (c *Container) At(i, r, col int) uint8 {
	return c.Images[i][r*int(c.Cols)+col]
}

// Head returns a Container holding copies of the first n images. n at or
// above Items returns a full copy.
func (c *Container) Head(n int) *Container {
	if n < 0 {
		n = 0
	}
	if n > len(c.Images) {
		n = len(c.Images)
	}
	size := int(c.ImageSize())
	flat := make([]uint8, 0, n*size)
	for _, img := range c.Images[:n] {
		flat = append(flat, img...)
	}
	h := c.Header
	h.Items = uint32(n)
	return &Container{Header: h, Images: split(flat, n, size)}
}

// Tensor returns the samples as a uint8 tensor of shape [Items, Rows, Cols].
func (c *Container) Tensor() *tensor.Tensor {
	flat := make([]uint8, 0, uint64(len(c.Images))*c.ImageSize())
	for _, img := range c.Images {
		flat = append(flat, img...)
	}
	t, err := tensor.FromUint8(flat, len(c.Images), int(c.Rows), int(c.Cols))
	if err != nil {
		panic(fmt.Sprintf("idx: container violates its header: %v", err))
	}
	return t
}

// Equal reports whether a and b carry the same header and samples.
func Equal(a, b *Container) bool {
	if a.Header != b.Header || len(a.Images) != len(b.Images) {
		return false
	}
	for i := range a.Images {
		if string(a.Images[i]) != string(b.Images[i]) {
			return false
		}
	}
	return true
}

// split cuts flat into n images of size samples. Each image is capped so an
// append on one can never overwrite its neighbour.
func split(flat []uint8, n, size int) [][]uint8 {
	images := make([][]uint8, n)
	for i := range images {
		images[i] = flat[i*size : (i+1)*size : (i+1)*size]
	}
	return images
}
