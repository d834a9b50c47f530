// Package idx implements the gray-scale image container format: a 16-byte
// big-endian header (magic, item count, row count, column count) followed
// by item*row*column unsigned 8-bit samples, image-major then row-major.
package idx

// Decode parses a container. The samples are copied out of b.
func Decode(b []byte) (*Container, error) {
	var h Header
	if err := h.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	payload := uint64(len(b) - HeaderSize)
	n, ok := h.SampleCount()
	if !ok || n != payload {
		expected := n
		if !ok {
			expected = ^uint64(0)
		}
		return nil, &MalformedContainerError{Field: "samples", Expected: expected, Actual: payload}
	}

	flat := make([]uint8, n)
	copy(flat, b[HeaderSize:])
	return &Container{Header: h, Images: split(flat, int(h.Items), int(h.ImageSize()))}, nil
}

// Encode serializes c. It fails with a *ShapeMismatchError if the images do
// not agree with the header.
func Encode(c *Container) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	n, ok := c.SampleCount()
	if !ok {
		return nil, &ShapeMismatchError{Field: "samples", Expected: ^uint64(0), Actual: uint64(len(c.Images)) * c.ImageSize()}
	}
	out := make([]byte, 0, HeaderSize+int(n))
	out = c.Header.AppendBinary(out)
	for _, img := range c.Images {
		out = append(out, img...)
	}
	return out, nil
}
