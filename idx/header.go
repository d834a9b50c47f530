package idx

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// HeaderSize is the length of the serialized header in bytes.
const HeaderSize = 16

// MagicImages is the magic number conventionally carried by gray-scale
// image containers (0x00000803).
const MagicImages int32 = 2051

// Header is the metadata block preceding the samples. All four fields are
// stored as big-endian 32-bit integers.
type Header struct {
	Magic int32
	Items uint32
	Rows  uint32
	Cols  uint32
}

// ImageSize is the number of samples in a single image.
func (h Header) ImageSize() uint64 {
	return uint64(h.Rows) * uint64(h.Cols)
}

// SampleCount is Items*Rows*Cols. ok is false if the product overflows
// uint64 or cannot be addressed as an int on this platform.
func (h Header) SampleCount() (n uint64, ok bool) {
	hi, lo := bits.Mul64(uint64(h.Items), h.ImageSize())
	if hi != 0 || lo > math.MaxInt {
		return 0, false
	}
	return lo, true
}

// AppendBinary appends the 16-byte big-endian encoding of h to b.
func (h Header) AppendBinary(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(h.Magic))
	b = binary.BigEndian.AppendUint32(b, h.Items)
	b = binary.BigEndian.AppendUint32(b, h.Rows)
	b = binary.BigEndian.AppendUint32(b, h.Cols)
	return b
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h Header) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, HeaderSize)), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Only the first
// HeaderSize bytes of data are read.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return &MalformedContainerError{Field: "header", Expected: HeaderSize, Actual: uint64(len(data))}
	}
	h.Magic = int32(binary.BigEndian.Uint32(data[0:4]))
	h.Items = binary.BigEndian.Uint32(data[4:8])
	h.Rows = binary.BigEndian.Uint32(data[8:12])
	h.Cols = binary.BigEndian.Uint32(data[12:16])
	return nil
}
