package idx

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBytes() []byte {
	return []byte{
		0x00, 0x00, 0x08, 0x03, // magic 2051
		0x00, 0x00, 0x00, 0x02, // items
		0x00, 0x00, 0x00, 0x02, // rows
		0x00, 0x00, 0x00, 0x02, // cols
		0, 128, 255, 64,
		10, 20, 30, 40,
	}
}

func TestDecode(t *testing.T) {
	c, err := Decode(sampleBytes())
	require.NoError(t, err)

	assert.Equal(t, Header{Magic: 2051, Items: 2, Rows: 2, Cols: 2}, c.Header)
	require.Len(t, c.Images, 2)
	assert.Equal(t, []uint8{0, 128, 255, 64}, c.Images[0])
	assert.Equal(t, []uint8{10, 20, 30, 40}, c.Images[1])
	assert.Equal(t, uint8(255), c.At(0, 1, 0))
	assert.Equal(t, uint8(20), c.At(1, 0, 1))
}

func TestDecode_DoesNotAliasInput(t *testing.T) {
	b := sampleBytes()
	c, err := Decode(b)
	require.NoError(t, err)

	b[HeaderSize] = 99
	assert.Equal(t, uint8(0), c.Images[0][0])
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		field string
	}{
		{"empty", nil, "header"},
		{"short header", sampleBytes()[:10], "header"},
		{"truncated samples", sampleBytes()[:HeaderSize+7], "samples"},
		{"trailing bytes", append(sampleBytes(), 1), "samples"},
		{"overflowing header", []byte{0, 0, 8, 3, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, "samples"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			require.ErrorIs(t, err, ErrMalformedContainer)

			var mc *MalformedContainerError
			require.ErrorAs(t, err, &mc)
			assert.Equal(t, tt.field, mc.Field)
		})
	}
}

func TestDecode_MalformedReportsLengths(t *testing.T) {
	_, err := Decode(sampleBytes()[:HeaderSize+5])
	var mc *MalformedContainerError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, uint64(8), mc.Expected)
	assert.Equal(t, uint64(5), mc.Actual)
}

func TestEncode_BigEndianHeader(t *testing.T) {
	c, err := New(-2, 1, 1, [][]uint8{{7}})
	require.NoError(t, err)

	b, err := Encode(c)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0xff, 0xff, 0xff, 0xfe,
		0, 0, 0, 1,
		0, 0, 0, 1,
		0, 0, 0, 1,
		7,
	}, b)
}

func TestEncode_ShapeMismatch(t *testing.T) {
	c := &Container{
		Header: Header{Magic: MagicImages, Items: 2, Rows: 2, Cols: 2},
		Images: [][]uint8{{1, 2, 3, 4}},
	}
	_, err := Encode(c)
	require.ErrorIs(t, err, ErrShapeMismatch)

	c.Images = append(c.Images, []uint8{1, 2, 3})
	_, err = Encode(c)
	var sm *ShapeMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, "image 1", sm.Field)
}

func TestRoundTrip(t *testing.T) {
	b := sampleBytes()
	c, err := Decode(b)
	require.NoError(t, err)
	out, err := Encode(c)
	require.NoError(t, err)
	assert.Equal(t, b, out)
}

func TestRoundTrip_Random(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		items, rows, cols := r.IntN(6), r.IntN(5)+1, r.IntN(5)+1
		images := make([][]uint8, items)
		for j := range images {
			images[j] = make([]uint8, rows*cols)
			for k := range images[j] {
				images[j][k] = uint8(r.UintN(256))
			}
		}
		c, err := New(int32(r.Uint32()), uint32(rows), uint32(cols), images)
		require.NoError(t, err)

		b, err := Encode(c)
		require.NoError(t, err)
		require.Len(t, b, HeaderSize+items*rows*cols)

		got, err := Decode(b)
		require.NoError(t, err)
		require.True(t, Equal(c, got), "round trip %d", i)

		require.Len(t, got.Images, int(got.Items))
		for _, img := range got.Images {
			require.Len(t, img, int(got.Rows*got.Cols))
		}
	}
}

func TestHead(t *testing.T) {
	c, err := Decode(sampleBytes())
	require.NoError(t, err)

	h := c.Head(1)
	assert.Equal(t, uint32(1), h.Items)
	assert.Equal(t, c.Magic, h.Magic)
	assert.Equal(t, [][]uint8{{0, 128, 255, 64}}, h.Images)

	assert.True(t, Equal(c, c.Head(5)))
}

func TestTensorRoundTrip(t *testing.T) {
	c, err := Decode(sampleBytes())
	require.NoError(t, err)

	tt := c.Tensor()
	assert.Equal(t, []int{2, 2, 2}, tt.Shape())

	back, err := FromTensor(c.Magic, tt)
	require.NoError(t, err)
	assert.True(t, Equal(c, back))
}

func TestFromTensor_Vectors(t *testing.T) {
	c, err := Decode(sampleBytes())
	require.NoError(t, err)
	flat, err := c.Tensor().Reshape(2, 4)
	require.NoError(t, err)

	v, err := FromTensor(7, flat)
	require.NoError(t, err)
	assert.Equal(t, Header{Magic: 7, Items: 2, Rows: 4, Cols: 1}, v.Header)
}

func TestNew_RejectsRaggedImages(t *testing.T) {
	_, err := New(MagicImages, 2, 2, [][]uint8{{1, 2, 3, 4}, {1}})
	require.ErrorIs(t, err, ErrShapeMismatch)
}
