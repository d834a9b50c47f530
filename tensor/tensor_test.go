package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromUint8_CopiesInput(t *testing.T) {
	src := []uint8{1, 2, 3, 4}
	tt, err := FromUint8(src, 2, 2)
	require.NoError(t, err)

	src[0] = 99
	assert.Equal(t, []uint8{1, 2, 3, 4}, tt.Uint8s())
	assert.Equal(t, []int{2, 2}, tt.Shape())
	assert.Equal(t, Uint8, tt.DType())
}

func TestFromFloat64_ShapeMismatch(t *testing.T) {
	_, err := FromFloat64([]float64{1, 2, 3}, 2, 2)
	var se *ShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Len)
}

func TestReshape(t *testing.T) {
	tt, err := FromUint8([]uint8{0, 1, 2, 3, 4, 5, 6, 7}, 2, 4)
	require.NoError(t, err)

	r, err := tt.Reshape(2, 2, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2, 1}, r.Shape())
	assert.Equal(t, tt.Uint8s(), r.Uint8s())

	inferred, err := tt.Reshape(-1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2}, inferred.Shape())

	_, err = tt.Reshape(3, -1)
	assert.Error(t, err)
	_, err = tt.Reshape(3, 3)
	assert.Error(t, err)
}

func TestReshape_DoesNotAlias(t *testing.T) {
	tt, err := FromFloat64([]float64{1, 2, 3, 4}, 4)
	require.NoError(t, err)
	r, err := tt.Reshape(2, 2)
	require.NoError(t, err)

	r.f64[0] = 42
	assert.Equal(t, 1.0, tt.Float64s()[0])
}

func TestScale(t *testing.T) {
	tt, err := FromUint8([]uint8{0, 51, 255}, 3)
	require.NoError(t, err)

	s := tt.Scale(1.0 / 255)
	assert.Equal(t, Float64, s.DType())
	assert.InDeltaSlice(t, []float64{0, 0.2, 1}, s.Float64s(), 1e-12)
	assert.Equal(t, Uint8, tt.DType())
}

func TestHead(t *testing.T) {
	tt, err := FromUint8([]uint8{1, 1, 2, 2, 3, 3}, 3, 2)
	require.NoError(t, err)

	h, err := tt.Head(2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, h.Shape())
	assert.Equal(t, []uint8{1, 1, 2, 2}, h.Uint8s())

	all, err := tt.Head(10)
	require.NoError(t, err)
	assert.True(t, Equal(tt, all))
}

func TestRow(t *testing.T) {
	tt, err := FromUint8([]uint8{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, tt.Row(1))
}

func TestMinMax(t *testing.T) {
	tt, err := FromFloat64([]float64{0.5, -2, 7, 3}, 2, 2)
	require.NoError(t, err)
	lo, hi, err := tt.MinMax()
	require.NoError(t, err)
	assert.Equal(t, -2.0, lo)
	assert.Equal(t, 7.0, hi)

	empty, err := Zeros(Float64, 0, 3)
	require.NoError(t, err)
	_, _, err = empty.MinMax()
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	tt, err := Zeros(Float64, 2, 28, 28, 1)
	require.NoError(t, err)
	assert.Equal(t, "Tensor[float64](2x28x28x1)", tt.String())
}
