package ml

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0tShaman/idxreduce/tensor"
)

// --- Global Variables to prevent compiler optimizations ---
var resultMat *Matrix

func TestMatMulGo_MatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	a, b := NewMatrix(70, 90), NewMatrix(90, 65)
	a.Randomize(rng)
	b.Randomize(rng)

	want, got := NewMatrix(70, 65), NewMatrix(70, 65)
	MatMul(a.dense, b.dense, want)
	MatMulGo(a, b, got)

	assert.InDeltaSlice(t, want.data, got.data, 1e-9)
}

func TestForward_Linear(t *testing.T) {
	nn := NewNetwork(Input(2), Dense(1, Activation("linear")))
	copy(nn.Layers[0].Weights.data, []float64{2, -1})
	nn.Layers[0].Biases.data[0] = 0.5

	out := nn.Forward(NewMatrixFromSlice(2, 2, []float64{1, 1, 3, 2}))
	assert.Equal(t, []float64{1.5, 4.5}, out.data)
}

func TestForward_Relu(t *testing.T) {
	nn := NewNetwork(Input(1), Dense(2))
	copy(nn.Layers[0].Weights.data, []float64{1, -1})

	out := nn.Forward(NewMatrixFromSlice(1, 1, []float64{3}))
	assert.Equal(t, []float64{3, 0}, out.Row(0))
}

func TestForward_ResizesBuffers(t *testing.T) {
	nn := NewNetwork(Input(4), Dense(3), Dense(2, Activation("tanh")))
	nn.Forward(NewMatrix(8, 4))
	out := nn.Forward(NewMatrix(3, 4))
	assert.Equal(t, 3, out.Rows())
	assert.Equal(t, 2, out.Cols())
}

func TestActivation_Unknown(t *testing.T) {
	_, err := ParseActivation("softmax")
	assert.Error(t, err)
	assert.Panics(t, func() { Activation("gelu") })
}

func TestReinitialize_Deterministic(t *testing.T) {
	a := NewNetwork(Input(5), Dense(4), Dense(2, Activation("linear")))
	b := NewNetwork(Input(5), Dense(4), Dense(2, Activation("linear")))
	a.Reinitialize(42)
	b.Reinitialize(42)

	for i := range a.Layers {
		assert.Equal(t, a.Layers[i].Weights.data, b.Layers[i].Weights.data)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	nn := NewNetwork(Input(6), Dense(4), Dense(3, Activation("sigmoid")))
	nn.Reinitialize(7)
	require.NoError(t, nn.SaveToFile(path))

	loaded, err := LoadNetwork(path)
	require.NoError(t, err)
	assert.Equal(t, 6, loaded.InputDim)
	require.Len(t, loaded.Layers, 2)
	assert.Equal(t, ActSigmoid, loaded.Layers[1].ActType)
	assert.Equal(t, nn.Layers[0].Weights.data, loaded.Layers[0].Weights.data)

	fresh := NewNetwork(Input(6), Dense(4), Dense(3, Activation("sigmoid")))
	require.NoError(t, fresh.LoadFromFile(path))
	assert.Equal(t, nn.Layers[1].Weights.data, fresh.Layers[1].Weights.data)

	other := NewNetwork(Input(6), Dense(5), Dense(3, Activation("sigmoid")))
	assert.Error(t, other.LoadFromFile(path))
}

func TestDecodeNetwork_Garbage(t *testing.T) {
	_, err := DecodeNetwork(strings.NewReader("not a gob stream"))
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	nn := NewNetwork(Input(784), Dense(64), Dense(10, Activation("linear")))
	var buf bytes.Buffer
	require.NoError(t, nn.Summary(&buf))

	out := buf.String()
	assert.Contains(t, out, "(None, 784)")
	assert.Contains(t, out, "linear")
	assert.Contains(t, out, "Total params: 50890")
}

func TestNetworkEncoder(t *testing.T) {
	nn := NewNetwork(Input(4), Dense(2, Activation("linear")))
	copy(nn.Layers[0].Weights.data, []float64{1, 0, 1, 0, 1, 0, 1, 0})

	images, err := tensor.FromFloat64([]float64{
		1, 2, 3, 4,
		0, 0, 0, 1,
		1, 1, 1, 1,
	}, 3, 2, 2, 1)
	require.NoError(t, err)

	enc := &NetworkEncoder{Net: nn, BatchSize: 2}
	assert.Equal(t, 2, enc.LatentDim())

	z, err := enc.Encode(images)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, z.Shape())
	assert.Equal(t, []float64{10, 0, 1, 0, 4, 0}, z.Float64s())
}

func TestNetworkEncoder_WidthMismatch(t *testing.T) {
	enc := &NetworkEncoder{Net: NewNetwork(Input(5), Dense(2))}
	images, err := tensor.Zeros(tensor.Float64, 2, 2, 2, 1)
	require.NoError(t, err)

	_, err = enc.Encode(images)
	assert.Error(t, err)
}

func TestEncodeImage(t *testing.T) {
	nn := NewNetwork(Input(4), Dense(2, Activation("linear")))
	copy(nn.Layers[0].Weights.data, []float64{1, 0, 1, 0, 1, 0, 1, 0})
	enc := &NetworkEncoder{Net: nn}

	var gotW, gotH int
	load := func(_ string, w, h int) ([]uint8, error) {
		gotW, gotH = w, h
		return []uint8{255, 0, 255, 255}, nil
	}
	z, err := enc.EncodeImage("digit.png", 2, 2, load)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 0}, z, 1e-12)
	assert.Equal(t, 2, gotW)
	assert.Equal(t, 2, gotH)

	failing := func(string, int, int) ([]uint8, error) { return nil, errors.New("no such image") }
	_, err = enc.EncodeImage("missing.png", 2, 2, failing)
	assert.ErrorContains(t, err, "missing.png")

	_, err = enc.EncodeImage("digit.png", 3, 3, load)
	assert.Error(t, err, "loader returned too few pixels")
}

func TestProjectionEncoder(t *testing.T) {
	p, err := NewProjectionEncoder(9, 3, 11)
	require.NoError(t, err)
	q, err := NewProjectionEncoder(9, 3, 11)
	require.NoError(t, err)

	data := make([]float64, 4*9)
	for i := range data {
		data[i] = float64(i%7) / 7
	}
	images, err := tensor.FromFloat64(data, 4, 3, 3, 1)
	require.NoError(t, err)

	a, err := p.Encode(images)
	require.NoError(t, err)
	b, err := q.Encode(images)
	require.NoError(t, err)

	assert.Equal(t, []int{4, 3}, a.Shape())
	assert.True(t, tensor.Equal(a, b), "same seed, same projection")

	_, err = NewProjectionEncoder(0, 3, 1)
	assert.Error(t, err)
}

// --- Benchmarks ---

func benchmarkMatMul(b *testing.B, size int, method string) {
	rng := rand.New(rand.NewPCG(1, 2))
	m1 := NewMatrix(size, size)
	m2 := NewMatrix(size, size)
	out := NewMatrix(size, size)

	m1.Randomize(rng)
	m2.Randomize(rng)

	b.ResetTimer()

	if method == "Native" {
		for n := 0; n < b.N; n++ {
			MatMulGo(m1, m2, out)
		}
	} else {
		for n := 0; n < b.N; n++ {
			MatMul(m1.dense, m2.dense, out)
		}
	}
	resultMat = out
}

func BenchmarkMatMul_Native_64(b *testing.B)  { benchmarkMatMul(b, 64, "Native") }
func BenchmarkMatMul_Gonum_64(b *testing.B)   { benchmarkMatMul(b, 64, "Gonum") }
func BenchmarkMatMul_Native_256(b *testing.B) { benchmarkMatMul(b, 256, "Native") }
func BenchmarkMatMul_Gonum_256(b *testing.B)  { benchmarkMatMul(b, 256, "Gonum") }

// Benchmark: encoding a batch of MNIST-sized images down to 10 dimensions
func benchmarkEncode(b *testing.B, batchSize int) {
	nn := NewNetwork(
		Input(784),
		Dense(64),
		Dense(10, Activation("linear")),
	)
	enc := &NetworkEncoder{Net: nn, BatchSize: batchSize}

	data := make([]float64, 1024*784)
	for i := range data {
		data[i] = rand.Float64()
	}
	images, err := tensor.FromFloat64(data, 1024, 28, 28, 1)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := enc.Encode(images); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncode_Batch_1(b *testing.B)   { benchmarkEncode(b, 1) }
func BenchmarkEncode_Batch_64(b *testing.B)  { benchmarkEncode(b, 64) }
func BenchmarkEncode_Batch_256(b *testing.B) { benchmarkEncode(b, 256) }
