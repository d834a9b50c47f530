package ml

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/b0tShaman/idxreduce/tensor"
)

// DefaultBatchSize is the number of images pushed through a network per
// forward pass when NetworkEncoder.BatchSize is unset.
const DefaultBatchSize = 256

// NetworkEncoder uses a feed-forward network as an image encoder. Each image
// is flattened row-major into one input row; the last layer's activations
// are the latent vector.
type NetworkEncoder struct {
	Net       *NeuralNetwork
	BatchSize int
}

func (e *NetworkEncoder) LatentDim() int { return e.Net.OutputDim() }

// Encode maps [N, ...] to [N, D] where the trailing dimensions of the input
// must multiply to the network's input width.
func (e *NetworkEncoder) Encode(images *tensor.Tensor) (*tensor.Tensor, error) {
	n, data, err := flatten(images, e.Net.InputDim)
	if err != nil {
		return nil, err
	}

	bs := e.BatchSize
	if bs <= 0 {
		bs = DefaultBatchSize
	}
	inDim, outDim := e.Net.InputDim, e.Net.OutputDim()
	out := make([]float64, n*outDim)

	for start := 0; start < n; start += bs {
		end := min(start+bs, n)
		rows := end - start
		batch := NewMatrixFromSlice(rows, inDim, data[start*inDim:end*inDim])
		a := e.Net.Forward(batch)
		copy(out[start*outDim:end*outDim], a.data)
	}
	return tensor.FromFloat64(out, n, outDim)
}

// ProjectionEncoder is a model-free encoder: a fixed Gaussian random
// projection from the flattened image onto Latent dimensions. The same seed
// always yields the same projection.
type ProjectionEncoder struct {
	inputDim int
	latent   int
	proj     *mat.Dense
}

// NewProjectionEncoder draws an inputDim x latent projection with entries
// from N(0, 1/latent).
func NewProjectionEncoder(inputDim, latent int, seed uint64) (*ProjectionEncoder, error) {
	if inputDim <= 0 || latent <= 0 {
		return nil, fmt.Errorf("projection: invalid shape %d -> %d", inputDim, latent)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	scale := 1 / math.Sqrt(float64(latent))
	data := make([]float64, inputDim*latent)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	return &ProjectionEncoder{inputDim: inputDim, latent: latent, proj: mat.NewDense(inputDim, latent, data)}, nil
}

func (p *ProjectionEncoder) LatentDim() int { return p.latent }

func (p *ProjectionEncoder) Encode(images *tensor.Tensor) (*tensor.Tensor, error) {
	n, data, err := flatten(images, p.inputDim)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return tensor.Zeros(tensor.Float64, 0, p.latent)
	}
	var out mat.Dense
	out.Mul(mat.NewDense(n, p.inputDim, data), p.proj)
	return tensor.FromFloat64(out.RawMatrix().Data, n, p.latent)
}

// flatten reshapes images to [N, width] and returns its float64 data.
func flatten(images *tensor.Tensor, width int) (int, []float64, error) {
	if images.Rank() < 2 {
		return 0, nil, fmt.Errorf("encoder input must be batched, got shape %v", images.Shape())
	}
	n := images.Dim(0)
	if n > 0 && images.Len()/n != width {
		return 0, nil, fmt.Errorf("encoder takes %d values per image, got shape %v", width, images.Shape())
	}
	flat, err := images.Reshape(n, width)
	if err != nil {
		return 0, nil, err
	}
	return n, flat.AsFloat64().Float64s(), nil
}
