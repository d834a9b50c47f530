package ml

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"math/rand/v2"
	"text/tabwriter"

	"github.com/b0tShaman/idxreduce/storage"
)

type NeuralNetwork struct {
	Layers   []*Layer
	InputDim int

	batchSize int
}

// Neural Network Builder. Weights are He-initialized from the global source;
// use Reinitialize for a reproducible network.
func NewNetwork(configs ...LayerConfig) *NeuralNetwork {
	if len(configs) < 2 {
		panic("Network must have at least Input and one Output layer")
	}
	if !configs[0].IsInput {
		panic("First layer must be Input()")
	}

	nn := &NeuralNetwork{InputDim: configs[0].Neurons}
	prevOutputSize := configs[0].Neurons

	for i := 1; i < len(configs); i++ {
		cfg := configs[i]
		if cfg.IsInput {
			panic(fmt.Sprintf("Layer %d: Input() is only allowed first", i))
		}
		if cfg.Neurons <= 0 {
			panic(fmt.Sprintf("Layer %d: size must be positive, got %d", i, cfg.Neurons))
		}

		layer := &Layer{
			Weights: NewMatrix(prevOutputSize, cfg.Neurons),
			Biases:  NewMatrix(1, cfg.Neurons),
			ActType: cfg.Activation,
		}
		layer.Weights.Randomize(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))

		nn.Layers = append(nn.Layers, layer)
		prevOutputSize = cfg.Neurons
	}

	return nn
}

// Reinitialize redraws every weight from a source seeded with seed and zeroes
// the biases. Hidden layers use He init, linear layers Xavier.
func (nw *NeuralNetwork) Reinitialize(seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for _, layer := range nw.Layers {
		if layer.ActType == ActLinear {
			layer.Weights.RandomizeXavier(rng)
		} else {
			layer.Weights.Randomize(rng)
		}
		layer.Biases.Reset()
	}
}

// OutputDim is the width of the last layer.
func (nw *NeuralNetwork) OutputDim() int {
	return nw.Layers[len(nw.Layers)-1].Weights.cols
}

// -------- NEURAL NETWORK METHODS -------- //
func (nw *NeuralNetwork) InitializeBuffers(batchSize int) {
	for _, layer := range nw.Layers {
		outputDim := layer.Weights.cols
		layer.Z = NewMatrix(batchSize, outputDim)
		layer.A = NewMatrix(batchSize, outputDim)
	}
	nw.batchSize = batchSize
}

// Forward runs input through every layer and returns the last activation.
// The returned matrix is owned by the network and overwritten by the next
// call.
func (nw *NeuralNetwork) Forward(input *Matrix) *Matrix {
	if input.cols != nw.InputDim {
		panic(fmt.Sprintf("Input size mismatch. Expected %d, got %d", nw.InputDim, input.cols))
	}
	if nw.batchSize != input.rows {
		nw.InitializeBuffers(input.rows)
	}

	activation := input
	for _, layer := range nw.Layers {
		MatMul(activation.dense, layer.Weights.dense, layer.Z)
		layer.Z.AddVector(layer.Biases)
		copy(layer.A.data, layer.Z.data)
		layer.activate()
		activation = layer.A
	}
	return activation
}

type layerData struct {
	Weights *Matrix
	Biases  *Matrix
	ActType ActivationType
}

type networkData struct {
	InputDim   int
	LayerDatas []layerData
}

// SaveToFile saves the network weights, biases and activations to a gob
// file. The file is replaced atomically and compressed by extension.
func (nw *NeuralNetwork) SaveToFile(filename string) error {
	var buf bytes.Buffer
	if err := nw.Encode(&buf); err != nil {
		return err
	}
	return storage.Commit(storage.File{Path: filename, Data: buf.Bytes()})
}

// Encode writes the gob form of the network to w.
func (nw *NeuralNetwork) Encode(w io.Writer) error {
	ld := make([]layerData, len(nw.Layers))
	for i, l := range nw.Layers {
		ld[i] = layerData{Weights: l.Weights, Biases: l.Biases, ActType: l.ActType}
	}
	return gob.NewEncoder(w).Encode(networkData{InputDim: nw.InputDim, LayerDatas: ld})
}

// LoadFromFile overwrites the weights of nw with those stored in filename.
// The stored architecture must match nw exactly.
func (nw *NeuralNetwork) LoadFromFile(filename string) error {
	loaded, err := LoadNetwork(filename)
	if err != nil {
		return err
	}

	// --- VALIDATION STEP ---
	if nw.InputDim != loaded.InputDim {
		return fmt.Errorf("architecture mismatch: current network takes %d inputs, model file takes %d",
			nw.InputDim, loaded.InputDim)
	}
	if len(nw.Layers) != len(loaded.Layers) {
		return fmt.Errorf("architecture mismatch: current network has %d layers, model file has %d",
			len(nw.Layers), len(loaded.Layers))
	}

	checkDims := func(name string, layerIdx int, current, loaded *Matrix) error {
		if current.rows != loaded.rows || current.cols != loaded.cols {
			return fmt.Errorf("layer %d %s shape mismatch: expected [%d, %d], got [%d, %d]",
				layerIdx, name,
				current.rows, current.cols,
				loaded.rows, loaded.cols,
			)
		}
		return nil
	}

	for i, currLayer := range nw.Layers {
		loadedLayer := loaded.Layers[i]
		if currLayer.ActType != loadedLayer.ActType {
			return fmt.Errorf("layer %d mismatch: expected activation %v, got %v",
				i, currLayer.ActType, loadedLayer.ActType)
		}
		if err := checkDims("Weights", i, currLayer.Weights, loadedLayer.Weights); err != nil {
			return err
		}
		if err := checkDims("Biases", i, currLayer.Biases, loadedLayer.Biases); err != nil {
			return err
		}
	}

	// --- APPLICATION STEP ---
	for i, currLayer := range nw.Layers {
		copy(currLayer.Weights.data, loaded.Layers[i].Weights.data)
		copy(currLayer.Biases.data, loaded.Layers[i].Biases.data)
	}
	return nil
}

// LoadNetwork reconstructs a network from a file written by SaveToFile.
func LoadNetwork(filename string) (*NeuralNetwork, error) {
	b, err := storage.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return DecodeNetwork(bytes.NewReader(b))
}

// DecodeNetwork reads the gob form of a network and checks that its layers
// chain together.
func DecodeNetwork(r io.Reader) (*NeuralNetwork, error) {
	var nd networkData
	if err := gob.NewDecoder(r).Decode(&nd); err != nil {
		return nil, fmt.Errorf("failed to decode gob file: %w", err)
	}
	if len(nd.LayerDatas) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}

	nw := &NeuralNetwork{InputDim: nd.InputDim}
	prev := nd.InputDim
	for i, ld := range nd.LayerDatas {
		if ld.Weights == nil || ld.Biases == nil {
			return nil, fmt.Errorf("layer %d: missing weights or biases", i)
		}
		if ld.Weights.rows != prev {
			return nil, fmt.Errorf("layer %d takes %d inputs, previous layer yields %d", i, ld.Weights.rows, prev)
		}
		if ld.Biases.rows != 1 || ld.Biases.cols != ld.Weights.cols {
			return nil, fmt.Errorf("layer %d biases are [%d, %d], want [1, %d]", i, ld.Biases.rows, ld.Biases.cols, ld.Weights.cols)
		}
		if _, err := ParseActivation(ld.ActType.String()); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		nw.Layers = append(nw.Layers, &Layer{Weights: ld.Weights, Biases: ld.Biases, ActType: ld.ActType})
		prev = ld.Weights.cols
	}
	return nw, nil
}

// Summary writes a layer table in the manner of a Keras model summary.
func (nw *NeuralNetwork) Summary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Layer\tOutput Shape\tActivation\tParams\n")
	fmt.Fprintf(tw, "input\t(None, %d)\t-\t0\n", nw.InputDim)
	total := 0
	for i, l := range nw.Layers {
		params := l.Weights.rows*l.Weights.cols + l.Biases.cols
		total += params
		fmt.Fprintf(tw, "dense_%d\t(None, %d)\t%s\t%d\n", i, l.Weights.cols, l.ActType, params)
	}
	fmt.Fprintf(tw, "Total params: %d\n", total)
	return tw.Flush()
}
