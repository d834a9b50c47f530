package ml

import (
	"fmt"
	"math"
)

const (
	ActLinear ActivationType = iota
	ActRelu
	ActSigmoid
	ActTanh
)

var activationMap = map[string]ActivationType{
	"linear":  ActLinear,
	"relu":    ActRelu,
	"sigmoid": ActSigmoid,
	"tanh":    ActTanh,
}

// -------- TYPE DEFINITIONS -------- //
type ActivationType int
type LayerOption func(*LayerConfig)

func (a ActivationType) String() string {
	for name, act := range activationMap {
		if act == a {
			return name
		}
	}
	return fmt.Sprintf("ActivationType(%d)", int(a))
}

// LayerConfig holds the blueprint for a layer
type LayerConfig struct {
	Neurons    int
	IsInput    bool
	Activation ActivationType
}

type Layer struct {
	Weights *Matrix
	Biases  *Matrix

	// Forward State, sized for the current batch
	Z *Matrix
	A *Matrix

	ActType ActivationType
}

// ------- LAYER CONFIG HELPERS ------- //
// Input defines the entry point dimensions
func Input(size int) LayerConfig {
	return LayerConfig{
		Neurons:    size,
		IsInput:    true,
		Activation: ActLinear,
	}
}

// Dense defines a fully connected layer.
func Dense(size int, opts ...LayerOption) LayerConfig {
	d := LayerConfig{
		Neurons:    size,
		IsInput:    false,
		Activation: ActRelu, // Default for hidden layers
	}

	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func Activation(activation string) LayerOption {
	act, err := ParseActivation(activation)
	if err != nil {
		panic(err.Error())
	}
	return func(lc *LayerConfig) {
		lc.Activation = act
	}
}

// ParseActivation resolves an activation by name.
func ParseActivation(name string) (ActivationType, error) {
	act, exists := activationMap[name]
	if !exists {
		return 0, fmt.Errorf("unknown activation: %q", name)
	}
	return act, nil
}

func (l *Layer) activate() {
	switch l.ActType {
	case ActRelu:
		l.A.ApplyRelu()
	case ActSigmoid:
		l.A.ApplySigmoid()
	case ActTanh:
		l.A.ApplyFunc(math.Tanh)
	case ActLinear:
	default:
		panic("Unknown activation type")
	}
}

func errShape(rows, cols, n int) error {
	return fmt.Errorf("matrix [%d, %d] cannot hold %d values", rows, cols, n)
}
