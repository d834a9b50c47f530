package reduce

import (
	"math"

	"github.com/b0tShaman/idxreduce/tensor"
)

// Normalize casts uint8 samples to float64 in [0, 1].
func Normalize(t *tensor.Tensor) *tensor.Tensor {
	return t.Scale(1.0 / 255)
}

// Rescale maps the whole tensor linearly from [min, max] onto [0, 255] and
// rounds to uint8. min and max are taken over every element, so the smallest
// element becomes 0 and the largest 255. A constant tensor maps to all zeros.
func Rescale(t *tensor.Tensor) (*tensor.Tensor, error) {
	if t.Len() == 0 {
		return tensor.Zeros(tensor.Uint8, t.Shape()...)
	}
	lo, hi, err := t.MinMax()
	if err != nil {
		return nil, err
	}

	vals := t.AsFloat64().Float64s()
	out := make([]uint8, len(vals))
	if hi > lo {
		span := hi - lo
		if math.IsInf(span, 0) {
			// Halve before subtracting so finite ranges wider than
			// MaxFloat64 stay finite.
			lo, span = lo/2, hi/2-lo/2
			for i, v := range vals {
				out[i] = quantize((v/2 - lo) / span * 255)
			}
		} else {
			for i, v := range vals {
				out[i] = quantize((v - lo) / span * 255)
			}
		}
	}
	return tensor.FromUint8(out, t.Shape()...)
}

func quantize(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}
