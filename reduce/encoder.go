package reduce

import (
	"errors"
	"fmt"

	"github.com/b0tShaman/idxreduce/tensor"
)

// ErrEncoderFailure matches every *EncoderFailureError.
var ErrEncoderFailure = errors.New("encoder failure")

// Encoder maps a batch of images of shape [N, rows, cols, 1] to latent
// vectors of shape [N, D]. Output row i must correspond to input image i.
type Encoder interface {
	Encode(images *tensor.Tensor) (*tensor.Tensor, error)
}

// LatentSizer is implemented by encoders that know D ahead of time.
type LatentSizer interface {
	LatentDim() int
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(images *tensor.Tensor) (*tensor.Tensor, error)

func (f EncoderFunc) Encode(images *tensor.Tensor) (*tensor.Tensor, error) { return f(images) }

// EncoderFailureError wraps an error raised by the encoder, or a result
// whose shape or values cannot be stored.
type EncoderFailureError struct {
	Dataset string
	Err     error
}

func (e *EncoderFailureError) Error() string {
	return fmt.Sprintf("encoder failure on %s: %v", e.Dataset, e.Err)
}

func (e *EncoderFailureError) Unwrap() error { return e.Err }

func (e *EncoderFailureError) Is(target error) bool { return target == ErrEncoderFailure }

// encode invokes enc once and converts panics into errors.
func encode(enc Encoder, images *tensor.Tensor) (out *tensor.Tensor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return enc.Encode(images)
}
