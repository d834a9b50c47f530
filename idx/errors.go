package idx

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedContainer matches every *MalformedContainerError.
	ErrMalformedContainer = errors.New("malformed container")
	// ErrShapeMismatch matches every *ShapeMismatchError.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// MalformedContainerError reports a byte sequence whose length disagrees with
// what its own header declares.
type MalformedContainerError struct {
	Field    string
	Expected uint64
	Actual   uint64
}

func (e *MalformedContainerError) Error() string {
	return fmt.Sprintf("malformed container: %s: expected %d bytes, got %d", e.Field, e.Expected, e.Actual)
}

func (e *MalformedContainerError) Is(target error) bool { return target == ErrMalformedContainer }

// ShapeMismatchError reports a Container whose images disagree with its
// header. It indicates a programming error upstream of Encode.
type ShapeMismatchError struct {
	Field    string
	Expected uint64
	Actual   uint64
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %s: expected %d, got %d", e.Field, e.Expected, e.Actual)
}

func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }
