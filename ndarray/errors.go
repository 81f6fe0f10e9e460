package ndarray

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAxis indicates an axis index outside the array's rank
	// after negative-index normalization.
	ErrInvalidAxis = errors.New("ndarray: axis out of range")

	// ErrShape indicates a shape/length disagreement during construction
	// or view extraction.
	ErrShape = errors.New("ndarray: shape mismatch")
)

func validateShape(shape []int) error {
	for i, n := range shape {
		if n < 0 {
			return fmt.Errorf("%w: negative extent %d at axis %d", ErrShape, n, i)
		}
	}
	return nil
}
