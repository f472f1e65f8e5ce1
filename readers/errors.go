package readers

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when a caller-supplied array or vector
	// disagrees with the shape implied by the dataset.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidConfig is returned for unsupported enumerated options and
	// out-of-range probabilities or rates.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingParameter is returned when a required input is absent.
	ErrMissingParameter = errors.New("missing parameter")
)

// checkProbability rejects p outside [0,1], including NaN.
func checkProbability(name string, p float64) error {
	if !(p >= 0 && p <= 1) {
		return fmt.Errorf("%w: %s must be in [0, 1], got %v", ErrInvalidConfig, name, p)
	}
	return nil
}

func checkLen(name string, v []float64, want int) error {
	if v == nil {
		return fmt.Errorf("%w: %s", ErrMissingParameter, name)
	}
	if len(v) != want {
		return fmt.Errorf("%w: %s has length %d, expected %d", ErrDimensionMismatch, name, len(v), want)
	}
	return nil
}
