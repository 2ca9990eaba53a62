package config

import (
	"errors"
	"fmt"
)

// ErrWidthIsZero rejects an explicit zero resize width.
var ErrWidthIsZero = errors.New("width cannot be zero")

// ErrHeightIsZero rejects an explicit zero resize height.
var ErrHeightIsZero = errors.New("height cannot be zero")

// QualityOutOfBoundsError rejects a quality outside [0,100].
type QualityOutOfBoundsError struct {
	Quality float64
}

func (e *QualityOutOfBoundsError) Error() string {
	return fmt.Sprintf("quality %v is out of range 0 to 100", e.Quality)
}

// DitheringOutOfBoundsError rejects a dithering level outside [0,1].
type DitheringOutOfBoundsError struct {
	Level float64
}

func (e *DitheringOutOfBoundsError) Error() string {
	return fmt.Sprintf("dithering level %v is out of range 0 to 1.0", e.Level)
}
