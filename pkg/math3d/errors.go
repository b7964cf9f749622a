package math3d

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroLength is returned when a vector with no direction is normalized.
	ErrZeroLength = errors.New("zero-length vector")

	// ErrNonFinite is returned when a vector has a NaN or infinite component.
	ErrNonFinite = errors.New("non-finite vector")

	// ErrDegenerateCamera is matched by every look-at failure.
	ErrDegenerateCamera = errors.New("degenerate camera")
)

// DegenerateCameraError describes look-at parameters that do not define a
// camera basis.
type DegenerateCameraError struct {
	Eye, Target, Up Vec3
	Reason          string
	Err             error
}

func (e *DegenerateCameraError) Error() string {
	return fmt.Sprintf("degenerate camera (eye=%v target=%v up=%v): %s: %v",
		e.Eye, e.Target, e.Up, e.Reason, e.Err)
}

// Unwrap lets errors.Is match both ErrDegenerateCamera and the vector error.
func (e *DegenerateCameraError) Unwrap() []error {
	return []error{ErrDegenerateCamera, e.Err}
}
