package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/pyramid/pkg/math3d"
)

// Default projection parameters.
const (
	DefaultFOV  = 45.0 // vertical, degrees
	DefaultNear = 0.1
	DefaultFar  = 100.0
)

// ErrInvalidProjection is wrapped by Projection.Validate failures.
var ErrInvalidProjection = errors.New("invalid projection")

// Projection owns the perspective matrix for the current surface size.
// The matrix is recomputed only by Configure, so between a resize and the
// next Configure the previous one stays in use.
type Projection struct {
	FOV  float64 // Vertical field of view in degrees
	Near float64
	Far  float64

	width, height int
	matrix        math3d.Mat4
}

// NewProjection returns a projection with the default 45° FOV and
// 0.1..100 depth range, configured for a 1x1 surface.
func NewProjection() *Projection {
	p := &Projection{FOV: DefaultFOV, Near: DefaultNear, Far: DefaultFar}
	p.Configure(1, 1)
	return p
}

// Validate checks 0 < FOV < 180 and 0 < Near < Far.
func (p *Projection) Validate() error {
	switch {
	case !math3d.IsFinite(p.FOV) || p.FOV <= 0 || p.FOV >= 180:
		return fmt.Errorf("%w: fov %v outside (0, 180)", ErrInvalidProjection, p.FOV)
	case !math3d.IsFinite(p.Near) || p.Near <= 0:
		return fmt.Errorf("%w: near %v must be positive", ErrInvalidProjection, p.Near)
	case !math3d.IsFinite(p.Far) || p.Far <= p.Near:
		return fmt.Errorf("%w: far %v must exceed near %v", ErrInvalidProjection, p.Far, p.Near)
	}
	return nil
}

// Configure recomputes the projection for a width x height surface and
// returns it. Both dimensions are clamped to at least 1.
func (p *Projection) Configure(width, height int) math3d.Mat4 {
	width, height = ClampSize(width, height)
	p.width, p.height = width, height

	aspect := float64(width) / float64(height)
	halfHeight := math.Tan(math3d.Radians(p.FOV)/2) * p.Near
	halfWidth := halfHeight * aspect

	p.matrix = math3d.Frustum(-halfWidth, halfWidth, -halfHeight, halfHeight, p.Near, p.Far)
	return p.matrix
}

// Matrix returns the matrix from the last Configure.
func (p *Projection) Matrix() math3d.Mat4 {
	return p.matrix
}

// Size returns the clamped surface size from the last Configure.
func (p *Projection) Size() (width, height int) {
	return p.width, p.height
}

// Aspect returns width / height from the last Configure.
func (p *Projection) Aspect() float64 {
	return float64(p.width) / float64(p.height)
}

// ClampSize raises both dimensions to at least 1.
func ClampSize(width, height int) (int, int) {
	return max(width, 1), max(height, 1)
}
