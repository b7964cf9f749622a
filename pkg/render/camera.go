package render

import (
	"fmt"

	"github.com/taigrr/pyramid/pkg/math3d"
)

// ViewStrategy supplies the view matrix for a frame.
type ViewStrategy interface {
	// View returns the world-to-eye matrix, or an error when the camera is
	// degenerate.
	View() (math3d.Mat4, error)
	Name() string
}

// FixedView is the camera-less strategy: the eye sits at the origin looking
// down -Z and the model offset alone places the object.
type FixedView struct{}

// View returns the identity matrix.
func (FixedView) View() (math3d.Mat4, error) {
	return math3d.Identity(), nil
}

func (FixedView) Name() string { return "none" }

// LookAtView places a real camera at Eye looking at Target.
type LookAtView struct {
	eye, target, up math3d.Vec3

	// Cached matrix (computed on demand)
	view      math3d.Mat4
	err       error
	viewDirty bool
}

// NewLookAtView returns a look-at camera, rejecting degenerate parameters.
func NewLookAtView(eye, target, up math3d.Vec3) (*LookAtView, error) {
	v := &LookAtView{eye: eye, target: target, up: up, viewDirty: true}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate reports whether the parameters define a camera basis.
func (v *LookAtView) Validate() error {
	if _, err := v.View(); err != nil {
		return fmt.Errorf("look-at camera: %w", err)
	}
	return nil
}

// View returns the look-at matrix, recomputing it after a parameter change.
func (v *LookAtView) View() (math3d.Mat4, error) {
	if v.viewDirty {
		v.view, v.err = math3d.LookAt(v.eye, v.target, v.up)
		v.viewDirty = false
	}
	return v.view, v.err
}

func (*LookAtView) Name() string { return "lookat" }

// SetEye moves the camera.
func (v *LookAtView) SetEye(eye math3d.Vec3) {
	v.eye = eye
	v.viewDirty = true
}

// SetTarget changes the point the camera looks at.
func (v *LookAtView) SetTarget(target math3d.Vec3) {
	v.target = target
	v.viewDirty = true
}

// SetUp changes the camera's up hint.
func (v *LookAtView) SetUp(up math3d.Vec3) {
	v.up = up
	v.viewDirty = true
}

// Eye returns the camera position.
func (v *LookAtView) Eye() math3d.Vec3 { return v.eye }

// Target returns the look-at point.
func (v *LookAtView) Target() math3d.Vec3 { return v.target }

// Up returns the up hint.
func (v *LookAtView) Up() math3d.Vec3 { return v.up }
