// Package render draws the pyramid: projection setup, view strategies, the
// per-frame scene pass and a software rasterizer backend.
package render

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/charmbracelet/log"

	"github.com/taigrr/pyramid/pkg/logging"
	"github.com/taigrr/pyramid/pkg/math3d"
	"github.com/taigrr/pyramid/pkg/models"
)

// ErrInvalidFrameState is returned for frame states with NaN or infinite
// values.
var ErrInvalidFrameState = errors.New("invalid frame state")

// ErrInvalidTransform is returned when the projection or view matrix holds
// NaN or infinite values.
var ErrInvalidTransform = errors.New("invalid transform")

// FrameState is the per-tick input of a frame.
type FrameState struct {
	Angle  float64     // Rotation about Y in degrees
	Offset math3d.Vec3 // Model translation
}

// DefaultOffset places the pyramid in front of a camera at the origin.
var DefaultOffset = math3d.V3(0, 0, -6)

// Validate returns ErrInvalidFrameState if any field is not finite.
func (fs FrameState) Validate() error {
	if !math3d.IsFinite(fs.Angle) || !fs.Offset.IsFinite() {
		return fmt.Errorf("%w: angle=%v offset=%v", ErrInvalidFrameState, fs.Angle, fs.Offset)
	}
	return nil
}

// Model returns Translate(Offset) * RotateY(Angle).
func (fs FrameState) Model() math3d.Mat4 {
	return math3d.Translate(fs.Offset).Mul(math3d.RotateYDegrees(fs.Angle))
}

// Stats counts frames handled by Renderer.Frame.
type Stats struct {
	Frames          int // Frames presented, skipped ones included
	SkippedFrames   int // Frames presented without geometry
	OffscreenFrames int // Frames whose pyramid bounds missed the view frustum
}

// Renderer issues the pyramid scene to a Backend.
//
// A Renderer is not safe for concurrent use; the driver calls it from one
// goroutine.
type Renderer struct {
	backend    Backend
	projection *Projection
	view       ViewStrategy
	clearColor Color
	wireframe  bool
	logger     *log.Logger

	stats    Stats
	skipping bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithProjection replaces the default projection.
func WithProjection(p *Projection) Option {
	return func(r *Renderer) { r.projection = p }
}

// WithView sets the view strategy. The default is FixedView.
func WithView(v ViewStrategy) Option {
	return func(r *Renderer) { r.view = v }
}

// WithClearColor sets the background. The default is cornflower blue.
func WithClearColor(c Color) Option {
	return func(r *Renderer) { r.clearColor = c }
}

// WithLogger sets the logger. Nil discards.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// NewRenderer creates a renderer and enables depth testing on the backend.
func NewRenderer(b Backend, opts ...Option) *Renderer {
	r := &Renderer{
		backend:    b,
		view:       FixedView{},
		clearColor: CornflowerBlue,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.projection == nil {
		r.projection = NewProjection()
	}
	if r.view == nil {
		r.view = FixedView{}
	}
	r.logger = logging.OrDiscard(r.logger).WithPrefix("render")

	b.EnableDepthTest()
	b.SetClearColor(r.clearColor)
	return r
}

// Configure sets the viewport to the surface and recomputes the projection.
// Call it when the surface is created and after every resize.
func (r *Renderer) Configure(width, height int) math3d.Mat4 {
	w, h := ClampSize(width, height)
	if w != width || h != height {
		r.logger.Debug("clamped surface size", "width", width, "height", height)
	}
	r.backend.Viewport(0, 0, w, h)
	m := r.projection.Configure(w, h)
	r.logger.Debug("configured projection", "width", w, "height", h, "aspect", r.projection.Aspect())
	return m
}

// Projection returns the renderer's projection.
func (r *Renderer) Projection() *Projection {
	return r.projection
}

// SetView replaces the view strategy.
func (r *Renderer) SetView(v ViewStrategy) {
	if v == nil {
		v = FixedView{}
	}
	r.view = v
}

// View returns the current view strategy.
func (r *Renderer) View() ViewStrategy {
	return r.view
}

// SetClearColor changes the background.
func (r *Renderer) SetClearColor(c Color) {
	r.clearColor = c
	r.backend.SetClearColor(c)
}

// ClearColor returns the background.
func (r *Renderer) ClearColor() Color {
	return r.clearColor
}

// SetWireframe switches between filled and outlined faces.
func (r *Renderer) SetWireframe(on bool) {
	r.wireframe = on
	if on {
		r.backend.SetPolygonMode(Line)
	} else {
		r.backend.SetPolygonMode(Fill)
	}
}

// Wireframe reports whether faces are outlined.
func (r *Renderer) Wireframe() bool {
	return r.wireframe
}

// Stats returns the frame counters.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Render draws one frame: clear, set projection * view * model, emit the
// four colored sides and the gray base, present.
func (r *Renderer) Render(fs FrameState, projection, view math3d.Mat4) error {
	if err := fs.Validate(); err != nil {
		return err
	}
	if err := checkTransform(projection, view); err != nil {
		return err
	}

	r.backend.Clear()
	r.backend.SetTransform(projection.Mul(view).Mul(fs.Model()))
	r.emitPyramid()

	if err := r.backend.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// emitPyramid issues the pyramid's faces, opening a new batch whenever the
// primitive kind changes.
func (r *Renderer) emitPyramid() {
	open := false
	var cur Primitive
	models.EachFace(func(c color.RGBA, verts []math3d.Vec3) {
		p := Triangles
		if len(verts) == 4 {
			p = Quads
		}
		if !open || p != cur {
			if open {
				r.backend.End()
			}
			r.backend.Begin(p)
			open, cur = true, p
		}
		r.backend.Color(c)
		for _, v := range verts {
			r.backend.Vertex(v)
		}
	})
	if open {
		r.backend.End()
	}
}

// Frame renders fs with the cached projection and the strategy's view.
// A degenerate camera, a non-finite matrix or an invalid frame state skips
// the geometry: the frame is cleared and presented, the condition is logged
// and counted, and Frame returns nil. Only a Present failure is returned.
func (r *Renderer) Frame(fs FrameState) error {
	r.stats.Frames++

	projection := r.projection.Matrix()
	view, err := r.view.View()
	if err == nil {
		err = fs.Validate()
	}
	if err == nil {
		err = checkTransform(projection, view)
	}
	if err != nil {
		return r.skip(err)
	}
	if r.skipping {
		r.logger.Info("rendering resumed")
		r.skipping = false
	}

	if r.framing(fs, projection, view) == FramingOff {
		r.stats.OffscreenFrames++
	}
	return r.Render(fs, projection, view)
}

func checkTransform(projection, view math3d.Mat4) error {
	switch {
	case !projection.IsFinite():
		return fmt.Errorf("%w: projection matrix is not finite", ErrInvalidTransform)
	case !view.IsFinite():
		return fmt.Errorf("%w: view matrix is not finite", ErrInvalidTransform)
	}
	return nil
}

func (r *Renderer) skip(reason error) error {
	r.stats.SkippedFrames++
	if !r.skipping {
		r.logger.Warn("skipping geometry", "err", reason)
		r.skipping = true
	} else {
		r.logger.Debug("skipping geometry", "err", reason)
	}

	r.backend.Clear()
	if err := r.backend.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// Framing reports how much of the pyramid's bounding box, placed by fs,
// lies inside the current view frustum. It is FramingOff when the view is
// degenerate.
func (r *Renderer) Framing(fs FrameState) Framing {
	projection, view, ok := r.matrices(fs)
	if !ok {
		return FramingOff
	}
	return r.framing(fs, projection, view)
}

// Visible reports whether any part of the pyramid may be on screen.
func (r *Renderer) Visible(fs FrameState) bool {
	return r.Framing(fs) != FramingOff
}

// Distance returns how far the center of the pyramid's bounds, placed by
// fs, is from the camera. ok is false when the view is degenerate.
func (r *Renderer) Distance(fs FrameState) (d float64, ok bool) {
	_, view, ok := r.matrices(fs)
	if !ok {
		return 0, false
	}
	center := NewAABB(models.PyramidBounds()).Center()
	return view.Mul(fs.Model()).MulVec3(center).Len(), true
}

func (r *Renderer) matrices(fs FrameState) (projection, view math3d.Mat4, ok bool) {
	view, err := r.view.View()
	if err != nil || fs.Validate() != nil {
		return projection, view, false
	}
	projection = r.projection.Matrix()
	if checkTransform(projection, view) != nil {
		return projection, view, false
	}
	return projection, view, true
}

func (r *Renderer) framing(fs FrameState, projection, view math3d.Mat4) Framing {
	frustum := NewFrustumFromMatrix(projection.Mul(view))
	box := NewAABB(models.PyramidBounds()).Transform(fs.Model())
	return frustum.Classify(box)
}
