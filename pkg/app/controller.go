package app

import (
	"github.com/charmbracelet/log"

	"github.com/taigrr/pyramid/pkg/logging"
	"github.com/taigrr/pyramid/pkg/render"
)

// Controller owns the frame state and turns driver callbacks into renderer
// calls. It is not safe for concurrent use.
type Controller struct {
	renderer *render.Renderer
	state    render.FrameState
	logger   *log.Logger
}

// NewController returns a controller with the pyramid at DefaultOffset.
func NewController(r *render.Renderer, logger *log.Logger) *Controller {
	return &Controller{
		renderer: r,
		state:    render.FrameState{Offset: render.DefaultOffset},
		logger:   logging.OrDiscard(logger).WithPrefix("app"),
	}
}

// OnSurfaceReady configures the projection for a new surface.
func (c *Controller) OnSurfaceReady(width, height int) {
	c.logger.Info("surface ready", "width", width, "height", height)
	c.renderer.Configure(width, height)
}

// OnResize reconfigures the projection after a resize.
func (c *Controller) OnResize(width, height int) {
	c.logger.Debug("resize", "width", width, "height", height)
	c.renderer.Configure(width, height)
}

// OnTick sets the angle from the slider and renders a frame.
func (c *Controller) OnTick(sliderValue float64) error {
	c.state.Angle = sliderValue
	return c.renderer.Frame(c.state)
}

// OnKey moves the pyramid one step. It reports whether k was a movement key.
func (c *Controller) OnKey(k Key) bool {
	if k == KeyNone {
		return false
	}
	c.state.Offset = c.state.Offset.Add(k.Delta())
	c.logger.Debug("offset", "key", k, "offset", c.state.Offset)
	return true
}

// Reset returns the pyramid to DefaultOffset and angle 0.
func (c *Controller) Reset() {
	c.state = render.FrameState{Offset: render.DefaultOffset}
}

// State returns the current frame state.
func (c *Controller) State() render.FrameState {
	return c.state
}
