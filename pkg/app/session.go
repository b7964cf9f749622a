// Package app wires the renderer to its drivers: the controller that owns
// frame state, the rotation slider, the HUD, and the terminal, window and
// headless front ends.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/taigrr/pyramid/pkg/config"
	"github.com/taigrr/pyramid/pkg/logging"
	"github.com/taigrr/pyramid/pkg/render"
)

// Session is one running pyramid: rasterizer, renderer, controller and
// slider, plus the driver-level toggles. Drivers call it from a single
// goroutine.
type Session struct {
	cfg      config.Config
	raster   *render.Rasterizer
	renderer *render.Renderer
	ctrl     *Controller
	slider   *Slider
	hud      *HUD
	showHUD  bool
	logger   *log.Logger
}

// NewSession builds a session from a validated config.
func NewSession(cfg config.Config, logger *log.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return nil, err
	}
	view, err := cfg.View()
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	logger = logging.OrDiscard(logger)

	raster := render.NewRasterizer()
	renderer := render.NewRenderer(raster,
		render.WithProjection(cfg.Projection.New()),
		render.WithView(view),
		render.WithClearColor(bg),
		render.WithLogger(logger),
	)

	slider := NewSlider(cfg.Tick(), cfg.Slider.Frequency, cfg.Slider.Damping)
	slider.SetSpin(cfg.Slider.Spin)

	return &Session{
		cfg:      cfg,
		raster:   raster,
		renderer: renderer,
		ctrl:     NewController(renderer, logger),
		slider:   slider,
		hud:      NewHUD(),
		logger:   logger.WithPrefix("session"),
	}, nil
}

// Start announces the initial surface size in pixels.
func (s *Session) Start(width, height int) {
	s.ctrl.OnSurfaceReady(width, height)
}

// Resize announces a new surface size in pixels.
func (s *Session) Resize(width, height int) {
	s.ctrl.OnResize(width, height)
}

// Tick advances the slider and renders one frame.
func (s *Session) Tick() error {
	s.hud.UpdateFPS()
	return s.ctrl.OnTick(s.slider.Update())
}

// HandleKey applies a key by name ("w", "left", "?", "esc", ...) and
// reports whether it asks to quit.
func (s *Session) HandleKey(name string) (quit bool) {
	name = strings.ToLower(name)
	// Held shift still moves: terminals report "shift+w" or "W".
	if s.ctrl.OnKey(KeyFromName(strings.TrimPrefix(name, "shift+"))) {
		return false
	}

	switch name {
	case "esc", "escape", "ctrl+c":
		return true
	case "[", "left":
		s.slider.Nudge(-NudgeDegrees)
	case "]", "right":
		s.slider.Nudge(NudgeDegrees)
	case "0":
		s.slider.Reset()
	case "x":
		s.renderer.SetWireframe(!s.renderer.Wireframe())
	case "?", "shift+/":
		s.showHUD = !s.showHUD
	case "r":
		s.ctrl.Reset()
		s.slider.Reset()
	}
	return false
}

// Apply switches to a reloaded config. The tick interval is returned so the
// driver can reset its timer. Log settings and the driver only take effect
// at startup.
func (s *Session) Apply(cfg config.Config) (time.Duration, error) {
	if err := cfg.Validate(); err != nil {
		return s.cfg.Tick(), err
	}
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return s.cfg.Tick(), err
	}
	view, err := cfg.View()
	if err != nil {
		return s.cfg.Tick(), fmt.Errorf("camera: %w", err)
	}

	s.renderer.SetClearColor(bg)
	s.renderer.SetView(view)

	p := s.renderer.Projection()
	if p.FOV != cfg.Projection.FOV || p.Near != cfg.Projection.Near || p.Far != cfg.Projection.Far {
		p.FOV, p.Near, p.Far = cfg.Projection.FOV, cfg.Projection.Near, cfg.Projection.Far
		s.renderer.Configure(p.Size())
	}

	s.slider.SetSpring(cfg.Tick(), cfg.Slider.Frequency, cfg.Slider.Damping)
	s.slider.SetSpin(cfg.Slider.Spin)

	s.logger.Info("config reloaded", "tick", cfg.Tick(), "camera", view.Name(), "background", cfg.Background)
	s.cfg = cfg
	return cfg.Tick(), nil
}

// Frame returns the last presented frame.
func (s *Session) Frame() *render.Framebuffer {
	return s.raster.Front()
}

// HUD returns the overlay rows, or ok false when the HUD is hidden.
func (s *Session) HUD() (top, bottom string, ok bool) {
	if !s.showHUD {
		return "", "", false
	}
	state := s.ctrl.State()
	dist, _ := s.renderer.Distance(state)
	top, bottom = s.hud.Lines(HUDState{
		Frame:     state,
		Target:    s.slider.Target(),
		Camera:    s.renderer.View().Name(),
		Wireframe: s.renderer.Wireframe(),
		Framing:   s.renderer.Framing(state),
		Distance:  dist,
		Stats:     s.renderer.Stats(),
	})
	return top, bottom, true
}

// Config returns the config in effect.
func (s *Session) Config() config.Config {
	return s.cfg
}

// State returns the current frame state.
func (s *Session) State() render.FrameState {
	return s.ctrl.State()
}

// Stats returns the renderer's frame counters.
func (s *Session) Stats() render.Stats {
	return s.renderer.Stats()
}
