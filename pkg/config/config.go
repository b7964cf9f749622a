// Package config loads pyramid's settings from an optional TOML file and
// watches it for changes.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"

	"github.com/taigrr/pyramid/pkg/math3d"
	"github.com/taigrr/pyramid/pkg/render"
)

// Drivers.
const (
	DriverTerminal = "terminal"
	DriverWindow   = "window"
	DriverHeadless = "headless"
)

// Camera modes.
const (
	CameraNone   = "none"
	CameraLookAt = "lookat"
)

// Tick limits in milliseconds.
const (
	MinTickMS     = 1
	MaxTickMS     = 1000
	DefaultTickMS = 64
)

var (
	// ErrInvalidConfig is wrapped by every Validate failure.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidColor is returned by ParseRGB.
	ErrInvalidColor = errors.New("invalid color")
)

// Config is the full set of runtime settings.
type Config struct {
	Driver     string     `toml:"driver"`
	TickMS     int        `toml:"tick_ms"`
	Background string     `toml:"background"` // "R,G,B"
	Projection Projection `toml:"projection"`
	Camera     Camera     `toml:"camera"`
	Slider     Slider     `toml:"slider"`
	Log        Log        `toml:"log"`
	Window     Window     `toml:"window"`
	Headless   Headless   `toml:"headless"`
}

// Projection holds the perspective parameters.
type Projection struct {
	FOV  float64 `toml:"fov"` // degrees
	Near float64 `toml:"near"`
	Far  float64 `toml:"far"`
}

// Camera selects the view strategy.
type Camera struct {
	Mode   string     `toml:"mode"`
	Eye    [3]float64 `toml:"eye"`
	Target [3]float64 `toml:"target"`
	Up     [3]float64 `toml:"up"`
}

// Slider configures the rotation slider's spring and auto-spin.
type Slider struct {
	Frequency float64 `toml:"frequency"`
	Damping   float64 `toml:"damping"`
	Spin      float64 `toml:"spin"` // degrees per second, 0 disables
}

// Log configures the logger.
type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Window sizes the desktop window the window driver opens.
type Window struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Headless configures frame dumping.
type Headless struct {
	Frames int    `toml:"frames"`
	Out    string `toml:"out"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Driver:     DriverTerminal,
		TickMS:     DefaultTickMS,
		Background: "100,149,237",
		Projection: Projection{
			FOV:  render.DefaultFOV,
			Near: render.DefaultNear,
			Far:  render.DefaultFar,
		},
		Camera: Camera{
			Mode:   CameraNone,
			Eye:    [3]float64{0, 2, 0},
			Target: [3]float64{0, 0, -6},
			Up:     [3]float64{0, 1, 0},
		},
		Slider: Slider{
			Frequency: 6.0,
			Damping:   1.0,
		},
		Log:    Log{Level: "info"},
		Window: Window{Width: 800, Height: 600},
		Headless: Headless{
			Frames: 1,
			Out:    ".",
			Width:  800,
			Height: 600,
		},
	}
}

// Load reads path over the defaults and validates the result.
// Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem with c, joined.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	switch c.Driver {
	case DriverTerminal, DriverWindow, DriverHeadless:
	default:
		bad("driver %q (want terminal, window or headless)", c.Driver)
	}
	if c.TickMS < MinTickMS || c.TickMS > MaxTickMS {
		bad("tick_ms %d outside [%d, %d]", c.TickMS, MinTickMS, MaxTickMS)
	}
	if _, err := ParseRGB(c.Background); err != nil {
		bad("background: %v", err)
	}

	p := c.Projection.New()
	if err := p.Validate(); err != nil {
		bad("projection: %v", err)
	}

	switch c.Camera.Mode {
	case CameraNone:
	case CameraLookAt:
		if _, err := c.View(); err != nil {
			bad("camera: %v", err)
		}
	default:
		bad("camera mode %q (want none or lookat)", c.Camera.Mode)
	}

	if c.Slider.Frequency <= 0 || !math3d.IsFinite(c.Slider.Frequency) {
		bad("slider frequency %v must be positive", c.Slider.Frequency)
	}
	if c.Slider.Damping < 0 || !math3d.IsFinite(c.Slider.Damping) {
		bad("slider damping %v must not be negative", c.Slider.Damping)
	}
	if !math3d.IsFinite(c.Slider.Spin) {
		bad("slider spin %v", c.Slider.Spin)
	}

	if c.Log.Level != "" {
		if _, err := log.ParseLevel(c.Log.Level); err != nil {
			bad("log level %q", c.Log.Level)
		}
	}

	if c.Window.Width < 1 || c.Window.Height < 1 {
		bad("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Headless.Frames < 1 {
		bad("headless frames %d must be at least 1", c.Headless.Frames)
	}
	if c.Headless.Width < 1 || c.Headless.Height < 1 {
		bad("headless size %dx%d", c.Headless.Width, c.Headless.Height)
	}

	return errors.Join(errs...)
}

// Tick returns the tick interval.
func (c Config) Tick() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

// BackgroundColor parses Background.
func (c Config) BackgroundColor() (color.RGBA, error) {
	return ParseRGB(c.Background)
}

// New returns a projection with these parameters.
func (p Projection) New() *render.Projection {
	proj := render.NewProjection()
	proj.FOV, proj.Near, proj.Far = p.FOV, p.Near, p.Far
	return proj
}

// View builds the configured view strategy.
func (c Config) View() (render.ViewStrategy, error) {
	if c.Camera.Mode != CameraLookAt {
		return render.FixedView{}, nil
	}
	v, err := render.NewLookAtView(vec(c.Camera.Eye), vec(c.Camera.Target), vec(c.Camera.Up))
	if err != nil {
		return nil, err
	}
	return v, nil
}

func vec(a [3]float64) math3d.Vec3 {
	return math3d.V3(a[0], a[1], a[2])
}

// ParseRGB parses "R,G,B" with each component in 0..255.
func ParseRGB(s string) (color.RGBA, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("%w: %q is not R,G,B", ErrInvalidColor, s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("%w: component %q of %q", ErrInvalidColor, p, s)
		}
		rgb[i] = uint8(n)
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}
