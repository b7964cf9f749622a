package app

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/pyramid/pkg/math3d"
)

// NudgeDegrees is how far one slider key moves the target.
const NudgeDegrees = 5.0

// Slider is the rotation input. Its value eases toward a target angle with a
// spring and is reported wrapped into [0, 360).
type Slider struct {
	value    float64
	velocity float64
	target   float64

	spring harmonica.Spring
	dt     float64 // seconds per Update
	spin   float64 // degrees per second added to the target
}

// NewSlider returns a slider updated once per tick.
// Damping 1 is critically damped (no overshoot).
func NewSlider(tick time.Duration, frequency, damping float64) *Slider {
	s := &Slider{}
	s.SetSpring(tick, frequency, damping)
	return s
}

// SetSpring changes the update interval and spring parameters, keeping
// position and velocity.
func (s *Slider) SetSpring(tick time.Duration, frequency, damping float64) {
	s.dt = tick.Seconds()
	s.spring = harmonica.NewSpring(s.dt, frequency, damping)
}

// SetSpin sets the auto-spin rate in degrees per second. Zero disables it.
func (s *Slider) SetSpin(degPerSec float64) {
	s.spin = degPerSec
}

// Nudge moves the target by delta degrees.
func (s *Slider) Nudge(delta float64) {
	s.target += delta
	s.rebase()
}

// Reset puts value and target back to 0 and stops any motion.
func (s *Slider) Reset() {
	s.value, s.velocity, s.target = 0, 0, 0
}

// Update advances the spring one tick and returns the new value.
func (s *Slider) Update() float64 {
	s.target += s.spin * s.dt
	s.rebase()
	s.value, s.velocity = s.spring.Update(s.value, s.velocity, s.target)
	return s.Value()
}

// Value returns the current angle in [0, 360).
func (s *Slider) Value() float64 {
	return math3d.Wrap(s.value, 0, 360)
}

// Target returns the angle the value is easing toward, in [0, 360).
func (s *Slider) Target() float64 {
	return math3d.Wrap(s.target, 0, 360)
}

// rebase shifts value and target together by whole turns so the target stays
// in [0, 360) without the value spinning the long way round.
func (s *Slider) rebase() {
	turns := math.Floor(s.target / 360)
	if turns == 0 {
		return
	}
	s.target -= turns * 360
	s.value -= turns * 360
}
