package app

import (
	"fmt"
	"time"

	"github.com/taigrr/pyramid/pkg/render"
)

// HUD tracks the frame rate and formats the overlay text.
type HUD struct {
	fps       float64
	fpsFrames int
	fpsTime   time.Time
	now       func() time.Time
}

// HUDState is what the overlay shows besides the frame rate.
type HUDState struct {
	Frame     render.FrameState
	Target    float64
	Camera    string
	Wireframe bool
	Framing   render.Framing
	Distance  float64 // Camera to pyramid center; 0 hides it
	Stats     render.Stats
}

// NewHUD creates a new HUD.
func NewHUD() *HUD {
	h := &HUD{now: time.Now}
	h.fpsTime = h.now()
	return h
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	now := h.now()
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

// FPS returns the rate measured over the last full second.
func (h *HUD) FPS() float64 {
	return h.fps
}

// Lines returns the top and bottom overlay rows.
func (h *HUD) Lines(st HUDState) (top, bottom string) {
	off := st.Frame.Offset
	top = fmt.Sprintf(" %.0f FPS  angle %5.1f° → %5.1f°  offset (%.1f, %.1f, %.1f)  camera %s ",
		h.fps, st.Frame.Angle, st.Target, off.X, off.Y, off.Z, st.Camera)

	wire := "[ ]"
	if st.Wireframe {
		wire = "[✓]"
	}
	bottom = fmt.Sprintf(" %s wireframe  skipped %d", wire, st.Stats.SkippedFrames)
	if st.Distance > 0 {
		bottom += fmt.Sprintf("  dist %.1f", st.Distance)
	}
	switch st.Framing {
	case render.FramingOff:
		bottom += "  ◌ " + st.Framing.String()
	case render.FramingPartial:
		bottom += "  ◐ " + st.Framing.String()
	}
	return top, bottom + " "
}
