package app

import (
	"strings"

	"github.com/taigrr/pyramid/pkg/math3d"
)

// Step is the offset change per key press.
const Step = 0.1

// Key is a movement key delivered to Controller.OnKey.
type Key int

const (
	KeyNone Key = iota
	KeyForward
	KeyBack
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
)

var keyNames = map[Key]string{
	KeyNone:    "none",
	KeyForward: "forward",
	KeyBack:    "back",
	KeyLeft:    "left",
	KeyRight:   "right",
	KeyUp:      "up",
	KeyDown:    "down",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// Delta returns the offset change for k.
//
// Left and right are mirrored: A moves the pyramid toward +x and D toward -x.
// This matches the behavior the controls have always had.
func (k Key) Delta() math3d.Vec3 {
	switch k {
	case KeyForward:
		return math3d.V3(0, 0, Step)
	case KeyBack:
		return math3d.V3(0, 0, -Step)
	case KeyLeft:
		return math3d.V3(Step, 0, 0)
	case KeyRight:
		return math3d.V3(-Step, 0, 0)
	case KeyUp:
		return math3d.V3(0, Step, 0)
	case KeyDown:
		return math3d.V3(0, -Step, 0)
	}
	return math3d.Vec3{}
}

// KeyFromName maps W, S, A, D, Q and E (either case) to movement keys.
func KeyFromName(name string) Key {
	switch strings.ToLower(name) {
	case "w":
		return KeyForward
	case "s":
		return KeyBack
	case "a":
		return KeyLeft
	case "d":
		return KeyRight
	case "q":
		return KeyUp
	case "e":
		return KeyDown
	}
	return KeyNone
}
