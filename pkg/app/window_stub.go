//go:build !cgo

package app

import (
	"context"
	"errors"
)

// ErrNoWindow is returned by RunWindow in builds without cgo.
var ErrNoWindow = errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")

func RunWindow(_ context.Context, _ *Session, _ Reloads, _, _ int) error {
	return ErrNoWindow
}
