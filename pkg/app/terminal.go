package app

import (
	"context"
	"fmt"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/pyramid/pkg/config"
)

// Reloads carries updates from config.Watch. Nil channels never fire.
type Reloads struct {
	Configs <-chan config.Config
	Errors  <-chan error
}

// RunTerminal renders the session into the terminal with half-block pixels
// until ctx is done or a quit key is pressed. Each cell holds two pixels
// stacked vertically, so the surface is cols x rows*2.
func RunTerminal(ctx context.Context, s *Session, reloads Reloads) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	defer func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Only this goroutine reads the terminal; everything else happens in
	// the loop below.
	events := make(chan uv.Event)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	s.Start(width, height*2)

	ticker := time.NewTicker(s.Config().Tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				s.Resize(width, height*2)

			case uv.KeyPressEvent:
				if ev.MatchString("ctrl+c") || s.HandleKey(ev.String()) {
					return nil
				}
			}

		case cfg, ok := <-reloads.Configs:
			if !ok {
				reloads.Configs = nil
				continue
			}
			tick, err := s.Apply(cfg)
			if err != nil {
				s.logger.Warn("config rejected", "err", err)
				continue
			}
			ticker.Reset(tick)

		case err, ok := <-reloads.Errors:
			if !ok {
				reloads.Errors = nil
				continue
			}
			s.logger.Warn("config reload failed", "err", err)

		case <-ticker.C:
			if err := s.Tick(); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			drawTerminal(term, s, width, height)
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}

// drawTerminal paints the last frame and, when enabled, the HUD rows.
func drawTerminal(scr uv.Screen, s *Session, width, height int) {
	s.Frame().Draw(scr, uv.Rect(0, 0, width, height))

	top, bottom, ok := s.HUD()
	if !ok {
		return
	}
	uv.NewStyledString(top).Draw(scr, uv.Rect(0, 0, width, 1))
	if height > 1 {
		uv.NewStyledString(bottom).Draw(scr, uv.Rect(0, height-1, width, 1))
	}
}
