package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// RunHeadless renders frames frames at width x height and writes each as
// frame-NNNN.png under out. It returns the paths written.
func RunHeadless(ctx context.Context, s *Session, out string, frames, width, height int) ([]string, error) {
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	s.Start(width, height)

	paths := make([]string, 0, frames)
	for i := range frames {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		if err := s.Tick(); err != nil {
			return paths, fmt.Errorf("frame %d: %w", i, err)
		}

		path := filepath.Join(out, fmt.Sprintf("frame-%04d.png", i))
		if err := s.Frame().SavePNG(path); err != nil {
			return paths, fmt.Errorf("save frame %d: %w", i, err)
		}
		s.logger.Debug("wrote frame", "path", path, "angle", s.State().Angle)
		paths = append(paths, path)
	}

	st := s.Stats()
	s.logger.Info("headless run done", "frames", len(paths), "skipped", st.SkippedFrames, "offscreen", st.OffscreenFrames)
	return paths, nil
}
