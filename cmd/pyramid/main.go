// pyramid - rotating square pyramid
// Renders a colored pyramid in the terminal, a desktop window, or to PNG
// frames, rotated by an eased slider and moved in 0.1-unit steps.
//
// Controls:
//
//	W/S         - Move forward/back (z)
//	A/D         - Move along x (A is +x, D is -x)
//	Q/E         - Move up/down
//	[ ] or ←/→  - Nudge the rotation slider by 5°
//	0           - Reset the slider
//	X           - Toggle wireframe
//	?           - Toggle HUD overlay
//	R           - Reset position and slider
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/taigrr/pyramid/pkg/app"
	"github.com/taigrr/pyramid/pkg/config"
	"github.com/taigrr/pyramid/pkg/logging"
	"github.com/taigrr/pyramid/pkg/models"
)

var defaults = config.Default()

var (
	configPath = flag.String("config", "", "TOML config file (reloaded when it changes)")
	driver     = flag.String("driver", defaults.Driver, "Front end: terminal, window or headless")
	tickMS     = flag.Int("tick", defaults.TickMS, "Tick interval in milliseconds (1-1000)")
	bgColor    = flag.String("bg", defaults.Background, "Background color (R,G,B)")
	cameraMode = flag.String("camera", defaults.Camera.Mode, "Camera: none or lookat")
	frames     = flag.Int("frames", defaults.Headless.Frames, "Frames to render in headless mode")
	outDir     = flag.String("out", defaults.Headless.Out, "Output directory for headless frames")
	exportPath = flag.String("export", "", "Write the pyramid as binary glTF to this file and exit")
	logLevel   = flag.String("log-level", defaults.Log.Level, "Log level: debug, info, warn, error")
	logFile    = flag.String("log-file", defaults.Log.File, "Append logs to this file (terminal mode logs nowhere without it)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pyramid - rotating square pyramid\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pyramid [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  W/S         - Move forward/back\n")
		fmt.Fprintf(os.Stderr, "  A/D         - Move along x (mirrored)\n")
		fmt.Fprintf(os.Stderr, "  Q/E         - Move up/down\n")
		fmt.Fprintf(os.Stderr, "  [ ] or ←/→  - Nudge rotation\n")
		fmt.Fprintf(os.Stderr, "  0           - Reset rotation\n")
		fmt.Fprintf(os.Stderr, "  X           - Toggle wireframe\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags copies explicitly set flags over cfg, so they win over the
// config file on startup and on every reload.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Driver = *driver
		case "tick":
			cfg.TickMS = *tickMS
		case "bg":
			cfg.Background = *bgColor
		case "camera":
			cfg.Camera.Mode = *cameraMode
		case "frames":
			cfg.Headless.Frames = *frames
		case "out":
			cfg.Headless.Out = *outDir
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-file":
			cfg.Log.File = *logFile
		}
	})
}

func run() error {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The terminal driver owns the screen, so its logs only go to a file.
	var out io.Writer = os.Stderr
	if cfg.Log.File != "" || cfg.Driver == config.DriverTerminal {
		f, err := logging.OpenFile(cfg.Log.File)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	logger, err := logging.New(out, logging.Options{Level: cfg.Log.Level})
	if err != nil {
		return err
	}

	if *exportPath != "" {
		if err := models.ExportGLB(*exportPath, models.Pyramid()); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		logger.Info("exported pyramid", "path", *exportPath)
		return nil
	}

	// Context for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	s, err := app.NewSession(cfg, logger)
	if err != nil {
		return err
	}

	switch cfg.Driver {
	case config.DriverHeadless:
		paths, err := app.RunHeadless(ctx, s, cfg.Headless.Out, cfg.Headless.Frames, cfg.Headless.Width, cfg.Headless.Height)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d frames to %s\n", len(paths), cfg.Headless.Out)
		return nil

	case config.DriverWindow:
		reloads, err := watch(ctx, logger)
		if err != nil {
			return err
		}
		return app.RunWindow(ctx, s, reloads, cfg.Window.Width, cfg.Window.Height)

	default:
		reloads, err := watch(ctx, logger)
		if err != nil {
			return err
		}
		return app.RunTerminal(ctx, s, reloads)
	}
}

// watch starts config reloading when a config file was given, reapplying
// the command-line flags to each reloaded config.
func watch(ctx context.Context, logger *log.Logger) (app.Reloads, error) {
	if *configPath == "" {
		return app.Reloads{}, nil
	}
	configs, errs, err := config.Watch(ctx, *configPath)
	if err != nil {
		return app.Reloads{}, err
	}
	logger.Debug("watching config", "path", *configPath)

	merged := make(chan config.Config)
	go func() {
		defer close(merged)
		for cfg := range configs {
			applyFlags(&cfg)
			select {
			case merged <- cfg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return app.Reloads{Configs: merged, Errors: errs}, nil
}
