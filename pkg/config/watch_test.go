package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// replace writes body next to path and renames it over path, as editors do.
func replace(t *testing.T, path, body string) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func TestWatchReloads(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "tick_ms = 64\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	configs, errs, err := Watch(ctx, path)
	if err != nil {
		t.Fatal(err)
	}

	replace(t, path, "tick_ms = 20\nbackground = \"1,2,3\"\n")

	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-configs:
			if cfg.TickMS == 20 {
				if cfg.Background != "1,2,3" {
					t.Errorf("background = %q", cfg.Background)
				}
				return
			}
		case err := <-errs:
			t.Logf("transient reload error: %v", err)
		case <-timeout:
			t.Fatal("no reload within 5s")
		}
	}
}

func TestWatchReportsInvalidConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "tick_ms = 64\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	configs, errs, err := Watch(ctx, path)
	if err != nil {
		t.Fatal(err)
	}

	replace(t, path, "tick_ms = 0\n")

	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-configs:
			t.Errorf("got config %+v from an invalid file", cfg)
		case err := <-errs:
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("error %v, want ErrInvalidConfig", err)
			}
			return
		case <-timeout:
			t.Fatal("no error within 5s")
		}
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "tick_ms = 64\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	configs, _, err := Watch(ctx, path)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("tick_ms = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-configs:
		t.Errorf("reloaded %+v for an unrelated file", cfg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")

	ctx, cancel := context.WithCancel(context.Background())
	configs, errs, err := Watch(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	timeout := time.After(5 * time.Second)
	for configs != nil || errs != nil {
		select {
		case _, ok := <-configs:
			if !ok {
				configs = nil
			}
		case _, ok := <-errs:
			if !ok {
				errs = nil
			}
		case <-timeout:
			t.Fatal("channels not closed after cancel")
		}
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	_, _, err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "pyramid.toml"))
	if err == nil {
		t.Error("Watch succeeded on a missing directory")
	}
}
