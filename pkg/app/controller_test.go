package app

import (
	"testing"

	"github.com/taigrr/pyramid/pkg/render"
)

func TestControllerResizeForwardsToProjection(t *testing.T) {
	raster := render.NewRasterizer()
	r := render.NewRenderer(raster)
	c := NewController(r, nil)

	c.OnSurfaceReady(800, 600)
	if w, h := r.Projection().Size(); w != 800 || h != 600 {
		t.Errorf("projection size = %dx%d, want 800x600", w, h)
	}
	if w, h := raster.Size(); w != 800 || h != 600 {
		t.Errorf("viewport = %dx%d, want 800x600", w, h)
	}
	first := r.Projection().Matrix()

	c.OnResize(320, 0)
	if w, h := r.Projection().Size(); w != 320 || h != 1 {
		t.Errorf("projection size = %dx%d, want 320x1", w, h)
	}
	if r.Projection().Matrix() == first {
		t.Error("projection not recomputed on resize")
	}
}

func TestControllerTick(t *testing.T) {
	r := render.NewRenderer(render.NewRasterizer())
	c := NewController(r, nil)
	c.OnSurfaceReady(64, 48)

	if err := c.OnTick(30); err != nil {
		t.Fatal(err)
	}
	if got := c.State().Angle; got != 30 {
		t.Errorf("angle = %v, want 30", got)
	}
	if st := r.Stats(); st.Frames != 1 || st.SkippedFrames != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestControllerReset(t *testing.T) {
	c := NewController(render.NewRenderer(render.NewRasterizer()), nil)
	c.OnKey(KeyUp)
	c.OnSurfaceReady(8, 8)
	c.OnTick(90)
	c.Reset()
	if got := c.State(); got != (render.FrameState{Offset: render.DefaultOffset}) {
		t.Errorf("state after reset = %+v", got)
	}
}
