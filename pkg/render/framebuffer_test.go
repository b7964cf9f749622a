package render

import (
	"bytes"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
)

func TestFramebufferClearAndPixels(t *testing.T) {
	fb := NewFramebuffer(5, 3)
	fb.Clear(CornflowerBlue)
	if n := countColor(fb, CornflowerBlue); n != 15 {
		t.Errorf("%d pixels cleared, want 15", n)
	}

	fb.SetPixel(2, 1, ColorWhite)
	fb.SetPixel(-1, 0, ColorWhite) // ignored
	fb.SetPixel(5, 0, ColorWhite)  // ignored
	if got := fb.GetPixel(2, 1); got != ColorWhite {
		t.Errorf("GetPixel(2, 1) = %v", got)
	}
	if got := fb.GetPixel(9, 9); got != (color.RGBA{}) {
		t.Errorf("out of bounds GetPixel = %v, want zero", got)
	}
	if n := countColor(fb, ColorWhite); n != 1 {
		t.Errorf("%d white pixels, want 1", n)
	}
}

func TestFramebufferResize(t *testing.T) {
	fb := NewFramebuffer(8, 8)
	fb.Resize(4, 2)
	if fb.Width != 4 || fb.Height != 2 || len(fb.Pixels) != 8 {
		t.Errorf("after shrink: %dx%d with %d pixels", fb.Width, fb.Height, len(fb.Pixels))
	}
	fb.Resize(10, 10)
	if len(fb.Pixels) != 100 {
		t.Errorf("after grow: %d pixels, want 100", len(fb.Pixels))
	}
	fb.Resize(-1, 3)
	if fb.Width != 0 || len(fb.Pixels) != 0 {
		t.Errorf("negative width gave %dx%d", fb.Width, fb.Height)
	}
}

func TestFramebufferDrawLine(t *testing.T) {
	fb := NewFramebuffer(10, 10)
	fb.DrawLine(0, 0, 9, 9, ColorWhite)
	for i := range 10 {
		if fb.GetPixel(i, i) != ColorWhite {
			t.Errorf("diagonal pixel %d not set", i)
		}
	}
	if n := countColor(fb, ColorWhite); n != 10 {
		t.Errorf("%d pixels set, want 10", n)
	}
}

func TestFramebufferPNG(t *testing.T) {
	fb := NewFramebuffer(3, 2)
	fb.Clear(CornflowerBlue)
	fb.SetPixel(1, 1, ColorWhite)

	var buf bytes.Buffer
	if err := fb.EncodePNG(&buf); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("decoded bounds = %v", b)
	}
	if got := color.RGBAModel.Convert(img.At(1, 1)).(color.RGBA); got != ColorWhite {
		t.Errorf("decoded pixel = %v, want white", got)
	}

	if err := fb.SavePNG(filepath.Join(t.TempDir(), "frame.png")); err != nil {
		t.Errorf("SavePNG: %v", err)
	}
}

func TestFramebufferRGBABytes(t *testing.T) {
	fb := NewFramebuffer(2, 1)
	fb.SetPixel(0, 0, RGB(1, 2, 3))
	fb.SetPixel(1, 0, RGB(4, 5, 6))

	got := fb.RGBABytes(nil)
	want := []byte{1, 2, 3, 255, 4, 5, 6, 255}
	if !bytes.Equal(got, want) {
		t.Errorf("RGBABytes = %v, want %v", got, want)
	}
	again := fb.RGBABytes(got)
	if &again[0] != &got[0] {
		t.Error("RGBABytes did not reuse a large enough slice")
	}
}

func TestFramebufferDrawHalfBlocks(t *testing.T) {
	fb := NewFramebuffer(2, 4)
	fb.Clear(ColorBlack)
	fb.SetPixel(1, 2, ColorWhite) // top half of cell (1, 1)
	fb.SetPixel(0, 3, CornflowerBlue)

	scr := uv.NewScreenBuffer(2, 2)
	fb.Draw(scr, scr.Bounds())

	cell := scr.CellAt(1, 1)
	if cell == nil || cell.Content != "▀" {
		t.Fatalf("cell (1, 1) = %+v, want half block", cell)
	}
	if cell.Style.Fg != color.Color(ColorWhite) || cell.Style.Bg != color.Color(ColorBlack) {
		t.Errorf("cell (1, 1) fg=%v bg=%v, want white over black", cell.Style.Fg, cell.Style.Bg)
	}
	if bg := scr.CellAt(0, 1).Style.Bg; bg != color.Color(CornflowerBlue) {
		t.Errorf("cell (0, 1) bg = %v, want cornflower blue", bg)
	}
}
