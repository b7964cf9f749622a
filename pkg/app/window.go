//go:build cgo

package app

import (
	"context"
	"errors"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// windowKeys maps ebiten keys to the names Session.HandleKey understands.
var windowKeys = []struct {
	key  ebiten.Key
	name string
}{
	{ebiten.KeyW, "w"},
	{ebiten.KeyS, "s"},
	{ebiten.KeyA, "a"},
	{ebiten.KeyD, "d"},
	{ebiten.KeyQ, "q"},
	{ebiten.KeyE, "e"},
	{ebiten.KeyBracketLeft, "["},
	{ebiten.KeyBracketRight, "]"},
	{ebiten.KeyArrowLeft, "left"},
	{ebiten.KeyArrowRight, "right"},
	{ebiten.KeyDigit0, "0"},
	{ebiten.KeyX, "x"},
	{ebiten.KeySlash, "?"},
	{ebiten.KeyR, "r"},
	{ebiten.KeyEscape, "esc"},
}

// RunWindow opens a desktop window showing the session and blocks until it
// is closed, a quit key is pressed or ctx is done.
func RunWindow(ctx context.Context, s *Session, reloads Reloads, width, height int) error {
	g := &windowGame{ctx: ctx, s: s, reloads: reloads}

	ebiten.SetWindowTitle("pyramid")
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(tps(s))

	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func tps(s *Session) int {
	return max(1, 1000/s.Config().TickMS)
}

type windowGame struct {
	ctx     context.Context
	s       *Session
	reloads Reloads

	width, height int // from Layout
	configured    [2]int
	img           *ebiten.Image
	pix           []byte
}

func (g *windowGame) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}

	if size := [2]int{g.width, g.height}; size != g.configured && g.width > 0 {
		if g.configured == [2]int{} {
			g.s.Start(g.width, g.height)
		} else {
			g.s.Resize(g.width, g.height)
		}
		g.configured = size
	}

	if g.configured == [2]int{} {
		return nil // no surface yet
	}

	g.pollReloads()

	for _, k := range windowKeys {
		if inpututil.IsKeyJustPressed(k.key) && g.s.HandleKey(k.name) {
			return ebiten.Termination
		}
	}

	return g.s.Tick()
}

func (g *windowGame) pollReloads() {
	for {
		select {
		case cfg, ok := <-g.reloads.Configs:
			if !ok {
				g.reloads.Configs = nil
				continue
			}
			if _, err := g.s.Apply(cfg); err != nil {
				g.s.logger.Warn("config rejected", "err", err)
				continue
			}
			ebiten.SetTPS(tps(g.s))
		case err, ok := <-g.reloads.Errors:
			if !ok {
				g.reloads.Errors = nil
				continue
			}
			g.s.logger.Warn("config reload failed", "err", err)
		default:
			return
		}
	}
}

func (g *windowGame) Draw(screen *ebiten.Image) {
	fb := g.s.Frame()
	if fb.Width == 0 || fb.Height == 0 {
		return
	}
	if g.img == nil || g.img.Bounds().Dx() != fb.Width || g.img.Bounds().Dy() != fb.Height {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(fb.Width, fb.Height)
	}

	g.pix = fb.RGBABytes(g.pix)
	g.img.WritePixels(g.pix)
	screen.DrawImage(g.img, nil)

	if top, bottom, ok := g.s.HUD(); ok {
		ebitenutil.DebugPrint(screen, strings.Join([]string{top, bottom}, "\n"))
	}
}

func (g *windowGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
