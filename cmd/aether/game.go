package main

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/aether"
	"github.com/gogpu/aether/internal/config"
	"github.com/gogpu/aether/model"
)

// triggerKeys trigger the slots of the first layer.
var triggerKeys = []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4}

// game drives the engine from the ebiten loop. It is also the engine's
// surface: its size follows the window layout.
type game struct {
	eng   *aether.Engine
	store *model.Store
	log   *slog.Logger
	init  *aether.Future

	mu     sync.Mutex
	width  int
	height int

	frame      *image.RGBA
	screen     *ebiten.Image
	fullscreen bool
}

func newGame(eng *aether.Engine, store *model.Store, w config.Window, log *slog.Logger) *game {
	return &game{
		eng:        eng,
		store:      store,
		log:        log,
		width:      w.Width,
		height:     w.Height,
		fullscreen: w.Fullscreen,
	}
}

// Size implements render.Surface.
func (g *game) Size() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.width, g.height
}

// Update implements ebiten.Game.
func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		g.fullscreen = !g.fullscreen
		ebiten.SetFullscreen(g.fullscreen)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) ||
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.eng.ResumePlayback()
	}
	for i, k := range triggerKeys {
		if inpututil.IsKeyJustPressed(k) {
			clipID := fmt.Sprintf("layer-1-slot-%d", i+1)
			if err := g.store.TriggerClip("layer-1", clipID); err != nil {
				g.log.Warn("trigger failed", "clip", clipID, "err", err)
			}
		}
	}

	select {
	case <-g.init.Done():
	default:
		return nil
	}
	if err := g.init.Err(); err != nil {
		return err
	}

	stats, err := g.eng.Tick()
	if err != nil {
		return err
	}
	if stats.Loaded > 0 || stats.Evicted > 0 {
		g.log.Debug("frame", "loaded", stats.Loaded, "evicted", stats.Evicted,
			"draws", stats.DrawCalls)
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *game) Draw(screen *ebiten.Image) {
	if g.eng.State() != aether.StateReady {
		return
	}
	w, h := g.eng.OutputSize()
	if w <= 0 || h <= 0 {
		return
	}
	if g.frame == nil || g.frame.Rect.Dx() != w || g.frame.Rect.Dy() != h {
		g.frame = image.NewRGBA(image.Rect(0, 0, w, h))
		if g.screen != nil {
			g.screen.Deallocate()
		}
		g.screen = ebiten.NewImage(w, h)
	}
	if err := g.eng.ReadOutput(g.frame); err != nil {
		g.log.Debug("read output failed", "err", err)
		return
	}
	g.screen.WritePixels(g.frame.Pix)
	screen.DrawImage(g.screen, nil)
}

// Layout implements ebiten.Game. The screen matches the window, and the
// engine picks the new size up on its next tick.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if outsideWidth > 0 && outsideHeight > 0 {
		g.width, g.height = outsideWidth, outsideHeight
	}
	return g.width, g.height
}
