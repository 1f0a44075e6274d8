// Command aether runs the compositor in a window.
//
// The default project has three layers. Layer 1 plays the smoke generator,
// layer 2 the voronoi flow at half opacity and layer 3 any media files given
// on the command line:
//
//	aether -config aether.toml clip.mp4 still.png
//
// Keys 1 to 4 trigger the slots of layer 1, F11 toggles fullscreen and any
// click or the space bar resumes videos held back by the autoplay policy.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/aether"
	_ "github.com/gogpu/aether/backend/native"
	"github.com/gogpu/aether/internal/config"
	"github.com/gogpu/aether/media"
	"github.com/gogpu/aether/model"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "aether:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "TOML configuration file")
		envPath    = flag.String("env", ".env", "dotenv file loaded before the environment is read")
		backend    = flag.String("backend", "", "render backend (native, software); overrides the config")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		return err
	}
	if *backend != "" {
		cfg.Engine.Backend = *backend
	}

	log := config.NewLogger(cfg.Log, os.Stderr)
	aether.SetLogger(log)

	store := model.DefaultStore()
	locators, err := seedDemo(store, flag.Args())
	if err != nil {
		return err
	}

	opts := []aether.Option{aether.WithConfig(cfg.Engine)}
	if cfg.Audio.File != "" {
		player, err := startAudio(cfg.Audio.File, log)
		if err != nil {
			return err
		}
		defer player.Close()
		opts = append(opts, aether.WithAudio(player.Analyzer()))
	}
	eng := aether.New(store, opts...)

	if cfg.Watch && len(locators) > 0 {
		w, err := media.NewWatcher(store.Orphan, log.With("component", "watcher"))
		if err != nil {
			return err
		}
		defer w.Close()
		for _, loc := range locators {
			if err := w.Add(loc); err != nil {
				log.Warn("watch failed", "locator", loc, "err", err)
			}
		}
	}

	srv := startServer(cfg.Metrics.Addr, eng, log)
	defer srv.shutdown(log)

	g := newGame(eng, store, cfg.Window, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.init = eng.Initialize(ctx, g)
	defer eng.Teardown()

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(cfg.Window.Fullscreen)

	log.Info("starting", "version", aether.Version, "backend", cfg.Engine.Backend,
		"resolution", fmt.Sprintf("%dx%d", cfg.Engine.Width, cfg.Engine.Height))
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	log.Info("stopped", "frames", eng.Telemetry().Frames)
	return nil
}

// logFatal reports err on log and exits.
func logFatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}
