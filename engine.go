// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package aether

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/aether/compose"
	"github.com/gogpu/aether/generator"
	"github.com/gogpu/aether/media"
	"github.com/gogpu/aether/model"
	"github.com/gogpu/aether/render"
	"github.com/gogpu/aether/telemetry"
	"github.com/gogpu/aether/warp"
)

// State is the lifecycle state of an Engine.
type State int32

const (
	// StateUninitialized is the state of a new or torn down engine.
	StateUninitialized State = iota

	// StateInitializing means an initialization is in flight.
	StateInitializing

	// StateReady means frames can be rendered.
	StateReady

	// StateFailed means the last initialization failed. Initialize may
	// be called again.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Engine composites layers and warps the result onto a surface.
//
// Tick, ReadOutput and ReadComposition must not be called concurrently with
// each other; the remaining methods are safe for concurrent use.
type Engine struct {
	provider model.StateProvider
	opts     options
	blobs    *media.Blobs
	counters *telemetry.Counters

	mu     sync.Mutex
	state  State
	future *Future

	tickMu sync.Mutex
	pipe   *pipeline
}

// pipeline holds everything an initialization creates.
type pipeline struct {
	log     *slog.Logger
	device  render.Device
	surface render.Surface
	buffer  render.Texture
	output  render.Texture
	gens    *generator.Cache
	loader  *media.Loader
	mixer   *compose.Mixer
	stage   *warp.Stage
	start   time.Time
}

// New returns an uninitialized engine reading state from provider.
func New(provider model.StateProvider, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine{
		provider: provider,
		opts:     o,
		blobs:    media.NewBlobs(),
		counters: telemetry.NewCounters(o.clock),
	}
	if e.opts.opener == nil {
		e.opts.opener = media.NewFileOpener(e.blobs)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.opts.cfg }

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Initialize opens the render device for surface and builds the frame
// pipeline in the background.
//
// While an initialization is in flight every caller receives the same
// Future. Once Ready, Initialize returns a resolved Future. After a failure
// a new call retries from scratch. Cancelling ctx aborts the initialization
// between stages.
func (e *Engine) Initialize(ctx context.Context, surface render.Surface) *Future {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateInitializing:
		return e.future
	case StateReady:
		return resolvedFuture(nil)
	}

	f := newFuture()
	e.state = StateInitializing
	e.future = f
	go e.initialize(ctx, surface, f)
	return f
}

func (e *Engine) initialize(ctx context.Context, surface render.Surface, f *Future) {
	log := componentLogger("engine")
	p, err := e.build(ctx, surface)
	if err != nil {
		log.Error("aether: initialization failed", "err", err)
		e.mu.Lock()
		e.state = StateFailed
		e.mu.Unlock()
		f.resolve(err)
		return
	}

	e.tickMu.Lock()
	e.pipe = p
	e.tickMu.Unlock()
	e.counters.Reset()

	e.mu.Lock()
	e.state = StateReady
	e.mu.Unlock()
	caps := p.device.Capabilities()
	log.Info("aether: ready", "backend", p.device.Name(),
		"adapter", caps.DeviceName, "adapter_type", caps.AdapterType,
		"width", e.opts.cfg.Width, "height", e.opts.cfg.Height)
	f.resolve(nil)
}

// build runs the initialization stages. On failure everything created so
// far is released.
func (e *Engine) build(ctx context.Context, surface render.Surface) (_ *pipeline, err error) {
	cfg := e.opts.cfg
	p := &pipeline{log: componentLogger("engine"), surface: surface}
	stage := StageConfig
	defer func() {
		if err != nil {
			p.release()
			err = &InitError{Stage: stage, Backend: cfg.Backend, Err: err}
		}
	}()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if surface == nil {
		return nil, ErrInvalidSurface
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stage = StageDevice
	p.device, err = render.Open(cfg.Backend, surface, render.DeviceOptions{
		Logger:  componentLogger("render"),
		Workers: cfg.Workers,
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stage = StagePrepare
	if prep, ok := p.device.(render.Preparer); ok {
		materials := append(generator.Programs(), render.NewTextureMaterial(nil))
		if err := prep.Prepare(materials); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stage = StageTargets
	ow, oh := surface.Size()
	if ow <= 0 || oh <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidSurface, ow, oh)
	}
	p.buffer, err = p.device.CreateTexture(render.DefaultTextureDescriptor(
		"composition", uint32(cfg.Width), uint32(cfg.Height)))
	if err != nil {
		return nil, err
	}
	p.output, err = p.device.CreateTexture(render.DefaultTextureDescriptor(
		"output", uint32(ow), uint32(oh)))
	if err != nil {
		return nil, err
	}

	autoplay := e.opts.autoplay
	if autoplay == nil {
		autoplay = media.AllowAutoplay
		if cfg.RequireGesture {
			autoplay = media.RequireGesture
		}
	}
	p.gens = generator.NewCache(cfg.Width, cfg.Height, generator.Reactivity{
		Gain: cfg.Reactivity,
		Gate: cfg.AudioGate,
	}, componentLogger("generator"))
	p.loader = media.NewLoader(p.device, e.opts.opener, cfg.Width, cfg.Height,
		media.WithAutoplay(autoplay),
		media.WithLogger(componentLogger("media")))
	p.mixer = compose.NewMixer(p.device, p.buffer, p.gens, p.loader, componentLogger("compose"))
	p.stage = warp.NewStage(p.device, ow, oh, componentLogger("warp"))
	p.start = e.opts.clock()
	return p, nil
}

// release frees every resource of the pipeline. Fields left nil by a
// partial build are skipped.
func (p *pipeline) release() {
	if p.loader != nil {
		p.loader.Close()
	}
	if p.gens != nil {
		p.gens.Clear()
	}
	if p.stage != nil {
		p.stage.Clear()
	}
	if p.output != nil {
		p.output.Destroy()
	}
	if p.buffer != nil {
		p.buffer.Destroy()
	}
	if p.device != nil {
		p.device.Destroy()
	}
}

// Teardown waits for an initialization in flight, then releases the
// device, every texture and every cache entry. The engine returns to
// StateUninitialized and may be initialized again. Teardown is idempotent.
func (e *Engine) Teardown() {
	e.mu.Lock()
	for e.state == StateInitializing {
		f := e.future
		e.mu.Unlock()
		<-f.Done()
		e.mu.Lock()
	}
	defer e.mu.Unlock()

	e.tickMu.Lock()
	p := e.pipe
	e.pipe = nil
	e.tickMu.Unlock()

	if p != nil {
		p.release()
		p.log.Info("aether: torn down")
	}
	e.counters.Reset()
	e.state = StateUninitialized
	e.future = nil
}

// ResumePlayback reports a user gesture: videos held by the autoplay
// policy start on the next frame. Safe to call from any goroutine,
// including before initialization completes.
func (e *Engine) ResumePlayback() {
	e.tickMu.Lock()
	p := e.pipe
	e.tickMu.Unlock()
	if p != nil {
		p.loader.ResumePlayback()
	}
}

// Blobs returns the registry of in-memory media. Locators it creates are
// resolved by the default opener and revoked when evicted.
func (e *Engine) Blobs() *media.Blobs { return e.blobs }

// Telemetry returns the frame counters.
func (e *Engine) Telemetry() telemetry.Stats { return e.counters.Stats() }

// Counters returns the telemetry counters, for exporters that poll them.
func (e *Engine) Counters() *telemetry.Counters { return e.counters }

// OutputSize returns the size of the output texture, or zero when the
// engine is not ready.
func (e *Engine) OutputSize() (width, height int) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	if e.pipe == nil {
		return 0, 0
	}
	return int(e.pipe.output.Width()), int(e.pipe.output.Height())
}

// ReadOutput copies the last warped frame into dst, which must have the
// output size.
func (e *Engine) ReadOutput(dst *image.RGBA) error {
	return e.read(dst, func(p *pipeline) render.Texture { return p.output })
}

// ReadComposition copies the composition buffer into dst, which must have
// the configured resolution.
func (e *Engine) ReadComposition(dst *image.RGBA) error {
	return e.read(dst, func(p *pipeline) render.Texture { return p.buffer })
}

func (e *Engine) read(dst *image.RGBA, pick func(*pipeline) render.Texture) error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	if e.pipe == nil {
		return ErrNotReady
	}
	return e.pipe.device.ReadPixels(pick(e.pipe), dst)
}
