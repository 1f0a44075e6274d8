// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package aether

import (
	"time"

	"github.com/gogpu/aether/audio"
	"github.com/gogpu/aether/media"
)

// Option configures an Engine during creation.
//
// Example:
//
//	eng := aether.New(store,
//	    aether.WithResolution(1280, 720),
//	    aether.WithBackend(render.BackendSoftware),
//	    aether.WithAudio(analyzer),
//	)
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	cfg      Config
	clock    func() time.Time
	opener   media.Opener
	audio    audio.Source
	autoplay media.Autoplay
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		cfg:   DefaultConfig(),
		clock: time.Now,
		audio: audio.Silence,
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithResolution sets the composition buffer size.
func WithResolution(width, height int) Option {
	return func(o *options) {
		o.cfg.Width = width
		o.cfg.Height = height
	}
}

// WithReactivity sets the audio gain and gate of generator density.
func WithReactivity(gain, gate float32) Option {
	return func(o *options) {
		o.cfg.Reactivity = gain
		o.cfg.AudioGate = gate
	}
}

// WithBackend selects the render backend by name.
// See render.BackendNative and render.BackendSoftware.
func WithBackend(name string) Option {
	return func(o *options) {
		o.cfg.Backend = name
	}
}

// WithWorkers sets the number of software rasterization workers.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.cfg.Workers = n
	}
}

// WithClock sets the time source of the engine clock and telemetry.
// Tests use it to drive frames deterministically.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithOpener sets how media locators are opened. The default reads files
// and the engine's blob registry.
func WithOpener(op media.Opener) Option {
	return func(o *options) {
		o.opener = op
	}
}

// WithAudio sets the audio source polled once per frame.
func WithAudio(src audio.Source) Option {
	return func(o *options) {
		if src != nil {
			o.audio = src
		}
	}
}

// WithAutoplay sets the video autoplay policy. It takes precedence over
// Config.RequireGesture.
func WithAutoplay(a media.Autoplay) Option {
	return func(o *options) {
		o.autoplay = a
	}
}
