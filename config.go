// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package aether

import (
	"errors"
	"fmt"
)

// Config holds the engine settings that hosts usually load from a file.
type Config struct {
	// Width and Height are the composition buffer size in pixels. The
	// buffer keeps this size for the lifetime of the engine.
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// Backend names the render backend. Empty selects the best available.
	Backend string `toml:"backend"`

	// Reactivity scales the audio energy added to generator density.
	Reactivity float32 `toml:"reactivity"`

	// AudioGate is the energy at or below which audio is ignored.
	AudioGate float32 `toml:"audio_gate"`

	// Workers is the number of rasterization workers of the software
	// backend.
	Workers int `toml:"workers"`

	// RequireGesture holds videos until ResumePlayback is called.
	RequireGesture bool `toml:"require_gesture"`
}

// DefaultConfig returns the default engine settings: a 1920x1080 buffer,
// automatic backend selection, reactivity 0.5 and an audio gate of 0.01.
func DefaultConfig() Config {
	return Config{
		Width:      1920,
		Height:     1080,
		Reactivity: 0.5,
		AudioGate:  0.01,
	}
}

// Validate reports every invalid field, joined, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("resolution %dx%d must be positive", c.Width, c.Height))
	}
	if c.Reactivity < 0 {
		errs = append(errs, fmt.Errorf("reactivity %g must not be negative", c.Reactivity))
	}
	if c.AudioGate < 0 || c.AudioGate >= 1 {
		errs = append(errs, fmt.Errorf("audio gate %g must be in [0, 1)", c.AudioGate))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d must not be negative", c.Workers))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
