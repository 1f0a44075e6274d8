// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package aether

import (
	"errors"
	"fmt"
)

// Errors returned by the engine.
var (
	// ErrNotReady is returned by frame and readback methods before
	// initialization completed or after Teardown.
	ErrNotReady = errors.New("aether: engine not ready")

	// ErrInvalidSurface is returned when Initialize is given a nil surface
	// or one without a usable size.
	ErrInvalidSurface = errors.New("aether: invalid surface")

	// ErrInvalidConfig is returned when the configuration does not validate.
	ErrInvalidConfig = errors.New("aether: invalid config")
)

// InitStage names the initialization step that failed.
type InitStage string

// Initialization stages, in execution order.
const (
	StageConfig  InitStage = "config"
	StageDevice  InitStage = "device"
	StagePrepare InitStage = "prepare"
	StageTargets InitStage = "targets"
)

// InitError describes a failed initialization.
//
// Match it with errors.As; it unwraps to the cause.
type InitError struct {
	// Stage is the step that failed.
	Stage InitStage

	// Backend is the requested backend name, empty for automatic selection.
	Backend string

	// Err is the cause.
	Err error
}

func (e *InitError) Error() string {
	backend := e.Backend
	if backend == "" {
		backend = "auto"
	}
	return fmt.Sprintf("aether: init failed at %s (backend %s): %v", e.Stage, backend, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
