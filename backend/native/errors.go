// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import "errors"

var (
	// ErrNoAdapter is returned when no GPU adapter can be found.
	ErrNoAdapter = errors.New("native: no GPU adapter found")

	// ErrNilHALDevice is returned when a device or queue is missing.
	ErrNilHALDevice = errors.New("native: HAL device is nil")

	// ErrShaderCompile is returned when a WGSL program fails to compile.
	ErrShaderCompile = errors.New("native: shader compilation failed")

	// ErrGPUTimeout is returned when submitted work does not complete.
	ErrGPUTimeout = errors.New("native: timed out waiting for GPU")
)
