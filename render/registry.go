// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Backend names.
const (
	// BackendNative is the wgpu HAL backend in backend/native.
	BackendNative = "native"

	// BackendSoftware is the CPU rasterizer in this package.
	BackendSoftware = "software"
)

// ErrBackendNotAvailable is returned when a requested backend is not registered.
var ErrBackendNotAvailable = errors.New("render: backend not available")

// DeviceOptions configures device creation.
type DeviceOptions struct {
	// Logger receives backend diagnostics. Nil disables logging.
	Logger *slog.Logger

	// Workers is the number of rasterization workers for CPU backends.
	// Zero or one rasterizes on the calling goroutine.
	Workers int
}

// BackendFactory opens a device for the given surface.
type BackendFactory func(surface Surface, opts DeviceOptions) (Device, error)

var (
	registryMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
	// Priority order for Open with an empty name (first that opens wins).
	backendPriority = []string{BackendNative, BackendSoftware}
)

func init() {
	Register(BackendSoftware, func(_ Surface, opts DeviceOptions) (Device, error) {
		return NewSoftwareDevice(opts), nil
	})
}

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens a device with the named backend. An empty name tries the
// registered backends in priority order and returns the first that opens;
// the errors of the backends that failed are joined when none opens.
func Open(name string, surface Surface, opts DeviceOptions) (Device, error) {
	registryMu.RLock()
	var candidates []string
	if name != "" {
		if _, ok := backends[name]; !ok {
			registryMu.RUnlock()
			return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
		}
		candidates = []string{name}
	} else {
		for _, n := range backendPriority {
			if _, ok := backends[n]; ok {
				candidates = append(candidates, n)
			}
		}
		for n := range backends {
			if !contains(backendPriority, n) {
				candidates = append(candidates, n)
			}
		}
	}
	factories := make([]BackendFactory, len(candidates))
	for i, n := range candidates {
		factories[i] = backends[n]
	}
	registryMu.RUnlock()

	if len(candidates) == 0 {
		return nil, ErrBackendNotAvailable
	}

	var errs []error
	for i, factory := range factories {
		dev, err := factory(surface, opts)
		if err == nil {
			return dev, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", candidates[i], err))
		if opts.Logger != nil {
			opts.Logger.Warn("render: backend unavailable", "backend", candidates[i], "error", err)
		}
	}
	return nil, errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
