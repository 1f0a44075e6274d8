// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compose mixes the active clip of every layer into the
// composition buffer.
//
// Layers are drawn bottom to top in one render pass. A layer contributes
// nothing when its opacity is exactly zero, when it has no active clip, or
// while its media is still loading; content is never awaited.
package compose
