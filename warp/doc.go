// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package warp projects the composition buffer onto the output surface
// through quadrilateral slices.
//
// Each slice is a 4-vertex mesh whose UVs span the whole buffer and whose
// corners follow the slice points, so a non-rectangular slice distorts the
// buffer to fit a physical projection surface. Slices are drawn in one pass
// over an opaque black background; all of them sample the same buffer.
package warp
