// Package aether is a real-time multi-layer visual compositor and
// projection-mapping engine.
//
// # Overview
//
// Every frame the engine reads a snapshot of the show state from a
// [model.StateProvider], mixes the active clip of each layer (procedural
// generators, videos, still images) into a fixed-resolution composition
// buffer, and warps that buffer onto the output surface through
// quadrilateral slices.
//
// # Quick Start
//
//	store := model.DefaultStore()
//	eng := aether.New(store, aether.WithResolution(1280, 720))
//
//	if err := eng.Initialize(ctx, surface).Wait(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Teardown()
//
//	for running {
//		if _, err := eng.Tick(); err != nil {
//			log.Print(err)
//		}
//		eng.ReadOutput(frame)
//	}
//
// # Lifecycle
//
// An Engine moves through Uninitialized, Initializing, Ready and Failed.
// Initialize is idempotent: concurrent callers share one [Future]. A failed
// initialization resolves to an [*InitError] and may be retried. Teardown
// waits for an initialization in flight and releases every GPU resource.
//
// # Backends
//
// Rendering goes through a [render.Device]. The software device is always
// available; importing backend/native registers the GPU device:
//
//	import _ "github.com/gogpu/aether/backend/native"
//
// # Coordinate System
//
//   - Slice points and UVs are normalized, (0,0) top-left, (1,1) bottom-right
//   - Mesh positions are target pixels
//   - Textures hold premultiplied RGBA8
package aether

// Version is the current version of the engine.
const Version = "0.1.0"
