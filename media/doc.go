// Package media loads image and video content into device textures.
//
// A Loader owns one texture per locator, shared by every clip that shows
// the same source, and one Node per clip that binds the texture to a quad
// covering the composition buffer. Decoding runs on goroutines; finished
// loads are applied by Poll on the frame goroutine, which is the only
// writer of loader state:
//
//	loader.Poll()
//	for _, loc := range snapshot.Orphans {
//		loader.Evict(loc)
//	}
//	loader.SweepStaleNodes()
//	node, status := loader.Acquire(clip.ID, clip.Locator(), media.KindVideo)
//
// Videos loop muted. Whether they start immediately is decided by an
// Autoplay policy; blocked videos start after ResumePlayback.
package media
