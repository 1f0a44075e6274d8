package media

import (
	"fmt"
	"strings"
	"sync"
)

// BlobScheme prefixes locators of in-memory sources.
const BlobScheme = "blob:"

// IsBlob reports whether locator names an in-memory source.
func IsBlob(locator string) bool { return strings.HasPrefix(locator, BlobScheme) }

// Blobs holds in-memory sources, such as files dropped onto the host
// window, under generated blob: locators. A locator stays valid until it is
// revoked, which the loader does when it evicts the locator.
//
// Blobs is safe for concurrent use.
type Blobs struct {
	mu   sync.Mutex
	seq  uint64
	data map[string][]byte
}

// NewBlobs returns an empty blob store.
func NewBlobs() *Blobs {
	return &Blobs{data: make(map[string][]byte)}
}

// Create stores data and returns its locator. name is kept in the locator
// for diagnostics only.
func (b *Blobs) Create(name string, data []byte) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	loc := fmt.Sprintf("%saether/%d", BlobScheme, b.seq)
	if name != "" {
		loc += "/" + name
	}
	b.data[loc] = data
	return loc
}

// Lookup returns the data stored under locator.
func (b *Blobs) Lookup(locator string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.data[locator]
	return d, ok
}

// Revoke releases the data stored under locator. Unknown locators are
// ignored.
func (b *Blobs) Revoke(locator string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, locator)
}

// Len returns the number of live blobs.
func (b *Blobs) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}
