package media

import (
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/aether/internal/cache"
	"github.com/gogpu/aether/render"
)

// resource is the shared state of one locator: its texture and, for
// videos, the playback handle.
type resource struct {
	locator string
	kind    Kind
	tex     render.Texture
	player  *player
	blocked bool // video waiting for an autoplay permit
}

func (r *resource) release(log *slog.Logger) {
	if r.player != nil {
		if err := r.player.close(); err != nil {
			log.Warn("media: close video source", "locator", r.locator, "err", err)
		}
	}
	r.tex.Destroy()
}

// result carries a finished decode from a load goroutine to Poll. gen is
// the load generation the result belongs to.
type result struct {
	locator string
	gen     uint64
	kind    Kind
	img     *image.RGBA
	video   VideoSource
	err     error
}

func (r result) discard() {
	if r.video != nil {
		_ = r.video.Close()
	}
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithAutoplay sets the autoplay policy. The default is AllowAutoplay.
func WithAutoplay(a Autoplay) LoaderOption {
	return func(l *Loader) {
		if a != nil {
			l.autoplay = a
		}
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(log *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// maxNodes bounds the per-clip node cache.
const maxNodes = 1024

// Loader turns locators into drawable nodes.
//
// Except for ResumePlayback, Loader methods must be called from the frame
// goroutine.
type Loader struct {
	device   render.Device
	opener   Opener
	autoplay Autoplay
	log      *slog.Logger
	width    float32
	height   float32
	maxSize  int

	resources map[string]*resource
	nodes     *cache.Cache[string, *Node]
	inflight  map[string]uint64 // locator -> generation of its current load
	gen       uint64
	failed    map[string]error

	done    chan result
	quit    chan struct{}
	wg      sync.WaitGroup
	gesture atomic.Bool
	resume  atomic.Bool
	closed  bool
}

// NewLoader returns a loader that creates textures on device and sizes
// node quads to a width x height composition buffer.
func NewLoader(device render.Device, opener Opener, width, height int, opts ...LoaderOption) *Loader {
	l := &Loader{
		device:    device,
		opener:    opener,
		autoplay:  AllowAutoplay,
		log:       slog.New(slog.DiscardHandler),
		width:     float32(width),
		height:    float32(height),
		maxSize:   int(device.Capabilities().MaxTextureSize),
		resources: make(map[string]*resource),
		inflight:  make(map[string]uint64),
		failed:    make(map[string]error),
		done:      make(chan result, 16),
		quit:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.nodes = cache.New(
		cache.WithSoftLimit[string, *Node](maxNodes),
		cache.WithEvict(func(_ string, n *Node) { n.destroy() }),
	)
	return l
}

// Acquire returns the node of clipID showing locator.
//
// A cached source is Ready at once. An unknown source starts one
// asynchronous load and is Pending; further calls for the same locator,
// from any clip, stay Pending without starting another load. A source whose
// load failed is Failed until its locator is evicted.
func (l *Loader) Acquire(clipID, locator string, kind Kind) (*Node, Status) {
	if n, ok := l.nodes.Get(clipID); ok && n.locator == locator && !n.Stale() {
		return n, Ready
	}
	if res, ok := l.resources[locator]; ok {
		n := newNode(clipID, res, l.width, l.height)
		l.nodes.Set(clipID, n)
		return n, Ready
	}
	if _, ok := l.failed[locator]; ok {
		return nil, Failed
	}
	if _, ok := l.inflight[locator]; ok {
		return nil, Pending
	}
	if l.closed {
		return nil, Failed
	}

	l.gen++
	l.inflight[locator] = l.gen
	l.wg.Add(1)
	go l.load(locator, kind, l.gen)
	l.log.Debug("media: load started", "locator", locator, "kind", kind)
	return nil, Pending
}

func (l *Loader) load(locator string, kind Kind, gen uint64) {
	defer l.wg.Done()

	r := result{locator: locator, gen: gen, kind: kind}
	if kind == KindVideo {
		r.video, r.img, r.err = l.openVideo(locator)
	} else {
		r.img, r.err = l.openImage(locator)
	}

	select {
	case l.done <- r:
	case <-l.quit:
		r.discard()
	}
}

func (l *Loader) openImage(locator string) (*image.RGBA, error) {
	img, err := l.opener.OpenImage(locator)
	if err != nil {
		return nil, err
	}
	return toRGBA(img, l.maxSize)
}

// openVideo opens the source and decodes its first frame, which sizes the
// texture.
func (l *Loader) openVideo(locator string) (VideoSource, *image.RGBA, error) {
	src, err := l.opener.OpenVideo(locator)
	if err != nil {
		return nil, nil, err
	}
	frame, err := src.NextFrame()
	if err == nil {
		frame, err = toRGBA(frame, l.maxSize)
	}
	if err != nil {
		_ = src.Close()
		return nil, nil, err
	}
	return src, frame, nil
}

// Poll applies finished loads and refreshes the textures of playing videos.
// It never blocks and returns the number of loads applied.
func (l *Loader) Poll() int {
	if l.resume.Swap(false) {
		for _, res := range l.resources {
			if res.blocked {
				l.play(res)
			}
		}
	}

	n := 0
	for {
		select {
		case r := <-l.done:
			l.complete(r)
			n++
		default:
			l.refreshVideos()
			return n
		}
	}
}

func (l *Loader) complete(r result) {
	if gen, ok := l.inflight[r.locator]; !ok || gen != r.gen {
		r.discard()
		l.log.Debug("media: dropped load of evicted locator", "locator", r.locator)
		return
	}
	delete(l.inflight, r.locator)
	if r.err != nil {
		l.fail(r.locator, r.err)
		return
	}

	tex, err := l.upload(r.locator, r.img)
	if err != nil {
		r.discard()
		l.fail(r.locator, err)
		return
	}
	res := &resource{locator: r.locator, kind: r.kind, tex: tex}
	if r.video != nil {
		res.player = newPlayer(r.video, l.log.With("locator", r.locator))
		l.play(res)
	}
	l.resources[r.locator] = res
	l.log.Info("media: loaded", "locator", r.locator, "kind", r.kind,
		"width", tex.Width(), "height", tex.Height())
}

func (l *Loader) upload(locator string, img *image.RGBA) (render.Texture, error) {
	b := img.Bounds()
	tex, err := l.device.CreateTexture(render.DefaultTextureDescriptor(
		"media:"+locator, uint32(b.Dx()), uint32(b.Dy())))
	if err != nil {
		return nil, err
	}
	if err := tex.Upload(img); err != nil {
		tex.Destroy()
		return nil, err
	}
	return tex, nil
}

func (l *Loader) fail(locator string, err error) {
	l.failed[locator] = err
	l.log.Warn("media: load failed", "locator", locator, "err", err)
}

func (l *Loader) play(res *resource) {
	if err := l.autoplay.Permit(res.locator, l.gesture.Load()); err != nil {
		if !res.blocked {
			l.log.Warn("media: autoplay rejected", "locator", res.locator, "err", err)
		}
		res.blocked = true
		return
	}
	res.blocked = false
	res.player.start()
}

func (l *Loader) refreshVideos() {
	for _, res := range l.resources {
		if res.player == nil {
			continue
		}
		f := res.player.latest()
		if f == nil {
			continue
		}
		if b := f.Bounds(); uint32(b.Dx()) != res.tex.Width() || uint32(b.Dy()) != res.tex.Height() {
			f = scaleTo(f, int(res.tex.Width()), int(res.tex.Height()))
		}
		if err := res.tex.Upload(f); err != nil {
			l.log.Debug("media: frame upload failed", "locator", res.locator, "err", err)
		}
	}
}

// ResumePlayback records a user gesture and retries videos whose autoplay
// was rejected on the next Poll. Safe to call from any goroutine.
func (l *Loader) ResumePlayback() {
	l.gesture.Store(true)
	l.resume.Store(true)
}

// Evict releases everything held for locator: the texture, the playback
// handle, a blob: locator and any failure mark. A load still in flight is
// discarded on arrival, and the next Acquire starts a new one. Evicting an
// unknown locator is a no-op.
func (l *Loader) Evict(locator string) {
	delete(l.inflight, locator)
	delete(l.failed, locator)
	if res, ok := l.resources[locator]; ok {
		res.release(l.log)
		delete(l.resources, locator)
		l.log.Debug("media: evicted", "locator", locator)
	}
	if r, ok := l.opener.(Revoker); ok && IsBlob(locator) {
		r.Revoke(locator)
	}
}

// SweepStaleNodes drops every node whose texture was destroyed and returns
// the number dropped.
func (l *Loader) SweepStaleNodes() int {
	return l.nodes.DeleteFunc(func(_ string, n *Node) bool { return n.Stale() })
}

// Retain drops the node of every clip not in live and returns the number
// dropped. Shared textures stay loaded.
func (l *Loader) Retain(live map[string]struct{}) int {
	return l.nodes.DeleteFunc(func(id string, _ *Node) bool {
		_, ok := live[id]
		return !ok
	})
}

// Counts returns the number of live textures and of video playback
// handles.
func (l *Loader) Counts() (textures, videos int) {
	for _, res := range l.resources {
		if res.player != nil {
			videos++
		}
	}
	return len(l.resources), videos
}

// Nodes returns the number of cached per-clip nodes.
func (l *Loader) Nodes() int { return l.nodes.Len() }

// Close waits for loads in flight, then releases every resource and node.
// The loader fails every later Acquire.
func (l *Loader) Close() {
	if l.closed {
		return
	}
	l.closed = true
	close(l.quit)
	l.wg.Wait()
	for drained := false; !drained; {
		select {
		case r := <-l.done:
			r.discard()
		default:
			drained = true
		}
	}
	for loc, res := range l.resources {
		res.release(l.log)
		delete(l.resources, loc)
		if r, ok := l.opener.(Revoker); ok && IsBlob(loc) {
			r.Revoke(loc)
		}
	}
	clear(l.inflight)
	clear(l.failed)
	l.nodes.Clear()
}
