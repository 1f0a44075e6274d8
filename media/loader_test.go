package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/aether/render"
)

// fakeOpener serves in-memory sources. When gate is non-nil every open
// blocks until it is closed.
type fakeOpener struct {
	mu      sync.Mutex
	images  map[string]image.Image
	videos  map[string]*fakeVideo
	fail    map[string]error
	calls   map[string]int
	gate    chan struct{}
	revoked []string
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{
		images: make(map[string]image.Image),
		videos: make(map[string]*fakeVideo),
		fail:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (o *fakeOpener) enter(locator string) (chan struct{}, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls[locator]++
	return o.gate, o.fail[locator]
}

func (o *fakeOpener) OpenImage(locator string) (image.Image, error) {
	gate, err := o.enter(locator)
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	img, ok := o.images[locator]
	if !ok {
		return nil, ErrNotFound
	}
	return img, nil
}

func (o *fakeOpener) OpenVideo(locator string) (VideoSource, error) {
	gate, err := o.enter(locator)
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.videos[locator]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (o *fakeOpener) Revoke(locator string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.revoked = append(o.revoked, locator)
}

func (o *fakeOpener) callCount(locator string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[locator]
}

type fakeVideo struct {
	mu      sync.Mutex
	frames  []*image.RGBA
	fps     float64
	pos     int
	rewinds  int
	closed   bool
	closeErr error
}

func (v *fakeVideo) NextFrame() (*image.RGBA, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pos >= len(v.frames) {
		return nil, io.EOF
	}
	f := v.frames[v.pos]
	v.pos++
	return f, nil
}

func (v *fakeVideo) Rewind() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pos = 0
	v.rewinds++
	return nil
}

func (v *fakeVideo) FrameRate() float64 { return v.fps }

func (v *fakeVideo) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return v.closeErr
}

func (v *fakeVideo) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func newTestLoader(t *testing.T, o Opener, opts ...LoaderOption) (*Loader, *render.SoftwareDevice) {
	t.Helper()
	dev := render.NewSoftwareDevice(render.DeviceOptions{})
	l := NewLoader(dev, o, 64, 36, opts...)
	t.Cleanup(func() {
		l.Close()
		dev.Destroy()
	})
	return l, dev
}

// pollUntil polls the loader until cond holds or the deadline passes.
func pollUntil(t *testing.T, l *Loader, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached before deadline")
		}
		l.Poll()
		time.Sleep(time.Millisecond)
	}
}

func TestAcquireSharesOneLoadPerLocator(t *testing.T) {
	o := newFakeOpener()
	o.images["a.png"] = solid(8, 4, color.RGBA{255, 0, 0, 255})
	o.gate = make(chan struct{})
	l, dev := newTestLoader(t, o)

	if _, st := l.Acquire("c1", "a.png", KindImage); st != Pending {
		t.Fatalf("first Acquire = %v, want pending", st)
	}
	if _, st := l.Acquire("c2", "a.png", KindImage); st != Pending {
		t.Fatalf("second Acquire = %v, want pending", st)
	}
	l.Poll()
	if _, st := l.Acquire("c1", "a.png", KindImage); st != Pending {
		t.Fatalf("Acquire while in flight = %v, want pending", st)
	}
	close(o.gate)

	pollUntil(t, l, func() bool { n, _ := l.Counts(); return n == 1 })
	if got := o.callCount("a.png"); got != 1 {
		t.Errorf("opener called %d times, want 1", got)
	}

	n1, st1 := l.Acquire("c1", "a.png", KindImage)
	n2, st2 := l.Acquire("c2", "a.png", KindImage)
	if st1 != Ready || st2 != Ready {
		t.Fatalf("Acquire after load = %v, %v; want ready", st1, st2)
	}
	if n1 == n2 {
		t.Error("each clip should get its own node")
	}
	if n1.Texture() != n2.Texture() {
		t.Error("clips showing one locator should share the texture")
	}
	if dev.LiveTextures() != 1 {
		t.Errorf("LiveTextures() = %d, want 1", dev.LiveTextures())
	}
	if again, _ := l.Acquire("c1", "a.png", KindImage); again != n1 {
		t.Error("Acquire should return the cached node")
	}

	pos := n1.Mesh().Positions()
	if pos[4] != 64 || pos[5] != 36 {
		t.Errorf("node quad = %v, want stretched to 64x36", pos)
	}
}

func TestEvictThenMiss(t *testing.T) {
	o := newFakeOpener()
	o.images["a.png"] = solid(4, 4, color.RGBA{0, 255, 0, 255})
	l, dev := newTestLoader(t, o)

	l.Acquire("c1", "a.png", KindImage)
	pollUntil(t, l, func() bool { _, st := l.Acquire("c1", "a.png", KindImage); return st == Ready })
	node, _ := l.Acquire("c1", "a.png", KindImage)
	l.Acquire("c2", "a.png", KindImage)

	l.Evict("a.png")
	if !node.Stale() {
		t.Error("evicted texture should be destroyed")
	}
	if n, _ := l.Counts(); n != 0 {
		t.Errorf("textures after evict = %d, want 0", n)
	}
	if dev.LiveTextures() != 0 {
		t.Errorf("LiveTextures() = %d, want 0", dev.LiveTextures())
	}
	if got := l.SweepStaleNodes(); got != 2 {
		t.Errorf("SweepStaleNodes() = %d, want 2", got)
	}
	if !node.Mesh().Destroyed() {
		t.Error("swept node mesh should be destroyed")
	}

	if _, st := l.Acquire("c1", "a.png", KindImage); st != Pending {
		t.Errorf("Acquire after evict = %v, want pending (cache miss)", st)
	}
	pollUntil(t, l, func() bool { n, _ := l.Counts(); return n == 1 })
	if got := o.callCount("a.png"); got != 2 {
		t.Errorf("opener called %d times, want 2", got)
	}

	l.Evict("unknown")
}

func TestFailedLoadIsNotRetried(t *testing.T) {
	o := newFakeOpener()
	o.fail["bad.png"] = errors.New("corrupt")
	l, _ := newTestLoader(t, o)

	l.Acquire("c1", "bad.png", KindImage)
	pollUntil(t, l, func() bool { _, st := l.Acquire("c1", "bad.png", KindImage); return st == Failed })

	for range 3 {
		l.Poll()
		if _, st := l.Acquire("c1", "bad.png", KindImage); st != Failed {
			t.Fatalf("Acquire = %v, want failed", st)
		}
	}
	if got := o.callCount("bad.png"); got != 1 {
		t.Errorf("opener called %d times, want 1", got)
	}

	l.Evict("bad.png")
	delete(o.fail, "bad.png")
	o.images["bad.png"] = solid(2, 2, color.RGBA{A: 255})
	if _, st := l.Acquire("c1", "bad.png", KindImage); st != Pending {
		t.Errorf("Acquire after evict = %v, want pending", st)
	}
	pollUntil(t, l, func() bool { _, st := l.Acquire("c1", "bad.png", KindImage); return st == Ready })
}

func TestEvictInFlightDiscardsResult(t *testing.T) {
	o := newFakeOpener()
	o.images["a.png"] = solid(4, 4, color.RGBA{A: 255})
	o.gate = make(chan struct{})
	l, dev := newTestLoader(t, o)

	l.Acquire("c1", "a.png", KindImage)
	l.Evict("a.png")
	close(o.gate)
	l.wg.Wait()

	if got := l.Poll(); got != 1 {
		t.Errorf("Poll() = %d, want 1", got)
	}
	if n, _ := l.Counts(); n != 0 {
		t.Errorf("textures = %d, want 0", n)
	}
	if dev.LiveTextures() != 0 {
		t.Errorf("LiveTextures() = %d, want 0", dev.LiveTextures())
	}
}

func TestAcquireAfterEvictInFlightStartsNewLoad(t *testing.T) {
	o := newFakeOpener()
	o.images["a.png"] = solid(4, 4, color.RGBA{A: 255})
	o.gate = make(chan struct{})
	l, dev := newTestLoader(t, o)

	l.Acquire("c1", "a.png", KindImage)
	l.Evict("a.png")
	if _, st := l.Acquire("c1", "a.png", KindImage); st != Pending {
		t.Fatalf("Acquire after evict = %v, want pending", st)
	}
	close(o.gate)
	l.wg.Wait()
	l.Poll()

	if got := o.callCount("a.png"); got != 2 {
		t.Errorf("opener called %d times, want 2", got)
	}
	if n, _ := l.Counts(); n != 1 {
		t.Errorf("textures = %d, want 1", n)
	}
	if dev.LiveTextures() != 1 {
		t.Errorf("LiveTextures() = %d, want 1", dev.LiveTextures())
	}
	if len(l.inflight) != 0 {
		t.Errorf("inflight = %v, want empty", l.inflight)
	}
	if _, st := l.Acquire("c1", "a.png", KindImage); st != Ready {
		t.Errorf("Acquire = %v, want ready", st)
	}
}

func TestSharedVideoLocator(t *testing.T) {
	o := newFakeOpener()
	v := &fakeVideo{frames: []*image.RGBA{solid(4, 4, color.RGBA{0, 0, 255, 255})}, fps: 30}
	o.videos["video.mp4"] = v
	l, dev := newTestLoader(t, o)

	l.Acquire("c1", "video.mp4", KindVideo)
	l.Acquire("c2", "video.mp4", KindVideo)
	pollUntil(t, l, func() bool { n, _ := l.Counts(); return n == 1 })

	n1, st1 := l.Acquire("c1", "video.mp4", KindVideo)
	n2, st2 := l.Acquire("c2", "video.mp4", KindVideo)
	if st1 != Ready || st2 != Ready {
		t.Fatalf("Acquire = %v, %v; want ready", st1, st2)
	}
	if got := o.callCount("video.mp4"); got != 1 {
		t.Errorf("opener called %d times, want 1", got)
	}
	if tex, vids := l.Counts(); tex != 1 || vids != 1 {
		t.Errorf("Counts() = %d, %d; want 1, 1", tex, vids)
	}
	if n1.Texture() != n2.Texture() {
		t.Error("clips showing one video should share the texture")
	}

	l.Evict("video.mp4")
	if tex, vids := l.Counts(); tex != 0 || vids != 0 {
		t.Errorf("Counts() after evict = %d, %d; want 0, 0", tex, vids)
	}
	if !v.isClosed() {
		t.Error("evict should close the video source")
	}
	if !n1.Stale() || !n2.Stale() {
		t.Error("both nodes should be stale after evict")
	}
	if dev.LiveTextures() != 0 {
		t.Errorf("LiveTextures() = %d, want 0", dev.LiveTextures())
	}
}

func TestEvictLogsVideoCloseError(t *testing.T) {
	o := newFakeOpener()
	o.videos["v.mp4"] = &fakeVideo{
		frames:   []*image.RGBA{solid(2, 2, color.RGBA{A: 255})},
		closeErr: errors.New("decoder busy"),
	}
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	l, _ := newTestLoader(t, o, WithLogger(log))

	l.Acquire("c1", "v.mp4", KindVideo)
	pollUntil(t, l, func() bool { n, _ := l.Counts(); return n == 1 })
	l.Evict("v.mp4")

	out := buf.String()
	for _, want := range []string{"level=WARN", "locator=v.mp4", "decoder busy"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestRetainDropsNodesOfRemovedClips(t *testing.T) {
	o := newFakeOpener()
	o.images["a.png"] = solid(4, 4, color.RGBA{A: 255})
	l, dev := newTestLoader(t, o)

	l.Acquire("c1", "a.png", KindImage)
	pollUntil(t, l, func() bool { n, _ := l.Counts(); return n == 1 })
	gone, _ := l.Acquire("c1", "a.png", KindImage)
	kept, _ := l.Acquire("c2", "a.png", KindImage)

	if got := l.Retain(map[string]struct{}{"c2": {}}); got != 1 {
		t.Errorf("Retain() = %d, want 1", got)
	}
	if l.Nodes() != 1 {
		t.Errorf("Nodes() = %d, want 1", l.Nodes())
	}
	if !gone.Mesh().Destroyed() || kept.Mesh().Destroyed() {
		t.Error("only the node of the removed clip should be destroyed")
	}
	if kept.Stale() || dev.LiveTextures() != 1 {
		t.Error("the shared texture should stay loaded")
	}
}

func TestBlobLocatorRevokedOnEvict(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(3, 2, color.RGBA{10, 20, 30, 255})); err != nil {
		t.Fatal(err)
	}
	blobs := NewBlobs()
	loc := blobs.Create("drop.png", buf.Bytes())
	l, _ := newTestLoader(t, NewFileOpener(blobs))

	l.Acquire("c1", loc, KindImage)
	pollUntil(t, l, func() bool { _, st := l.Acquire("c1", loc, KindImage); return st == Ready })
	node, _ := l.Acquire("c1", loc, KindImage)
	if w, h := node.Texture().Width(), node.Texture().Height(); w != 3 || h != 2 {
		t.Errorf("texture size = %dx%d, want 3x2", w, h)
	}

	l.Evict(loc)
	if blobs.Len() != 0 {
		t.Errorf("blob should be revoked on evict, %d left", blobs.Len())
	}
}

func TestVideoAutoplayBlockedUntilResume(t *testing.T) {
	red := solid(4, 4, color.RGBA{255, 0, 0, 255})
	blue := solid(4, 4, color.RGBA{0, 0, 255, 255})
	o := newFakeOpener()
	v := &fakeVideo{frames: []*image.RGBA{red, blue}, fps: 500}
	o.videos["clip.mp4"] = v
	l, dev := newTestLoader(t, o, WithAutoplay(RequireGesture))

	l.Acquire("c1", "clip.mp4", KindVideo)
	pollUntil(t, l, func() bool { _, st := l.Acquire("c1", "clip.mp4", KindVideo); return st == Ready })

	res := l.resources["clip.mp4"]
	if !res.blocked || res.player.started {
		t.Fatal("video should be held by the autoplay policy")
	}
	if tex, vids := l.Counts(); tex != 1 || vids != 1 {
		t.Errorf("Counts() = %d, %d; want 1, 1", tex, vids)
	}

	l.ResumePlayback()
	l.Poll()
	if res.blocked || !res.player.started {
		t.Fatal("video should play after a user gesture")
	}

	// The first frame is red; playback must reach the blue frame.
	node, _ := l.Acquire("c1", "clip.mp4", KindVideo)
	got := image.NewRGBA(image.Rect(0, 0, 4, 4))
	pollUntil(t, l, func() bool {
		if err := dev.ReadPixels(node.Texture(), got); err != nil {
			t.Fatal(err)
		}
		return got.Pix[2] == 255
	})

	l.Evict("clip.mp4")
	if !v.isClosed() {
		t.Error("evict should close the video source")
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	o := newFakeOpener()
	o.images["a.png"] = solid(2, 2, color.RGBA{A: 255})
	o.videos["b.mp4"] = &fakeVideo{frames: []*image.RGBA{solid(2, 2, color.RGBA{A: 255})}}
	dev := render.NewSoftwareDevice(render.DeviceOptions{})
	defer dev.Destroy()
	l := NewLoader(dev, o, 8, 8)

	l.Acquire("c1", "a.png", KindImage)
	l.Acquire("c2", "b.mp4", KindVideo)
	pollUntil(t, l, func() bool { n, _ := l.Counts(); return n == 2 })
	l.Acquire("c1", "a.png", KindImage)

	l.Close()
	l.Close()
	if n, v := l.Counts(); n != 0 || v != 0 {
		t.Errorf("Counts() after Close = %d, %d", n, v)
	}
	if l.Nodes() != 0 || dev.LiveTextures() != 0 {
		t.Errorf("Nodes() = %d, LiveTextures() = %d; want 0, 0", l.Nodes(), dev.LiveTextures())
	}
	if _, st := l.Acquire("c3", "c.png", KindImage); st != Failed {
		t.Errorf("Acquire after Close = %v, want failed", st)
	}
}
