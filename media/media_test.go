package media

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestToRGBA(t *testing.T) {
	tests := []struct {
		name       string
		w, h, max  int
		wantW      int
		wantH      int
	}{
		{"fits", 40, 20, 64, 40, 20},
		{"no limit", 400, 200, 0, 400, 200},
		{"wide", 100, 50, 20, 20, 10},
		{"tall", 30, 90, 45, 15, 45},
		{"sliver", 1000, 1, 10, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toRGBA(image.NewNRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.max)
			if err != nil {
				t.Fatal(err)
			}
			if b := got.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH || b.Min != (image.Point{}) {
				t.Errorf("bounds = %v, want %dx%d at origin", b, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestToRGBAOffsetAndEmpty(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 7))
	src.Set(5, 5, color.RGBA{200, 0, 0, 255})
	got, err := toRGBA(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds().Min != (image.Point{}) || got.Pix[0] != 200 {
		t.Errorf("offset image not rebased: bounds %v, first pixel %v", got.Bounds(), got.Pix[:4])
	}

	if _, err := toRGBA(image.NewRGBA(image.Rectangle{}), 16); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty image error = %v, want ErrEmptyImage", err)
	}
}

func TestPlayerLoops(t *testing.T) {
	a := solid(1, 1, color.RGBA{1, 0, 0, 255})
	b := solid(1, 1, color.RGBA{2, 0, 0, 255})
	v := &fakeVideo{frames: []*image.RGBA{a, b}}
	p := newPlayer(v, nil)

	want := []*image.RGBA{a, b, a, b, a}
	for i, w := range want {
		f, err := p.next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if f != w {
			t.Errorf("frame %d: wrong frame", i)
		}
	}
	if v.rewinds != 2 {
		t.Errorf("rewinds = %d, want 2", v.rewinds)
	}

	empty := newPlayer(&fakeVideo{}, nil)
	if _, err := empty.next(); err == nil {
		t.Error("empty video should fail after rewinding")
	}
}

func TestPlayerKeepsLatestFrame(t *testing.T) {
	p := newPlayer(&fakeVideo{}, nil)
	if p.latest() != nil {
		t.Fatal("latest() before any frame should be nil")
	}
	a := solid(1, 1, color.RGBA{A: 255})
	b := solid(1, 1, color.RGBA{A: 255})
	p.offer(a)
	p.offer(b)
	if p.latest() != b {
		t.Error("latest() should return the newest frame")
	}
	if p.latest() != nil {
		t.Error("a frame should be delivered once")
	}
	if err := p.close(); err != nil {
		t.Fatal(err)
	}
	if err := p.close(); err != nil {
		t.Fatal(err)
	}
}

func TestFrameInterval(t *testing.T) {
	tests := []struct {
		fps  float64
		want time.Duration
	}{
		{25, 40 * time.Millisecond},
		{0, time.Second / 30},
		{-1, time.Second / 30},
	}
	for _, tt := range tests {
		if got := frameInterval(tt.fps); got != tt.want {
			t.Errorf("frameInterval(%v) = %v, want %v", tt.fps, got, tt.want)
		}
	}
}

func TestBlobs(t *testing.T) {
	b := NewBlobs()
	l1 := b.Create("a.png", []byte{1})
	l2 := b.Create("", []byte{2})
	if l1 == l2 || !IsBlob(l1) || !IsBlob(l2) {
		t.Fatalf("locators %q, %q should be distinct blob locators", l1, l2)
	}
	if !strings.HasSuffix(l1, "/a.png") {
		t.Errorf("locator %q should keep the name", l1)
	}
	if d, ok := b.Lookup(l2); !ok || d[0] != 2 {
		t.Errorf("Lookup(%q) = %v, %v", l2, d, ok)
	}
	b.Revoke(l2)
	b.Revoke("blob:unknown")
	if _, ok := b.Lookup(l2); ok || b.Len() != 1 {
		t.Error("revoked blob should be gone")
	}
}

func TestFileOpener(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("not an image at all"), 0o600); err != nil {
		t.Fatal(err)
	}
	o := NewFileOpener(nil)

	if _, err := o.OpenImage(text); !errors.Is(err, ErrUnsupported) {
		t.Errorf("OpenImage(text) error = %v, want ErrUnsupported", err)
	}
	if _, err := o.OpenVideo("file://" + text); !errors.Is(err, ErrUnsupported) {
		t.Errorf("OpenVideo(text) error = %v, want ErrUnsupported", err)
	}
	if _, err := o.OpenImage(filepath.Join(dir, "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("OpenImage(missing) error = %v, want not exist", err)
	}
	if _, err := o.OpenImage("blob:aether/1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenImage(blob without store) error = %v, want ErrNotFound", err)
	}
}

func TestPath(t *testing.T) {
	tests := map[string]string{
		"file:///tmp/a.png": "/tmp/a.png",
		"/tmp/a.png":        "/tmp/a.png",
		"rel/b.mp4":         "rel/b.mp4",
	}
	for in, want := range tests {
		if got := Path(in); got != want {
			t.Errorf("Path(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loop.mp4")
	if err := os.WriteFile(path, []byte("v1"), 0o600); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 8)
	w, err := NewWatcher(func(loc string) { changed <- loc }, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	loc := "file://" + path
	if err := w.Add(loc); err != nil {
		t.Fatal(err)
	}
	if err := w.Add("blob:aether/1"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("v2"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got != loc {
			t.Errorf("changed locator = %q, want %q", got, loc)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	w.Remove(loc)
	if len(w.files) != 0 || len(w.dirs) != 0 {
		t.Errorf("Remove left files=%v dirs=%v", w.files, w.dirs)
	}
}

func TestAutoplayPolicies(t *testing.T) {
	if err := AllowAutoplay.Permit("a", false); err != nil {
		t.Errorf("AllowAutoplay = %v", err)
	}
	if err := RequireGesture.Permit("a", false); !errors.Is(err, ErrAutoplayBlocked) {
		t.Errorf("RequireGesture without gesture = %v", err)
	}
	if err := RequireGesture.Permit("a", true); err != nil {
		t.Errorf("RequireGesture with gesture = %v", err)
	}
}
