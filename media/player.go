package media

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"
)

// defaultFrameRate paces videos that do not report a frame rate.
const defaultFrameRate = 30

// player decodes a VideoSource in a loop at its frame rate. Only the most
// recent frame is kept; the frame goroutine picks it up with latest.
type player struct {
	src     VideoSource
	log     *slog.Logger
	frames  chan *image.RGBA
	stop    chan struct{}
	done    chan struct{}
	started bool
	closed  bool
}

func newPlayer(src VideoSource, log *slog.Logger) *player {
	return &player{
		src:    src,
		log:    log,
		frames: make(chan *image.RGBA, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// start begins playback. Calling it again is a no-op.
func (p *player) start() {
	if p.started || p.closed {
		return
	}
	p.started = true
	go p.run()
}

func (p *player) run() {
	defer close(p.done)

	t := time.NewTicker(frameInterval(p.src.FrameRate()))
	defer t.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-t.C:
		}
		f, err := p.next()
		if err != nil {
			p.log.Warn("media: video playback stopped", "err", err)
			return
		}
		p.offer(f)
	}
}

// next returns the following frame, rewinding at the end of the stream.
func (p *player) next() (*image.RGBA, error) {
	f, err := p.src.NextFrame()
	if !errors.Is(err, io.EOF) {
		return f, err
	}
	if err := p.src.Rewind(); err != nil {
		return nil, fmt.Errorf("media: rewind: %w", err)
	}
	return p.src.NextFrame()
}

// offer replaces any frame not yet consumed.
func (p *player) offer(f *image.RGBA) {
	select {
	case <-p.frames:
	default:
	}
	select {
	case p.frames <- f:
	default:
	}
}

// latest returns the newest decoded frame, or nil when none arrived since
// the last call.
func (p *player) latest() *image.RGBA {
	select {
	case f := <-p.frames:
		return f
	default:
		return nil
	}
}

// close stops playback and releases the source.
func (p *player) close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.stop)
	if p.started {
		<-p.done
	}
	return p.src.Close()
}

func frameInterval(fps float64) time.Duration {
	if !(fps > 0) {
		fps = defaultFrameRate
	}
	return time.Duration(float64(time.Second) / fps)
}
