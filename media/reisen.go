package media

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/cogentcore/reisen"
)

// reisenSource decodes the first video stream of a container with FFmpeg.
// Audio streams are never opened: videos play muted.
type reisenSource struct {
	media   *reisen.Media
	stream  *reisen.VideoStream
	fps     float64
	cleanup func()
}

func openVideoFile(path string, cleanup func()) (_ VideoSource, err error) {
	defer func() {
		if err != nil && cleanup != nil {
			cleanup()
		}
	}()

	m, err := reisen.NewMedia(path)
	if err != nil {
		return nil, fmt.Errorf("media: open video %s: %w", path, err)
	}
	streams := m.VideoStreams()
	if len(streams) == 0 {
		m.Close()
		return nil, fmt.Errorf("%w: %s", ErrNoVideoStream, path)
	}
	if err := m.OpenDecode(); err != nil {
		m.Close()
		return nil, fmt.Errorf("media: decode video %s: %w", path, err)
	}
	s := streams[0]
	if err := s.Open(); err != nil {
		m.CloseDecode()
		m.Close()
		return nil, fmt.Errorf("media: open stream %s: %w", path, err)
	}

	src := &reisenSource{media: m, stream: s, cleanup: cleanup}
	if num, den := s.FrameRate(); den > 0 {
		src.fps = float64(num) / float64(den)
	}
	return src, nil
}

func (s *reisenSource) NextFrame() (*image.RGBA, error) {
	for {
		packet, ok, err := s.media.ReadPacket()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, io.EOF
		}
		if packet.Type() != reisen.StreamVideo {
			continue
		}
		if vs, _ := s.media.Streams()[packet.StreamIndex()].(*reisen.VideoStream); vs != s.stream {
			continue
		}
		frame, ok, err := s.stream.ReadVideoFrame()
		if err != nil {
			return nil, err
		}
		if !ok || frame == nil {
			continue
		}
		return frame.Image(), nil
	}
}

func (s *reisenSource) Rewind() error {
	return s.stream.Rewind(0)
}

func (s *reisenSource) FrameRate() float64 { return s.fps }

func (s *reisenSource) Close() error {
	err := errors.Join(s.stream.Close(), s.media.CloseDecode())
	s.media.Close()
	if s.cleanup != nil {
		s.cleanup()
	}
	return err
}

var _ VideoSource = (*reisenSource)(nil)
