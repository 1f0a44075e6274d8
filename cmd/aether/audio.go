package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"github.com/gogpu/aether/audio"
)

// audioPlayer loops a WAV file on the speaker and feeds every played
// sample to an analyzer.
type audioPlayer struct {
	stream   beep.StreamSeekCloser
	analyzer *audio.Analyzer
}

func startAudio(path string, log *slog.Logger) (*audioPlayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	stream, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		stream.Close()
		return nil, fmt.Errorf("audio: speaker: %w", err)
	}

	p := &audioPlayer{stream: stream, analyzer: audio.NewAnalyzer()}
	speaker.Play(p.analyzer.Tap(beep.Loop(-1, stream)))
	log.Info("audio playing", "file", path, "rate", int(format.SampleRate),
		"channels", format.NumChannels)
	return p, nil
}

// Analyzer returns the energy source of the playing track.
func (p *audioPlayer) Analyzer() *audio.Analyzer { return p.analyzer }

// Close stops playback and closes the file.
func (p *audioPlayer) Close() error {
	speaker.Clear()
	speaker.Close()
	return p.stream.Close()
}
