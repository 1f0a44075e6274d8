package audio

import (
	"math"
	"sync"

	"github.com/faiface/beep"
)

// Analysis parameters.
const (
	// WindowSize is the number of samples per spectrum.
	WindowSize = 256

	// Smoothing blends each spectrum with the previous one.
	Smoothing = 0.8

	// MinDecibels maps to byte 0.
	MinDecibels = -100.0

	// MaxDecibels maps to byte 255.
	MaxDecibels = -30.0
)

const bins = WindowSize / 2

// Analyzer derives energy from a stream of stereo samples. Samples are
// written by the audio goroutine; Energy is called by the frame goroutine.
type Analyzer struct {
	mu       sync.Mutex
	ring     [WindowSize]float64
	pos      int
	smoothed [bins]float64
	window   [WindowSize]float64
	cos, sin [WindowSize]float64
}

// NewAnalyzer returns an analyzer with an empty (silent) window.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{}
	const (
		alpha = 0.16
		a0    = (1 - alpha) / 2
		a1    = 0.5
		a2    = alpha / 2
	)
	for i := range WindowSize {
		x := 2 * math.Pi * float64(i) / WindowSize
		a.window[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
		a.cos[i] = math.Cos(x)
		a.sin[i] = math.Sin(x)
	}
	return a
}

// Write appends samples, downmixed to mono, to the analysis window.
func (a *Analyzer) Write(samples [][2]float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		a.ring[a.pos] = (s[0] + s[1]) / 2
		a.pos = (a.pos + 1) % WindowSize
	}
}

// Tap returns a streamer that plays s unchanged while feeding its samples
// to the analyzer.
func (a *Analyzer) Tap(s beep.Streamer) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		a.Write(samples[:n])
		return n, ok
	})
}

// Energy implements Source. Each call advances the spectral smoothing, so
// it should be called once per frame.
func (a *Analyzer) Energy() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var frame [WindowSize]float64
	for i := range WindowSize {
		frame[i] = a.ring[(a.pos+i)%WindowSize] * a.window[i]
	}

	sum := 0.0
	for k := range bins {
		var re, im float64
		for n, x := range frame {
			j := (k * n) % WindowSize
			re += x * a.cos[j]
			im -= x * a.sin[j]
		}
		mag := math.Hypot(re, im) / WindowSize
		a.smoothed[k] = Smoothing*a.smoothed[k] + (1-Smoothing)*mag
		if k < bins/2 {
			sum += float64(toByte(a.smoothed[k]))
		}
	}
	return float32(sum / (bins / 2) / 255)
}

// Reset clears the window and the smoothing state.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ring = [WindowSize]float64{}
	a.smoothed = [bins]float64{}
	a.pos = 0
}

// toByte maps a linear magnitude onto [0, 255] through the decibel range.
func toByte(mag float64) uint8 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	v := 255 * (db - MinDecibels) / (MaxDecibels - MinDecibels)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

var _ Source = (*Analyzer)(nil)
