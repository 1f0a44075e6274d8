// Package audio supplies the audio energy that drives generator
// reactivity.
//
// The engine polls a Source once per frame. Analyzer computes the energy
// from PCM samples the way a browser AnalyserNode does: a 256-sample
// Blackman-windowed spectrum, temporally smoothed, mapped from decibels to
// bytes, averaged over the lower half of the bins.
package audio

// Source reports the current audio energy in [0, 1].
type Source interface {
	Energy() float32
}

// Constant is a Source with a fixed energy.
type Constant float32

// Energy implements Source.
func (c Constant) Energy() float32 { return float32(c) }

// Silence is the Source used when no audio input is configured.
const Silence = Constant(0)
