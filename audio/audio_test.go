package audio

import (
	"math"
	"testing"

	"github.com/faiface/beep"
)

func sine(amp float64, bin int) [][2]float64 {
	s := make([][2]float64, WindowSize)
	for i := range s {
		v := amp * math.Sin(2*math.Pi*float64(bin*i)/WindowSize)
		s[i] = [2]float64{v, v}
	}
	return s
}

func TestSilenceIsZero(t *testing.T) {
	a := NewAnalyzer()
	if e := a.Energy(); e != 0 {
		t.Errorf("Energy() of an empty window = %v, want 0", e)
	}
	a.Write(make([][2]float64, WindowSize))
	if e := a.Energy(); e != 0 {
		t.Errorf("Energy() of silence = %v, want 0", e)
	}
}

func TestEnergyFollowsLevel(t *testing.T) {
	loud := NewAnalyzer()
	loud.Write(sine(1, 8))
	quiet := NewAnalyzer()
	quiet.Write(sine(0.0001, 8))

	le, qe := loud.Energy(), quiet.Energy()
	if le <= qe {
		t.Errorf("loud energy %v <= quiet energy %v", le, qe)
	}
	if le <= 0 || le > 1 {
		t.Errorf("loud energy %v outside (0, 1]", le)
	}
}

func TestHighFrequenciesAreIgnored(t *testing.T) {
	low := NewAnalyzer()
	low.Write(sine(0.5, 10))
	high := NewAnalyzer()
	high.Write(sine(0.5, 110))

	if le, he := low.Energy(), high.Energy(); le <= he {
		t.Errorf("low band energy %v <= high band energy %v", le, he)
	}
}

func TestSmoothingRisesOverFrames(t *testing.T) {
	a := NewAnalyzer()
	a.Write(sine(0.01, 4))
	prev := a.Energy()
	for i := range 5 {
		e := a.Energy()
		if e < prev {
			t.Fatalf("frame %d: energy fell from %v to %v on a steady signal", i, prev, e)
		}
		prev = e
	}
	a.Reset()
	if e := a.Energy(); e != 0 {
		t.Errorf("Energy() after Reset = %v, want 0", e)
	}
}

func TestTapPassesSamplesThrough(t *testing.T) {
	a := NewAnalyzer()
	src := sine(1, 8)
	pos := 0
	inner := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n := copy(samples, src[pos:])
		pos += n
		return n, n > 0
	})

	buf := make([][2]float64, WindowSize)
	n, ok := a.Tap(inner).Stream(buf)
	if n != WindowSize || !ok {
		t.Fatalf("Stream = %d, %v", n, ok)
	}
	if buf[3] != src[3] {
		t.Error("tap should not alter samples")
	}
	if a.Energy() == 0 {
		t.Error("tapped samples should reach the analyzer")
	}
}

func TestConstant(t *testing.T) {
	if Silence.Energy() != 0 || Constant(0.4).Energy() != 0.4 {
		t.Error("Constant should report its value")
	}
}
