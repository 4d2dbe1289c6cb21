package audio

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Cue is a sound effect.
type Cue int

const (
	CueTick Cue = iota
	CueStart
	CueCatch
	CueMiss
	CueSummary
)

func (c Cue) String() string {
	switch c {
	case CueTick:
		return "tick"
	case CueStart:
		return "start"
	case CueCatch:
		return "catch"
	case CueMiss:
		return "miss"
	case CueSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewOscillator creates a streamer producing duration worth of wave at freq.
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		case WaveNoise:
			val = rand.Float64()*2 - 1
		}

		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope fades a stream in over attack and out over release.
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

// NewEnvelope shapes s with a linear attack and release.
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	releaseStart := e.total - e.release
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, i > 0
		}

		vol := 1.0
		if e.position < e.attack && e.attack > 0 {
			vol = float64(e.position) / float64(e.attack)
		}
		if e.position >= releaseStart && e.release > 0 {
			vol = math.Max(0, float64(e.total-e.position)/float64(e.release))
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume scales s linearly; zero is silent since log2(0) is -Inf.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

func tone(freq float64, d time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return NewEnvelope(NewOscillator(freq, d, wave, rate), d, 5*time.Millisecond, d/2, rate)
}

// Build returns the streamer for cue, or nil for an unknown cue.
func Build(cue Cue, config Config) beep.Streamer {
	rate := beep.SampleRate(config.SampleRate)

	var s beep.Streamer
	switch cue {
	case CueTick:
		s = newVolume(tone(660, 80*time.Millisecond, WaveSine, rate), 0.5)
	case CueStart:
		s = beep.Seq(
			tone(523.25, 120*time.Millisecond, WaveSquare, rate),
			tone(783.99, 200*time.Millisecond, WaveSquare, rate),
		)
		s = newVolume(s, 0.4)
	case CueCatch:
		s = beep.Mix(
			newVolume(tone(880, 250*time.Millisecond, WaveSine, rate), 0.7),
			newVolume(tone(1760, 150*time.Millisecond, WaveSine, rate), 0.3),
		)
	case CueMiss:
		s = newVolume(tone(110, 200*time.Millisecond, WaveSaw, rate), 0.5)
	case CueSummary:
		s = beep.Seq(
			tone(523.25, 150*time.Millisecond, WaveSine, rate),
			tone(659.25, 150*time.Millisecond, WaveSine, rate),
			tone(783.99, 300*time.Millisecond, WaveSine, rate),
		)
	default:
		return nil
	}
	return newVolume(s, config.Volume)
}
