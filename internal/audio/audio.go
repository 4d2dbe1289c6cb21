// Package audio plays the game's sound cues: countdown ticks, session
// start, catch, miss and the end of session chime.
package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/ayusman/catchball/internal/ball"
	"github.com/ayusman/catchball/internal/gameplay"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid audio config")

// Config holds audio settings.
type Config struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate int     `yaml:"sample_rate"`
	Volume     float64 `yaml:"volume"`
}

// DefaultConfig returns audio enabled at full volume.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		SampleRate: 48000,
		Volume:     1.0,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate))
	}
	if c.Volume < 0 || c.Volume > 1 {
		errs = append(errs, fmt.Errorf("volume must be within [0, 1], got %v", c.Volume))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Player mixes cues onto the speaker. It implements gameplay.Observer and
// can be registered as a ball outcome handler. Before Init, cues are queued
// on the mixer but nothing is heard.
type Player struct {
	mu          sync.Mutex
	config      Config
	mixer       *beep.Mixer
	initialized bool
	played      []Cue
}

// NewPlayer creates a player.
func NewPlayer(config Config) *Player {
	return &Player{
		config: config,
		mixer:  &beep.Mixer{},
	}
}

// Init opens the speaker. It is a no-op when audio is disabled or already
// initialized.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.config.Enabled || p.initialized {
		return nil
	}

	rate := beep.SampleRate(p.config.SampleRate)
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("failed to init speaker: %w", err)
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Close silences pending cues.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		p.mixer.Clear()
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

// Play queues cue on the mixer.
func (p *Player) Play(cue Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.config.Enabled {
		return
	}
	streamer := Build(cue, p.config)
	if streamer == nil {
		return
	}

	p.played = append(p.played, cue)
	if p.initialized {
		speaker.Lock()
		p.mixer.Add(streamer)
		speaker.Unlock()
		return
	}
	p.mixer.Add(streamer)
}

// Played returns the cues played so far.
func (p *Player) Played() []Cue {
	p.mu.Lock()
	defer p.mu.Unlock()
	played := make([]Cue, len(p.played))
	copy(played, p.played)
	return played
}

func (p *Player) StateChanged(state gameplay.State) {
	if state == gameplay.Running {
		p.Play(CueStart)
	}
}

// ProgressUpdated ticks on every countdown step short of the last one.
func (p *Player) ProgressUpdated(selected bool, fraction float64) {
	if selected && fraction < 1 {
		p.Play(CueTick)
	}
}

func (p *Player) ScoreChanged(string) {}

func (p *Player) SessionSummary(gameplay.Summary) {
	p.Play(CueSummary)
}

// BallOutcome plays the catch or miss cue.
func (p *Player) BallOutcome(outcome ball.Outcome, _ ball.Contact) {
	switch outcome {
	case ball.OutcomeCatch:
		p.Play(CueCatch)
	case ball.OutcomeMiss:
		p.Play(CueMiss)
	}
}
