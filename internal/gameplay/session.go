package gameplay

import (
	"errors"
	"time"

	"github.com/ayusman/catchball/internal/clock"
)

// Default countdown policy.
const (
	DefaultCountdownThreshold = 2
	DefaultTickInterval       = time.Second
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid gameplay config")

// Config holds the session timing.
type Config struct {
	// CountdownThreshold is the counter value the countdown starts from.
	CountdownThreshold int `yaml:"countdown_threshold"`

	// TickInterval is the countdown tick period.
	TickInterval time.Duration `yaml:"tick_interval"`
}

// DefaultConfig returns the reference countdown: threshold 2, one tick per
// second.
func DefaultConfig() Config {
	return Config{
		CountdownThreshold: DefaultCountdownThreshold,
		TickInterval:       DefaultTickInterval,
	}
}

// Validate reports whether the config can drive a countdown.
func (c Config) Validate() error {
	if c.CountdownThreshold < 1 {
		return errors.Join(ErrInvalidConfig, errors.New("countdown_threshold must be at least 1"))
	}
	if c.TickInterval <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("tick_interval must be positive"))
	}
	return nil
}

// Session is the gameplay state machine. It is not safe for concurrent use:
// the owner calls it, and runs scheduler callbacks, from one goroutine.
type Session struct {
	config    Config
	scheduler clock.Scheduler
	observer  Observer

	state       State
	handsRaised bool
	counter     int
	countdown   clock.Task

	caught int
	missed int

	bodyCapture bool
}

// New creates an idle session. A nil observer discards notifications.
func New(config Config, scheduler clock.Scheduler, observer Observer) *Session {
	if observer == nil {
		observer = Observers{}
	}
	return &Session{
		config:    config,
		scheduler: scheduler,
		observer:  observer,
		state:     Idle,
		counter:   config.CountdownThreshold,
	}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Running reports whether a session is in progress.
func (s *Session) Running() bool {
	return s.state == Running
}

// Score returns the caught and missed counters.
func (s *Session) Score() (caught, missed int) {
	return s.caught, s.missed
}

// ScoreText returns the formatted score.
func (s *Session) ScoreText() string {
	return FormatScore(s.caught, s.missed)
}

// CountingDown reports whether a countdown timer is active.
func (s *Session) CountingDown() bool {
	return s.countdown != nil
}

// HandsRaised returns the last raised-hands signal.
func (s *Session) HandsRaised() bool {
	return s.handsRaised
}

// SetHandsRaised feeds the per-frame raised-hands signal. While idle, raising
// both hands starts the countdown and lowering them resets it.
func (s *Session) SetHandsRaised(raised bool) {
	s.handsRaised = raised

	if s.state != Idle {
		return
	}

	if raised {
		if s.countdown == nil {
			s.countdown = s.scheduler.Every(s.config.TickInterval, s.tick)
		}
		return
	}

	if s.countdown == nil && s.counter == s.config.CountdownThreshold {
		return
	}
	s.resetCountdown()
	s.observer.ProgressUpdated(false, 0)
}

// tick advances the countdown. Progress is reported while the counter is
// still non-negative; the session starts on the tick after the counter
// reached -1, not on the one that took it there.
func (s *Session) tick() {
	if s.state != Idle {
		return
	}

	if s.counter >= 0 {
		threshold := float64(s.config.CountdownThreshold)
		fraction := (threshold - float64(s.counter)) / threshold
		s.counter--
		s.observer.ProgressUpdated(true, fraction)
		return
	}

	if s.handsRaised && s.counter == -1 {
		s.start()
	}
}

func (s *Session) start() {
	s.resetCountdown()

	s.caught = 0
	s.missed = 0
	s.bodyCapture = true
	s.state = Running

	s.observer.StateChanged(Running)
	s.observer.ScoreChanged(s.ScoreText())
}

// Stop ends a running session: the summary is published, the counters are
// reset and the session goes back to idle. It returns false when no session
// was running.
func (s *Session) Stop() bool {
	if s.state != Running {
		return false
	}

	s.resetCountdown()
	s.bodyCapture = false
	s.state = Idle

	summary := Summarize(s.caught, s.missed)
	s.observer.SessionSummary(summary)

	s.caught = 0
	s.missed = 0

	s.observer.StateChanged(Idle)
	s.observer.ProgressUpdated(false, 0)
	return true
}

// Catch counts a caught ball. It is ignored unless a session is running.
func (s *Session) Catch() bool {
	if s.state != Running {
		return false
	}
	s.caught++
	s.observer.ScoreChanged(s.ScoreText())
	return true
}

// Miss counts a missed ball. It is ignored unless a session is running.
func (s *Session) Miss() bool {
	if s.state != Running {
		return false
	}
	s.missed++
	s.observer.ScoreChanged(s.ScoreText())
	return true
}

// TakeBodyCapture reports, once per session start, that the current body
// position should become the reference for lateral tracking.
func (s *Session) TakeBodyCapture() bool {
	if !s.bodyCapture {
		return false
	}
	s.bodyCapture = false
	return true
}

func (s *Session) resetCountdown() {
	if s.countdown != nil {
		s.countdown.Cancel()
		s.countdown = nil
	}
	s.counter = s.config.CountdownThreshold
}
