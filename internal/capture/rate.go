package capture

import "time"

// Frame rates of the tracking pipeline.
const (
	IdleFPS   = 5
	ActiveFPS = 30
)

// RateConfig controls the adaptive frame rate.
type RateConfig struct {
	IdleFPS     int           `yaml:"idle_fps"`
	ActiveFPS   int           `yaml:"active_fps"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// DefaultRateConfig returns 5 FPS idle, 30 FPS active and a 2s timeout.
func DefaultRateConfig() RateConfig {
	return RateConfig{
		IdleFPS:     IdleFPS,
		ActiveFPS:   ActiveFPS,
		IdleTimeout: 2 * time.Second,
	}
}

// RateGovernor picks the frame rate. It runs at the active rate while there
// is motion or a game is in progress and drops back to the idle rate after
// IdleTimeout without either.
type RateGovernor struct {
	config     RateConfig
	active     bool
	lastActive time.Time
}

// NewRateGovernor starts in idle mode.
func NewRateGovernor(config RateConfig) *RateGovernor {
	return &RateGovernor{config: config}
}

// Observe records one frame and returns the frame rate to use next and
// whether it changed.
func (g *RateGovernor) Observe(now time.Time, motion, playing bool) (int, bool) {
	if motion || playing {
		g.lastActive = now
		if !g.active {
			g.active = true
			return g.config.ActiveFPS, true
		}
		return g.config.ActiveFPS, false
	}

	if g.active && now.Sub(g.lastActive) > g.config.IdleTimeout {
		g.active = false
		return g.config.IdleFPS, true
	}
	return g.FPS(), false
}

// Active reports whether the governor is in active mode.
func (g *RateGovernor) Active() bool {
	return g.active
}

// FPS returns the current frame rate.
func (g *RateGovernor) FPS() int {
	if g.active {
		return g.config.ActiveFPS
	}
	return g.config.IdleFPS
}

// Interval returns the frame period at the current rate.
func (g *RateGovernor) Interval() time.Duration {
	fps := g.FPS()
	if fps <= 0 {
		fps = IdleFPS
	}
	return time.Second / time.Duration(fps)
}
