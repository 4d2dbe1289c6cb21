package ball

import (
	"errors"
	"log"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/catchball/internal/clock"
	"github.com/ayusman/catchball/internal/gameplay"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid ball config")

// Config holds the throw parameters.
type Config struct {
	RespawnDelay time.Duration `yaml:"respawn_delay"`
	Origin       mgl64.Vec3    `yaml:"origin"`

	// ThrowSpeed is the speed along the throw axis.
	ThrowSpeed float64 `yaml:"throw_speed"`

	// Lateral and Lift bound the random throw: x in [-Lateral, Lateral],
	// y in [0, Lift].
	Lateral float64 `yaml:"lateral"`
	Lift    float64 `yaml:"lift"`
}

// DefaultConfig returns the reference throw.
func DefaultConfig() Config {
	return Config{
		RespawnDelay: 3 * time.Second,
		Origin:       mgl64.Vec3{0, 100, -500},
		ThrowSpeed:   50,
		Lateral:      50,
		Lift:         150,
	}
}

// Validate reports whether the config can drive a throw.
func (c Config) Validate() error {
	if c.RespawnDelay <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("respawn_delay must be positive"))
	}
	if c.ThrowSpeed <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("throw_speed must be positive"))
	}
	if c.Lateral < 0 || c.Lift < 0 {
		return errors.Join(ErrInvalidConfig, errors.New("lateral and lift must not be negative"))
	}
	return nil
}

// Scorer is the session side the router reports to.
type Scorer interface {
	Running() bool
	Catch() bool
	Miss() bool
}

// Outcome is what happened to the ball.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeCatch
	OutcomeMiss
	OutcomeLaunch
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCatch:
		return "catch"
	case OutcomeMiss:
		return "miss"
	case OutcomeLaunch:
		return "launch"
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Router turns contacts into catches and misses and relaunches the ball.
// Like the session it runs on the control goroutine only.
type Router struct {
	config    Config
	scene     Scene
	scorer    Scorer
	scheduler clock.Scheduler
	rng       *rand.Rand

	color   Color
	pending clock.Task

	onOutcome func(Outcome, Contact)
}

// NewRouter creates a router. A nil rng uses a randomly seeded source.
func NewRouter(config Config, scene Scene, scorer Scorer, scheduler clock.Scheduler, rng *rand.Rand) *Router {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Router{
		config:    config,
		scene:     scene,
		scorer:    scorer,
		scheduler: scheduler,
		rng:       rng,
		color:     ColorMissed,
	}
}

// OnOutcome sets the callback invoked for every catch, miss and launch.
// The contact is zero for launches.
func (r *Router) OnOutcome(fn func(Outcome, Contact)) {
	r.onOutcome = fn
}

// Setup spawns the ball at its origin. It stays inactive until the first
// launch.
func (r *Router) Setup() {
	r.color = ColorMissed
	r.scene.Spawn(r.config.Origin, r.color)
}

// Color returns the current ball tint.
func (r *Router) Color() Color {
	return r.color
}

// Pending reports whether a respawn is scheduled.
func (r *Router) Pending() bool {
	return r.pending != nil
}

// HandleContact classifies one contact. Contacts are dropped unless the
// ball is active and no respawn is pending.
func (r *Router) HandleContact(c Contact) Outcome {
	other, ok := c.Other()
	if !ok || r.color != ColorActive || r.pending != nil {
		return OutcomeNone
	}

	var outcome Outcome
	switch {
	case other.Kind == KindNet:
		outcome = OutcomeMiss
		r.setColor(ColorMissed)
		r.scorer.Miss()
	case other.Kind == KindMarker && other.Highlighted:
		outcome = OutcomeCatch
		r.setColor(ColorCaught)
		r.scorer.Catch()
	default:
		return OutcomeNone
	}

	r.notify(outcome, c)
	r.RequestRespawn()
	return outcome
}

// RequestRespawn schedules a relaunch after the respawn delay. At most one
// respawn is pending, and none is scheduled outside a running session.
func (r *Router) RequestRespawn() bool {
	if r.pending != nil || !r.scorer.Running() {
		return false
	}
	r.pending = r.scheduler.After(r.config.RespawnDelay, r.respawn)
	return true
}

// StateChanged requests the first ball of a session.
func (r *Router) StateChanged(state gameplay.State) {
	if state == gameplay.Running {
		r.RequestRespawn()
	}
}

func (r *Router) respawn() {
	r.pending = nil
	if !r.scorer.Running() {
		return
	}
	r.launch()
}

func (r *Router) launch() {
	x := r.rng.Float64()*2*r.config.Lateral - r.config.Lateral
	y := r.rng.Float64() * r.config.Lift
	speed := r.config.ThrowSpeed

	r.scene.Reposition(r.config.Origin)
	r.scene.ApplyImpulse(mgl64.Vec3{x, y, -speed}, false)
	r.scene.ApplyImpulse(mgl64.Vec3{x, y, speed}, true)
	r.setColor(ColorActive)

	log.Printf("Ball launched (x=%.1f y=%.1f)", x, y)
	r.notify(OutcomeLaunch, Contact{})
}

func (r *Router) setColor(c Color) {
	r.color = c
	r.scene.Recolor(c)
}

func (r *Router) notify(o Outcome, c Contact) {
	if r.onOutcome != nil {
		r.onOutcome(o, c)
	}
}
