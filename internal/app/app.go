// Package app runs the game: one control goroutine owns the session, the
// catcher, the physics scene and the ball router, and everything else posts
// closures to it.
package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/catchball/internal/capture"
	"github.com/ayusman/catchball/internal/clock"
	"github.com/ayusman/catchball/internal/config"
	"github.com/ayusman/catchball/internal/detector"
	"github.com/ayusman/catchball/internal/gameplay"
	"github.com/ayusman/catchball/internal/physics"
	"github.com/ayusman/catchball/internal/plugin"
	"github.com/ayusman/catchball/internal/server/api"
	"github.com/ayusman/catchball/internal/store"
)

// ErrStopped is returned by Do once the control loop has exited.
var ErrStopped = errors.New("app stopped")

// eventBuffer is the capacity of the control loop's queue.
const eventBuffer = 64

// SceneSink receives the physics scene after every step.
type SceneSink interface {
	SetScene(scene physics.Snapshot)
}

// FrameSink receives every captured frame, e.g. for the MJPEG stream.
type FrameSink interface {
	Put(frame *gocv.Mat)
}

// Options holds the application's collaborators. Camera, Detector and
// Config are required.
type Options struct {
	Config   config.Config
	Camera   capture.Camera
	Detector detector.Detector
	Store    *store.Store
	Plugins  *plugin.Manager

	Observers []gameplay.Observer
	Outcomes  []OutcomeHandler
	Scenes    []SceneSink
	Frames    FrameSink
}

// App is the running application.
type App struct {
	opts   Options
	game   *Game
	motion *capture.MotionDetector
	rate   *capture.RateGovernor

	events  chan func()
	done    chan struct{}
	playing atomic.Bool
	hooks   sync.WaitGroup
	ctx     context.Context
}

// New creates the application. Nothing runs until Run is called.
func New(opts Options) (*App, error) {
	a := &App{
		opts:   opts,
		motion: capture.NewMotionDetector(opts.Config.MotionThreshold),
		rate:   capture.NewRateGovernor(opts.Config.Rate),
		events: make(chan func(), eventBuffer),
		done:   make(chan struct{}),
		ctx:    context.Background(),
	}

	observers := append([]gameplay.Observer{playingFlag{&a.playing}}, opts.Observers...)
	game, err := NewGame(GameOptions{
		Config:    opts.Config,
		Scheduler: clock.NewReal(a.Post),
		Store:     opts.Store,
		Hook:      a.dispatchHook,
		Observers: observers,
		Outcomes:  opts.Outcomes,
	})
	if err != nil {
		return nil, err
	}
	a.game = game
	return a, nil
}

// Game returns the game. Its methods must only be called from the control
// goroutine, e.g. inside Do.
func (a *App) Game() *Game {
	return a.game
}

// Post queues fn on the control goroutine. It drops fn once the loop has
// exited.
func (a *App) Post(fn func()) {
	select {
	case a.events <- fn:
	case <-a.done:
	}
}

// Do runs fn on the control goroutine and waits for it.
func (a *App) Do(fn func()) error {
	finished := make(chan struct{})
	a.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-a.done:
		return ErrStopped
	}
}

// Snapshot returns the live game state, or the zero snapshot once the app
// has stopped. It implements api.Game.
func (a *App) Snapshot() api.Snapshot {
	var s api.Snapshot
	a.Do(func() { s = a.game.Snapshot() })
	return s
}

// Stop ends the running session. It implements api.Game.
func (a *App) Stop() bool {
	var stopped bool
	a.Do(func() { stopped = a.game.Stop() })
	return stopped
}

// Run opens the camera and runs the capture pipeline, the physics clock
// and the control loop until ctx is canceled. A running session is ended
// before Run returns.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx

	if err := a.opts.Camera.Open(); err != nil {
		close(a.done)
		return err
	}
	a.opts.Camera.SetFPS(a.rate.FPS())

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		a.runPipeline(ctx)
	}()
	go func() {
		defer workers.Done()
		a.runPhysics(ctx)
	}()

	log.Println("Game loop started")
	a.loop(ctx)

	a.game.Stop()
	close(a.done)
	workers.Wait()
	a.hooks.Wait()

	a.close()
	log.Println("Game loop stopped")
	return nil
}

// loop runs posted closures until ctx is canceled.
func (a *App) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-a.events:
			fn()
		}
	}
}

func (a *App) runPhysics(ctx context.Context) {
	interval := a.opts.Config.StepInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Post(func() {
				a.game.Step(interval)
				if len(a.opts.Scenes) == 0 {
					return
				}
				scene := a.game.World().Snapshot()
				for _, s := range a.opts.Scenes {
					s.SetScene(scene)
				}
			})
		}
	}
}

// dispatchHook runs session hooks off the control goroutine.
func (a *App) dispatchHook(req plugin.Request) {
	if a.opts.Plugins == nil {
		return
	}
	a.hooks.Add(1)
	go func() {
		defer a.hooks.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(a.ctx), a.opts.Config.Plugins.Timeout)
		defer cancel()
		a.opts.Plugins.Dispatch(ctx, req)
	}()
}

func (a *App) close() {
	if err := a.opts.Camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.motion.Close()
	if a.opts.Detector != nil {
		if err := a.opts.Detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
}

// playingFlag mirrors the session state for the capture goroutine.
type playingFlag struct {
	running *atomic.Bool
}

func (p playingFlag) StateChanged(state gameplay.State) { p.running.Store(state == gameplay.Running) }
func (p playingFlag) ProgressUpdated(bool, float64) {}
func (p playingFlag) ScoreChanged(string) {}
func (p playingFlag) SessionSummary(gameplay.Summary) {}
