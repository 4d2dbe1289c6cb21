package app

import (
	"log"
	"time"

	"github.com/ayusman/catchball/internal/ball"
	"github.com/ayusman/catchball/internal/catcher"
	"github.com/ayusman/catchball/internal/clock"
	"github.com/ayusman/catchball/internal/config"
	"github.com/ayusman/catchball/internal/detector"
	"github.com/ayusman/catchball/internal/gameplay"
	"github.com/ayusman/catchball/internal/physics"
	"github.com/ayusman/catchball/internal/plugin"
	"github.com/ayusman/catchball/internal/server/api"
	"github.com/ayusman/catchball/internal/store"
)

// CalibrationKey is the settings key the last calibration is stored under.
const CalibrationKey = "calibration"

// OutcomeHandler receives ball catches, misses and launches.
type OutcomeHandler interface {
	BallOutcome(outcome ball.Outcome, contact ball.Contact)
}

// Game wires the session, the catcher, the physics scene and the ball
// router together. It is not safe for concurrent use: every method runs on
// the control goroutine.
type Game struct {
	session *gameplay.Session
	tracker *catcher.Tracker
	world   *physics.World
	router  *ball.Router

	store    *store.Store
	hook     func(plugin.Request)
	outcomes []OutcomeHandler

	sessionID   string
	progress    float64
	counting    bool
	lastSummary *gameplay.Summary
}

// GameOptions holds the collaborators of a Game. Store and Hook are
// optional.
type GameOptions struct {
	Config    config.Config
	Scheduler clock.Scheduler
	Store     *store.Store

	// Hook is called with every session hook request. It must not block.
	Hook func(plugin.Request)

	Observers []gameplay.Observer
	Outcomes  []OutcomeHandler
}

// NewGame builds the game in the idle state with the ball parked at its
// origin.
func NewGame(opts GameOptions) (*Game, error) {
	world, err := physics.NewWorld(opts.Config.Physics)
	if err != nil {
		return nil, err
	}

	g := &Game{
		tracker:  catcher.NewTracker(opts.Config.Catcher),
		world:    world,
		store:    opts.Store,
		hook:     opts.Hook,
		outcomes: opts.Outcomes,
	}

	// The game records the session before any sink sees it.
	observers := append(gameplay.Observers{g}, opts.Observers...)
	g.session = gameplay.New(opts.Config.Session, opts.Scheduler, observers)

	g.router = ball.NewRouter(opts.Config.Ball, world, g.session, opts.Scheduler, nil)
	g.router.OnOutcome(g.handleOutcome)
	g.router.Setup()

	g.tracker.Allocate(detector.NumJoints)
	g.world.SetMarkers(g.tracker.Markers(), opts.Config.Catcher.Anchor)

	return g, nil
}

// Session returns the gameplay session.
func (g *Game) Session() *gameplay.Session {
	return g.session
}

// Router returns the ball router.
func (g *Game) Router() *ball.Router {
	return g.router
}

// World returns the physics scene.
func (g *Game) World() *physics.World {
	return g.world
}

// Tracker returns the catcher tracker.
func (g *Game) Tracker() *catcher.Tracker {
	return g.tracker
}

// HandleFrame applies one tracked skeleton: markers follow the body, the
// raised-hands signal drives the countdown, and at session start the body
// position becomes the lateral reference.
func (g *Game) HandleFrame(frame detector.SkeletonFrame) {
	result := g.tracker.Update(frame)
	g.session.SetHandsRaised(result.BothHandsRaised)

	if frame.RootTracked {
		if g.session.TakeBodyCapture() {
			g.tracker.SetOrigin(frame.Root)
		}
		g.tracker.TrackBody(frame.Root)
	}

	g.world.SetMarkers(result.Markers, g.tracker.Config().Anchor)
}

// LoseBody is called when no skeleton was detected. The countdown resets
// as if the hands were lowered.
func (g *Game) LoseBody() {
	g.session.SetHandsRaised(false)
}

// Step advances physics by dt and routes the contacts it produced.
func (g *Game) Step(dt time.Duration) {
	for _, c := range g.world.Step(dt) {
		g.router.HandleContact(c)
	}
}

// Stop ends the running session.
func (g *Game) Stop() bool {
	return g.session.Stop()
}

// Snapshot returns the live state.
func (g *Game) Snapshot() api.Snapshot {
	caught, missed := g.session.Score()
	return api.Snapshot{
		State:        g.session.State(),
		SessionID:    g.sessionID,
		HandsRaised:  g.session.HandsRaised(),
		CountingDown: g.counting,
		Progress:     g.progress,
		Caught:       caught,
		Missed:       missed,
		Score:        g.session.ScoreText(),
		Offset:       g.tracker.Offset(),
		Calibration:  g.tracker.Calibration(),
		Scene:        g.world.Snapshot(),
		LastSummary:  g.lastSummary,
	}
}

func (g *Game) StateChanged(state gameplay.State) {
	if state == gameplay.Running {
		g.startRecord()
		g.runHook(plugin.Request{Event: plugin.EventSessionStarted, SessionID: g.sessionID})
	} else {
		g.sessionID = ""
	}

	g.router.StateChanged(state)
}

func (g *Game) ProgressUpdated(selected bool, fraction float64) {
	g.counting = selected
	g.progress = fraction
}

func (g *Game) ScoreChanged(string) {}

func (g *Game) SessionSummary(summary gameplay.Summary) {
	g.lastSummary = &summary
	log.Printf("Session finished: caught %d, missed %d (%s)", summary.Caught, summary.Missed, summary.Verdict)

	g.finishRecord(summary)
	g.runHook(plugin.Request{
		Event:     plugin.EventSessionFinished,
		SessionID: g.sessionID,
		Result: &plugin.Result{
			Caught:  summary.Caught,
			Missed:  summary.Missed,
			Ratio:   summary.Ratio,
			Verdict: summary.Verdict,
			Text:    summary.Text,
		},
	})
}

func (g *Game) startRecord() {
	g.sessionID = ""
	if g.store == nil {
		return
	}

	sess := &store.Session{}
	if err := g.store.Sessions().Start(sess); err != nil {
		log.Printf("Failed to record session start: %v", err)
		return
	}
	g.sessionID = sess.ID
	log.Printf("Session %s started", sess.ID)
}

func (g *Game) finishRecord(summary gameplay.Summary) {
	if g.store == nil {
		return
	}

	if g.sessionID != "" {
		err := g.store.Sessions().Finish(g.sessionID, store.Result{
			Caught:  summary.Caught,
			Missed:  summary.Missed,
			Ratio:   summary.Ratio,
			Verdict: summary.Verdict,
			Summary: summary.Text,
		})
		if err != nil {
			log.Printf("Failed to record session %s: %v", g.sessionID, err)
		}
	}

	if err := g.store.Settings().Put(CalibrationKey, g.tracker.Calibration()); err != nil {
		log.Printf("Failed to save calibration: %v", err)
	}
}

func (g *Game) runHook(req plugin.Request) {
	if g.hook != nil {
		g.hook(req)
	}
}

func (g *Game) handleOutcome(outcome ball.Outcome, contact ball.Contact) {
	g.recordOutcome(outcome, contact)
	for _, h := range g.outcomes {
		h.BallOutcome(outcome, contact)
	}
}

func (g *Game) recordOutcome(outcome ball.Outcome, contact ball.Contact) {
	if g.store == nil || g.sessionID == "" {
		return
	}

	e := &store.Event{SessionID: g.sessionID, Marker: -1}
	switch outcome {
	case ball.OutcomeCatch:
		e.Kind = store.EventCatch
		if other, ok := contact.Other(); ok {
			e.Marker = other.Index
		}
	case ball.OutcomeMiss:
		e.Kind = store.EventMiss
	default:
		return
	}

	if err := g.store.Events().Record(e); err != nil {
		log.Printf("Failed to record %s: %v", outcome, err)
	}
}
