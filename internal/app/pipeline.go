package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ayusman/catchball/internal/detector"
)

// runPipeline reads frames at the governed rate and posts every detection
// result to the control loop.
//
// Pipeline logic:
// 1. Start at the idle frame rate
// 2. Motion, or a running session, switches to the active rate
// 3. Run pose detection on active frames only
// 4. Post the skeleton, or the loss of it, to the control loop
// 5. After the idle timeout without motion outside a session, drop back to idle
func (a *App) runPipeline(ctx context.Context) {
	ticker := time.NewTicker(a.rate.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.processFrame(ticker)
		}
	}
}

func (a *App) processFrame(ticker *time.Ticker) {
	frame, err := a.opts.Camera.ReadFrame()
	if err != nil {
		log.Printf("Error reading frame: %v", err)
		return
	}
	defer frame.Close()

	if a.opts.Frames != nil {
		a.opts.Frames.Put(frame)
	}

	motion, _ := a.motion.Detect(frame)
	if fps, changed := a.rate.Observe(time.Now(), motion, a.playing.Load()); changed {
		a.opts.Camera.SetFPS(fps)
		ticker.Reset(a.rate.Interval())
		if a.rate.Active() {
			log.Printf("Switched to active mode (%d FPS)", fps)
		} else {
			a.motion.Reset()
			log.Printf("Switched to idle mode (%d FPS)", fps)
		}
	}

	if !a.rate.Active() || a.opts.Detector == nil {
		return
	}

	skeleton, err := a.opts.Detector.Detect(frame)
	switch {
	case errors.Is(err, detector.ErrNoBody):
		a.Post(a.game.LoseBody)
	case err != nil:
		log.Printf("Error detecting pose: %v", err)
	default:
		a.Post(func() { a.game.HandleFrame(*skeleton) })
	}
}
