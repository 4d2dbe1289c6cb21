// Package clock provides cancelable deferred and repeating tasks.
//
// Gameplay code never sleeps or owns timers directly: it asks a Scheduler for
// a Task and cancels it when the condition it waited for goes away.
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Task is a handle to a scheduled callback. Cancel stops it from firing and
// may be called any number of times.
type Task interface {
	Cancel()
}

// Scheduler runs callbacks after a delay or at a fixed interval.
type Scheduler interface {
	// Now returns the scheduler's notion of the current time.
	Now() time.Time

	// After runs fn once, d from now.
	After(d time.Duration, fn func()) Task

	// Every runs fn every d until the task is canceled.
	Every(d time.Duration, fn func()) Task
}

// Real schedules callbacks on wall-clock timers. Callbacks are handed to the
// dispatch function so they run on the owner's control goroutine; a nil
// dispatch runs them on the timer goroutine.
type Real struct {
	dispatch func(func())
}

// NewReal creates a wall-clock scheduler.
func NewReal(dispatch func(func())) *Real {
	return &Real{dispatch: dispatch}
}

// Now returns time.Now().
func (r *Real) Now() time.Time {
	return time.Now()
}

// After runs fn once after d.
func (r *Real) After(d time.Duration, fn func()) Task {
	t := &realTask{}
	timer := time.AfterFunc(d, func() { r.post(t, fn) })
	t.stop = func() { timer.Stop() }
	return t
}

// Every runs fn every d until canceled.
func (r *Real) Every(d time.Duration, fn func()) Task {
	t := &realTask{}
	done := make(chan struct{})
	ticker := time.NewTicker(d)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				r.post(t, fn)
			}
		}
	}()

	t.stop = func() { close(done) }
	return t
}

// post delivers fn unless the task was canceled by the time it runs. The
// check happens on the dispatch side, so a cancel issued from the control
// goroutine wins over a tick already queued behind it.
func (r *Real) post(t *realTask, fn func()) {
	run := func() {
		if !t.canceled.Load() {
			fn()
		}
	}
	if r.dispatch == nil {
		run()
		return
	}
	r.dispatch(run)
}

type realTask struct {
	canceled atomic.Bool
	once     sync.Once
	stop     func()
}

func (t *realTask) Cancel() {
	t.once.Do(func() {
		t.canceled.Store(true)
		t.stop()
	})
}
