package clock

import (
	"sync"
	"time"
)

// Manual is a Scheduler driven by Advance instead of wall-clock time.
// Callbacks run synchronously inside Advance, in due order.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*manualTask
	seq   int
}

type manualTask struct {
	m        *Manual
	due      time.Time
	interval time.Duration
	fn       func()
	seq      int
	canceled bool
}

// NewManual creates a manual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// After runs fn once when virtual time reaches now+d.
func (m *Manual) After(d time.Duration, fn func()) Task {
	return m.schedule(d, 0, fn)
}

// Every runs fn at every multiple of d from now until canceled.
func (m *Manual) Every(d time.Duration, fn func()) Task {
	return m.schedule(d, d, fn)
}

func (m *Manual) schedule(d, interval time.Duration, fn func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTask{
		m:        m,
		due:      m.now.Add(d),
		interval: interval,
		fn:       fn,
		seq:      m.seq,
	}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance moves virtual time forward by d, running every callback that falls
// due. Callbacks may schedule or cancel tasks.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}

		m.now = next.due
		if next.interval > 0 {
			next.due = next.due.Add(next.interval)
		} else {
			m.remove(next)
		}
		fn := next.fn
		m.mu.Unlock()

		fn()
	}
}

// Pending returns the number of tasks that have not fired or been canceled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *Manual) nextDue(target time.Time) *manualTask {
	var next *manualTask
	for _, t := range m.tasks {
		if t.due.After(target) {
			continue
		}
		if next == nil || t.due.Before(next.due) || (t.due.Equal(next.due) && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (m *Manual) remove(t *manualTask) {
	for i, task := range m.tasks {
		if task == t {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}

func (t *manualTask) Cancel() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.canceled {
		return
	}
	t.canceled = true
	t.m.remove(t)
}
