// Package tray provides the system tray menu: current state, score and the
// last session summary, with Stop and Quit.
package tray

import (
	"fmt"
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/catchball/internal/gameplay"
)

// Tray is the system tray application. It implements gameplay.Observer.
type Tray struct {
	onStop      func()
	onDashboard func()
	onQuit      func()
	mu          sync.RWMutex

	state   gameplay.State
	score   string
	summary string

	// Menu items stored for later updates
	menuState   *systray.MenuItem
	menuScore   *systray.MenuItem
	menuSummary *systray.MenuItem
	menuStop    *systray.MenuItem
}

// New creates a Tray in the idle state.
func New() *Tray {
	return &Tray{score: gameplay.FormatScore(0, 0)}
}

// OnStop sets the callback called when Stop is clicked.
func (t *Tray) OnStop(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStop = fn
}

// OnDashboard sets the callback called when the dashboard item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback called when Quit is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Catchball")
	systray.SetTooltip("Catchball")

	t.mu.Lock()
	t.menuState = systray.AddMenuItem(stateTitle(t.state), "Session state")
	t.menuState.Disable()
	t.menuScore = systray.AddMenuItem(scoreTitle(t.score), "Current score")
	t.menuScore.Disable()
	t.menuSummary = systray.AddMenuItem(summaryTitle(t.summary), "Last session")
	t.menuSummary.Disable()
	systray.AddSeparator()

	t.menuStop = systray.AddMenuItem("Stop session", "End the running session")
	if t.state != gameplay.Running {
		t.menuStop.Disable()
	}
	t.mu.Unlock()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Catchball")

	go func() {
		for {
			select {
			case <-t.menuStop.ClickedCh:
				t.call(func() func() { return t.onStop })
			case <-menuDashboard.ClickedCh:
				t.call(func() func() { return t.onDashboard })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

// call runs a callback outside the lock.
func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	fn := get()
	t.mu.RUnlock()

	if fn != nil {
		fn()
	}
}

func (t *Tray) StateChanged(state gameplay.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state

	if t.menuState != nil {
		t.menuState.SetTitle(stateTitle(state))
	}
	if t.menuStop != nil {
		if state == gameplay.Running {
			t.menuStop.Enable()
		} else {
			t.menuStop.Disable()
		}
	}
}

func (t *Tray) ProgressUpdated(selected bool, fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.menuState == nil || t.state == gameplay.Running {
		return
	}
	if selected {
		t.menuState.SetTitle(fmt.Sprintf("Starting... %.0f%%", fraction*100))
	} else {
		t.menuState.SetTitle(stateTitle(t.state))
	}
}

func (t *Tray) ScoreChanged(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.score = text

	if t.menuScore != nil {
		t.menuScore.SetTitle(scoreTitle(text))
	}
}

func (t *Tray) SessionSummary(summary gameplay.Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary = summary.Text

	if t.menuSummary != nil {
		t.menuSummary.SetTitle(summaryTitle(summary.Text))
	}
}

// Snapshot returns the values the menu currently shows.
func (t *Tray) Snapshot() (state gameplay.State, score, summary string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.score, t.summary
}

func stateTitle(state gameplay.State) string {
	if state == gameplay.Running {
		return "● Playing"
	}
	return "○ Raise both hands to start"
}

// scoreTitle folds the two-line score onto one menu line.
func scoreTitle(score string) string {
	return strings.ReplaceAll(score, "\n", " · ")
}

func summaryTitle(summary string) string {
	if summary == "" {
		return "Last: none"
	}
	return "Last: " + strings.ReplaceAll(summary, "\n", " · ")
}
