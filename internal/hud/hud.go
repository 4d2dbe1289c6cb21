// Package hud draws the game in a terminal: the marker figure, the ball,
// the countdown bar and the score. Keys: s stops the session, q quits.
package hud

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ayusman/catchball/internal/ball"
	"github.com/ayusman/catchball/internal/gameplay"
	"github.com/ayusman/catchball/internal/physics"
)

// Config sets the scene area mapped onto the terminal.
type Config struct {
	HalfWidth float64       `yaml:"half_width"`
	Bottom    float64       `yaml:"bottom"`
	Top       float64       `yaml:"top"`
	Refresh   time.Duration `yaml:"refresh"`
}

// DefaultConfig covers the field between the walls, floor to above the
// throw origin.
func DefaultConfig() Config {
	return Config{
		HalfWidth: 250,
		Bottom:    -250,
		Top:       350,
		Refresh:   33 * time.Millisecond,
	}
}

// headerRows is the number of text rows above the field.
const headerRows = 3

const barWidth = 20

var (
	styleText      = tcell.StyleDefault
	styleDim       = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleMarker    = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleHighlight = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleRunning   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
)

func ballStyle(c ball.Color) tcell.Style {
	switch c {
	case ball.ColorActive:
		return tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	case ball.ColorCaught:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	}
}

// HUD renders onto a tcell screen. It implements gameplay.Observer.
type HUD struct {
	screen tcell.Screen
	config Config

	mu        sync.Mutex
	state     gameplay.State
	selected  bool
	fraction  float64
	score     string
	summary   string
	scene     physics.Snapshot
	lastEvent string
}

// New initializes screen and returns a HUD drawing on it.
func New(screen tcell.Screen, config Config) (*HUD, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to init screen: %w", err)
	}
	screen.HideCursor()
	return &HUD{
		screen: screen,
		config: config,
		score:  gameplay.FormatScore(0, 0),
	}, nil
}

// Close restores the terminal.
func (h *HUD) Close() {
	h.screen.Fini()
}

func (h *HUD) StateChanged(state gameplay.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
	if state == gameplay.Running {
		h.summary = ""
	}
}

func (h *HUD) ProgressUpdated(selected bool, fraction float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selected = selected
	h.fraction = fraction
}

func (h *HUD) ScoreChanged(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.score = text
}

func (h *HUD) SessionSummary(summary gameplay.Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.summary = summary.Text
}

// BallOutcome shows the latest catch or miss.
func (h *HUD) BallOutcome(outcome ball.Outcome, _ ball.Contact) {
	if outcome != ball.OutcomeCatch && outcome != ball.OutcomeMiss {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastEvent = outcome.String()
}

// SetScene replaces the scene drawn on the next frame.
func (h *HUD) SetScene(scene physics.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scene = scene
}

// Run redraws until ctx is done or q is pressed. s calls onStop; q, Esc
// and Ctrl-C call onQuit.
func (h *HUD) Run(ctx context.Context, onStop, onQuit func()) {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go h.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(h.config.Refresh)
	defer ticker.Stop()

	h.Draw()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if !h.handle(ev, onStop, onQuit) {
				return
			}
		case <-ticker.C:
			h.Draw()
		}
	}
}

func (h *HUD) handle(ev tcell.Event, onStop, onQuit func()) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			if onQuit != nil {
				onQuit()
			}
			return false
		}
		if ev.Key() == tcell.KeyRune && ev.Rune() == 's' && onStop != nil {
			onStop()
		}
	case *tcell.EventResize:
		h.screen.Sync()
	}
	return true
}

// Draw renders one frame.
func (h *HUD) Draw() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.screen.Clear()
	width, height := h.screen.Size()

	h.drawHeader(width)

	for _, m := range h.scene.Markers {
		if !m.Visible {
			continue
		}
		x, y, ok := h.cell(m.Position.X(), m.Position.Y(), width, height)
		if !ok {
			continue
		}
		if m.Highlighted {
			h.screen.SetContent(x, y, 'O', nil, styleHighlight)
		} else {
			h.screen.SetContent(x, y, 'o', nil, styleMarker)
		}
	}

	if h.scene.Spawned {
		p := h.scene.Ball.Position
		if x, y, ok := h.cell(p.X(), p.Y(), width, height); ok {
			h.screen.SetContent(x, y, '●', nil, ballStyle(h.scene.Ball.Color))
		}
	}

	h.screen.Show()
}

func (h *HUD) drawHeader(width int) {
	status := "Raise both hands to start"
	style := styleText
	if h.state == gameplay.Running {
		status = "Playing  (s: stop)"
		style = styleRunning
	} else if h.selected {
		status = "Starting " + progressBar(h.fraction)
	}
	h.putString(0, 0, status, style)
	h.putString(width-len("q: quit"), 0, "q: quit", styleDim)

	h.putString(0, 1, strings.ReplaceAll(h.score, "\n", "   "), styleText)
	if h.lastEvent != "" {
		h.putString(width/2, 1, "last: "+h.lastEvent, styleDim)
	}
	if h.summary != "" {
		h.putString(0, 2, strings.ReplaceAll(h.summary, "\n", "  "), styleHighlight)
	}
}

func (h *HUD) putString(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		h.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// cell maps a scene point onto the field area below the header. Points
// outside the configured area are not drawn.
func (h *HUD) cell(sx, sy float64, width, height int) (int, int, bool) {
	rows := height - headerRows
	if width <= 0 || rows <= 0 {
		return 0, 0, false
	}
	c := h.config
	u := (sx + c.HalfWidth) / (2 * c.HalfWidth)
	v := (c.Top - sy) / (c.Top - c.Bottom)
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return 0, 0, false
	}
	x := min(int(u*float64(width)), width-1)
	y := min(int(v*float64(rows)), rows-1)
	return x, y + headerRows, true
}

// progressBar draws fraction as a fixed width bar.
func progressBar(fraction float64) string {
	fraction = max(0, min(1, fraction))
	filled := int(fraction * barWidth)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}
