package gameplay

import "sync"

// Observer receives session notifications. Calls are made on the session's
// control goroutine and must not block.
type Observer interface {
	StateChanged(state State)
	ProgressUpdated(selected bool, fraction float64)
	ScoreChanged(text string)
	SessionSummary(summary Summary)
}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (o Observers) StateChanged(state State) {
	for _, obs := range o {
		obs.StateChanged(state)
	}
}

func (o Observers) ProgressUpdated(selected bool, fraction float64) {
	for _, obs := range o {
		obs.ProgressUpdated(selected, fraction)
	}
}

func (o Observers) ScoreChanged(text string) {
	for _, obs := range o {
		obs.ScoreChanged(text)
	}
}

func (o Observers) SessionSummary(summary Summary) {
	for _, obs := range o {
		obs.SessionSummary(summary)
	}
}

// Event is a recorded notification.
type Event struct {
	Kind     string   `json:"kind"`
	State    State    `json:"state,omitempty"`
	Selected bool     `json:"selected,omitempty"`
	Fraction float64  `json:"fraction,omitempty"`
	Text     string   `json:"text,omitempty"`
	Summary  *Summary `json:"summary,omitempty"`
}

// Notification kinds.
const (
	KindState    = "state"
	KindProgress = "progress"
	KindScore    = "score"
	KindSummary  = "summary"
)

// Recorder is an Observer that keeps every notification. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) StateChanged(state State) {
	r.add(Event{Kind: KindState, State: state})
}

func (r *Recorder) ProgressUpdated(selected bool, fraction float64) {
	r.add(Event{Kind: KindProgress, Selected: selected, Fraction: fraction})
}

func (r *Recorder) ScoreChanged(text string) {
	r.add(Event{Kind: KindScore, Text: text})
}

func (r *Recorder) SessionSummary(summary Summary) {
	r.add(Event{Kind: KindSummary, Text: summary.Text, Summary: &summary})
}

// Events returns a copy of the recorded notifications.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]Event, len(r.events))
	copy(events, r.events)
	return events
}

// Filter returns the recorded notifications of one kind.
func (r *Recorder) Filter(kind string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
