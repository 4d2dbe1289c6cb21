// Package gameplay implements the game session state machine: the
// raised-hands countdown, scoring while a session runs and the end of
// session summary.
package gameplay

import (
	"fmt"
	"strconv"
	"strings"
)

// State is the session state.
type State int

const (
	// Idle waits for the player to hold both hands up.
	Idle State = iota
	// Running counts catches and misses.
	Running
)

// String returns "idle" or "running".
func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "running":
		*s = Running
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}

// Verdicts by ratio band.
const (
	VerdictPoor  = "Well, could be better"
	VerdictGood  = "Well done!"
	VerdictGreat = "Great game!"
)

// Summary describes a finished session.
type Summary struct {
	Caught  int     `json:"caught"`
	Missed  int     `json:"missed"`
	Ratio   float64 `json:"ratio"`
	Verdict string  `json:"verdict"`
	Text    string  `json:"text"`
}

// FormatScore returns the two-line score text.
func FormatScore(caught, missed int) string {
	return "Catched balls: " + strconv.Itoa(caught) + "\nMissed: " + strconv.Itoa(missed)
}

// Ratio returns caught/missed. With no misses the ratio is 1 when at least
// one ball was caught and 0 otherwise, so it is always finite.
func Ratio(caught, missed int) float64 {
	if missed == 0 {
		if caught > 0 {
			return 1
		}
		return 0
	}
	return float64(caught) / float64(missed)
}

// VerdictFor maps a ratio onto its band.
func VerdictFor(ratio float64) string {
	switch {
	case ratio < 0.5:
		return VerdictPoor
	case ratio < 0.95:
		return VerdictGood
	default:
		return VerdictGreat
	}
}

// FormatRatio prints the ratio in its shortest exact form, keeping at least
// one decimal: 3 becomes "3.0".
func FormatRatio(ratio float64) string {
	s := strconv.FormatFloat(ratio, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Summarize builds the end of session summary.
func Summarize(caught, missed int) Summary {
	ratio := Ratio(caught, missed)
	verdict := VerdictFor(ratio)
	return Summary{
		Caught:  caught,
		Missed:  missed,
		Ratio:   ratio,
		Verdict: verdict,
		Text:    verdict + "\n Ratio: " + FormatRatio(ratio),
	}
}
