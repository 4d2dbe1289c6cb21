// Package plugin runs external session hooks. A plugin is a directory with a
// plugin.json manifest and an executable that reads one JSON request on
// stdin and writes one JSON response on stdout.
package plugin

import "encoding/json"

// Hook events.
const (
	EventSessionStarted  = "session.started"
	EventSessionFinished = "session.finished"
)

// Manifest describes a plugin and the events it subscribes to.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Subscribes reports whether the manifest lists event.
func (m Manifest) Subscribes(event string) bool {
	for _, e := range m.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Result is the session outcome sent with session.finished.
type Result struct {
	Caught  int     `json:"caught"`
	Missed  int     `json:"missed"`
	Ratio   float64 `json:"ratio"`
	Verdict string  `json:"verdict"`
	Text    string  `json:"text"`
}

// Request is the hook payload written to the plugin's stdin.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	Result    *Result         `json:"result,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is what the plugin writes to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
