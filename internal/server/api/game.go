package api

import (
	"net/http"

	"github.com/ayusman/catchball/internal/catcher"
	"github.com/ayusman/catchball/internal/gameplay"
	"github.com/ayusman/catchball/internal/physics"
)

// Snapshot is the live game state served at /api/state.
type Snapshot struct {
	State        gameplay.State      `json:"state"`
	SessionID    string              `json:"session_id,omitempty"`
	HandsRaised  bool                `json:"hands_raised"`
	CountingDown bool                `json:"counting_down"`
	Progress     float64             `json:"progress"`
	Caught       int                 `json:"caught"`
	Missed       int                 `json:"missed"`
	Score        string              `json:"score"`
	Offset       float64             `json:"offset"`
	Calibration  catcher.Calibration `json:"calibration"`
	Scene        physics.Snapshot    `json:"scene"`
	LastSummary  *gameplay.Summary   `json:"last_summary,omitempty"`
}

// Game is the running game as seen by the API.
type Game interface {
	Snapshot() Snapshot
	// Stop ends the running session and reports whether one was running.
	Stop() bool
}

// GameHandler serves the live state and the stop command.
type GameHandler struct {
	game Game
}

// NewGameHandler creates a handler for game.
func NewGameHandler(game Game) *GameHandler {
	return &GameHandler{game: game}
}

// State handles GET /api/state.
func (h *GameHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.game.Snapshot())
}

type stopResponse struct {
	Stopped bool `json:"stopped"`
}

// Stop handles POST /api/stop.
func (h *GameHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, stopResponse{Stopped: h.game.Stop()})
}
