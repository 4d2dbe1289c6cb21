package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/catchball/internal/ball"
	"github.com/ayusman/catchball/internal/gameplay"
)

const (
	clientBuffer = 32
	writeWait    = time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message is one notification pushed to event clients.
type Message struct {
	Type      string            `json:"type"`
	State     *gameplay.State   `json:"state,omitempty"`
	Selected  bool              `json:"selected,omitempty"`
	Fraction  float64           `json:"fraction,omitempty"`
	Text      string            `json:"text,omitempty"`
	Summary   *gameplay.Summary `json:"summary,omitempty"`
	Outcome   string            `json:"outcome,omitempty"`
	Marker    *int              `json:"marker,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// Hub broadcasts game notifications to websocket clients. It implements
// gameplay.Observer; publishing never blocks, a client that falls behind
// loses messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan []byte)}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends msg to every client.
func (h *Hub) Publish(msg Message) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to encode event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- data:
		default:
		}
	}
}

func (h *Hub) StateChanged(state gameplay.State) {
	h.Publish(Message{Type: gameplay.KindState, State: &state})
}

func (h *Hub) ProgressUpdated(selected bool, fraction float64) {
	h.Publish(Message{Type: gameplay.KindProgress, Selected: selected, Fraction: fraction})
}

func (h *Hub) ScoreChanged(text string) {
	h.Publish(Message{Type: gameplay.KindScore, Text: text})
}

func (h *Hub) SessionSummary(summary gameplay.Summary) {
	h.Publish(Message{Type: gameplay.KindSummary, Text: summary.Text, Summary: &summary})
}

// BallOutcome publishes a catch, miss or launch.
func (h *Hub) BallOutcome(outcome ball.Outcome, contact ball.Contact) {
	msg := Message{Type: "ball", Outcome: outcome.String()}
	if other, ok := contact.Other(); ok && other.Kind == ball.KindMarker {
		index := other.Index
		msg.Marker = &index
	}
	h.Publish(msg)
}

// ServeHTTP upgrades the request and streams messages until the client
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case data := <-ch:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
