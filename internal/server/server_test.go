package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/catchball/internal/ball"
	"github.com/ayusman/catchball/internal/gameplay"
	"github.com/ayusman/catchball/internal/server/api"
	"github.com/ayusman/catchball/internal/store"
)

type stubGame struct {
	snapshot api.Snapshot
	stops    int
}

func (g *stubGame) Snapshot() api.Snapshot { return g.snapshot }

func (g *stubGame) Stop() bool {
	g.stops++
	return g.snapshot.State == gameplay.Running
}

func TestServer_Health(t *testing.T) {
	s := New(Config{Hub: NewHub()})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
		if response["event_clients"] != float64(0) {
			t.Errorf("expected 0 event clients, got %v", response["event_clients"])
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_Routes(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	game := &stubGame{snapshot: api.Snapshot{State: gameplay.Running, Caught: 2}}
	s := New(Config{Store: st, Game: game})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/state", http.StatusOK},
		{http.MethodPost, "/api/stop", http.StatusOK},
		{http.MethodGet, "/api/sessions", http.StatusOK},
		{http.MethodGet, "/api/sessions/missing", http.StatusNotFound},
		{http.MethodGet, "/api/nonexistent", http.StatusNotFound},
		{http.MethodGet, "/api/events", http.StatusNotFound},
		{http.MethodGet, "/api/stream", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}

	if game.stops != 1 {
		t.Errorf("expected one stop call, got %d", game.stops)
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>Catch!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestHub_NoClients(t *testing.T) {
	hub := NewHub()

	// Publishing without clients must not block.
	hub.StateChanged(gameplay.Running)
	hub.ProgressUpdated(true, 0.5)
	hub.ScoreChanged(gameplay.FormatScore(1, 0))
	hub.SessionSummary(gameplay.Summarize(1, 0))

	if hub.Clients() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.Clients())
	}
}

func dialEvents(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, hub.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func TestHub_WebSocket(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping websocket test in short mode")
	}

	hub := NewHub()
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	conn := dialEvents(t, ts)
	defer conn.Close()
	waitForClients(t, hub, 1)

	t.Run("state change", func(t *testing.T) {
		hub.StateChanged(gameplay.Running)
		msg := readMessage(t, conn)
		if msg.Type != gameplay.KindState {
			t.Fatalf("type = %q, want %q", msg.Type, gameplay.KindState)
		}
		if msg.State == nil || *msg.State != gameplay.Running {
			t.Errorf("state = %v, want running", msg.State)
		}
		if msg.Timestamp == 0 {
			t.Error("expected a timestamp")
		}
	})

	t.Run("progress", func(t *testing.T) {
		hub.ProgressUpdated(true, 0.5)
		msg := readMessage(t, conn)
		if msg.Type != gameplay.KindProgress || !msg.Selected || msg.Fraction != 0.5 {
			t.Errorf("message = %+v", msg)
		}
	})

	t.Run("summary", func(t *testing.T) {
		hub.SessionSummary(gameplay.Summarize(3, 1))
		msg := readMessage(t, conn)
		if msg.Summary == nil || msg.Summary.Verdict != gameplay.VerdictGreat {
			t.Errorf("summary = %+v", msg.Summary)
		}
	})

	t.Run("ball catch names the marker", func(t *testing.T) {
		contact := ball.Contact{
			A: ball.Participant{Kind: ball.KindBall},
			B: ball.Participant{Kind: ball.KindMarker, Index: 7, Highlighted: true},
		}
		hub.BallOutcome(ball.OutcomeCatch, contact)
		msg := readMessage(t, conn)
		if msg.Outcome != ball.OutcomeCatch.String() {
			t.Errorf("outcome = %q", msg.Outcome)
		}
		if msg.Marker == nil || *msg.Marker != 7 {
			t.Errorf("marker = %v, want 7", msg.Marker)
		}
	})

	t.Run("client disconnect", func(t *testing.T) {
		conn.Close()
		waitForClients(t, hub, 0)
	})
}

func TestFrameBuffer_NoViewers(t *testing.T) {
	buf := NewFrameBuffer()
	buf.Put(nil)

	data, seq := buf.Latest()
	if data != nil || seq != 0 {
		t.Errorf("Latest() = %d bytes, seq %d; want empty", len(data), seq)
	}
}

func TestStreamHandler_MethodNotAllowed(t *testing.T) {
	h := NewStreamHandler(NewFrameBuffer())
	req := httptest.NewRequest(http.MethodPost, "/api/stream", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
