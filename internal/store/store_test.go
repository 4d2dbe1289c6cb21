package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestNewStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catchball.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file should exist: %v", err)
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}

	for _, table := range []string{"sessions", "session_events", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	var fk int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil || fk != 1 {
		t.Errorf("foreign_keys = %d, %v; want 1", fk, err)
	}
}

func TestStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catchball.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sess := &Session{}
	if err := s.Sessions().Start(sess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if _, err := s.Sessions().GetByID(sess.ID); err != nil {
		t.Errorf("session lost across reopen: %v", err)
	}
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{}
	if err := repo.Start(sess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sess.ID == "" {
		t.Fatal("Start() should assign an ID")
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != StatusRunning || got.EndedAt != nil {
		t.Errorf("running session = %+v", got)
	}

	result := Result{Caught: 3, Missed: 1, Ratio: 3, Verdict: "Great game!", Summary: "Great game!\n Ratio: 3.0"}
	if err := repo.Finish(sess.ID, result); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, err = repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != StatusFinished || got.EndedAt == nil {
		t.Errorf("finished session = %+v", got)
	}
	if got.Caught != 3 || got.Missed != 1 || got.Ratio != 3 || got.Summary != result.Summary {
		t.Errorf("result = %+v, want %+v", got, result)
	}
}

func TestSessionRepository_NotFound(t *testing.T) {
	repo := newTestStore(t).Sessions()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if err := repo.Finish("missing", Result{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Finish() error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_List(t *testing.T) {
	repo := newTestStore(t).Sessions()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		sess := &Session{StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Start(sess); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		ids = append(ids, sess.ID)
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(List()) = %d, want 3", len(all))
	}
	if all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("List() order = %s, %s, %s; want newest first", all[0].ID, all[1].ID, all[2].ID)
	}

	limited, err := repo.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len(List(2)) = %d, want 2", len(limited))
	}
}

func TestSessionRepository_Stats(t *testing.T) {
	repo := newTestStore(t).Sessions()

	empty, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if empty != (Stats{}) {
		t.Errorf("Stats() on empty store = %+v", empty)
	}

	results := []Result{
		{Caught: 3, Missed: 1, Ratio: 3},
		{Caught: 1, Missed: 3, Ratio: 1.0 / 3},
	}
	for _, res := range results {
		sess := &Session{}
		repo.Start(sess)
		if err := repo.Finish(sess.ID, res); err != nil {
			t.Fatalf("Finish() error = %v", err)
		}
	}
	repo.Start(&Session{})

	st, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := Stats{Sessions: 2, Caught: 4, Missed: 4, BestRatio: 3}
	if st != want {
		t.Errorf("Stats() = %+v, want %+v", st, want)
	}
}

func TestEventRepository(t *testing.T) {
	s := newTestStore(t)
	sess := &Session{}
	if err := s.Sessions().Start(sess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	events := []Event{
		{SessionID: sess.ID, Kind: EventCatch, Marker: 7},
		{SessionID: sess.ID, Kind: EventMiss, Marker: -1},
		{SessionID: sess.ID, Kind: EventCatch, Marker: 4},
	}
	for i := range events {
		if err := s.Events().Record(&events[i]); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if events[i].Seq != i+1 {
			t.Errorf("Seq = %d, want %d", events[i].Seq, i+1)
		}
	}

	got, err := s.Events().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(got))
	}
	if got[1].Kind != EventMiss || got[0].Marker != 7 {
		t.Errorf("events = %+v", got)
	}

	t.Run("unknown session is rejected", func(t *testing.T) {
		err := s.Events().Record(&Event{SessionID: "missing", Kind: EventCatch})
		if err == nil {
			t.Error("expected a foreign key error")
		}
	})

	t.Run("delete cascades", func(t *testing.T) {
		if err := s.Sessions().Delete(sess.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		got, err := s.Events().ListBySession(sess.ID)
		if err != nil {
			t.Fatalf("ListBySession() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("events after delete = %d, want 0", len(got))
		}
	})
}

func TestSettingsRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	type calibration struct {
		HeightScale float64 `json:"height_scale"`
	}

	var got calibration
	if err := repo.Get("calibration", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on missing key = %v, want ErrNotFound", err)
	}

	if err := repo.Put("calibration", calibration{HeightScale: 0.5}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := repo.Put("calibration", calibration{HeightScale: 0.25}); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}
	if err := repo.Get("calibration", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.HeightScale != 0.25 {
		t.Errorf("HeightScale = %v, want 0.25", got.HeightScale)
	}
}
