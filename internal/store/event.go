package store

import (
	"database/sql"
	"time"
)

// EventKind is a scored ball outcome.
type EventKind string

const (
	EventCatch EventKind = "catch"
	EventMiss  EventKind = "miss"
)

// Event is one catch or miss within a session. Marker is the joint slot
// that caught the ball, or -1.
type Event struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Seq       int       `json:"seq"`
	Kind      EventKind `json:"kind"`
	Marker    int       `json:"marker"`
	At        time.Time `json:"at"`
}

// EventRepository appends and reads session events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record appends an event to the session and assigns its sequence number.
func (r *EventRepository) Record(e *Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM session_events WHERE session_id = ?`,
		e.SessionID,
	).Scan(&e.Seq); err != nil {
		return err
	}

	res, err := tx.Exec(
		`INSERT INTO session_events (session_id, seq, kind, marker, at) VALUES (?, ?, ?, ?, ?)`,
		e.SessionID, e.Seq, string(e.Kind), e.Marker, e.At,
	)
	if err != nil {
		return err
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	return tx.Commit()
}

// ListBySession returns a session's events in order.
func (r *EventRepository) ListBySession(sessionID string) ([]Event, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, seq, kind, marker, at
		 FROM session_events
		 WHERE session_id = ?
		 ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var kind string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Seq, &kind, &e.Marker, &e.At); err != nil {
			return nil, err
		}
		e.Kind = EventKind(kind)
		events = append(events, e)
	}

	return events, rows.Err()
}
