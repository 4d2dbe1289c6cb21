package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Status is the lifecycle state of a stored session.
type Status string

const (
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
)

// Session is one game from start to summary.
type Session struct {
	ID        string     `json:"id"`
	Status    Status     `json:"status"`
	Caught    int        `json:"caught"`
	Missed    int        `json:"missed"`
	Ratio     float64    `json:"ratio"`
	Verdict   string     `json:"verdict"`
	Summary   string     `json:"summary"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Result is the outcome written when a session finishes.
type Result struct {
	Caught  int
	Missed  int
	Ratio   float64
	Verdict string
	Summary string
}

// Stats aggregates the finished sessions.
type Stats struct {
	Sessions  int     `json:"sessions"`
	Caught    int     `json:"caught"`
	Missed    int     `json:"missed"`
	BestRatio float64 `json:"best_ratio"`
}

// SessionRepository reads and writes sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, status, caught, missed, ratio, verdict, summary, started_at, ended_at`

// Start inserts a running session. An empty ID is filled with a new UUID.
func (r *SessionRepository) Start(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	sess.Status = StatusRunning

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, status, started_at) VALUES (?, ?, ?)`,
		sess.ID, string(sess.Status), sess.StartedAt,
	)
	return err
}

// Finish records the result of a running session.
func (r *SessionRepository) Finish(id string, result Result) error {
	res, err := r.db.Exec(
		`UPDATE sessions SET status = ?, caught = ?, missed = ?, ratio = ?, verdict = ?, summary = ?, ended_at = ?
		 WHERE id = ?`,
		string(StatusFinished), result.Caught, result.Missed, result.Ratio, result.Verdict, result.Summary, time.Now(), id,
	)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// GetByID returns one session.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

// List returns the most recent sessions first. A limit of zero or less
// returns every session.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

// Delete removes a session and its events.
func (r *SessionRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// Stats sums up the finished sessions.
func (r *SessionRepository) Stats() (Stats, error) {
	var st Stats
	err := r.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(caught), 0), COALESCE(SUM(missed), 0), COALESCE(MAX(ratio), 0)
		 FROM sessions WHERE status = ?`,
		string(StatusFinished),
	).Scan(&st.Sessions, &st.Caught, &st.Missed, &st.BestRatio)
	return st, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var status string
	var ended sql.NullTime

	err := row.Scan(&sess.ID, &status, &sess.Caught, &sess.Missed, &sess.Ratio,
		&sess.Verdict, &sess.Summary, &sess.StartedAt, &ended)
	if err != nil {
		return nil, err
	}

	sess.Status = Status(status)
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
