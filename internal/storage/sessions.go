package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one recorded monitoring session against a controller.
type Session struct {
	SessionID  string
	DeviceName string
	DeviceID   string
	StartedAt  time.Time
	EndedAt    *time.Time
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create starts a new session and returns its ID.
func (r *SessionRepository) Create(deviceName, deviceID string) (string, error) {
	id := uuid.New().String()
	_, err := r.db.Exec(`
		INSERT INTO sessions (session_id, device_name, device_id, started_at)
		VALUES (?, ?, ?, ?)
	`, id, deviceName, deviceID, time.Now().UTC().Format(time.RFC3339))

	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return id, nil
}

// End marks a session as finished.
func (r *SessionRepository) End(sessionID string) error {
	_, err := r.db.Exec(`
		UPDATE sessions SET ended_at = ? WHERE session_id = ?
	`, time.Now().UTC().Format(time.RFC3339), sessionID)

	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// List returns the most recent sessions, newest first.
func (r *SessionRepository) List(limit int) ([]Session, error) {
	rows, err := r.db.Query(`
		SELECT session_id, device_name, device_id, started_at, ended_at
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)

	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, nil
}

// GetLast returns the most recent session, or nil if none exist.
func (r *SessionRepository) GetLast() (*Session, error) {
	sessions, err := r.List(1)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

func scanSession(rows *sql.Rows) (Session, error) {
	var s Session
	var startedAt string
	var endedAt *string

	if err := rows.Scan(&s.SessionID, &s.DeviceName, &s.DeviceID, &startedAt, &endedAt); err != nil {
		return Session{}, fmt.Errorf("failed to scan session: %w", err)
	}

	t, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return Session{}, fmt.Errorf("failed to parse started_at: %w", err)
	}
	s.StartedAt = t

	if endedAt != nil {
		t, err := time.Parse(time.RFC3339, *endedAt)
		if err != nil {
			return Session{}, fmt.Errorf("failed to parse ended_at: %w", err)
		}
		s.EndedAt = &t
	}

	return s, nil
}
