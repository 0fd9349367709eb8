package storage

import (
	"fmt"
)

// Event is one lifecycle or command event recorded during a session
// (status changes, issued commands).
type Event struct {
	EventID   int64
	SessionID string
	TsMs      int64
	EventType string
	Detail    string
}

// EventRepository provides CRUD operations for events.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create records one event and returns its ID.
func (r *EventRepository) Create(sessionID string, tsMs int64, eventType, detail string) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO events (session_id, ts_ms, event_type, detail)
		VALUES (?, ?, ?, ?)
	`, sessionID, tsMs, eventType, detail)

	if err != nil {
		return 0, fmt.Errorf("failed to create event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get event ID: %w", err)
	}

	return id, nil
}

// GetBySession retrieves all events for a session in time order.
func (r *EventRepository) GetBySession(sessionID string) ([]Event, error) {
	rows, err := r.db.Query(`
		SELECT event_id, session_id, ts_ms, event_type, detail
		FROM events
		WHERE session_id = ?
		ORDER BY ts_ms
	`, sessionID)

	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.EventID, &e.SessionID, &e.TsMs, &e.EventType, &e.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, nil
}
