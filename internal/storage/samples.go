package storage

import (
	"fmt"
)

// SampleRow is one persisted accelerometer reading.
type SampleRow struct {
	SampleID  int64
	SessionID string
	TsMs      int64
	X, Y, Z   float64
}

// SampleRepository provides CRUD operations for samples.
type SampleRepository struct {
	db *DB
}

// NewSampleRepository creates a new sample repository.
func NewSampleRepository(db *DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// Create stores one sample and returns its ID.
func (r *SampleRepository) Create(sessionID string, tsMs int64, x, y, z float64) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO samples (session_id, ts_ms, x, y, z)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, tsMs, x, y, z)

	if err != nil {
		return 0, fmt.Errorf("failed to create sample: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get sample ID: %w", err)
	}

	return id, nil
}

// GetBySession retrieves all samples for a session in time order.
func (r *SampleRepository) GetBySession(sessionID string) ([]SampleRow, error) {
	rows, err := r.db.Query(`
		SELECT sample_id, session_id, ts_ms, x, y, z
		FROM samples
		WHERE session_id = ?
		ORDER BY ts_ms
	`, sessionID)

	if err != nil {
		return nil, fmt.Errorf("failed to get samples: %w", err)
	}
	defer rows.Close()

	var samples []SampleRow
	for rows.Next() {
		var s SampleRow
		if err := rows.Scan(&s.SampleID, &s.SessionID, &s.TsMs, &s.X, &s.Y, &s.Z); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}

	return samples, nil
}

// Count returns the number of samples for a session.
func (r *SampleRepository) Count(sessionID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM samples WHERE session_id = ?", sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return count, nil
}
