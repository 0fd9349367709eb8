package storage

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewSessionRepository(db)

	id, err := repo.Create("FocusDrive-01A3", "AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatal("Create returned empty session ID")
	}

	last, err := repo.GetLast()
	if err != nil {
		t.Fatalf("GetLast: %v", err)
	}
	if last == nil || last.SessionID != id {
		t.Fatalf("GetLast = %+v, want session %s", last, id)
	}
	if last.EndedAt != nil {
		t.Error("new session should not have an end time")
	}

	if err := repo.End(id); err != nil {
		t.Fatalf("End: %v", err)
	}
	last, err = repo.GetLast()
	if err != nil {
		t.Fatalf("GetLast after End: %v", err)
	}
	if last.EndedAt == nil {
		t.Error("ended session should have an end time")
	}
}

func TestSampleRoundTrip(t *testing.T) {
	db := openTestDB(t)
	sessions := NewSessionRepository(db)
	samples := NewSampleRepository(db)

	id, err := sessions.Create("FocusDrive-01A3", "AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("Create session: %v", err)
	}

	for i, v := range []float64{0.1, 0.2, 0.3} {
		if _, err := samples.Create(id, int64(i*100), v, -v, v*2); err != nil {
			t.Fatalf("Create sample %d: %v", i, err)
		}
	}

	got, err := samples.GetBySession(id)
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d samples, want 3", len(got))
	}
	if got[0].TsMs != 0 || got[2].TsMs != 200 {
		t.Errorf("samples out of time order: %+v", got)
	}
	if got[1].Y != -0.2 {
		t.Errorf("sample[1].Y = %v, want -0.2", got[1].Y)
	}

	n, err := samples.Count(id)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestEventsRecorded(t *testing.T) {
	db := openTestDB(t)
	sessions := NewSessionRepository(db)
	events := NewEventRepository(db)

	id, err := sessions.Create("FocusDrive-01A3", "AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("Create session: %v", err)
	}

	if _, err := events.Create(id, 10, "status", "Ready"); err != nil {
		t.Fatalf("Create event: %v", err)
	}
	if _, err := events.Create(id, 20, "command", "MOVE +36"); err != nil {
		t.Fatalf("Create event: %v", err)
	}

	got, err := events.GetBySession(id)
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].EventType != "status" || got[1].Detail != "MOVE +36" {
		t.Errorf("unexpected events: %+v", got)
	}
}
