package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRace creates a race record with minimal required fields.
func createTestRace(id string) Race {
	return Race{
		ID:               id,
		PresentationHash: "test-hash",
		PresentationName: "klein",
		Mode:             "parallel",
		EngineVersion:    "0.1.0",
	}
}
