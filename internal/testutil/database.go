package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/inventory-mapper/internal/storage"
)

// SetupJournal opens a migrated journal in a temp directory and closes it
// when the test ends.
func SetupJournal(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	journal, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() {
		if err := journal.Close(); err != nil {
			t.Errorf("failed to close journal: %v", err)
		}
	})
	return journal
}
