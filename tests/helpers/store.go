// Package helpers provides shared test fixtures.
package helpers

import (
	"testing"

	"github.com/brightline-digital/concierge/internal/store"
)

// NewTestStore creates an in-memory SQLite store that is closed when the
// test finishes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	// One named in-memory database per test; cache=shared keeps every
	// pooled connection pointed at the same database.
	s, err := store.NewSQLiteStore("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}
