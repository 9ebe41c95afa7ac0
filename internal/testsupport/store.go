package testsupport

import (
	"context"
	"testing"

	"lettervoice/internal/recordings"
)

// MustOpenRecordings opens an in-memory recordings.Store for tests and
// registers cleanup.
func MustOpenRecordings(t testing.TB) *recordings.Store {
	t.Helper()

	store, err := recordings.Open(context.Background())
	if err != nil {
		t.Fatalf("recordings.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
