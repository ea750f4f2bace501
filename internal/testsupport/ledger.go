package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"inlay/internal/ledger"
)

// MustOpenLedger opens a ledger in a temp directory and registers cleanup.
func MustOpenLedger(t testing.TB) *ledger.Store {
	t.Helper()
	return MustOpenLedgerAt(t, filepath.Join(t.TempDir(), "ledger.db"))
}

// MustOpenLedgerAt opens the ledger at path and registers cleanup.
func MustOpenLedgerAt(t testing.TB, path string) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
