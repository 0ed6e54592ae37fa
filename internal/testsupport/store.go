package testsupport

import (
	"context"
	"testing"

	"catalogsync/internal/config"
	"catalogsync/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// MustUpsertTitle inserts a minimal title and returns its row id.
func MustUpsertTitle(t testing.TB, st store.Gateway, rec store.TitleRecord) int64 {
	t.Helper()

	id, err := st.UpsertTitle(context.Background(), rec)
	if err != nil {
		t.Fatalf("UpsertTitle(%s): %v", rec.IMDbID, err)
	}
	return id
}
