package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestBackend(t *testing.T) (*SQLiteBackend, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	b, err := NewSQLiteBackend(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteBackend: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b, dbPath
}

func TestSQLiteRoundTrip(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	if err := b.Set(ctx, "k", []byte(`{"destinations":[]}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := b.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || string(v) != `{"destinations":[]}` {
		t.Errorf("Get = %q, %v", v, ok)
	}
}

func TestSQLiteMiss(t *testing.T) {
	b, _ := newTestBackend(t)
	_, ok, err := b.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("unexpected hit")
	}
}

func TestSQLiteOverwrite(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	if err := b.Set(ctx, "k", []byte("old"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := b.Set(ctx, "k", []byte("new"), time.Hour); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, _ := b.Get(ctx, "k")
	if !ok || string(v) != "new" {
		t.Errorf("Get after overwrite = %q, %v", v, ok)
	}

	var count int
	if err := b.db.QueryRow(`SELECT COUNT(*) FROM cache_entries WHERE key = 'k'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1 (upsert, not append)", count)
	}
}

func TestSQLiteExpiry(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	if err := b.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Push the expiry into the past instead of sleeping.
	if _, err := b.db.Exec(`UPDATE cache_entries SET expires_at = ? WHERE key = 'k'`, time.Now().Unix()-10); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := b.Get(ctx, "k"); err != nil || ok {
		t.Errorf("Get expired = ok %v, err %v; want miss", ok, err)
	}

	var count int
	if err := b.db.QueryRow(`SELECT COUNT(*) FROM cache_entries WHERE key = 'k'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Error("expired row was not deleted on read")
	}
}

func TestSQLiteNoExpiry(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	if err := b.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := b.Get(ctx, "k"); !ok {
		t.Error("entry with no expiry should not vanish")
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	b, err := NewSQLiteBackend(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteBackend: %v", err)
	}
	if err := b.Set(ctx, "k", []byte("persistent"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b2, err := NewSQLiteBackend(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b2.Close()

	v, ok, err := b2.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !ok || string(v) != "persistent" {
		t.Errorf("Get after reopen = %q, %v", v, ok)
	}
}

func TestSQLiteClear(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	b.Set(ctx, "a", []byte("1"), 0)
	b.Set(ctx, "b", []byte("2"), 0)
	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := b.Get(ctx, "a"); ok {
		t.Error("entry survived Clear")
	}
}

func TestSQLiteStats(t *testing.T) {
	b, dbPath := newTestBackend(t)
	ctx := context.Background()

	b.Set(ctx, "a", []byte("1"), time.Hour)
	b.Set(ctx, "b", []byte("2"), time.Hour)
	if _, err := b.db.Exec(`UPDATE cache_entries SET expires_at = ? WHERE key = 'b'`, time.Now().Unix()-10); err != nil {
		t.Fatal(err)
	}

	st, err := b.Stats(ctx, dbPath)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Entries != 2 {
		t.Errorf("Entries = %d, want 2", st.Entries)
	}
	if st.Expired != 1 {
		t.Errorf("Expired = %d, want 1", st.Expired)
	}
	if st.Bytes == 0 {
		t.Error("Bytes should be non-zero for a populated db")
	}
}
