package localstore

import (
	"database/sql"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/billfold/internal/testutil"
)

// openTestStore opens a store on a temp file with a frozen clock,
// scripted ids, and a seeded random source.
func openTestStore(t *testing.T, ids ...string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "billfold.db")
	opts := []Option{
		WithClock(testutil.NewClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)).Now),
		WithRand(rand.New(rand.NewSource(1))),
	}
	if len(ids) > 0 {
		opts = append(opts, WithIDs(testutil.NewFixedIDs(ids...)))
	}
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

// writeRawBlob writes directly into the blobs table, bypassing the
// store, to simulate corruption or a foreign writer.
func writeRawBlob(t *testing.T, path, key, value string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO blobs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value); err != nil {
		t.Fatalf("write raw blob: %v", err)
	}
	if _, err := db.Exec(`
		UPDATE blobs SET value = CAST(CAST(value AS INTEGER) + 1 AS TEXT)
		WHERE key = 'revision'
	`); err != nil {
		t.Fatalf("bump raw revision: %v", err)
	}
}
