package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/billfold/internal/model"
)

// Reader is a read-only view of a store database over its own SQLite
// connection. Watchers use it to observe writes made by any other
// connection - including other processes - without going through the
// owning Store.
type Reader struct {
	db *sql.DB
}

// OpenReader opens a read-only connection to the store database at
// path. The database must already exist.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open reader: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect reader: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Reader{db: db}, nil
}

// Close closes the reader's connection.
func (r *Reader) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// DataVersion returns SQLite's per-connection data_version counter. It
// changes whenever the database was modified by a connection other
// than this one, which makes it a cheap poll target for foreign
// writes.
func (r *Reader) DataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := r.db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read data_version: %w", err)
	}
	return v, nil
}

// Revision returns the store's write counter as seen by this
// connection.
func (r *Reader) Revision(ctx context.Context) (int64, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM blobs WHERE key = ?`, keyRevision,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read revision: %w", err)
	}
	rev, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse revision %q: %w", raw, err)
	}
	return rev, nil
}

// Invoices reads and deserializes the current invoice blob. A missing
// blob yields an empty list; a malformed one yields an error the
// caller is expected to log and skip.
func (r *Reader) Invoices(ctx context.Context) ([]model.Invoice, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM blobs WHERE key = ?`, keyInvoices,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read invoices blob: %w", err)
	}
	var invoices []model.Invoice
	if err := json.Unmarshal([]byte(raw), &invoices); err != nil {
		return nil, fmt.Errorf("parse invoices blob: %w", err)
	}
	return invoices, nil
}
