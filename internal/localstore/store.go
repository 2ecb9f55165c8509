package localstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/billfold/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Blob keys inside the blobs table. Stable for the lifetime of the
// application - changing one orphans existing user data.
const (
	keyInvoices = "invoices"
	keyDrafts   = "drafts"
	keyRevision = "revision"
)

// IDGenerator produces invoice identifiers.
// Implemented by UUIDGenerator (production) and testutil.FixedIDs (tests).
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates time-sortable UUIDv7 invoice identifiers.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDGenerator struct{}

// NewID creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDGenerator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Store is the on-device invoice and draft store.
//
// Thread-safety model:
//   - all exported methods are safe from any goroutine (internal mutex)
//   - exactly one Store should exist per database file per process
type Store struct {
	db   *sql.DB
	path string

	now    func() time.Time
	ids    IDGenerator
	rng    *rand.Rand
	logger *slog.Logger

	mu       sync.Mutex
	invoices []model.Invoice
	drafts   map[string]model.InvoiceForm
	hydrated bool

	// Revisions this process wrote, so a same-process watcher can tell
	// foreign writes from its own. Bounded ring, newest last.
	ownRevs []int64
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithClock overrides the wall clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides the invoice identifier generator.
func WithIDs(gen IDGenerator) Option {
	return func(s *Store) { s.ids = gen }
}

// WithRand overrides the random source used for synthesized invoice
// names. Seed it for deterministic output in tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rng = r }
}

// WithLogger overrides the logger used for corruption warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open creates or opens the store database at the given path, applies
// pragmas and the schema, runs the container migration, and hydrates
// the in-memory copy.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - single-connection pool (SQLite allows one writer at a time)
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{
		db:     db,
		path:   path,
		now:    time.Now,
		ids:    UUIDGenerator{},
		logger: slog.Default(),
		drafts: make(map[string]model.InvoiceForm),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(s.now().UnixNano()))
	}

	if err := s.hydrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path, for read-only watchers that
// open their own connection.
func (s *Store) Path() string {
	return s.path
}

// Hydrated reports whether the store finished loading from durable
// storage since process start. Reads before hydration return empty
// data and must not be treated as authoritative.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Revision returns the current write counter. Every mutation, by this
// process or another one, increments it by exactly one.
func (s *Store) Revision(ctx context.Context) (int64, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM blobs WHERE key = ?`, keyRevision,
	).Scan(&raw)
	if err != nil {
		return 0, fmt.Errorf("read revision: %w", err)
	}
	rev, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse revision %q: %w", raw, err)
	}
	return rev, nil
}

// OwnsRevision reports whether this store produced the write with the
// given revision number. Watchers use it to skip self-originated
// changes and only surface writes from other processes.
func (s *Store) OwnsRevision(rev int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.ownRevs {
		if r == rev {
			return true
		}
	}
	return false
}

// hydrate loads both namespaces from the database, runs the container
// migration, and persists the upgraded data back when the version
// moved. Malformed blobs are logged and treated as empty.
func (s *Store) hydrate() error {
	version, err := s.userVersion()
	if err != nil {
		return err
	}

	c := Container{Drafts: make(map[string]model.InvoiceForm)}

	if raw, ok, err := s.readBlob(keyInvoices); err != nil {
		return err
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &c.Invoices); err != nil {
			s.logger.Warn("discarding corrupted invoice data",
				"path", s.path, "error", err)
			c.Invoices = nil
		}
	}
	if raw, ok, err := s.readBlob(keyDrafts); err != nil {
		return err
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &c.Drafts); err != nil {
			s.logger.Warn("discarding corrupted draft data",
				"path", s.path, "error", err)
			c.Drafts = make(map[string]model.InvoiceForm)
		}
	}

	migrated := MigrateContainer(c, version)
	if migrated.Drafts == nil {
		migrated.Drafts = make(map[string]model.InvoiceForm)
	}

	s.mu.Lock()
	s.invoices = migrated.Invoices
	s.drafts = migrated.Drafts
	s.mu.Unlock()

	if version < CurrentContainerVersion {
		if err := s.persist(context.Background()); err != nil {
			return fmt.Errorf("persist migrated container: %w", err)
		}
		if _, err := s.db.Exec(
			fmt.Sprintf("PRAGMA user_version = %d", CurrentContainerVersion),
		); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	s.mu.Lock()
	s.hydrated = true
	s.mu.Unlock()
	return nil
}

func (s *Store) userVersion() (int, error) {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

func (s *Store) readBlob(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM blobs WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read blob %q: %w", key, err)
	}
	return value, true, nil
}

// persist re-serializes both namespaces and writes them with a single
// revision bump. Callers must NOT hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	invoicesJSON, err := json.Marshal(s.invoices)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("marshal invoices: %w", err)
	}
	draftsJSON, err := json.Marshal(s.drafts)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("marshal drafts: %w", err)
	}
	s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persist: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for key, value := range map[string]string{
		keyInvoices: string(invoicesJSON),
		keyDrafts:   string(draftsJSON),
	} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO blobs (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value); err != nil {
			return fmt.Errorf("persist %q: %w", key, err)
		}
	}

	var rev int64
	if err := tx.QueryRowContext(ctx, `
		UPDATE blobs SET value = CAST(CAST(value AS INTEGER) + 1 AS TEXT)
		WHERE key = ?
		RETURNING CAST(value AS INTEGER)
	`, keyRevision).Scan(&rev); err != nil {
		return fmt.Errorf("persist: bump revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("persist: commit: %w", err)
	}

	s.mu.Lock()
	s.ownRevs = append(s.ownRevs, rev)
	if len(s.ownRevs) > 64 {
		s.ownRevs = s.ownRevs[len(s.ownRevs)-64:]
	}
	s.mu.Unlock()
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
