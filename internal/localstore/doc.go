// Package localstore implements the on-device invoice store.
//
// The store owns the serialized representation of invoices and drafts:
// a SQLite database holding whole-namespace JSON blobs that are
// re-written on every mutation. Reads are served from an in-memory copy
// loaded once at Open; the Hydrated flag tells consumers when that copy
// is authoritative.
//
// ARCHITECTURE:
//
// Single writer per process:
// All mutations go through one *Store guarded by a mutex with a
// single-connection pool underneath (SQLite supports one writer at a
// time anyway). Other processes writing the same file are never
// synchronized with - their writes are observed asynchronously through
// the watch package.
//
// Container versioning:
// PRAGMA user_version carries the version of the whole persisted blob,
// distinct from the per-invoice version field. A pure migration
// function (see container.go) upgrades the loaded data before the
// store reports itself hydrated, so no consumer ever observes
// pre-migration records.
//
// Corruption policy:
// An unparsable blob is treated as absence of data: a warning is
// logged and the namespace starts empty. Opening never fails on bad
// data, only on bad I/O.
package localstore
