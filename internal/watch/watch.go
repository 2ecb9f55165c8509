// Package watch surfaces invoice changes that originate outside the
// current process.
//
// The bus polls a read-only connection to the store database. SQLite's
// per-connection data_version pragma changes whenever another
// connection modified the file, which makes it a cheap signal for
// foreign writes - the Go analog of a cross-tab storage event. On a
// signal the bus reloads the invoice blob, diffs it against its last
// snapshot, and delivers one event per changed record to every
// subscriber.
//
// Only changes occurring while a subscription is active are delivered;
// nothing is buffered for late subscribers. Writes made by this
// process's own store are filtered out when the bus is given the store
// as its local origin.
package watch

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/roach88/billfold/internal/localstore"
	"github.com/roach88/billfold/internal/model"
)

// Origin tags where a change event came from.
type Origin int

const (
	// OriginStorage is a write to the on-device store by another
	// process. The only origin currently produced.
	OriginStorage Origin = iota
	// OriginNetwork is reserved for reachability-driven events.
	OriginNetwork
	// OriginRemote is reserved for backend push notifications.
	OriginRemote
)

// String implements fmt.Stringer.
func (o Origin) String() string {
	switch o {
	case OriginStorage:
		return "storage"
	case OriginNetwork:
		return "network"
	case OriginRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Event describes one observed change. InvoiceID is empty when the
// changed record could not be determined from the new data (e.g. a
// deletion).
type Event struct {
	Origin    Origin
	InvoiceID string
	At        time.Time
}

// LocalOrigin lets the bus recognize writes made by this process.
// Implemented by *localstore.Store.
type LocalOrigin interface {
	OwnsRevision(rev int64) bool
}

// DefaultInterval is the poll cadence of Run.
const DefaultInterval = 500 * time.Millisecond

// Bus watches the store database and fans change events out to
// subscribers.
type Bus struct {
	reader   *localstore.Reader
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	local    LocalOrigin

	mu       sync.Mutex
	subs     map[int]func(Event)
	nextID   int
	primed   bool
	lastDV   int64
	snapshot map[string]model.Invoice
}

// Option configures a Bus.
type Option func(*Bus)

// WithInterval overrides the poll cadence.
func WithInterval(d time.Duration) Option {
	return func(b *Bus) { b.interval = d }
}

// WithClock overrides the wall clock stamped on events.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) { b.now = now }
}

// WithLogger overrides the logger for skip warnings.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// WithLocalOrigin teaches the bus which revisions this process wrote,
// so its own saves do not come back as foreign changes.
func WithLocalOrigin(local LocalOrigin) Option {
	return func(b *Bus) { b.local = local }
}

// New creates a bus over the given reader. Call Run to start polling,
// or Poll directly for a single deterministic check.
func New(reader *localstore.Reader, opts ...Option) *Bus {
	b := &Bus{
		reader:   reader,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   slog.Default(),
		subs:     make(map[int]func(Event)),
		snapshot: make(map[string]model.Invoice),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a callback for every future event. The returned
// cancel func unregisters it without affecting other subscribers.
func (b *Bus) Subscribe(fn func(Event)) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Run polls until the context is cancelled. The first poll primes the
// snapshot without emitting, so only changes after start are observed.
func (b *Bus) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.Poll(ctx)
		}
	}
}

// Poll performs one check-and-diff cycle. Exported so tests (and the
// CLI's foreground watcher) can drive the bus without timing races.
func (b *Bus) Poll(ctx context.Context) {
	dv, err := b.reader.DataVersion(ctx)
	if err != nil {
		b.logger.Warn("watch: data_version check failed", "error", err)
		return
	}

	b.mu.Lock()
	primed := b.primed
	changed := dv != b.lastDV
	b.lastDV = dv
	b.mu.Unlock()

	if primed && !changed {
		return
	}

	invoices, err := b.reader.Invoices(ctx)
	if err != nil {
		// Malformed or mid-write data: skip this cycle, keep the old
		// snapshot so the change is re-examined next poll.
		b.logger.Warn("watch: skipping unreadable invoice data", "error", err)
		return
	}

	current := make(map[string]model.Invoice, len(invoices))
	for _, inv := range invoices {
		current[inv.ID] = inv
	}

	b.mu.Lock()
	prev := b.snapshot
	b.snapshot = current
	wasPrimed := b.primed
	b.primed = true
	b.mu.Unlock()

	if !wasPrimed {
		return
	}

	if b.local != nil {
		if rev, err := b.reader.Revision(ctx); err == nil && b.local.OwnsRevision(rev) {
			return
		}
	}

	b.emitDiff(prev, current, invoices)
}

// emitDiff compares snapshots and delivers one event per changed
// record: additions and modifications carry the record's id, removals
// carry an empty id.
func (b *Bus) emitDiff(prev, current map[string]model.Invoice, order []model.Invoice) {
	at := b.now()

	removed := false
	for id := range prev {
		if _, ok := current[id]; !ok {
			removed = true
			break
		}
	}

	events := make([]Event, 0, 1)
	for _, inv := range order {
		old, existed := prev[inv.ID]
		if !existed || !invoiceEqual(old, inv) {
			events = append(events, Event{
				Origin:    OriginStorage,
				InvoiceID: inv.ID,
				At:        at,
			})
		}
	}
	if removed {
		events = append(events, Event{Origin: OriginStorage, At: at})
	}

	if len(events) == 0 {
		return
	}

	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}

// invoiceEqual compares records field by field via their form plus the
// bookkeeping fields the form drops.
func invoiceEqual(a, b model.Invoice) bool {
	if a.ID != b.ID || a.Version != b.Version || !a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	af, bf := a.Form(), b.Form()
	if len(af.Items) != len(bf.Items) {
		return false
	}
	for i := range af.Items {
		if af.Items[i] != bf.Items[i] {
			return false
		}
	}
	af.Items, bf.Items = nil, nil
	return reflect.DeepEqual(af, bf)
}
