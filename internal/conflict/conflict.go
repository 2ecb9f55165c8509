// Package conflict turns raw external-change events into an explicit
// user decision.
//
// A change observed by the watch bus may collide with a record the
// user is holding locally. The detector captures both sides as a
// pending conflict, flips the sync tracker to Conflict, and raises a
// prompt; nothing is ever resolved automatically. The resolution
// choices mirror exactly what the user can decide: keep the local
// copy, keep the cloud copy, or keep both.
//
// Pairing a local record with its cloud counterpart is an unresolved
// design gap: the bus only reports local-storage changes, so the cloud
// candidate is nil unless a CloudLocator is installed. The default
// locator is deliberately absent rather than guessing a matching key.
package conflict

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/billfold/internal/localstore"
	"github.com/roach88/billfold/internal/model"
	"github.com/roach88/billfold/internal/syncstatus"
	"github.com/roach88/billfold/internal/watch"
)

// Resolution is the user's choice for a pending conflict.
type Resolution int

const (
	// KeepLocal discards the competing cloud copy.
	KeepLocal Resolution = iota
	// KeepCloud discards the local copy.
	KeepCloud
	// Merge keeps both sides. Field-level merging is deliberately not
	// implemented; the choice only closes the prompt.
	Merge
)

// String implements fmt.Stringer.
func (r Resolution) String() string {
	switch r {
	case KeepLocal:
		return "local"
	case KeepCloud:
		return "cloud"
	case Merge:
		return "merge"
	default:
		return "unknown"
	}
}

// Pending is an unresolved conflict: the local record that collided
// with an external change, and the cloud counterpart when one could be
// located.
type Pending struct {
	Local      model.Invoice
	Cloud      *model.Invoice
	DetectedAt time.Time
}

// Deleter issues the corrective delete of the losing side. Implemented
// by *facade.Facade, so the delete follows the facade's routing.
type Deleter interface {
	DeleteInvoice(ctx context.Context, id string) error
}

// CloudLocator finds the cloud counterpart of a local record. nil
// result means no counterpart was found; the default detector has no
// locator at all.
type CloudLocator func(ctx context.Context, local model.Invoice) (*model.Invoice, error)

// Detector listens for external changes and drives the resolution
// flow. At most one conflict is pending at a time; further events are
// ignored until the current one is resolved or cancelled.
type Detector struct {
	local   *localstore.Store
	deleter Deleter
	status  *syncstatus.Tracker
	locate  CloudLocator
	prompt  func(Pending)

	mu      sync.Mutex
	pending *Pending
}

// Option configures a Detector.
type Option func(*Detector)

// WithCloudLocator installs a cloud-counterpart lookup.
func WithCloudLocator(locate CloudLocator) Option {
	return func(d *Detector) { d.locate = locate }
}

// WithPrompt installs the callback raised when a conflict is detected.
func WithPrompt(prompt func(Pending)) Option {
	return func(d *Detector) { d.prompt = prompt }
}

// New creates a detector. Attach it to a bus to start receiving
// events.
func New(local *localstore.Store, deleter Deleter, status *syncstatus.Tracker, opts ...Option) *Detector {
	d := &Detector{local: local, deleter: deleter, status: status}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Attach subscribes the detector to the bus. The returned cancel func
// detaches it.
func (d *Detector) Attach(bus *watch.Bus) (cancel func()) {
	return bus.Subscribe(func(ev watch.Event) {
		d.HandleEvent(context.Background(), ev)
	})
}

// HandleEvent inspects one bus event. Only events naming a record that
// exists in the local store open a conflict; everything else is
// ignored.
func (d *Detector) HandleEvent(ctx context.Context, ev watch.Event) {
	if ev.InvoiceID == "" {
		return
	}

	d.mu.Lock()
	busy := d.pending != nil
	d.mu.Unlock()
	if busy {
		return
	}

	local, ok, err := d.local.GetInvoice(ctx, ev.InvoiceID)
	if err != nil || !ok {
		return
	}

	p := Pending{Local: local, DetectedAt: ev.At}
	if d.locate != nil {
		// Locator failures degrade to a conflict without a cloud side;
		// the user can still decide about the local record.
		if cloud, err := d.locate(ctx, local); err == nil {
			p.Cloud = cloud
		}
	}

	d.mu.Lock()
	d.pending = &p
	d.mu.Unlock()

	d.status.MarkConflict()
	if d.prompt != nil {
		d.prompt(p)
	}
}

// Pending returns a copy of the current unresolved conflict, if any.
func (d *Detector) Pending() (Pending, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return Pending{}, false
	}
	return *d.pending, true
}

// Resolve applies the user's choice. On a delete failure the error is
// returned and the conflict stays pending, so the prompt can be shown
// again or dismissed explicitly.
func (d *Detector) Resolve(ctx context.Context, choice Resolution) error {
	d.mu.Lock()
	p := d.pending
	d.mu.Unlock()
	if p == nil {
		return nil
	}

	switch choice {
	case KeepLocal:
		if p.Cloud != nil {
			if err := d.deleter.DeleteInvoice(ctx, p.Cloud.ID); err != nil {
				return err
			}
		}
	case KeepCloud:
		if err := d.deleter.DeleteInvoice(ctx, p.Local.ID); err != nil {
			return err
		}
	case Merge:
		// Keep both sides untouched.
	}

	d.mu.Lock()
	d.pending = nil
	d.mu.Unlock()

	// The divergence is settled; restore the steady state.
	d.status.StartSync()
	d.status.CompleteSync()
	return nil
}

// Cancel dismisses the prompt without touching either record. The
// tracker stays at Conflict - the divergence is still real, only the
// decision was postponed.
func (d *Detector) Cancel() {
	d.mu.Lock()
	d.pending = nil
	d.mu.Unlock()
}
