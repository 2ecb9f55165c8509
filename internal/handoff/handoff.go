// Package handoff implements the one-time local-to-cloud migration.
//
// When a user signs in while local invoices exist, they are offered a
// bulk upload of everything on the device; afterwards (or on an
// explicit skip) the local store is cleared so the cloud copy is the
// only one. The flow is all-or-nothing: a failed upload leaves local
// data exactly as it was, and the offer stays open for a retry.
package handoff

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/billfold/internal/localstore"
	"github.com/roach88/billfold/internal/model"
	"github.com/roach88/billfold/internal/remote"
)

// Uploader is the slice of the backend contract the flow needs.
// Implemented by *remote.Client and *testutil.FakeBackend.
type Uploader interface {
	BatchCreateInvoices(ctx context.Context, payloads []remote.InvoicePayload) (int, error)
}

// AuthState reports whether remote credentials are present.
type AuthState interface {
	Authenticated() bool
}

// Placeholder values for required fields the bulk call cannot accept
// empty.
const (
	placeholderSender = "Unknown"
	placeholderItem   = "Imported item"
)

// Flow is the migration flow.
type Flow struct {
	local   *localstore.Store
	backend Uploader
	auth    AuthState
	now     func() time.Time
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock overrides the wall clock used to default empty issue
// dates.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// New creates a migration flow.
func New(local *localstore.Store, backend Uploader, auth AuthState, opts ...Option) *Flow {
	f := &Flow{local: local, backend: backend, auth: auth, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Eligible reports whether the migration offer applies right now:
// signed in, with local invoices present. Re-evaluated on every call,
// so the offer disappears as soon as the local list is empty and comes
// back only if new local invoices exist again.
func (f *Flow) Eligible(ctx context.Context) (bool, error) {
	if !f.auth.Authenticated() {
		return false, nil
	}
	list, err := f.local.ListInvoices(ctx)
	if err != nil {
		return false, err
	}
	return len(list) > 0, nil
}

// Run uploads every local invoice in one bulk call, then clears local
// state. On upload failure nothing local is touched and the error is
// returned for the caller to surface; the offer stays open.
func (f *Flow) Run(ctx context.Context) (int, error) {
	invoices, err := f.local.ListInvoices(ctx)
	if err != nil {
		return 0, err
	}
	if len(invoices) == 0 {
		return 0, nil
	}

	today := f.now().Format("2006-01-02")
	numbers := make([]string, len(invoices))
	for i, inv := range invoices {
		numbers[i] = inv.Number
	}

	payloads := make([]remote.InvoicePayload, len(invoices))
	for i, inv := range invoices {
		fallback := ""
		if inv.Number == "" {
			// Assign the next free number so the batch stays unique.
			fallback = model.NextNumber(numbers)
			numbers = append(numbers, fallback)
		}
		payloads[i] = PreparePayload(inv, fallback, today)
	}

	count, err := f.backend.BatchCreateInvoices(ctx, payloads)
	if err != nil {
		return 0, fmt.Errorf("bulk upload: %w", err)
	}

	if err := f.local.ClearAll(ctx); err != nil {
		return count, fmt.Errorf("clear local data after upload: %w", err)
	}
	return count, nil
}

// Skip clears all local invoices and drafts without uploading. This is
// a deliberate, irreversible data-loss path: callers must only invoke
// it on explicit user confirmation and must tell the user the data is
// gone.
func (f *Flow) Skip(ctx context.Context) error {
	return f.local.ClearAll(ctx)
}

// PreparePayload transforms one local invoice into the backend's write
// shape. The local id and creation timestamp are dropped - the backend
// assigns its own - and every field the backend requires is defaulted
// so the bulk call cannot fail on missing data: fallbackNumber for an
// empty number, today for an empty issue date, placeholder sender
// fields, the default currency, and a single placeholder line item for
// an empty list. Pure: same inputs, same payload.
func PreparePayload(inv model.Invoice, fallbackNumber, today string) remote.InvoicePayload {
	form := inv.Form()

	if form.Number == "" {
		form.Number = fallbackNumber
	}
	if form.IssueDate == "" {
		form.IssueDate = today
	}
	if form.FromName == "" {
		form.FromName = placeholderSender
	}
	if form.FromAddress == "" {
		form.FromAddress = placeholderSender
	}
	if form.FromEmail == "" {
		form.FromEmail = placeholderSender
	}
	if form.Currency == "" {
		form.Currency = model.DefaultCurrency
	}
	if len(form.Items) == 0 {
		form.Items = []model.LineItem{{
			ID:          "item-1",
			Description: placeholderItem,
			Quantity:    1,
			UnitPrice:   0,
		}}
	}
	return remote.SplitForm(form)
}
