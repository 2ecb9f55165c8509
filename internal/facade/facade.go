// Package facade presents one invoice CRUD interface regardless of
// where the data lives.
//
// Every operation independently decides between the on-device store
// and the cloud backend based on the current authentication state -
// there is no session-scoped mode. The decision lives in exactly one
// function (route) so it cannot accidentally be cached; a mid-session
// sign-in or sign-out redirects the very next call. The accepted
// consequence is that concurrent calls during an authentication
// transition may split between targets.
//
// The facade owns no record state of its own beyond a cache of the
// last fetched remote list. It never swallows or retries backend
// errors - they propagate to the caller unmodified, after the sync
// tracker's busy signal has been released.
package facade

import (
	"context"
	"sync"

	"github.com/roach88/billfold/internal/localstore"
	"github.com/roach88/billfold/internal/model"
	"github.com/roach88/billfold/internal/remote"
	"github.com/roach88/billfold/internal/syncstatus"
)

// Backend is the consumed cloud contract. *remote.Client implements
// it; tests substitute a recording fake.
type Backend interface {
	ListInvoices(ctx context.Context, teamID string) ([]model.Invoice, error)
	CreateInvoice(ctx context.Context, payload remote.InvoicePayload, teamID string) (string, error)
	UpdateInvoice(ctx context.Context, id string, payload remote.InvoicePayload) error
	DeleteInvoice(ctx context.Context, id string) error
	BatchCreateInvoices(ctx context.Context, payloads []remote.InvoicePayload) (int, error)
	NextInvoiceNumber(ctx context.Context, teamID string) (string, error)
}

// AuthState answers, at call time, who the caller is. Implemented by
// config.Config in production.
type AuthState interface {
	// Authenticated reports whether remote credentials are present.
	Authenticated() bool
	// TeamID is the active team scope, empty for personal scope.
	TeamID() string
	// DryRun forces local routing even when authenticated, used by
	// test/dry-run execution contexts.
	DryRun() bool
}

// Facade routes invoice operations to the local store or the backend.
type Facade struct {
	local   *localstore.Store
	backend Backend
	auth    AuthState
	status  *syncstatus.Tracker

	mu            sync.Mutex
	remoteList    []model.Invoice
	remoteFetched bool
}

// New wires a facade. All collaborators are required.
func New(local *localstore.Store, backend Backend, auth AuthState, status *syncstatus.Tracker) *Facade {
	return &Facade{local: local, backend: backend, auth: auth, status: status}
}

// route is the single routing seam: stateless, re-evaluated on every
// operation. Authenticated and not in a dry-run context means remote;
// everything else means the local store.
func (f *Facade) route() bool {
	return f.auth.Authenticated() && !f.auth.DryRun()
}

// SaveInvoice creates (empty id) or overwrites (existing id) an
// invoice in the active scope. The remote path splits the uniform
// shape into core fields plus the nested client snapshot, and threads
// the team scope on create. The local path delegates verbatim to the
// store.
func (f *Facade) SaveInvoice(ctx context.Context, form model.InvoiceForm, id string) (model.Invoice, error) {
	f.status.StartSync()
	defer f.status.CompleteSync()

	if !f.route() {
		return f.local.SaveInvoice(ctx, form, id)
	}

	payload := remote.SplitForm(form)
	if id == "" {
		assigned, err := f.backend.CreateInvoice(ctx, payload, f.auth.TeamID())
		if err != nil {
			return model.Invoice{}, err
		}
		id = assigned
	} else {
		if err := f.backend.UpdateInvoice(ctx, id, payload); err != nil {
			return model.Invoice{}, err
		}
	}

	inv := model.Invoice{ID: id, Version: model.CurrentInvoiceVersion}
	applyForm(&inv, form)
	return inv, nil
}

// DeleteInvoice removes the invoice from the active scope.
func (f *Facade) DeleteInvoice(ctx context.Context, id string) error {
	f.status.StartSync()
	defer f.status.CompleteSync()

	if !f.route() {
		return f.local.DeleteInvoice(ctx, id)
	}
	return f.backend.DeleteInvoice(ctx, id)
}

// GetInvoice looks up one invoice. The remote path searches the last
// fetched list instead of issuing a per-id fetch, so it is only as
// fresh as the last Invoices or Refresh call.
func (f *Facade) GetInvoice(ctx context.Context, id string) (model.Invoice, bool, error) {
	f.status.StartSync()
	defer f.status.CompleteSync()

	if !f.route() {
		return f.local.GetInvoice(ctx, id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.remoteList {
		if inv.ID == id {
			return inv, true, nil
		}
	}
	return model.Invoice{}, false, nil
}

// NextInvoiceNumber returns the next free number in the active scope:
// the server-computed one when remote, the local heuristic otherwise.
// Both use the same format and algorithm.
func (f *Facade) NextInvoiceNumber(ctx context.Context) (string, error) {
	f.status.StartSync()
	defer f.status.CompleteSync()

	if !f.route() {
		return f.local.NextInvoiceNumber(ctx)
	}
	return f.backend.NextInvoiceNumber(ctx, f.auth.TeamID())
}

// Invoices returns the active scope's list. The remote list is fetched
// on first use and cached until Refresh.
func (f *Facade) Invoices(ctx context.Context) ([]model.Invoice, error) {
	f.status.StartSync()
	defer f.status.CompleteSync()

	if !f.route() {
		return f.local.ListInvoices(ctx)
	}

	f.mu.Lock()
	fetched := f.remoteFetched
	f.mu.Unlock()
	if !fetched {
		if err := f.refresh(ctx); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Invoice, len(f.remoteList))
	copy(out, f.remoteList)
	return out, nil
}

// Refresh re-fetches the remote list, making GetInvoice and Invoices
// current. No-op when routed locally.
func (f *Facade) Refresh(ctx context.Context) error {
	f.status.StartSync()
	defer f.status.CompleteSync()

	if !f.route() {
		return nil
	}
	return f.refresh(ctx)
}

func (f *Facade) refresh(ctx context.Context) error {
	list, err := f.backend.ListInvoices(ctx, f.auth.TeamID())
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.remoteList = list
	f.remoteFetched = true
	f.mu.Unlock()
	return nil
}

// Loading reports whether reads are reliable yet: true while the local
// store has not hydrated (local path) or the initial remote fetch has
// not resolved (remote path).
func (f *Facade) Loading() bool {
	if !f.route() {
		return !f.local.Hydrated()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.remoteFetched
}

// applyForm copies form content onto an invoice, leaving identity and
// creation timestamp alone.
func applyForm(inv *model.Invoice, form model.InvoiceForm) {
	inv.Number = form.Number
	inv.Name = form.Name
	inv.IssueDate = form.IssueDate
	inv.DueDate = form.DueDate
	inv.FromName = form.FromName
	inv.FromAddress = form.FromAddress
	inv.FromEmail = form.FromEmail
	inv.ToName = form.ToName
	inv.ToAddress = form.ToAddress
	inv.ToEmail = form.ToEmail
	inv.Items = form.Items
	inv.TaxRate = form.TaxRate
	inv.Notes = form.Notes
	inv.PaymentDetails = form.PaymentDetails
	inv.Currency = form.Currency
	inv.Status = form.Status
}
