package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/billfold/internal/model"
	"github.com/roach88/billfold/internal/remote"
)

// FakeBackend is an in-memory stand-in for the cloud backend. It
// records every call and can be scripted to fail, so tests can assert
// both routing (which backend saw the operation) and failure handling.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FakeBackend struct {
	mu sync.Mutex

	// Err, when set, is returned by every operation.
	Err error
	// Next is returned by NextInvoiceNumber.
	Next string
	// List is returned by ListInvoices.
	List []model.Invoice

	// Calls records operation names in order, e.g. "CreateInvoice".
	Calls []string
	// Created collects payloads passed to CreateInvoice and
	// BatchCreateInvoices.
	Created []remote.InvoicePayload
	// Deleted collects ids passed to DeleteInvoice.
	Deleted []string

	nextID int
}

func (b *FakeBackend) record(call string) error {
	b.Calls = append(b.Calls, call)
	return b.Err
}

// CallCount returns how many operations the fake has seen.
func (b *FakeBackend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Calls)
}

func (b *FakeBackend) ListInvoices(ctx context.Context, teamID string) ([]model.Invoice, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("ListInvoices"); err != nil {
		return nil, err
	}
	out := make([]model.Invoice, len(b.List))
	copy(out, b.List)
	return out, nil
}

func (b *FakeBackend) CreateInvoice(ctx context.Context, payload remote.InvoicePayload, teamID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("CreateInvoice"); err != nil {
		return "", err
	}
	b.Created = append(b.Created, payload)
	b.nextID++
	return fmt.Sprintf("backend-%d", b.nextID), nil
}

func (b *FakeBackend) UpdateInvoice(ctx context.Context, id string, payload remote.InvoicePayload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.record("UpdateInvoice")
}

func (b *FakeBackend) DeleteInvoice(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("DeleteInvoice"); err != nil {
		return err
	}
	b.Deleted = append(b.Deleted, id)
	return nil
}

func (b *FakeBackend) BatchCreateInvoices(ctx context.Context, payloads []remote.InvoicePayload) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("BatchCreateInvoices"); err != nil {
		return 0, err
	}
	b.Created = append(b.Created, payloads...)
	return len(payloads), nil
}

func (b *FakeBackend) NextInvoiceNumber(ctx context.Context, teamID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("NextInvoiceNumber"); err != nil {
		return "", err
	}
	if b.Next == "" {
		return "INV-0001", nil
	}
	return b.Next, nil
}

// FakeAuth is a settable authentication state.
type FakeAuth struct {
	mu     sync.Mutex
	authed bool
	team   string
	dryRun bool
}

// NewFakeAuth creates an auth state; authed false means local routing.
func NewFakeAuth(authed bool) *FakeAuth {
	return &FakeAuth{authed: authed}
}

func (a *FakeAuth) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authed
}

func (a *FakeAuth) TeamID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.team
}

func (a *FakeAuth) DryRun() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dryRun
}

// SetAuthenticated flips the signed-in state mid-test.
func (a *FakeAuth) SetAuthenticated(authed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authed = authed
}

// SetTeam sets the active team scope.
func (a *FakeAuth) SetTeam(team string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.team = team
}

// SetDryRun flips the dry-run execution flag.
func (a *FakeAuth) SetDryRun(dry bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dryRun = dry
}
