package localstore

import (
	"context"

	"github.com/roach88/billfold/internal/model"
)

// SaveDraft stores an uncommitted form snapshot under an arbitrary
// key, overwriting any previous snapshot for that key. Drafts live in
// their own namespace, independent from saved invoices.
func (s *Store) SaveDraft(ctx context.Context, key string, form model.InvoiceForm) error {
	s.mu.Lock()
	s.drafts[key] = form
	s.mu.Unlock()
	return s.persist(ctx)
}

// LoadDraft returns the snapshot stored under key, if any.
func (s *Store) LoadDraft(ctx context.Context, key string) (model.InvoiceForm, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	form, ok := s.drafts[key]
	return form, ok, nil
}

// ClearDraft removes the snapshot stored under key. Clearing an absent
// key is a no-op.
func (s *Store) ClearDraft(ctx context.Context, key string) error {
	s.mu.Lock()
	if _, ok := s.drafts[key]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.drafts, key)
	s.mu.Unlock()
	return s.persist(ctx)
}

// ClearAll wipes both namespaces: every invoice and every draft. Used
// by the cloud handoff after a successful upload (or an explicit
// skip).
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	s.invoices = nil
	s.drafts = make(map[string]model.InvoiceForm)
	s.mu.Unlock()
	return s.persist(ctx)
}
