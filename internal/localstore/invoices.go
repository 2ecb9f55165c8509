package localstore

import (
	"context"

	"github.com/roach88/billfold/internal/model"
)

// SaveInvoice writes a full invoice record built from the form.
//
// An empty id means create: a fresh identifier is generated and the
// record goes to the front of the list (newest-saved-first). A
// non-empty id replaces the matching record in place, keeping its list
// position; the replacement is a whole new record, not a field-level
// patch, so the creation timestamp is re-stamped. An id with no match
// behaves like create under that id.
//
// If the form carries no display name one is synthesized from the
// store's random source, and the currency code is normalized (empty
// becomes the default). The full list is re-serialized to durable
// storage on every call.
func (s *Store) SaveInvoice(ctx context.Context, form model.InvoiceForm, id string) (model.Invoice, error) {
	s.mu.Lock()
	name := form.Name
	if name == "" {
		name = model.GenerateName(s.rng)
	}
	// Unknown codes are stored verbatim; only empty gets the default.
	curr := form.Currency
	if norm, err := model.NormalizeCurrency(curr); err == nil {
		curr = norm
	}

	inv := model.Invoice{
		ID:             id,
		Version:        model.CurrentInvoiceVersion,
		Number:         form.Number,
		Name:           name,
		IssueDate:      form.IssueDate,
		DueDate:        form.DueDate,
		FromName:       form.FromName,
		FromAddress:    form.FromAddress,
		FromEmail:      form.FromEmail,
		ToName:         form.ToName,
		ToAddress:      form.ToAddress,
		ToEmail:        form.ToEmail,
		Items:          form.Items,
		TaxRate:        form.TaxRate,
		Notes:          form.Notes,
		PaymentDetails: form.PaymentDetails,
		Currency:       curr,
		Status:         form.Status,
		CreatedAt:      s.now(),
	}
	if inv.Items == nil {
		inv.Items = []model.LineItem{}
	}

	if id == "" {
		inv.ID = s.ids.NewID()
		s.invoices = append([]model.Invoice{inv}, s.invoices...)
	} else if i := s.indexOf(id); i >= 0 {
		s.invoices[i] = inv
	} else {
		s.invoices = append([]model.Invoice{inv}, s.invoices...)
	}
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return model.Invoice{}, err
	}
	return inv, nil
}

// DeleteInvoice removes the matching record. Deleting an absent id is
// a no-op, not an error.
func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.invoices = append(s.invoices[:i], s.invoices[i+1:]...)
	s.mu.Unlock()

	return s.persist(ctx)
}

// GetInvoice looks up a record by id. Pure lookup, no side effect.
func (s *Store) GetInvoice(ctx context.Context, id string) (model.Invoice, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.invoices[i], true, nil
	}
	return model.Invoice{}, false, nil
}

// ListInvoices returns a copy of the stored list, newest-created
// first.
func (s *Store) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Invoice, len(s.invoices))
	copy(out, s.invoices)
	return out, nil
}

// NextInvoiceNumber derives the next free number from the numbers
// already stored. See model.NextNumber for the exact heuristic.
func (s *Store) NextInvoiceNumber(ctx context.Context) (string, error) {
	s.mu.Lock()
	numbers := make([]string, len(s.invoices))
	for i, inv := range s.invoices {
		numbers[i] = inv.Number
	}
	s.mu.Unlock()
	return model.NextNumber(numbers), nil
}

// indexOf returns the list position of the invoice with the given id,
// or -1. Callers must hold s.mu.
func (s *Store) indexOf(id string) int {
	for i, inv := range s.invoices {
		if inv.ID == id {
			return i
		}
	}
	return -1
}
