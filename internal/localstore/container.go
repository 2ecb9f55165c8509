package localstore

import (
	"github.com/roach88/billfold/internal/model"
)

// CurrentContainerVersion is the version of the whole persisted
// container, stamped into PRAGMA user_version after migration.
//
// Version history:
//
//	0 - initial layout, invoices carried no version field
//	1 - every invoice stamped with model.CurrentInvoiceVersion and
//	    missing sub-fields defaulted ("" / 0 / "USD")
const CurrentContainerVersion = 1

// Container is the deserialized form of the persisted blob: the
// ordered invoice list plus the draft map. The two namespaces share a
// file but are logically independent.
type Container struct {
	Invoices []model.Invoice
	Drafts   map[string]model.InvoiceForm
}

// MigrateContainer upgrades a loaded container from the given version
// to CurrentContainerVersion. Pure: no I/O, input is not mutated.
// Applying it twice at the same version returns equal output
// (idempotent), and unknown or current versions pass through untouched.
//
// The 0 -> 1 step stamps every invoice with the current record version
// and fills defaults for fields older builds could omit: empty string
// for text, zero for numbers, "USD" for the currency, and an empty
// (non-nil) line item list. A tax rate of exactly zero is a real
// value, not a missing field, and is preserved as-is. Drafts pass
// through unchanged.
func MigrateContainer(c Container, version int) Container {
	if version >= CurrentContainerVersion {
		return c
	}

	out := Container{
		Invoices: make([]model.Invoice, len(c.Invoices)),
		Drafts:   c.Drafts,
	}
	for i, inv := range c.Invoices {
		inv.Version = model.CurrentInvoiceVersion
		if inv.Currency == "" {
			inv.Currency = model.DefaultCurrency
		}
		if inv.Items == nil {
			inv.Items = []model.LineItem{}
		}
		out.Invoices[i] = inv
	}
	return out
}
