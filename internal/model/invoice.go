package model

import (
	"fmt"
	"time"

	"golang.org/x/text/currency"
)

// CurrentInvoiceVersion is the per-record schema version stamped on
// every invoice written by this build. Records carrying an older
// version are upgraded by the container migration at load time.
const CurrentInvoiceVersion = 1

// DefaultCurrency is used whenever an invoice carries no currency code.
const DefaultCurrency = "USD"

// Invoice is the central entity: an issued (or draft) invoice with its
// line items serialized inline.
type Invoice struct {
	ID             string     `json:"id"`
	Version        int        `json:"version"` // record schema version, see CurrentInvoiceVersion
	Number         string     `json:"invoice_number"`
	Name           string     `json:"invoice_name,omitempty"`
	IssueDate      string     `json:"issue_date"`
	DueDate        string     `json:"due_date,omitempty"`
	FromName       string     `json:"from_name"`
	FromAddress    string     `json:"from_address"`
	FromEmail      string     `json:"from_email"`
	ToName         string     `json:"to_name"`
	ToAddress      string     `json:"to_address"`
	ToEmail        string     `json:"to_email"`
	Items          []LineItem `json:"items"`
	TaxRate        float64    `json:"tax_rate"` // percentage, 0..100
	Notes          string     `json:"notes,omitempty"`
	PaymentDetails string     `json:"payment_details,omitempty"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"` // free text, e.g. "draft"
	CreatedAt      time.Time  `json:"created_at"`
}

// LineItem is one billed line. It has no lifecycle of its own and is
// owned exclusively by its invoice.
type LineItem struct {
	ID          string  `json:"id"` // unique within the owning invoice
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`   // semantically >= 0
	UnitPrice   float64 `json:"unit_price"` // semantically >= 0
}

// InvoiceForm is the uncommitted content of an invoice: the same shape
// as Invoice minus identity, version, and creation timestamp. It is the
// input to saves and the value stored under a draft key.
type InvoiceForm struct {
	Number         string     `json:"invoice_number"`
	Name           string     `json:"invoice_name,omitempty"`
	IssueDate      string     `json:"issue_date"`
	DueDate        string     `json:"due_date,omitempty"`
	FromName       string     `json:"from_name"`
	FromAddress    string     `json:"from_address"`
	FromEmail      string     `json:"from_email"`
	ToName         string     `json:"to_name"`
	ToAddress      string     `json:"to_address"`
	ToEmail        string     `json:"to_email"`
	Items          []LineItem `json:"items"`
	TaxRate        float64    `json:"tax_rate"`
	Notes          string     `json:"notes,omitempty"`
	PaymentDetails string     `json:"payment_details,omitempty"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
}

// Form returns the editable content of an invoice, dropping identity
// and creation timestamp. Used when an existing invoice is loaded into
// an edit session.
func (inv Invoice) Form() InvoiceForm {
	return InvoiceForm{
		Number:         inv.Number,
		Name:           inv.Name,
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		FromName:       inv.FromName,
		FromAddress:    inv.FromAddress,
		FromEmail:      inv.FromEmail,
		ToName:         inv.ToName,
		ToAddress:      inv.ToAddress,
		ToEmail:        inv.ToEmail,
		Items:          inv.Items,
		TaxRate:        inv.TaxRate,
		Notes:          inv.Notes,
		PaymentDetails: inv.PaymentDetails,
		Currency:       inv.Currency,
		Status:         inv.Status,
	}
}

// Totals computes the subtotal, tax amount, and grand total for an
// invoice. Quantities or prices below zero contribute nothing; the tax
// rate is clamped to 0..100.
func Totals(inv Invoice) (subtotal, tax, total float64) {
	for _, it := range inv.Items {
		if it.Quantity <= 0 || it.UnitPrice <= 0 {
			continue
		}
		subtotal += it.Quantity * it.UnitPrice
	}
	rate := inv.TaxRate
	if rate < 0 {
		rate = 0
	}
	if rate > 100 {
		rate = 100
	}
	tax = subtotal * rate / 100
	total = subtotal + tax
	return subtotal, tax, total
}

// NormalizeCurrency validates and canonicalizes an ISO 4217 currency
// code. An empty code normalizes to DefaultCurrency. Unknown codes
// return an error with the offending input.
func NormalizeCurrency(code string) (string, error) {
	if code == "" {
		return DefaultCurrency, nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return unit.String(), nil
}
