package remote

import (
	"time"

	"github.com/roach88/billfold/internal/model"
)

// ClientSnapshot is the nested client-identity object the backend
// expects: recipient name, email, and address captured at save time.
type ClientSnapshot struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// InvoicePayload is the backend's write shape: the invoice core fields
// with the recipient folded into a nested client snapshot. Identity
// and creation timestamp are absent - the backend assigns its own.
type InvoicePayload struct {
	Number         string           `json:"invoice_number"`
	Name           string           `json:"invoice_name,omitempty"`
	IssueDate      string           `json:"issue_date"`
	DueDate        string           `json:"due_date,omitempty"`
	FromName       string           `json:"from_name"`
	FromAddress    string           `json:"from_address"`
	FromEmail      string           `json:"from_email"`
	Client         ClientSnapshot   `json:"client"`
	Items          []model.LineItem `json:"items"`
	TaxRate        float64          `json:"tax_rate"`
	Notes          string           `json:"notes,omitempty"`
	PaymentDetails string           `json:"payment_details,omitempty"`
	Currency       string           `json:"currency"`
	Status         string           `json:"status"`
}

// SplitForm converts the uniform record shape into the backend's write
// shape, folding the to-fields into the client snapshot.
func SplitForm(form model.InvoiceForm) InvoicePayload {
	return InvoicePayload{
		Number:      form.Number,
		Name:        form.Name,
		IssueDate:   form.IssueDate,
		DueDate:     form.DueDate,
		FromName:    form.FromName,
		FromAddress: form.FromAddress,
		FromEmail:   form.FromEmail,
		Client: ClientSnapshot{
			Name:    form.ToName,
			Email:   form.ToEmail,
			Address: form.ToAddress,
		},
		Items:          form.Items,
		TaxRate:        form.TaxRate,
		Notes:          form.Notes,
		PaymentDetails: form.PaymentDetails,
		Currency:       form.Currency,
		Status:         form.Status,
	}
}

// wireInvoice is the backend's read shape: payload fields plus the
// backend-assigned identity.
type wireInvoice struct {
	InvoicePayload
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// toModel normalizes a backend record into the uniform shape consumed
// everywhere else, unfolding the client snapshot back into to-fields.
func (w wireInvoice) toModel() model.Invoice {
	return model.Invoice{
		ID:             w.ID,
		Version:        w.Version,
		Number:         w.Number,
		Name:           w.Name,
		IssueDate:      w.IssueDate,
		DueDate:        w.DueDate,
		FromName:       w.FromName,
		FromAddress:    w.FromAddress,
		FromEmail:      w.FromEmail,
		ToName:         w.Client.Name,
		ToAddress:      w.Client.Address,
		ToEmail:        w.Client.Email,
		Items:          w.Items,
		TaxRate:        w.TaxRate,
		Notes:          w.Notes,
		PaymentDetails: w.PaymentDetails,
		Currency:       w.Currency,
		Status:         w.Status,
		CreatedAt:      w.CreatedAt,
	}
}
