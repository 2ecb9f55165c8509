package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/currency"

	"github.com/roach88/billfold/internal/model"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (sync error, conflict unresolved, etc.)
	ExitCommandError = 2 // Command error (invalid flags, missing invoice, bad config)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E002", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Notify prints a short confirmation line for a completed mutation.
// Every save/delete/clear command ends with one so the user always
// sees whether the write landed. JSON format routes it through the
// standard envelope instead.
func (f *OutputFormatter) Notify(message string, data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	fmt.Fprintln(f.Writer, message)
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// FormatAmount renders a monetary value with its ISO 4217 currency
// code, e.g. "USD 1250.00". Unknown codes pass through as-is.
func FormatAmount(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %.2f", code, amount)
	}
	return fmt.Sprintf("%v %.2f", unit, amount)
}

// renderInvoiceList writes a tab-aligned table of invoices.
func renderInvoiceList(w io.Writer, invoices []model.Invoice) {
	if len(invoices) == 0 {
		fmt.Fprintln(w, "No invoices.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tNAME\tCLIENT\tTOTAL\tSTATUS")
	for _, inv := range invoices {
		_, _, total := model.Totals(inv)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			inv.ID, inv.Number, inv.Name, inv.ToName,
			FormatAmount(total, inv.Currency), inv.Status)
	}
	tw.Flush()
}

// renderInvoice writes the full detail view of a single invoice.
func renderInvoice(w io.Writer, inv model.Invoice) {
	subtotal, tax, total := model.Totals(inv)

	fmt.Fprintf(w, "Invoice %s", inv.Number)
	if inv.Name != "" {
		fmt.Fprintf(w, " (%s)", inv.Name)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "ID:      %s\n", inv.ID)
	fmt.Fprintf(w, "Status:  %s\n", inv.Status)
	if inv.IssueDate != "" {
		fmt.Fprintf(w, "Issued:  %s\n", inv.IssueDate)
	}
	if inv.DueDate != "" {
		fmt.Fprintf(w, "Due:     %s\n", inv.DueDate)
	}
	fmt.Fprintf(w, "From:    %s\n", joinNonEmpty(inv.FromName, inv.FromEmail))
	fmt.Fprintf(w, "To:      %s\n", joinNonEmpty(inv.ToName, inv.ToEmail))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DESCRIPTION\tQTY\tUNIT\tAMOUNT")
	for _, item := range inv.Items {
		fmt.Fprintf(tw, "%s\t%g\t%s\t%s\n",
			item.Description, item.Quantity,
			FormatAmount(item.UnitPrice, inv.Currency),
			FormatAmount(item.Quantity*item.UnitPrice, inv.Currency))
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Subtotal: %s\n", FormatAmount(subtotal, inv.Currency))
	if inv.TaxRate > 0 {
		fmt.Fprintf(w, "Tax (%g%%): %s\n", inv.TaxRate, FormatAmount(tax, inv.Currency))
	}
	fmt.Fprintf(w, "Total:    %s\n", FormatAmount(total, inv.Currency))
	if inv.Notes != "" {
		fmt.Fprintf(w, "\nNotes: %s\n", inv.Notes)
	}
	if inv.PaymentDetails != "" {
		fmt.Fprintf(w, "Payment: %s\n", inv.PaymentDetails)
	}
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
