package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/billfold/internal/model"
)

// formFlags collects the invoice-form flags shared by create and
// update. A full form can also be passed as one JSON object via
// --json; individual flags override its fields.
type formFlags struct {
	JSON           string
	Number         string
	Name           string
	IssueDate      string
	DueDate        string
	FromName       string
	FromAddress    string
	FromEmail      string
	ToName         string
	ToAddress      string
	ToEmail        string
	Items          []string
	TaxRate        float64
	Notes          string
	PaymentDetails string
	Currency       string
	Status         string
}

func (ff *formFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&ff.JSON, "json", "", "full invoice form as a JSON object")
	f.StringVar(&ff.Number, "number", "", "invoice number (e.g. INV-0042)")
	f.StringVar(&ff.Name, "name", "", "invoice name (auto-generated if empty)")
	f.StringVar(&ff.IssueDate, "issue-date", "", "issue date (YYYY-MM-DD)")
	f.StringVar(&ff.DueDate, "due-date", "", "due date (YYYY-MM-DD)")
	f.StringVar(&ff.FromName, "from-name", "", "sender name")
	f.StringVar(&ff.FromAddress, "from-address", "", "sender address")
	f.StringVar(&ff.FromEmail, "from-email", "", "sender email")
	f.StringVar(&ff.ToName, "to-name", "", "recipient name")
	f.StringVar(&ff.ToAddress, "to-address", "", "recipient address")
	f.StringVar(&ff.ToEmail, "to-email", "", "recipient email")
	f.StringArrayVar(&ff.Items, "item", nil, `line item as "description:quantity:unit-price" (repeatable)`)
	f.Float64Var(&ff.TaxRate, "tax-rate", 0, "tax rate percentage (0-100)")
	f.StringVar(&ff.Notes, "notes", "", "free-form notes")
	f.StringVar(&ff.PaymentDetails, "payment-details", "", "payment instructions")
	f.StringVar(&ff.Currency, "currency", "", "ISO 4217 currency code (default USD)")
	f.StringVar(&ff.Status, "status", "", "invoice status (e.g. draft, sent, paid)")
}

// build layers the set flags over base. With --json the decoded object
// replaces base first, so flags still win.
func (ff *formFlags) build(base model.InvoiceForm, flags *pflag.FlagSet) (model.InvoiceForm, error) {
	form := base
	if ff.JSON != "" {
		form = model.InvoiceForm{}
		if err := json.Unmarshal([]byte(ff.JSON), &form); err != nil {
			return form, fmt.Errorf("invalid --json form: %w", err)
		}
	}

	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("number", func() { form.Number = ff.Number })
	set("name", func() { form.Name = ff.Name })
	set("issue-date", func() { form.IssueDate = ff.IssueDate })
	set("due-date", func() { form.DueDate = ff.DueDate })
	set("from-name", func() { form.FromName = ff.FromName })
	set("from-address", func() { form.FromAddress = ff.FromAddress })
	set("from-email", func() { form.FromEmail = ff.FromEmail })
	set("to-name", func() { form.ToName = ff.ToName })
	set("to-address", func() { form.ToAddress = ff.ToAddress })
	set("to-email", func() { form.ToEmail = ff.ToEmail })
	set("tax-rate", func() { form.TaxRate = ff.TaxRate })
	set("notes", func() { form.Notes = ff.Notes })
	set("payment-details", func() { form.PaymentDetails = ff.PaymentDetails })
	set("status", func() { form.Status = ff.Status })

	if flags.Changed("currency") {
		code, err := model.NormalizeCurrency(ff.Currency)
		if err != nil {
			return form, fmt.Errorf("invalid --currency: %w", err)
		}
		form.Currency = code
	}

	if flags.Changed("item") {
		items := make([]model.LineItem, 0, len(ff.Items))
		for i, raw := range ff.Items {
			item, err := parseLineItem(raw, i+1)
			if err != nil {
				return form, err
			}
			items = append(items, item)
		}
		form.Items = items
	}
	return form, nil
}

// parseLineItem splits "description:quantity:unit-price". The two
// numeric fields are taken from the right so descriptions may contain
// colons.
func parseLineItem(raw string, ordinal int) (model.LineItem, error) {
	priceIdx := strings.LastIndex(raw, ":")
	if priceIdx < 0 {
		return model.LineItem{}, fmt.Errorf("invalid --item %q: want description:quantity:unit-price", raw)
	}
	qtyIdx := strings.LastIndex(raw[:priceIdx], ":")
	if qtyIdx < 0 {
		return model.LineItem{}, fmt.Errorf("invalid --item %q: want description:quantity:unit-price", raw)
	}

	qty, err := strconv.ParseFloat(raw[qtyIdx+1:priceIdx], 64)
	if err != nil {
		return model.LineItem{}, fmt.Errorf("invalid --item quantity in %q: %w", raw, err)
	}
	price, err := strconv.ParseFloat(raw[priceIdx+1:], 64)
	if err != nil {
		return model.LineItem{}, fmt.Errorf("invalid --item unit price in %q: %w", raw, err)
	}
	return model.LineItem{
		ID:          fmt.Sprintf("item-%d", ordinal),
		Description: raw[:qtyIdx],
		Quantity:    qty,
		UnitPrice:   price,
	}, nil
}

// NewInvoiceCommand creates the invoice command group.
func NewInvoiceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Create, list, and manage invoices",
	}
	cmd.AddCommand(newInvoiceCreateCommand(rootOpts))
	cmd.AddCommand(newInvoiceUpdateCommand(rootOpts))
	cmd.AddCommand(newInvoiceListCommand(rootOpts))
	cmd.AddCommand(newInvoiceShowCommand(rootOpts))
	cmd.AddCommand(newInvoiceDeleteCommand(rootOpts))
	cmd.AddCommand(newInvoiceNextNumberCommand(rootOpts))
	return cmd
}

func newInvoiceCreateCommand(rootOpts *RootOptions) *cobra.Command {
	ff := &formFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new invoice",
		Long: `Create a new invoice from the given fields.

An empty --name gets a generated one; an empty --number stays empty and
can be assigned later. Example:
  billfold invoice create --number INV-0042 --to-name "ACME Corp" \
    --item "Design retainer:1:2500" --tax-rate 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := ff.build(model.InvoiceForm{}, cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid invoice form", err)
			}

			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			inv, err := app.data.SaveInvoice(cmd.Context(), form, "")
			if err != nil {
				return WrapExitError(ExitFailure, "failed to save invoice", err)
			}
			return newFormatter(rootOpts, cmd).Notify(
				fmt.Sprintf("Created invoice %s (%s)", inv.Number, inv.ID), inv)
		},
	}

	ff.register(cmd)
	return cmd
}

func newInvoiceUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	ff := &formFlags{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an existing invoice",
		Long: `Update an invoice in place. Unset flags keep their current values,
so a single field can be changed without restating the rest.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			existing, ok, err := app.data.GetInvoice(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load invoice", err)
			}
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("invoice %s not found", args[0]))
			}

			form, err := ff.build(existing.Form(), cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid invoice form", err)
			}

			inv, err := app.data.SaveInvoice(cmd.Context(), form, existing.ID)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to save invoice", err)
			}
			return newFormatter(rootOpts, cmd).Notify(
				fmt.Sprintf("Updated invoice %s (%s)", inv.Number, inv.ID), inv)
		},
	}

	ff.register(cmd)
	return cmd
}

func newInvoiceListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List invoices",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			invoices, err := app.data.Invoices(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list invoices", err)
			}

			f := newFormatter(rootOpts, cmd)
			if f.Format == "json" {
				return f.Success(invoices)
			}
			renderInvoiceList(cmd.OutOrStdout(), invoices)
			return nil
		},
	}
}

func newInvoiceShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one invoice in full",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			inv, ok, err := app.data.GetInvoice(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load invoice", err)
			}
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("invoice %s not found", args[0]))
			}

			f := newFormatter(rootOpts, cmd)
			if f.Format == "json" {
				return f.Success(inv)
			}
			renderInvoice(cmd.OutOrStdout(), inv)
			return nil
		},
	}
}

func newInvoiceDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete an invoice",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := app.data.DeleteInvoice(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitFailure, "failed to delete invoice", err)
			}
			return newFormatter(rootOpts, cmd).Notify(
				fmt.Sprintf("Deleted invoice %s", args[0]),
				map[string]string{"id": args[0]})
		},
	}
}

func newInvoiceNextNumberCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "next-number",
		Short:         "Suggest the next sequential invoice number",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			number, err := app.data.NextInvoiceNumber(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to compute next number", err)
			}

			f := newFormatter(rootOpts, cmd)
			if f.Format == "json" {
				return f.Success(map[string]string{"invoice_number": number})
			}
			fmt.Fprintln(cmd.OutOrStdout(), number)
			return nil
		},
	}
}
