package domain

import (
	"strconv"

	"github.com/google/uuid"
)

// Totals holds the derived aggregates for one invoice.
type Totals struct {
	Items     []Item `json:"items"`
	Subtotal  Number `json:"subtotal"`
	TaxAmount Number `json:"taxAmount"`
	Total     Number `json:"total"`
}

// ComputeTotals derives line amounts and aggregate totals from raw form
// values. Every call recomputes from scratch: inputs are tiny and a
// single source of truth beats incremental updates. Item order is
// preserved for display. An empty item list yields all-zero totals.
func ComputeTotals(items []FormItem, taxRate, shipping Number) Totals {
	out := Totals{Items: make([]Item, 0, len(items))}
	for i, item := range items {
		amount := item.Quantity * item.Rate
		// Positional IDs keep the derivation pure; they are only valid
		// within this in-memory invoice.
		out.Items = append(out.Items, Item{
			ID:          strconv.Itoa(i + 1),
			Description: item.Description,
			IssueDate:   item.IssueDate,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      amount,
		})
		out.Subtotal += amount
	}
	out.TaxAmount = out.Subtotal * taxRate / 100
	out.Total = out.Subtotal + out.TaxAmount + shipping
	return out
}

// BuildInvoice assembles the full transient invoice from form data,
// applying totals derivation and the name fallback. Items beyond
// MaxItems are dropped; the form schema enforces 1..MaxItems upstream.
func BuildInvoice(form FormData) Invoice {
	items := form.Items
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	totals := ComputeTotals(items, form.TaxRate, form.Shipping)
	name := form.InvoiceName
	if name == "" {
		name = GenerateInvoiceName(form)
	}
	return Invoice{
		ID:                  uuid.NewString(),
		InvoiceNumber:       form.InvoiceNumber,
		InvoiceName:         name,
		Date:                form.Date,
		DueDate:             form.DueDate,
		Sender:              form.Sender,
		Recipient:           form.Recipient,
		Items:               totals.Items,
		Subtotal:            totals.Subtotal,
		TaxRate:             form.TaxRate,
		TaxAmount:           totals.TaxAmount,
		Total:               totals.Total,
		Currency:            form.Currency,
		Notes:               form.Notes,
		PaymentInstructions: form.PaymentInstructions,
		Logo:                form.Logo,
		Shipping:            form.Shipping,
	}
}
