package domain

// Company identifies one party on an invoice. All fields are free text;
// format bounds are enforced at the edges, not here.
type Company struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	State      string `json:"state"`
	Phone      string `json:"phone"`
}

// Item is one billable line. Amount is derived from Quantity and Rate
// and never settable independently.
type Item struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	IssueDate   string `json:"issueDate,omitempty"`
	Quantity    Number `json:"quantity"`
	Rate        Number `json:"rate"`
	Amount      Number `json:"amount"`
}

// MaxItems bounds the number of line items on one invoice.
const MaxItems = 5

// Invoice is the transient view model used for preview, PDF rendering
// and email delivery. It is never persisted; every derivation starts
// from the raw form values.
type Invoice struct {
	ID                  string  `json:"id"`
	InvoiceNumber       string  `json:"invoiceNumber,omitempty"`
	InvoiceName         string  `json:"invoiceName"`
	Date                string  `json:"date"`
	DueDate             string  `json:"dueDate"`
	Sender              Company `json:"sender"`
	Recipient           Company `json:"recipient"`
	Items               []Item  `json:"items"`
	Subtotal            Number  `json:"subtotal"`
	TaxRate             Number  `json:"taxRate"`
	TaxAmount           Number  `json:"taxAmount"`
	Total               Number  `json:"total"`
	Currency            string  `json:"currency"`
	Notes               string  `json:"notes,omitempty"`
	PaymentInstructions string  `json:"paymentInstructions,omitempty"`
	Logo                string  `json:"logo,omitempty"`
	Shipping            Number  `json:"shipping,omitempty"`
}

// FormData carries the raw, user-editable invoice fields before totals
// derivation. Quantity/rate/tax/shipping arrive as lenient numbers.
type FormData struct {
	InvoiceNumber       string     `json:"invoiceNumber"`
	InvoiceName         string     `json:"invoiceName"`
	Date                string     `json:"date"`
	DueDate             string     `json:"dueDate"`
	Sender              Company    `json:"sender"`
	Recipient           Company    `json:"recipient"`
	Items               []FormItem `json:"items"`
	TaxRate             Number     `json:"taxRate"`
	Currency            string     `json:"currency"`
	Notes               string     `json:"notes"`
	PaymentInstructions string     `json:"paymentInstructions"`
	Logo                string     `json:"logo"`
	Shipping            Number     `json:"shipping"`
}

// FormItem is a line item as edited in the form, without the derived amount.
type FormItem struct {
	Description string `json:"description"`
	IssueDate   string `json:"issueDate,omitempty"`
	Quantity    Number `json:"quantity"`
	Rate        Number `json:"rate"`
}

// ParsedParty mirrors Company with every field nullable; absent fields
// stay null so callers can distinguish "not mentioned" from empty.
type ParsedParty struct {
	Name       *string `json:"name"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"zipCode"`
	Country    *string `json:"country"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
}

// ParsedItem is a line item extracted from free text.
type ParsedItem struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	Rate        *float64 `json:"rate"`
}

// ParsedInvoice is the nullable extraction result returned by the AI
// adapter. Warning is set when no invoice data was recognized and
// Truncated when the model returned more items than MaxItems.
type ParsedInvoice struct {
	InvoiceNumber       *string      `json:"invoiceNumber"`
	InvoiceName         *string      `json:"invoiceName"`
	Date                *string      `json:"date"`
	DueDate             *string      `json:"dueDate"`
	Sender              *ParsedParty `json:"sender"`
	Recipient           *ParsedParty `json:"recipient"`
	Items               []ParsedItem `json:"items"`
	TaxRate             *float64     `json:"taxRate"`
	Currency            *string      `json:"currency"`
	Notes               *string      `json:"notes"`
	PaymentInstructions *string      `json:"paymentInstructions"`
	Shipping            *float64     `json:"shipping"`
	Warning             string       `json:"warning,omitempty"`
	Truncated           bool         `json:"truncated,omitempty"`
}

// HasData reports whether any semantically meaningful field was
// extracted: number, dates, a populated party, or an item with a
// description. Empty extraction is surfaced as a soft warning upstream.
func (p ParsedInvoice) HasData() bool {
	if deref(p.InvoiceNumber) != "" || deref(p.Date) != "" || deref(p.DueDate) != "" {
		return true
	}
	if p.Sender.populated() || p.Recipient.populated() {
		return true
	}
	for _, item := range p.Items {
		if deref(item.Description) != "" {
			return true
		}
	}
	return false
}

func (p *ParsedParty) populated() bool {
	if p == nil {
		return false
	}
	for _, field := range []*string{p.Name, p.Address, p.City, p.State, p.PostalCode, p.Country, p.Email, p.Phone} {
		if deref(field) != "" {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
