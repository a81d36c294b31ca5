package domain

import "strings"

// DefaultInvoiceName is the label used when nothing else is available.
const DefaultInvoiceName = "Invoice"

// GenerateInvoiceName builds a short human-readable label from form
// fields: comma-joined item descriptions, then recipient name, then
// date, skipping absent parts, capped at the first five words.
func GenerateInvoiceName(form FormData) string {
	var parts []string
	var descriptions []string
	for _, item := range form.Items {
		if strings.TrimSpace(item.Description) != "" {
			descriptions = append(descriptions, item.Description)
		}
	}
	if len(descriptions) > 0 {
		parts = append(parts, strings.Join(descriptions, ", "))
	}
	if form.Recipient.Name != "" {
		parts = append(parts, form.Recipient.Name)
	}
	if form.Date != "" {
		parts = append(parts, form.Date)
	}
	words := strings.Fields(strings.Join(parts, " "))
	if len(words) == 0 {
		return DefaultInvoiceName
	}
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}
