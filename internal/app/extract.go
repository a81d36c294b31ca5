package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"invoicegen/pkg/domain"
)

const extractionPrompt = `You are an AI assistant that helps parse invoice information from text.
Return a JSON object with these exact keys:
- invoiceNumber (string)
- invoiceName (string, a short 3-5 word description of the invoice)
- date (string)
- dueDate (string)
- sender (object: { name, address, city, state, zipCode, country, email, phone })
- recipient (object: { name, address, city, state, zipCode, country, email, phone })
- items (array of objects: { description, quantity, rate })
- taxRate (number)
- currency (string)
- notes (string, optional)
- paymentInstructions (string, optional)
- shipping (number, optional)

If any field is not mentioned in the text, set it to null. Do not use any other keys or change the key names. Only return the JSON object.`

const noInvoiceDataWarning = "The content provided does not appear to contain invoice information. Please provide specific invoice details."

// Extract sends sanitized free text to the model and returns the
// structured, nullable invoice fields. callerKey identifies the caller
// for rate limiting; the quota is consumed before the model is called.
func (a *App) Extract(ctx context.Context, callerKey, text string) (domain.ParsedInvoice, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ParsedInvoice{}, &ValidationError{Field: "text", Message: "text content is required"}
	}
	if utf8.RuneCountInString(text) > a.maxExtractChars {
		return domain.ParsedInvoice{}, &ValidationError{Field: "text", Message: "text exceeds maximum allowed length"}
	}
	sanitized := SanitizeExtractionInput(text)

	if a.extractLimiter != nil && !a.extractLimiter.Allow(callerKey) {
		return domain.ParsedInvoice{}, ErrRateLimited
	}

	callCtx, cancel := context.WithTimeout(ctx, a.aiTimeout)
	defer cancel()
	raw, err := a.generator.GenerateText(callCtx, extractionPrompt, sanitized)
	if err != nil {
		if callCtx.Err() != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return domain.ParsedInvoice{}, ErrExtractionTimeout
		}
		return domain.ParsedInvoice{}, &UpstreamError{Op: "extract", Err: err}
	}

	var parsed domain.ParsedInvoice
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &parsed); err != nil {
		return domain.ParsedInvoice{}, &UpstreamError{Op: "extract decode", Err: err}
	}

	if len(parsed.Items) > domain.MaxItems {
		parsed.Items = parsed.Items[:domain.MaxItems]
		parsed.Truncated = true
	}
	if !parsed.HasData() {
		parsed.Warning = noInvoiceDataWarning
	}
	return parsed, nil
}

// stripJSONFences unwraps a model response that arrived inside a
// markdown code fence.
func stripJSONFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}
