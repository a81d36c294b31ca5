package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"invoicegen/pkg/domain"
)

const defaultResendBaseURL = "https://api.resend.com"

// APIError represents an error response from the email provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// ResendClient sends invoice emails through the Resend API with the
// rendered PDF attached.
type ResendClient struct {
	baseURL    string
	apiKey     string
	fromName   string
	fromEmail  string
	httpClient *http.Client
}

// NewResendClient constructs the email client. The HTTP client carries
// no timeout of its own; every send is bounded by the caller's context.
func NewResendClient(baseURL, apiKey, fromName, fromEmail string) *ResendClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultResendBaseURL
	}
	return &ResendClient{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(apiKey),
		fromName:   strings.TrimSpace(fromName),
		fromEmail:  strings.TrimSpace(fromEmail),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// SendResult carries the provider's message identity on success.
type SendResult struct {
	ID string `json:"id"`
}

// SendInvoice emails the invoice summary with the PDF attached and
// returns the provider message ID.
func (c *ResendClient) SendInvoice(ctx context.Context, inv domain.Invoice, recipientEmail string, pdf []byte) (SendResult, error) {
	if c.apiKey == "" {
		return SendResult{}, fmt.Errorf("resend api key not configured")
	}
	filename := "invoice-" + inv.InvoiceNumber + ".pdf"
	if inv.InvoiceNumber == "" {
		filename = "invoice-preview.pdf"
	}
	payload := sendRequest{
		From:    c.fromAddress(),
		To:      []string{recipientEmail},
		Subject: fmt.Sprintf("Invoice #%s from %s", inv.InvoiceNumber, inv.Sender.Name),
		HTML:    invoiceBodyHTML(inv),
		Attachments: []attachment{
			{
				Filename: filename,
				Content:  base64.StdEncoding.EncodeToString(pdf),
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Message
		if msg == "" {
			msg = resp.Status
		}
		return SendResult{}, &APIError{Status: resp.StatusCode, Message: "resend api error: " + msg}
	}

	var result SendResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return SendResult{}, fmt.Errorf("resend decode: %w", err)
	}
	return result, nil
}

func (c *ResendClient) fromAddress() string {
	if c.fromName == "" {
		return c.fromEmail
	}
	return fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail)
}

func invoiceBodyHTML(inv domain.Invoice) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; padding: 20px;">`)
	fmt.Fprintf(&b, `<h1 style="color: #05a588;">Your Invoice #%s</h1>`, htmlEscape(inv.InvoiceNumber))
	fmt.Fprintf(&b, `<p>Hello from %s,</p>`, htmlEscape(inv.Sender.Name))
	b.WriteString(`<p>Your invoice has been generated successfully.</p>`)
	b.WriteString(`<div style="margin: 20px 0; padding: 20px; border: 1px solid #e5e7eb; border-radius: 5px;">`)
	b.WriteString(`<h2>Invoice Summary</h2>`)
	fmt.Fprintf(&b, `<p><strong>Invoice Number:</strong> %s</p>`, htmlEscape(inv.InvoiceNumber))
	fmt.Fprintf(&b, `<p><strong>Issue Date:</strong> %s</p>`, htmlEscape(inv.Date))
	fmt.Fprintf(&b, `<p><strong>Due Date:</strong> %s</p>`, htmlEscape(inv.DueDate))
	fmt.Fprintf(&b, `<p><strong>Total Amount:</strong> %s</p>`, htmlEscape(domain.FormatAmount(inv.Total, inv.Currency)))
	b.WriteString(`</div><p>Thank you for your business!</p></div>`)
	return b.String()
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

type sendRequest struct {
	From        string       `json:"from"`
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}
