package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"invoicegen/pkg/domain"
)

func sampleInvoice() domain.Invoice {
	return domain.Invoice{
		InvoiceNumber: "INV-7",
		Date:          "2026-04-01",
		DueDate:       "2026-04-30",
		Sender:        domain.Company{Name: "Initech <Holdings>"},
		Recipient:     domain.Company{Name: "Acme"},
		Total:         1105,
		Currency:      "USD",
	}
}

func TestSendInvoice(t *testing.T) {
	var got struct {
		From        string   `json:"from"`
		To          []string `json:"to"`
		Subject     string   `json:"subject"`
		HTML        string   `json:"html"`
		Attachments []struct {
			Filename string `json:"filename"`
			Content  string `json:"content"`
		} `json:"attachments"`
	}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "email-123"})
	}))
	defer srv.Close()

	client := NewResendClient(srv.URL, "key-1", "Invoice Generator", "invoices@example.com")
	pdf := []byte("%PDF-1.4 test")
	result, err := client.SendInvoice(context.Background(), sampleInvoice(), "ap@acme.test", pdf)
	if err != nil {
		t.Fatalf("SendInvoice: %v", err)
	}
	if result.ID != "email-123" {
		t.Errorf("id = %q, want email-123", result.ID)
	}
	if auth != "Bearer key-1" {
		t.Errorf("authorization = %q", auth)
	}
	if got.From != "Invoice Generator <invoices@example.com>" {
		t.Errorf("from = %q", got.From)
	}
	if len(got.To) != 1 || got.To[0] != "ap@acme.test" {
		t.Errorf("to = %v", got.To)
	}
	if got.Subject != "Invoice #INV-7 from Initech <Holdings>" {
		t.Errorf("subject = %q", got.Subject)
	}
	if !strings.Contains(got.HTML, "Initech &lt;Holdings&gt;") {
		t.Errorf("sender not escaped in body: %q", got.HTML)
	}
	if !strings.Contains(got.HTML, "$1,105.00") {
		t.Errorf("total not formatted in body: %q", got.HTML)
	}
	if len(got.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(got.Attachments))
	}
	if got.Attachments[0].Filename != "invoice-INV-7.pdf" {
		t.Errorf("attachment filename = %q", got.Attachments[0].Filename)
	}
	decoded, err := base64.StdEncoding.DecodeString(got.Attachments[0].Content)
	if err != nil || string(decoded) != string(pdf) {
		t.Errorf("attachment content mismatch: %q (%v)", decoded, err)
	}
}

func TestSendInvoiceAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid from address"})
	}))
	defer srv.Close()

	client := NewResendClient(srv.URL, "key-1", "", "invoices@example.com")
	_, err := client.SendInvoice(context.Background(), sampleInvoice(), "ap@acme.test", []byte("%PDF"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", apiErr.Status)
	}
	if !strings.Contains(apiErr.Message, "invalid from address") {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestSendInvoiceRequiresAPIKey(t *testing.T) {
	client := NewResendClient("", "", "", "invoices@example.com")
	if _, err := client.SendInvoice(context.Background(), sampleInvoice(), "ap@acme.test", nil); err == nil {
		t.Fatal("expected error without api key")
	}
}
