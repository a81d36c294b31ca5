package app

import (
	"context"
	"sync/atomic"
	"time"

	"invoicegen/internal/mailer"
	"invoicegen/internal/notify"
	"invoicegen/pkg/domain"
)

// Shared fakes for app tests.

type fakeGenerator struct {
	response string
	err      error
	block    bool
	calls    atomic.Int32
	lastUser string
}

func (g *fakeGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	g.calls.Add(1)
	g.lastUser = userPrompt
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

type fakeLimiter struct {
	allow bool
	calls atomic.Int32
}

func (l *fakeLimiter) Allow(string) bool {
	l.calls.Add(1)
	return l.allow
}

func (l *fakeLimiter) Window() time.Duration {
	return time.Hour
}

type fakeChat struct {
	calls atomic.Int32
	err   error
}

func (c *fakeChat) NotifyInvoice(context.Context, notify.Action, domain.Company, domain.Company) error {
	c.calls.Add(1)
	return c.err
}

type fakeCRM struct {
	submitCalls  atomic.Int32
	upsertCalls  atomic.Int32
	upsertEmails []string
	err          error
}

func (c *fakeCRM) SubmitCompanies(context.Context, domain.Company, domain.Company, notify.FormContext) error {
	c.submitCalls.Add(1)
	return c.err
}

func (c *fakeCRM) UpsertContact(_ context.Context, email string) (string, error) {
	c.upsertCalls.Add(1)
	c.upsertEmails = append(c.upsertEmails, email)
	return "contact-1", c.err
}

type fakeMailer struct {
	calls   atomic.Int32
	lastPDF []byte
	err     error
	block   bool
}

func (m *fakeMailer) SendInvoice(ctx context.Context, _ domain.Invoice, _ string, pdf []byte) (mailer.SendResult, error) {
	m.calls.Add(1)
	m.lastPDF = pdf
	if m.block {
		<-ctx.Done()
		return mailer.SendResult{}, ctx.Err()
	}
	if m.err != nil {
		return mailer.SendResult{}, m.err
	}
	return mailer.SendResult{ID: "msg-1"}, nil
}

type fakeRenderer struct {
	pdf   []byte
	err   error
	block chan struct{}
	calls atomic.Int32
}

func (r *fakeRenderer) Render(domain.Invoice) ([]byte, error) {
	r.calls.Add(1)
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.pdf != nil {
		return r.pdf, nil
	}
	return []byte("%PDF-1.4 fake"), nil
}

func newTestApp(cfg Config) (*App, error) {
	if cfg.Generator == nil {
		cfg.Generator = &fakeGenerator{response: "{}"}
	}
	if cfg.Renderer == nil {
		cfg.Renderer = &fakeRenderer{}
	}
	if cfg.Mailer == nil {
		cfg.Mailer = &fakeMailer{}
	}
	return New(cfg)
}

func minimalForm() domain.FormData {
	return domain.FormData{
		InvoiceNumber: "INV-1",
		Date:          "2026-04-01",
		DueDate:       "2026-04-30",
		Sender:        domain.Company{Name: "Initech", Email: "ap@initech.test", Phone: "+1 555 0100"},
		Recipient:     domain.Company{Name: "Acme", Email: "ap@acme.test", Phone: "+1 555 0200"},
		Items: []domain.FormItem{
			{Description: "Consulting", Quantity: 10, Rate: 100},
		},
		TaxRate:  8,
		Shipping: 25,
		Currency: "USD",
	}
}
