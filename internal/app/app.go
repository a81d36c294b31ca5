package app

import (
	"context"
	"errors"
	"time"

	"invoicegen/internal/mailer"
	"invoicegen/internal/notify"
	"invoicegen/pkg/ai"
	"invoicegen/pkg/domain"
)

// Limiter is the fixed-window quota check consumed by the app. The
// production implementation is Redis-backed; tests inject fakes.
type Limiter interface {
	Allow(key string) bool
	Window() time.Duration
}

// ChatNotifier posts best-effort invoice event notifications.
type ChatNotifier interface {
	NotifyInvoice(ctx context.Context, action notify.Action, sender, recipient domain.Company) error
}

// CRMNotifier records invoice activity in the CRM.
type CRMNotifier interface {
	SubmitCompanies(ctx context.Context, sender, recipient domain.Company, formCtx notify.FormContext) error
	UpsertContact(ctx context.Context, email string) (string, error)
}

// Mailer delivers the invoice email with the PDF attached.
type Mailer interface {
	SendInvoice(ctx context.Context, inv domain.Invoice, recipientEmail string, pdf []byte) (mailer.SendResult, error)
}

// Renderer produces the invoice PDF bytes.
type Renderer interface {
	Render(inv domain.Invoice) ([]byte, error)
}

// Config wires collaborators and limits into the application core.
type Config struct {
	Generator ai.TextGenerator
	Chat      ChatNotifier
	CRM       CRMNotifier
	Mailer    Mailer
	Renderer  Renderer

	ExtractLimiter Limiter
	EmailLimiter   Limiter

	AITimeout       time.Duration
	PDFTimeout      time.Duration
	SendTimeout     time.Duration
	MaxPDFBytes     int64
	MaxLogoBytes    int64
	MaxExtractChars int
}

// App is the application core: totals derivation, AI extraction, logo
// validation and the download/email notification pipeline.
type App struct {
	generator ai.TextGenerator
	chat      ChatNotifier
	crm       CRMNotifier
	mailer    Mailer
	renderer  Renderer

	extractLimiter Limiter
	emailLimiter   Limiter

	aiTimeout       time.Duration
	pdfTimeout      time.Duration
	sendTimeout     time.Duration
	maxPDFBytes     int64
	maxLogoBytes    int64
	maxExtractChars int
}

// New constructs the application core. Generator, mailer and renderer
// are required; chat/CRM notifiers may be nil (best-effort steps are
// skipped).
func New(cfg Config) (*App, error) {
	if cfg.Generator == nil {
		return nil, errors.New("text generator required")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("pdf renderer required")
	}
	if cfg.Mailer == nil {
		return nil, errors.New("mailer required")
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 15 * time.Second
	}
	if cfg.PDFTimeout <= 0 {
		cfg.PDFTimeout = 30 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	if cfg.MaxPDFBytes <= 0 {
		cfg.MaxPDFBytes = 10 << 20
	}
	if cfg.MaxLogoBytes <= 0 {
		cfg.MaxLogoBytes = 2 << 20
	}
	if cfg.MaxExtractChars <= 0 {
		cfg.MaxExtractChars = 10000
	}
	return &App{
		generator:       cfg.Generator,
		chat:            cfg.Chat,
		crm:             cfg.CRM,
		mailer:          cfg.Mailer,
		renderer:        cfg.Renderer,
		extractLimiter:  cfg.ExtractLimiter,
		emailLimiter:    cfg.EmailLimiter,
		aiTimeout:       cfg.AITimeout,
		pdfTimeout:      cfg.PDFTimeout,
		sendTimeout:     cfg.SendTimeout,
		maxPDFBytes:     cfg.MaxPDFBytes,
		maxLogoBytes:    cfg.MaxLogoBytes,
		maxExtractChars: cfg.MaxExtractChars,
	}, nil
}

// Preview derives the full transient invoice from form data. Pure and
// unconditional: every call recomputes from the raw values.
func (a *App) Preview(form domain.FormData) domain.Invoice {
	return domain.BuildInvoice(form)
}
