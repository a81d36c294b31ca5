package app

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/sync/errgroup"

	"invoicegen/internal/mailer"
	"invoicegen/internal/notify"
	"invoicegen/pkg/domain"
)

// Download runs the download pipeline: best-effort chat/CRM
// notification (at most once per session), then PDF rendering. A
// notification failure never blocks the download.
func (a *App) Download(ctx context.Context, sess *Session, form domain.FormData) (domain.Invoice, []byte, error) {
	inv := domain.BuildInvoice(form)
	a.notifyOnce(ctx, sess, notify.ActionDownload, inv, "")
	pdf, err := a.renderPDF(ctx, inv)
	if err != nil {
		return domain.Invoice{}, nil, err
	}
	return inv, pdf, nil
}

// EmailInvoice runs the email pipeline: local address validation,
// best-effort notifications, PDF rendering (or the caller-provided
// base64 PDF), size ceiling, email rate limit, then the provider send.
// Notifications are attempted before PDF generation so an attempted
// send is recorded even when rendering later fails. No step retries
// automatically.
func (a *App) EmailInvoice(ctx context.Context, sess *Session, callerKey string, form domain.FormData, recipientEmail, pdfBase64 string) (mailer.SendResult, error) {
	recipientEmail = strings.TrimSpace(recipientEmail)
	if recipientEmail == "" {
		return mailer.SendResult{}, &ValidationError{Field: "recipientEmail", Message: "recipient email is required"}
	}
	if _, err := mail.ParseAddress(recipientEmail); err != nil {
		return mailer.SendResult{}, &ValidationError{Field: "recipientEmail", Message: "invalid email format"}
	}

	inv := domain.BuildInvoice(form)
	a.notifyOnce(ctx, sess, notify.ActionEmail, inv, recipientEmail)

	var pdf []byte
	if pdfBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(pdfBase64)
		if err != nil {
			return mailer.SendResult{}, &ValidationError{Field: "pdfBase64", Message: "invalid base64 PDF data"}
		}
		pdf = decoded
	} else {
		rendered, err := a.renderPDF(ctx, inv)
		if err != nil {
			return mailer.SendResult{}, err
		}
		pdf = rendered
	}
	if int64(len(pdf)) > a.maxPDFBytes {
		return mailer.SendResult{}, ErrPayloadTooLarge
	}

	if a.emailLimiter != nil && !a.emailLimiter.Allow(callerKey) {
		return mailer.SendResult{}, ErrRateLimited
	}

	sendCtx, cancel := context.WithTimeout(ctx, a.sendTimeout)
	defer cancel()
	result, err := a.mailer.SendInvoice(sendCtx, inv, recipientEmail, pdf)
	if err != nil {
		if sendCtx.Err() != nil && errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			return mailer.SendResult{}, ErrSendTimeout
		}
		return mailer.SendResult{}, &UpstreamError{Op: "email send", Err: err}
	}
	return result, nil
}

// notifyOnce issues the best-effort chat and CRM notifications for one
// action, at most once per session per action. The two calls run
// concurrently; neither outcome affects the pipeline. Failures are
// logged and swallowed.
func (a *App) notifyOnce(ctx context.Context, sess *Session, action notify.Action, inv domain.Invoice, recipientEmail string) {
	if sess == nil || !sess.beginNotify(string(action)) {
		return
	}
	var g errgroup.Group
	if a.chat != nil {
		g.Go(func() error {
			if err := a.chat.NotifyInvoice(ctx, action, inv.Sender, inv.Recipient); err != nil && !errors.Is(err, notify.ErrNotConfigured) {
				slog.Warn("chat notification failed", "action", action, "err", err)
			}
			return nil
		})
	}
	if a.crm != nil {
		g.Go(func() error {
			formCtx := notify.FormContext{PageName: "Invoice Generator"}
			if err := a.crm.SubmitCompanies(ctx, inv.Sender, inv.Recipient, formCtx); err != nil && !errors.Is(err, notify.ErrNotConfigured) {
				slog.Warn("crm notification failed", "action", action, "err", err)
			}
			if action == notify.ActionEmail && recipientEmail != "" {
				if _, err := a.crm.UpsertContact(ctx, recipientEmail); err != nil && !errors.Is(err, notify.ErrNotConfigured) {
					slog.Warn("crm contact upsert failed", "err", err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// renderPDF renders under the PDF deadline. On timeout the in-flight
// render is abandoned, not cancelled; its result is discarded.
func (a *App) renderPDF(ctx context.Context, inv domain.Invoice) ([]byte, error) {
	renderCtx, cancel := context.WithTimeout(ctx, a.pdfTimeout)
	defer cancel()

	type renderResult struct {
		pdf []byte
		err error
	}
	done := make(chan renderResult, 1)
	go func() {
		pdf, err := a.renderer.Render(inv)
		done <- renderResult{pdf: pdf, err: err}
	}()

	select {
	case <-renderCtx.Done():
		return nil, ErrPDFTimeout
	case res := <-done:
		if res.err != nil {
			return nil, &UpstreamError{Op: "pdf render", Err: res.err}
		}
		return res.pdf, nil
	}
}
