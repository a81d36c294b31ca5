package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"invoicegen/internal/app"
	"invoicegen/internal/notify"
	"invoicegen/internal/util"
	"invoicegen/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App      *app.App
	Sessions *app.SessionRegistry
	Slack    *notify.SlackClient
	Hubspot  *notify.HubspotClient

	ExtractLimiter app.Limiter
	EmailLimiter   app.Limiter

	TrustedProxies *util.TrustedProxies
	AllowedOrigin  string

	MaxPDFBytes         int64
	MaxLogoBytes        int64
	ConfirmationSeconds int
}

// Server exposes the invoice generator HTTP endpoints.
type Server struct {
	app      *app.App
	sessions *app.SessionRegistry
	slack    *notify.SlackClient
	hubspot  *notify.HubspotClient

	extractLimiter app.Limiter
	emailLimiter   app.Limiter

	trustedProxies *util.TrustedProxies
	allowedOrigin  string

	maxPDFBytes         int64
	maxLogoBytes        int64
	confirmationSeconds int

	mux *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:                 cfg.App,
		sessions:            cfg.Sessions,
		slack:               cfg.Slack,
		hubspot:             cfg.Hubspot,
		extractLimiter:      cfg.ExtractLimiter,
		emailLimiter:        cfg.EmailLimiter,
		trustedProxies:      cfg.TrustedProxies,
		allowedOrigin:       cfg.AllowedOrigin,
		maxPDFBytes:         cfg.MaxPDFBytes,
		maxLogoBytes:        cfg.MaxLogoBytes,
		confirmationSeconds: cfg.ConfirmationSeconds,
		mux:                 http.NewServeMux(),
	}
	if s.sessions == nil {
		s.sessions = app.NewSessionRegistry()
	}
	if s.maxPDFBytes <= 0 {
		s.maxPDFBytes = 10 << 20
	}
	if s.maxLogoBytes <= 0 {
		s.maxLogoBytes = 2 << 20
	}
	if s.confirmationSeconds <= 0 {
		s.confirmationSeconds = 3
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware chain
// applied: request id, request log, security headers, CORS.
func (s *Server) Router() http.Handler {
	var h http.Handler = s.mux
	h = util.WithCORS(s.allowedOrigin, h)
	h = util.WithSecurityHeaders(h)
	h = util.WithRequestLog("invoicegen", h)
	h = util.WithRequestID(h)
	return h
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/extract-invoice", s.handleExtract)
	s.mux.HandleFunc("/api/preview-invoice", s.handlePreview)
	s.mux.HandleFunc("/api/download-invoice", s.handleDownload)
	s.mux.HandleFunc("/api/send-invoice-email", s.handleSendEmail)
	s.mux.HandleFunc("/api/validate-logo-file", s.handleValidateLogo)
	s.mux.HandleFunc("/api/notify-chat", s.handleNotifyChat)
	s.mux.HandleFunc("/api/notify-crm", s.handleNotifyCRM)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type extractRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req extractRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	parsed, err := s.app.Extract(r.Context(), s.callerKey(r), req.Text)
	if err != nil {
		s.writeAppError(w, err, s.extractLimiter)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

type formRequest struct {
	FormData domain.FormData `json:"formData"`
}

type previewResponse struct {
	Invoice domain.Invoice    `json:"invoice"`
	Display map[string]string `json:"display"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req formRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	inv := s.app.Preview(req.FormData)
	writeJSON(w, http.StatusOK, previewResponse{
		Invoice: inv,
		Display: displayAmounts(inv),
	})
}

// displayAmounts formats the derived totals in the invoice currency for
// direct rendering by the client.
func displayAmounts(inv domain.Invoice) map[string]string {
	out := map[string]string{
		"subtotal":  domain.FormatAmount(inv.Subtotal, inv.Currency),
		"taxAmount": domain.FormatAmount(inv.TaxAmount, inv.Currency),
		"total":     domain.FormatAmount(inv.Total, inv.Currency),
	}
	if inv.Shipping.Float64() != 0 {
		out["shipping"] = domain.FormatAmount(inv.Shipping, inv.Currency)
	}
	return out
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req formRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess := s.sessions.Get(s.sessionID(r))
	inv, pdf, err := s.app.Download(r.Context(), sess, req.FormData)
	if err != nil {
		s.writeAppError(w, err, nil)
		return
	}
	filename := "invoice.pdf"
	if inv.InvoiceNumber != "" {
		filename = fmt.Sprintf("invoice-%s.pdf", inv.InvoiceNumber)
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

type sendEmailRequest struct {
	Invoice        domain.FormData `json:"invoice"`
	RecipientEmail string          `json:"recipientEmail"`
	PDFBase64      string          `json:"pdfBase64"`
}

type sendEmailResponse struct {
	Data                any `json:"data"`
	ConfirmationSeconds int `json:"confirmationSeconds"`
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	// Body limit leaves headroom for the base64-encoded PDF attachment.
	bodyLimit := s.maxPDFBytes*2 + 1<<20
	var req sendEmailRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, bodyLimit)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess := s.sessions.Get(s.sessionID(r))
	result, err := s.app.EmailInvoice(r.Context(), sess, s.callerKey(r), req.Invoice, req.RecipientEmail, req.PDFBase64)
	if err != nil {
		s.writeAppError(w, err, s.emailLimiter)
		return
	}
	writeJSON(w, http.StatusOK, sendEmailResponse{
		Data:                result,
		ConfirmationSeconds: s.confirmationSeconds,
	})
}

type logoResponse struct {
	Valid bool   `json:"valid"`
	Type  string `json:"type"`
	Size  int64  `json:"size"`
}

func (s *Server) handleValidateLogo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := r.ParseMultipartForm(s.maxLogoBytes + 1<<20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeFieldError(w, http.StatusBadRequest, "file", "file is required")
		return
	}
	defer file.Close()
	// Read one byte past the ceiling so oversize is detected without
	// buffering an unbounded upload.
	data, err := io.ReadAll(io.LimitReader(file, s.maxLogoBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}
	info, err := s.app.ValidateLogo(data, header.Header.Get("Content-Type"))
	if err != nil {
		s.writeAppError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, logoResponse{Valid: true, Type: info.Type, Size: info.Size})
}

type notifyChatRequest struct {
	Action    notify.Action  `json:"action"`
	Sender    domain.Company `json:"sender"`
	Recipient domain.Company `json:"recipient"`
}

func (s *Server) handleNotifyChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req notifyChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Action != notify.ActionDownload && req.Action != notify.ActionEmail {
		writeFieldError(w, http.StatusBadRequest, "action", "action must be download or email")
		return
	}
	if err := s.slack.NotifyInvoice(r.Context(), req.Action, req.Sender, req.Recipient); err != nil {
		writeUpstream(w, "chat notification failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type notifyCRMRequest struct {
	Fields  map[string]string  `json:"fields"`
	Context notify.FormContext `json:"context"`
	Email   string             `json:"email"`
}

func (s *Server) handleNotifyCRM(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req notifyCRMRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Fields) == 0 && req.Email == "" {
		writeFieldError(w, http.StatusBadRequest, "fields", "fields or email is required")
		return
	}
	if len(req.Fields) > 0 {
		if err := s.hubspot.SubmitForm(r.Context(), req.Fields, req.Context); err != nil {
			writeUpstream(w, "crm submission failed", err)
			return
		}
	}
	resp := map[string]any{"success": true}
	if req.Email != "" {
		contactID, err := s.hubspot.UpsertContact(r.Context(), req.Email)
		if err != nil {
			writeUpstream(w, "crm contact upsert failed", err)
			return
		}
		resp["contactId"] = contactID
	}
	writeJSON(w, http.StatusOK, resp)
}

// sessionID identifies the browser session for once-per-session
// notification guards. Clients send X-Session-Id; callers without one
// fall back to their network identity.
func (s *Server) sessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Session-Id")); id != "" {
		return id
	}
	return s.callerKey(r)
}

func (s *Server) callerKey(r *http.Request) string {
	return util.CallerKey(r, s.trustedProxies)
}

// writeAppError maps application errors onto HTTP statuses. limiter is
// consulted for the Retry-After hint on quota rejections; nil is fine.
func (s *Server) writeAppError(w http.ResponseWriter, err error, limiter app.Limiter) {
	var verr *app.ValidationError
	if errors.As(err, &verr) {
		writeFieldError(w, http.StatusBadRequest, verr.Field, verr.Message)
		return
	}
	switch {
	case errors.Is(err, app.ErrRateLimited):
		if limiter != nil {
			if window := limiter.Window(); window > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(window/time.Second)))
			}
		}
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
		return
	case errors.Is(err, app.ErrExtractionTimeout):
		writeError(w, http.StatusRequestTimeout, "extraction timed out, please try again")
		return
	case errors.Is(err, app.ErrPDFTimeout):
		writeError(w, http.StatusRequestTimeout, "PDF generation timed out")
		return
	case errors.Is(err, app.ErrSendTimeout):
		writeError(w, http.StatusRequestTimeout, "email send timed out")
		return
	case errors.Is(err, app.ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "PDF exceeds maximum allowed size")
		return
	}
	var uerr *app.UpstreamError
	if errors.As(err, &uerr) {
		writeError(w, http.StatusBadGateway, uerr.Op+" failed")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeUpstream(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, notify.ErrNotConfigured) {
		writeError(w, http.StatusBadGateway, msg+": integration not configured")
		return
	}
	writeError(w, http.StatusBadGateway, msg)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeFieldError(w http.ResponseWriter, status int, field, msg string) {
	payload := map[string]string{"error": msg}
	if field != "" {
		payload["field"] = field
	}
	writeJSON(w, status, payload)
}
