package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"invoicegen/internal/app"
	"invoicegen/internal/config"
	"invoicegen/internal/mailer"
	"invoicegen/internal/notify"
	"invoicegen/internal/pdfgen"
	"invoicegen/internal/ratelimit"
	"invoicegen/internal/server"
	"invoicegen/internal/util"
	"invoicegen/pkg/ai"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	extractLimiter, err := ratelimit.NewRedisFixedWindowLimiter(
		cfg.RedisAddr, cfg.RedisPassword, "invoicegen:ratelimit:extract",
		cfg.AIRateLimitPerHour, time.Hour,
	)
	if err != nil {
		log.Fatalf("failed to init extraction rate limiter: %v", err)
	}
	emailLimiter, err := ratelimit.NewRedisFixedWindowLimiter(
		cfg.RedisAddr, cfg.RedisPassword, "invoicegen:ratelimit:email",
		cfg.EmailRateLimitPerHour, time.Hour,
	)
	if err != nil {
		log.Fatalf("failed to init email rate limiter: %v", err)
	}

	var generator ai.TextGenerator
	switch cfg.AIProvider {
	case "ollama":
		generator = ai.NewOllamaGenerator(cfg.AIBaseURL, cfg.AIModel)
	default:
		generator = ai.NewOpenAICompatGenerator(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)
	}

	slack := notify.NewSlackClient(cfg.SlackWebhookURL)
	hubspot := notify.NewHubspotClient(notify.HubspotConfig{
		APIBase:  cfg.HubspotBaseURL,
		APIKey:   cfg.HubspotAPIKey,
		PortalID: cfg.HubspotPortalID,
		FormID:   cfg.HubspotFormID,
	})
	resend := mailer.NewResendClient(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.FromName, cfg.FromEmail)

	appCore, err := app.New(app.Config{
		Generator:       generator,
		Chat:            slack,
		CRM:             hubspot,
		Mailer:          resend,
		Renderer:        pdfgen.New(),
		ExtractLimiter:  extractLimiter,
		EmailLimiter:    emailLimiter,
		AITimeout:       time.Duration(cfg.AITimeoutSeconds) * time.Second,
		PDFTimeout:      time.Duration(cfg.PDFTimeoutSeconds) * time.Second,
		SendTimeout:     time.Duration(cfg.SendTimeoutSeconds) * time.Second,
		MaxPDFBytes:     cfg.MaxPDFBytes,
		MaxLogoBytes:    cfg.MaxLogoBytes,
		MaxExtractChars: cfg.MaxExtractChars,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer := server.New(server.Config{
		App:                 appCore,
		Sessions:            app.NewSessionRegistry(),
		Slack:               slack,
		Hubspot:             hubspot,
		ExtractLimiter:      extractLimiter,
		EmailLimiter:        emailLimiter,
		TrustedProxies:      trustedProxies,
		AllowedOrigin:       cfg.AllowedOrigin,
		MaxPDFBytes:         cfg.MaxPDFBytes,
		MaxLogoBytes:        cfg.MaxLogoBytes,
		ConfirmationSeconds: cfg.SentConfirmationSeconds,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
