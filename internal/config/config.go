package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location relative to the
// working directory.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port              string   `yaml:"port"`
	LogLevel          string   `yaml:"logLevel"`
	LogsDir           string   `yaml:"logsDir"`
	AllowedOrigin     string   `yaml:"allowedOrigin"`
	TrustedProxyCIDRs []string `yaml:"trustedProxyCidrs"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	AIProvider       string `yaml:"aiProvider"`
	AIBaseURL        string `yaml:"aiBaseURL"`
	AIAPIKey         string `yaml:"aiAPIKey"`
	AIModel          string `yaml:"aiModel"`
	AITimeoutSeconds int    `yaml:"aiTimeoutSeconds"`

	AIRateLimitPerHour    int `yaml:"aiRateLimitPerHour"`
	EmailRateLimitPerHour int `yaml:"emailRateLimitPerHour"`

	ResendAPIKey  string `yaml:"resendAPIKey"`
	ResendBaseURL string `yaml:"resendBaseURL"`
	FromEmail     string `yaml:"fromEmail"`
	FromName      string `yaml:"fromName"`

	SlackWebhookURL string `yaml:"slackWebhookURL"`

	HubspotAPIKey   string `yaml:"hubspotAPIKey"`
	HubspotBaseURL  string `yaml:"hubspotBaseURL"`
	HubspotPortalID string `yaml:"hubspotPortalId"`
	HubspotFormID   string `yaml:"hubspotFormId"`

	PDFTimeoutSeconds       int   `yaml:"pdfTimeoutSeconds"`
	SendTimeoutSeconds      int   `yaml:"sendTimeoutSeconds"`
	MaxPDFBytes             int64 `yaml:"maxPDFBytes"`
	MaxLogoBytes            int64 `yaml:"maxLogoBytes"`
	MaxExtractChars         int   `yaml:"maxExtractChars"`
	SentConfirmationSeconds int   `yaml:"sentConfirmationSeconds"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("INVOICEGEN_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("INVOICEGEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOGS_DIR"); v != "" {
		cfg.LogsDir = v
	}
	if v := os.Getenv("INVOICEGEN_ALLOWED_ORIGIN"); v != "" {
		cfg.AllowedOrigin = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("INVOICEGEN_AI_PROVIDER"); v != "" {
		cfg.AIProvider = v
	}
	if v := os.Getenv("INVOICEGEN_AI_BASE_URL"); v != "" {
		cfg.AIBaseURL = v
	}
	if v := os.Getenv("INVOICEGEN_AI_API_KEY"); v != "" {
		cfg.AIAPIKey = v
	}
	if v := os.Getenv("INVOICEGEN_AI_MODEL"); v != "" {
		cfg.AIModel = v
	}
	if v := os.Getenv("INVOICEGEN_AI_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AITimeoutSeconds = n
		}
	}
	if v := os.Getenv("INVOICEGEN_AI_RATE_LIMIT_PER_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AIRateLimitPerHour = n
		}
	}
	if v := os.Getenv("INVOICEGEN_EMAIL_RATE_LIMIT_PER_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.EmailRateLimitPerHour = n
		}
	}
	if v := os.Getenv("INVOICEGEN_RESEND_API_KEY"); v != "" {
		cfg.ResendAPIKey = v
	}
	if v := os.Getenv("INVOICEGEN_RESEND_BASE_URL"); v != "" {
		cfg.ResendBaseURL = v
	}
	if v := os.Getenv("INVOICEGEN_FROM_EMAIL"); v != "" {
		cfg.FromEmail = v
	}
	if v := os.Getenv("INVOICEGEN_FROM_NAME"); v != "" {
		cfg.FromName = v
	}
	if v := os.Getenv("INVOICEGEN_SLACK_WEBHOOK_URL"); v != "" {
		cfg.SlackWebhookURL = v
	}
	if v := os.Getenv("INVOICEGEN_HUBSPOT_API_KEY"); v != "" {
		cfg.HubspotAPIKey = v
	}
	if v := os.Getenv("INVOICEGEN_HUBSPOT_BASE_URL"); v != "" {
		cfg.HubspotBaseURL = v
	}
	if v := os.Getenv("INVOICEGEN_HUBSPOT_PORTAL_ID"); v != "" {
		cfg.HubspotPortalID = v
	}
	if v := os.Getenv("INVOICEGEN_HUBSPOT_FORM_ID"); v != "" {
		cfg.HubspotFormID = v
	}
	if v := os.Getenv("INVOICEGEN_PDF_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PDFTimeoutSeconds = n
		}
	}
	if v := os.Getenv("INVOICEGEN_SEND_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SendTimeoutSeconds = n
		}
	}
	if v := os.Getenv("INVOICEGEN_MAX_PDF_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxPDFBytes = n
		}
	}
	if v := os.Getenv("INVOICEGEN_MAX_LOGO_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxLogoBytes = n
		}
	}
	if v := os.Getenv("INVOICEGEN_MAX_EXTRACT_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxExtractChars = n
		}
	}
	if v := os.Getenv("INVOICEGEN_SENT_CONFIRMATION_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SentConfirmationSeconds = n
		}
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.AIProvider == "" {
		cfg.AIProvider = "openai"
	}
	if cfg.AITimeoutSeconds <= 0 {
		cfg.AITimeoutSeconds = 15
	}
	if cfg.AIRateLimitPerHour <= 0 {
		cfg.AIRateLimitPerHour = 10
	}
	if cfg.EmailRateLimitPerHour <= 0 {
		cfg.EmailRateLimitPerHour = 5
	}
	if cfg.PDFTimeoutSeconds <= 0 {
		cfg.PDFTimeoutSeconds = 30
	}
	if cfg.SendTimeoutSeconds <= 0 {
		cfg.SendTimeoutSeconds = 15
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
	if cfg.SentConfirmationSeconds <= 0 {
		cfg.SentConfirmationSeconds = 3
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required (set in config.yaml or REDIS_ADDR)")
	}
	switch cfg.AIProvider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("config: unknown aiProvider %q (openai or ollama)", cfg.AIProvider)
	}
	if cfg.AIBaseURL == "" {
		return errors.New("config: aiBaseURL is required (set in config.yaml or INVOICEGEN_AI_BASE_URL)")
	}
	if cfg.AIModel == "" {
		return errors.New("config: aiModel is required (set in config.yaml or INVOICEGEN_AI_MODEL)")
	}
	if cfg.FromEmail == "" {
		return errors.New("config: fromEmail is required (set in config.yaml or INVOICEGEN_FROM_EMAIL)")
	}
	if (cfg.HubspotPortalID == "") != (cfg.HubspotFormID == "") {
		return errors.New("config: hubspotPortalId and hubspotFormId must be set together")
	}
	return nil
}
