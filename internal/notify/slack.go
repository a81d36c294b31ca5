package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"invoicegen/pkg/domain"
)

// Action identifies which user action triggered a notification.
type Action string

const (
	ActionDownload Action = "download"
	ActionEmail    Action = "email"
)

// SlackClient posts invoice events to a Slack incoming webhook.
type SlackClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewSlackClient constructs a Slack webhook client. An empty webhook
// URL yields a disabled client whose sends fail with ErrNotConfigured.
func NewSlackClient(webhookURL string) *SlackClient {
	return &SlackClient{
		webhookURL: strings.TrimSpace(webhookURL),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ErrNotConfigured is returned when an outbound integration has no
// credential/URL configured. Callers in best-effort paths log and move on.
var ErrNotConfigured = fmt.Errorf("integration not configured")

// Configured reports whether the webhook URL is set.
func (c *SlackClient) Configured() bool {
	return c != nil && c.webhookURL != ""
}

// NotifyInvoice posts the sender/recipient summary blocks for one
// invoice action.
func (c *SlackClient) NotifyInvoice(ctx context.Context, action Action, sender, recipient domain.Company) error {
	return c.PostBlocks(ctx, InvoiceBlocks(action, sender, recipient))
}

// PostBlocks submits a raw Block Kit payload to the webhook.
func (c *SlackClient) PostBlocks(ctx context.Context, blocks []Block) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	body, err := json.Marshal(map[string]any{"blocks": blocks})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: "slack api error: " + resp.Status}
	}
	return nil
}

// Block is one Slack Block Kit element.
type Block struct {
	Type string     `json:"type"`
	Text *BlockText `json:"text,omitempty"`
}

// BlockText is the text payload of a block.
type BlockText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// InvoiceBlocks builds the notification layout: header, action, and
// one section per company.
func InvoiceBlocks(action Action, sender, recipient domain.Company) []Block {
	actionLabel := "Downloaded"
	if action == ActionEmail {
		actionLabel = "Emailed"
	}
	return []Block{
		{
			Type: "header",
			Text: &BlockText{Type: "plain_text", Text: "🎉 New Invoice Generated!", Emoji: true},
		},
		{
			Type: "section",
			Text: &BlockText{Type: "mrkdwn", Text: "*Action:* " + actionLabel},
		},
		{
			Type: "section",
			Text: &BlockText{Type: "mrkdwn", Text: companySection("Sender Company Information", sender)},
		},
		{
			Type: "section",
			Text: &BlockText{Type: "mrkdwn", Text: companySection("Recipient Company Information", recipient)},
		},
	}
}

func companySection(title string, c domain.Company) string {
	return fmt.Sprintf("*%s:*\n• Name: %s\n• Email: %s\n• Phone: %s", title, c.Name, c.Email, c.Phone)
}
