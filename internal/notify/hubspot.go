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

const defaultHubspotAPIBase = "https://api.hubapi.com"
const defaultHubspotFormsBase = "https://api.hsforms.com"

// HubspotClient talks to the HubSpot CRM and Forms APIs: contact
// upsert on email sends, form submission with the invoice's company
// address fields on downloads.
type HubspotClient struct {
	apiBase    string
	formsBase  string
	apiKey     string
	portalID   string
	formID     string
	httpClient *http.Client
}

// HubspotConfig carries the client settings.
type HubspotConfig struct {
	APIBase   string
	FormsBase string
	APIKey    string
	PortalID  string
	FormID    string
}

// NewHubspotClient constructs the CRM client.
func NewHubspotClient(cfg HubspotConfig) *HubspotClient {
	apiBase := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if apiBase == "" {
		apiBase = defaultHubspotAPIBase
	}
	formsBase := strings.TrimRight(strings.TrimSpace(cfg.FormsBase), "/")
	if formsBase == "" {
		formsBase = defaultHubspotFormsBase
	}
	return &HubspotClient{
		apiBase:    apiBase,
		formsBase:  formsBase,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		portalID:   strings.TrimSpace(cfg.PortalID),
		formID:     strings.TrimSpace(cfg.FormID),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FormContext carries page metadata attached to form submissions.
type FormContext struct {
	PageURI  string `json:"pageUri"`
	PageName string `json:"pageName"`
}

// SubmitCompanies submits sender/recipient contact and address fields
// to the configured HubSpot form.
func (c *HubspotClient) SubmitCompanies(ctx context.Context, sender, recipient domain.Company, formCtx FormContext) error {
	fields := map[string]string{
		"company":               sender.Name,
		"email":                 sender.Email,
		"address":               sender.Address,
		"address2":              sender.Address2,
		"city":                  sender.City,
		"postal_code":           sender.PostalCode,
		"phone":                 sender.Phone,
		"recipient_company":     recipient.Name,
		"recipient_email":       recipient.Email,
		"recipient_address_1":   recipient.Address,
		"recipient_address_2":   recipient.Address2,
		"recipient_city":        recipient.City,
		"recipient_postal_code": recipient.PostalCode,
		"recipient_phone":       recipient.Phone,
	}
	return c.SubmitForm(ctx, fields, formCtx)
}

// SubmitForm submits arbitrary name/value fields to the configured form.
func (c *HubspotClient) SubmitForm(ctx context.Context, fields map[string]string, formCtx FormContext) error {
	if c == nil || c.portalID == "" || c.formID == "" {
		return ErrNotConfigured
	}
	type formField struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	payload := struct {
		Fields  []formField `json:"fields"`
		Context FormContext `json:"context"`
	}{Context: formCtx}
	for name, value := range fields {
		if value == "" {
			continue
		}
		payload.Fields = append(payload.Fields, formField{Name: name, Value: value})
	}
	url := fmt.Sprintf("%s/submissions/v3/integration/submit/%s/%s", c.formsBase, c.portalID, c.formID)
	return c.postJSON(ctx, url, payload, nil)
}

// UpsertContact finds a CRM contact by email or creates one, returning
// the contact ID.
func (c *HubspotClient) UpsertContact(ctx context.Context, email string) (string, error) {
	if c == nil || c.apiKey == "" {
		return "", ErrNotConfigured
	}
	search := map[string]any{
		"filterGroups": []map[string]any{
			{
				"filters": []map[string]any{
					{"propertyName": "email", "operator": "EQ", "value": email},
				},
			},
		},
	}
	var searchResp struct {
		Total   int `json:"total"`
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := c.postJSON(ctx, c.apiBase+"/crm/v3/objects/contacts/search", search, &searchResp); err != nil {
		return "", fmt.Errorf("search contact: %w", err)
	}
	if searchResp.Total > 0 && len(searchResp.Results) > 0 {
		return searchResp.Results[0].ID, nil
	}

	create := map[string]any{
		"properties": map[string]string{"email": email},
	}
	var createResp struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, c.apiBase+"/crm/v3/objects/contacts", create, &createResp); err != nil {
		return "", fmt.Errorf("create contact: %w", err)
	}
	return createResp.ID, nil
}

func (c *HubspotClient) postJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hubspot request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: "hubspot api error: " + resp.Status}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
