package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// EmailClient dispatches transactional mail through the hosted template
// service: send(serviceID, templateID, variables).
type EmailClient struct {
	baseURL   string
	publicKey string
	http      *http.Client
}

// NewEmailClient creates a transactional email client.
func NewEmailClient(baseURL, publicKey string) *EmailClient {
	return &EmailClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		publicKey: publicKey,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Send renders templateID under serviceID with params and dispatches it.
func (c *EmailClient) Send(ctx context.Context, serviceID, templateID string, params map[string]string) error {
	payload, err := json.Marshal(map[string]any{
		"service_id":      serviceID,
		"template_id":     templateID,
		"user_id":         c.publicKey,
		"template_params": params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1.0/email/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError("email", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError("email", resp.StatusCode)
	}
	return nil
}

// Configured reports whether the client has credentials. An unconfigured
// mailer records messages without dispatching, matching the behavior the
// admin console expects in development.
func (c *EmailClient) Configured() bool {
	return c.baseURL != "" && c.publicKey != ""
}
