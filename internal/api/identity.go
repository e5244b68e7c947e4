package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// IdentityClient signs admins in against the managed identity provider's
// email/password endpoint.
type IdentityClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewIdentityClient creates an identity provider client.
func NewIdentityClient(baseURL, apiKey string) *IdentityClient {
	return &IdentityClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SignedInUser is the provider's view of an authenticated subject. The UID
// still has to be cross-checked against the admins collection before a
// back-office session is issued. ProviderToken is only needed for follow-up
// account operations (password change) and never leaves the service.
type SignedInUser struct {
	UID           string
	Email         string
	ProviderToken string
}

// SignIn exchanges email/password for the provider subject. Wrong
// credentials and unknown accounts both come back as ErrCredentialInvalid;
// the provider's own throttling maps to ErrRateLimited.
func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (SignedInUser, error) {
	payload, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return SignedInUser{}, err
	}

	endpoint := c.baseURL + "/v1/accounts:signInWithPassword?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return SignedInUser{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return SignedInUser{}, transportError("identity", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		switch {
		case strings.HasPrefix(body.Error.Message, "INVALID_PASSWORD"),
			strings.HasPrefix(body.Error.Message, "INVALID_LOGIN_CREDENTIALS"),
			strings.HasPrefix(body.Error.Message, "EMAIL_NOT_FOUND"):
			return SignedInUser{}, fmt.Errorf("identity: %s: %w", body.Error.Message, ErrCredentialInvalid)
		case strings.HasPrefix(body.Error.Message, "TOO_MANY_ATTEMPTS"):
			return SignedInUser{}, fmt.Errorf("identity: %s: %w", body.Error.Message, ErrRateLimited)
		}
		return SignedInUser{}, statusError("identity", resp.StatusCode)
	}

	var body struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
		IDToken string `json:"idToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return SignedInUser{}, fmt.Errorf("decode identity response: %w", err)
	}
	if body.LocalID == "" {
		return SignedInUser{}, fmt.Errorf("identity: empty subject: %w", ErrCredentialInvalid)
	}
	return SignedInUser{UID: body.LocalID, Email: body.Email, ProviderToken: body.IDToken}, nil
}

// UpdatePassword sets a new password for the subject behind providerToken.
func (c *IdentityClient) UpdatePassword(ctx context.Context, providerToken, newPassword string) error {
	payload, err := json.Marshal(map[string]any{
		"idToken":           providerToken,
		"password":          newPassword,
		"returnSecureToken": false,
	})
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/v1/accounts:update?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError("identity", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError("identity", resp.StatusCode)
	}
	return nil
}
