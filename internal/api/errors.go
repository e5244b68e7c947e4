package api

import (
	"errors"
	"fmt"
	"net/http"
)

// The managed providers report failure in provider-specific shapes. Each is
// mapped to this closed set at the boundary so call sites never sniff codes
// or messages.
var (
	ErrCredentialInvalid  = errors.New("credentials rejected")
	ErrRateLimited        = errors.New("rate limited upstream")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrNotFound           = errors.New("not found")
)

// statusError maps an HTTP status into the failure set, keeping the
// provider name and status for the log line.
func statusError(provider string, status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s status %d: %w", provider, status, ErrCredentialInvalid)
	case http.StatusNotFound:
		return fmt.Errorf("%s status %d: %w", provider, status, ErrNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s status %d: %w", provider, status, ErrRateLimited)
	}
	return fmt.Errorf("%s status %d", provider, status)
}

// transportError wraps a failed round trip.
func transportError(provider string, err error) error {
	return fmt.Errorf("%s: %v: %w", provider, err, ErrNetworkUnavailable)
}
