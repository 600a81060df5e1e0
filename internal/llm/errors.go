// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Error classes. An *APIError unwraps to at most one of them.
var (
	ErrAuthentication   = errors.New("authentication failed")
	ErrPermission       = errors.New("permission denied")
	ErrQuota            = errors.New("quota or billing limit reached")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrRateLimited      = errors.New("rate limited")
)

// APIError is a non-2xx response from an LLM provider.
type APIError struct {
	Provider string
	Status   int

	// Type is the provider's error type or code, e.g. "authentication_error"
	// or "insufficient_quota".
	Type    string
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Type != "" {
		return fmt.Sprintf("%s API returned %d (%s): %s", e.Provider, e.Status, e.Type, msg)
	}
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.Status, msg)
}

// Unwrap returns the error class, or nil for errors that are not classified.
func (e *APIError) Unwrap() error {
	t := strings.ToLower(e.Type)
	m := strings.ToLower(e.Message)
	switch {
	case t == "insufficient_quota" || strings.Contains(t, "billing") ||
		strings.Contains(m, "credit balance") || e.Status == http.StatusPaymentRequired:
		return ErrQuota
	case e.Status == http.StatusUnauthorized || t == "authentication_error" || t == "invalid_api_key":
		return ErrAuthentication
	case e.Status == http.StatusForbidden || t == "permission_error":
		return ErrPermission
	case e.Status == http.StatusNotFound || t == "not_found_error" || t == "model_not_found":
		return ErrModelUnavailable
	case e.Status == http.StatusTooManyRequests || t == "rate_limit_error":
		return ErrRateLimited
	}
	return nil
}

// fatalPhrases catch fatal conditions in errors that did not come through an
// APIError, such as a gateway that rewrites provider errors into plain text.
var fatalPhrases = []string{
	"authentication",
	"unauthorized",
	"invalid api key",
	"invalid x-api-key",
	"permission",
	"quota",
	"billing",
	"credit balance",
	"model not found",
	"does not exist",
}

// fatalStatus matches a 401 or 403 only where it is labeled as an HTTP
// status, so counts, ports and addresses that contain those digits do not.
var fatalStatus = regexp.MustCompile(`\b(?:http|status(?: code)?)\W{0,3}40[13]\b`)

// Fatal reports whether err means further requests with the same credentials
// and model will fail too: authentication, permission, quota or model
// availability problems. Rate limiting and timeouts are not fatal.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	for _, class := range []error{ErrAuthentication, ErrPermission, ErrQuota, ErrModelUnavailable} {
		if errors.Is(err, class) {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	if fatalStatus.MatchString(msg) {
		return true
	}
	for _, p := range fatalPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
