// Package transport holds the HTTP plumbing shared by the Jira and Azure DevOps clients.
package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// maxBodyInError caps how much of a response body ends up in an error message.
const maxBodyInError = 512

// StatusError is returned when a remote API answers with a non-2xx status.
type StatusError struct {
	Service    string // "jira" or "azure devops"
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// NewStatusError builds a StatusError, truncating long response bodies.
func NewStatusError(service, method, url string, statusCode int, body []byte) *StatusError {
	b := string(body)
	if len(b) > maxBodyInError {
		b = b[:maxBodyInError] + "..."
	}
	return &StatusError{
		Service:    service,
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Body:       b,
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.Service, e.StatusCode, e.Body)
}

// IsAuthError reports whether the remote rejected the credentials.
func (e *StatusError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// StatusCode extracts the HTTP status from err, or 0 if err carries none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
