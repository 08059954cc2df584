package phantom

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tphakala/go-phantom/internal/api"
)

// Sentinel errors for common failure modes.
var (
	ErrNoToken   = errors.New("phantom: no auth token configured")
	ErrNoBaseURL = errors.New("phantom: no base URL configured")

	// ErrInvalidBaseURL wraps base URLs that do not parse as http(s) URLs.
	ErrInvalidBaseURL = errors.New("phantom: invalid base URL")

	// ErrPollExhausted is returned by Wait when the run did not reach a
	// terminal status within the configured number of attempts.
	ErrPollExhausted = errors.New("phantom: run did not finish within poll attempts")

	// ErrUnexpectedStatus is returned while polling when Phantom reports a
	// status that is neither terminal nor in progress.
	ErrUnexpectedStatus = errors.New("phantom: unexpected run status")
)

// APIError represents a general Phantom API error.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Failed     bool   `json:"failed,omitempty"`
	RequestID  string `json:"-"`

	// Body is the raw response body.
	Body []byte `json:"-"`
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("phantom: API error %d: %s (request_id=%s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("phantom: API error %d: %s", e.StatusCode, e.Message)
}

// AuthenticationError indicates authentication failure (401/403).
type AuthenticationError struct {
	APIError
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("phantom: authentication failed: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *AuthenticationError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// NotFoundError indicates the requested resource was not found (404).
type NotFoundError struct {
	APIError
	ResourceType string
	ResourceID   string
}

func (e *NotFoundError) Error() string {
	if e.ResourceType != "" && e.ResourceID != "" {
		return fmt.Sprintf("phantom: %s not found: %s", e.ResourceType, e.ResourceID)
	}
	return fmt.Sprintf("phantom: resource not found: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *NotFoundError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// ValidationError indicates invalid request data (400), or a request the
// client refused to send.
type ValidationError struct {
	APIError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("phantom: validation error: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *ValidationError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// RateLimitError indicates the API rate limit was exceeded (429).
type RateLimitError struct {
	APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("phantom: rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "phantom: rate limit exceeded"
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *RateLimitError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// ServerError indicates an internal server error (5xx).
type ServerError struct {
	APIError
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("phantom: server error %d: %s", e.StatusCode, e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *ServerError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// parseError converts an HTTP response into the appropriate error type.
// Phantom reports failures as {"failed": true, "message": "..."}.
func parseError(statusCode int, body []byte, headers http.Header, requestID string) error {
	base := APIError{
		StatusCode: statusCode,
		RequestID:  requestID,
		Body:       body,
	}

	if err := json.Unmarshal(body, &base); err != nil || base.Message == "" {
		// Fallback to raw body if not valid JSON
		base.Message = string(body)
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &AuthenticationError{APIError: base}
	case statusCode == http.StatusNotFound:
		return &NotFoundError{APIError: base}
	case statusCode == http.StatusBadRequest:
		return &ValidationError{APIError: base}
	case statusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			APIError:   base,
			RetryAfter: parseRetryAfter(headers.Get("Retry-After")),
		}
	case statusCode >= http.StatusInternalServerError:
		return &ServerError{APIError: base}
	default:
		return &base
	}
}

// notFound builds a NotFoundError for a known resource.
func notFound(resourceType, id string, body []byte, requestID string) *NotFoundError {
	return &NotFoundError{
		APIError: APIError{
			StatusCode: http.StatusNotFound,
			Message:    resourceType + " not found",
			RequestID:  requestID,
			Body:       body,
		},
		ResourceType: resourceType,
		ResourceID:   id,
	}
}

// checkResponse converts any non-2xx response into a typed error. When
// resourceType is set, 404 becomes a NotFoundError naming the resource.
// Statuses outside 4xx and 5xx come back as a plain *APIError.
func checkResponse(resp *api.Response, resourceType string, id int64) error {
	if resp.StatusCode == http.StatusNotFound && resourceType != "" {
		return notFound(resourceType, strconv.FormatInt(id, 10), resp.Body, resp.RequestID)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return parseError(resp.StatusCode, resp.Body, resp.Headers, resp.RequestID)
	}
	return nil
}

// validateID rejects IDs Phantom never assigns.
func validateID(resourceType string, id int64) error {
	if id <= 0 {
		return invalid(resourceType + " ID must be positive")
	}
	return nil
}

func invalid(msg string) *ValidationError {
	return &ValidationError{APIError: APIError{Message: msg}}
}

// parseRetryAfter parses the Retry-After header value.
// It handles both seconds (integer) and HTTP-date formats.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := time.Parse(time.RFC1123, value); err == nil {
		duration := time.Until(t)
		if duration > 0 {
			return duration
		}
	}

	return 0
}
