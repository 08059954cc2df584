package phantom_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-phantom"
)

func TestAPIError(t *testing.T) {
	t.Run("Error without request ID", func(t *testing.T) {
		err := &phantom.APIError{
			StatusCode: 500,
			Message:    "internal error",
		}
		assert.Equal(t, "phantom: API error 500: internal error", err.Error())
	})

	t.Run("Error with request ID", func(t *testing.T) {
		err := &phantom.APIError{
			StatusCode: 500,
			Message:    "internal error",
			RequestID:  "req-123",
		}
		assert.Equal(t, "phantom: API error 500: internal error (request_id=req-123)", err.Error())
	})
}

func TestAuthenticationError(t *testing.T) {
	err := &phantom.AuthenticationError{
		APIError: phantom.APIError{
			StatusCode: 401,
			Message:    "bad token",
		},
	}
	assert.Equal(t, "phantom: authentication failed: bad token", err.Error())

	var apiErr *phantom.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)
}

func TestNotFoundError(t *testing.T) {
	t.Run("with resource info", func(t *testing.T) {
		err := &phantom.NotFoundError{
			APIError:     phantom.APIError{StatusCode: 404},
			ResourceType: "container",
			ResourceID:   "42",
		}
		assert.Equal(t, "phantom: container not found: 42", err.Error())
	})

	t.Run("without resource info", func(t *testing.T) {
		err := &phantom.NotFoundError{
			APIError: phantom.APIError{
				StatusCode: 404,
				Message:    "not found",
			},
		}
		assert.Equal(t, "phantom: resource not found: not found", err.Error())
	})
}

func TestRateLimitError(t *testing.T) {
	t.Run("with retry after", func(t *testing.T) {
		err := &phantom.RateLimitError{
			APIError:   phantom.APIError{StatusCode: 429},
			RetryAfter: 30 * time.Second,
		}
		assert.Equal(t, "phantom: rate limit exceeded, retry after 30s", err.Error())
	})

	t.Run("without retry after", func(t *testing.T) {
		err := &phantom.RateLimitError{APIError: phantom.APIError{StatusCode: 429}}
		assert.Equal(t, "phantom: rate limit exceeded", err.Error())
	})
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		header     map[string]string
		check      func(t *testing.T, err error)
		wantStatus int
		wantMsg    string
	}{
		{
			name:   "401 authentication",
			status: http.StatusUnauthorized,
			body:   `{"failed": true, "message": "Invalid token"}`,
			check: func(t *testing.T, err error) {
				var target *phantom.AuthenticationError
				assert.ErrorAs(t, err, &target)
			},
			wantStatus: 401,
			wantMsg:    "Invalid token",
		},
		{
			name:   "403 authentication",
			status: http.StatusForbidden,
			body:   `{"failed": true, "message": "No permission"}`,
			check: func(t *testing.T, err error) {
				var target *phantom.AuthenticationError
				assert.ErrorAs(t, err, &target)
			},
			wantStatus: 403,
			wantMsg:    "No permission",
		},
		{
			name:   "400 validation",
			status: http.StatusBadRequest,
			body:   `{"failed": true, "message": "Missing required field label"}`,
			check: func(t *testing.T, err error) {
				var target *phantom.ValidationError
				assert.ErrorAs(t, err, &target)
			},
			wantStatus: 400,
			wantMsg:    "Missing required field label",
		},
		{
			name:   "429 rate limit",
			status: http.StatusTooManyRequests,
			body:   `{"failed": true, "message": "slow down"}`,
			header: map[string]string{"Retry-After": "12"},
			check: func(t *testing.T, err error) {
				var target *phantom.RateLimitError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, 12*time.Second, target.RetryAfter)
			},
			wantStatus: 429,
			wantMsg:    "slow down",
		},
		{
			name:   "502 server error with plain body",
			status: http.StatusBadGateway,
			body:   `Bad Gateway`,
			check: func(t *testing.T, err error) {
				var target *phantom.ServerError
				assert.ErrorAs(t, err, &target)
			},
			wantStatus: 502,
			wantMsg:    "Bad Gateway",
		},
		{
			name:   "409 generic",
			status: http.StatusConflict,
			body:   `{"failed": true, "message": "conflict"}`,
			check: func(t *testing.T, err error) {
				var target *phantom.ValidationError
				assert.NotErrorAs(t, err, &target)
			},
			wantStatus: 409,
			wantMsg:    "conflict",
		},
		{
			name:   "302 without location",
			status: http.StatusFound,
			body:   `{"id": 3, "success": true}`,
			check: func(t *testing.T, err error) {
				var target *phantom.ServerError
				assert.NotErrorAs(t, err, &target)
			},
			wantStatus: 302,
			wantMsg:    `{"id": 3, "success": true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Containers.Create(context.Background(), nil, phantom.WithRequestID("req-9"))
			require.Error(t, err)
			tt.check(t, err)

			var apiErr *phantom.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, "req-9", apiErr.RequestID)
			assert.Equal(t, tt.body, string(apiErr.Body))
		})
	}
}

func TestErrorMapping_NotModified(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	})

	result, err := client.Containers.Delete(context.Background(), 4)
	assert.Nil(t, result)
	var apiErr *phantom.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotModified, apiErr.StatusCode)
}

func TestErrorMapping_NotFoundNamesResource(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"failed": true, "message": "Requested item not found"})
	})

	_, err := client.Containers.Get(context.Background(), 99)
	var nf *phantom.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "container", nf.ResourceType)
	assert.Equal(t, "99", nf.ResourceID)
	assert.Equal(t, "phantom: container not found: 99", err.Error())
}

func TestValidationBeforeRequest(t *testing.T) {
	called := false
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	ctx := context.Background()

	_, err := client.Containers.Get(ctx, 0)
	var ve *phantom.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "phantom: validation error: container ID must be positive", err.Error())

	_, err = client.Artifacts.Add(ctx, &phantom.AddArtifactRequest{})
	require.ErrorAs(t, err, &ve)

	_, err = client.Playbooks.Run(ctx, &phantom.RunPlaybookRequest{ContainerID: 1})
	require.ErrorAs(t, err, &ve)

	_, err = client.Actions.Run(ctx, &phantom.RunActionRequest{Action: "lookup ip", ContainerID: 1})
	require.ErrorAs(t, err, &ve)

	assert.False(t, called)
}
