package opencloud

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPIError_BodyShapes(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "flat code and message",
			body:        `{"code": "INVALID_ARGUMENT", "message": "DataStore name is invalid."}`,
			wantCode:    "INVALID_ARGUMENT",
			wantMessage: "DataStore name is invalid.",
		},
		{
			name:        "numeric code",
			body:        `{"code": 8, "message": "quota exceeded"}`,
			wantCode:    "8",
			wantMessage: "quota exceeded",
		},
		{
			name:        "error field only",
			body:        `{"error": "ALREADY_EXISTS"}`,
			wantMessage: "ALREADY_EXISTS",
		},
		{
			name:        "errors array",
			body:        `{"errors": [{"code": 1, "message": "version not found", "field": "version"}]}`,
			wantCode:    "1",
			wantMessage: "version not found",
		},
		{
			name: "non-JSON body kept raw",
			body: "upstream proxy error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := NewAPIError(404, ErrNotFound, []byte(tt.body))

			assert.Equal(t, 404, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, []byte(tt.body), apiErr.Body)
			assert.ErrorIs(t, apiErr, ErrNotFound)
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	withMessage := NewAPIError(403, ErrPermissionDenied, []byte(`{"message": "missing scope"}`))
	assert.Equal(t, "HTTP 403: missing scope", withMessage.Error())

	withoutMessage := NewAPIError(429, ErrRateLimited, nil)
	assert.Equal(t, "HTTP 429: "+ErrRateLimited.Error(), withoutMessage.Error())
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
	}{
		{"not found", NewAPIError(404, ErrNotFound, nil), IsNotFound},
		{"invalid key", NewAPIError(401, ErrInvalidKey, nil), IsInvalidKey},
		{"permission denied", NewAPIError(403, ErrPermissionDenied, nil), IsPermissionDenied},
		{"rate limited", NewAPIError(429, ErrRateLimited, nil), IsRateLimited},
		{"service unavailable", NewAPIError(503, ErrServiceUnavailable, nil), IsServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.predicate(tt.err))
			// Predicates see through additional wrapping.
			assert.True(t, tt.predicate(fmt.Errorf("getting entry: %w", tt.err)))
			assert.False(t, tt.predicate(errors.New("unrelated")))
		})
	}
}

func TestPreconditionFailedError(t *testing.T) {
	preErr := &PreconditionFailedError{
		Value:  json.RawMessage(`{"coins": 100}`),
		Info:   &EntryInfo{Version: "v2"},
		Reason: "version mismatch",
	}

	assert.True(t, IsPreconditionFailed(preErr))
	assert.Equal(t, "precondition failed: version mismatch", preErr.Error())

	var target *PreconditionFailedError

	wrapped := fmt.Errorf("setting entry: %w", preErr)
	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, "v2", target.Info.Version)
	assert.JSONEq(t, `{"coins": 100}`, string(target.Value))
}
