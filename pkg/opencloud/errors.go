package opencloud

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error kinds translated from HTTP status codes. Every error returned by
// the transport wraps exactly one of these, so callers can match with
// errors.Is regardless of the endpoint that produced it.
var (
	// ErrInvalidKey is returned for HTTP 401: the API key or bearer token
	// is invalid, expired, or not from an accepted IP.
	ErrInvalidKey = errors.New("the authorization key is not valid")

	// ErrPermissionDenied is returned for HTTP 403: the authorization does
	// not have scope to access the resource.
	ErrPermissionDenied = errors.New("the authorization does not have access to this resource")

	// ErrNotFound is returned for HTTP 404.
	ErrNotFound = errors.New("the requested resource was not found")

	// ErrRateLimited is returned for HTTP 429.
	ErrRateLimited = errors.New("the resource is being rate limited")

	// ErrServiceUnavailable is returned for HTTP 5xx after the retry
	// budget is exhausted.
	ErrServiceUnavailable = errors.New("the service is unavailable or has encountered an error")

	// ErrPreconditionFailed is returned for HTTP 412 on conditional data
	// store writes. The concrete error is a *PreconditionFailedError.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrUnexpectedStatus is the fallback kind for any other status not in
	// the expected list.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrOperationTimeout is returned by Operation.Wait when the timeout
	// elapses before the operation completes. It is distinct from
	// transport failures so callers can decide to keep waiting.
	ErrOperationTimeout = errors.New("timed out waiting for operation to complete")

	// ErrInvalidCode is returned when an OAuth2 authorization code is
	// rejected by the token endpoint.
	ErrInvalidCode = errors.New("the authorization code is invalid")

	// ErrInvalidSignature is returned when a webhook payload fails
	// signature validation.
	ErrInvalidSignature = errors.New("webhook signature does not match")

	// ErrModerated is returned when uploaded content is rejected by
	// moderation.
	ErrModerated = errors.New("the content was rejected by moderation")
)

// Static errors wrapped with context at call sites.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrNoCredential        = errors.New("an API key or bearer token is required")
	ErrScopeRequired       = errors.New("a scope and key separated by a forward slash is required when the data store has no scope")
	ErrExclusiveConditions = errors.New("matchVersion and exclusiveCreate cannot both be set")
	ErrOperationPending    = errors.New("operation has not completed")
	ErrNoMoreItems         = errors.New("no more items")
)

// ErrorDetail is one entry of the "errors" array Roblox returns on some
// failures.
type ErrorDetail struct {
	Code    json.Number `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Field   string      `json:"field,omitempty"`
}

// APIError is the error returned by the transport for a status code that
// was not in the request's expected list. It wraps the translated kind and
// carries whatever error body Roblox returned.
type APIError struct {
	StatusCode int
	Kind       error
	Code       string
	Message    string
	Details    []ErrorDetail
	Body       []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}

	if e.Kind != nil {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Kind.Error())
	}

	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Unwrap exposes the translated kind to errors.Is.
func (e *APIError) Unwrap() error {
	return e.Kind
}

// apiErrorBody matches the error shapes Roblox uses across endpoint
// families: either a flat code/message object or an errors array.
type apiErrorBody struct {
	Code    json.Number   `json:"code,omitempty"`
	Message string        `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
	Errors  []ErrorDetail `json:"errors,omitempty"`
}

// NewAPIError builds an APIError for a status code, parsing the response
// body when it carries a recognizable error shape. A body that is not
// JSON is kept raw.
func NewAPIError(statusCode int, kind error, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Kind:       kind,
		Body:       body,
	}

	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return apiErr
	}

	apiErr.Code = parsed.Code.String()
	apiErr.Message = parsed.Message
	apiErr.Details = parsed.Errors

	if apiErr.Message == "" && parsed.Error != "" {
		apiErr.Message = parsed.Error
	}

	if apiErr.Message == "" && len(parsed.Errors) > 0 {
		apiErr.Code = parsed.Errors[0].Code.String()
		apiErr.Message = parsed.Errors[0].Message
	}

	return apiErr
}

// PreconditionFailedError is returned when a conditional data store write
// fails. It carries the value and metadata currently stored so callers can
// resolve the conflict without another round trip.
type PreconditionFailedError struct {
	// Value is the raw JSON value currently stored under the key.
	Value json.RawMessage

	// Info describes the current version of the entry.
	Info *EntryInfo

	// Reason is a short human-readable description of the failed condition.
	Reason string
}

// Error implements the error interface.
func (e *PreconditionFailedError) Error() string {
	if e.Reason != "" {
		return "precondition failed: " + e.Reason
	}

	return "precondition failed"
}

// Unwrap exposes ErrPreconditionFailed to errors.Is.
func (e *PreconditionFailedError) Unwrap() error {
	return ErrPreconditionFailed
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidKey checks if the error is an authorization error.
func IsInvalidKey(err error) bool {
	return errors.Is(err, ErrInvalidKey)
}

// IsPermissionDenied checks if the error is a permission error.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsRateLimited checks if the error is a rate limit error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsServiceUnavailable checks if the error is a server-side failure that
// survived the retry budget.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsPreconditionFailed checks if the error is a failed conditional write.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}
