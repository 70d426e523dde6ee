// Package auth provides credential sources for the Open Cloud API:
// static API keys, static bearer tokens, and OAuth2 token management
// with automatic refresh.
package auth

import (
	"context"
	"errors"
)

// BearerPrefix marks a credential that belongs in the Authorization
// header rather than x-api-key.
const BearerPrefix = "Bearer "

// Static errors for err113 compliance.
var (
	ErrNoCredential = errors.New("no credential configured")
	ErrNoRefresh    = errors.New("no refresh token available")
)

// CredentialSource yields the credential string for one request. The
// transport routes it by prefix: bearer tokens go to Authorization,
// anything else to x-api-key.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// APIKeyCredential is a static Open Cloud API key.
type APIKeyCredential struct {
	key string
}

// NewAPIKeyCredential creates a credential source from an API key.
func NewAPIKeyCredential(key string) *APIKeyCredential {
	return &APIKeyCredential{key: key}
}

// Credential returns the raw API key.
func (c *APIKeyCredential) Credential(ctx context.Context) (string, error) {
	if c.key == "" {
		return "", ErrNoCredential
	}

	return c.key, nil
}

// BearerCredential is a static bearer token, typically a user access
// token obtained outside the client.
type BearerCredential struct {
	token string
}

// NewBearerCredential creates a credential source from a bearer token.
// The token may be passed with or without the "Bearer " prefix.
func NewBearerCredential(token string) *BearerCredential {
	return &BearerCredential{token: token}
}

// Credential returns the token with the bearer prefix applied.
func (c *BearerCredential) Credential(ctx context.Context) (string, error) {
	if c.token == "" {
		return "", ErrNoCredential
	}

	if len(c.token) >= len(BearerPrefix) && c.token[:len(BearerPrefix)] == BearerPrefix {
		return c.token, nil
	}

	return BearerPrefix + c.token, nil
}
