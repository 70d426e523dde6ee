// Package rbxclient provides the main entry point for creating Roblox Open Cloud API clients
package rbxclient

import (
	"strings"

	"github.com/rbxcloud-io/rbxcloud/internal/client"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// New creates a new Open Cloud API client from config.
func New(config *opencloud.Config) (opencloud.Client, error) {
	if config == nil {
		return nil, opencloud.ErrConfigRequired
	}

	if config.BaseURL != "" {
		config.BaseURL = normalizeBaseURL(config.BaseURL)
	}

	return client.New(config)
}

// normalizeBaseURL strips a trailing slash and defaults the scheme to
// https, so "apis.roblox.com/" and "https://apis.roblox.com" build the
// same request URLs.
func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}

// NewWithAPIKey creates a new client authenticating with an Open Cloud
// API key from the Creator Dashboard.
func NewWithAPIKey(apiKey string) (opencloud.Client, error) {
	return New(&opencloud.Config{
		APIKey: apiKey,
	})
}

// NewWithToken creates a new client authenticating with an OAuth2 access
// token. The token is used as-is and never refreshed.
func NewWithToken(token string) (opencloud.Client, error) {
	return New(&opencloud.Config{
		BearerToken: token,
	})
}

// NewWithOAuth2 creates a new client that refreshes its access token
// through the OAuth2 token endpoint using the given refresh token.
func NewWithOAuth2(clientID, clientSecret, refreshToken string) (opencloud.Client, error) {
	return New(&opencloud.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RefreshToken: refreshToken,
	})
}
