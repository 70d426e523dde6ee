package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2"

	"github.com/rbxcloud-io/rbxcloud/internal/constants"
)

// OAuth2Config holds the settings for the OAuth2 token manager.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	Scopes       []string

	// AccessToken seeds the manager with an already-issued token.
	AccessToken string
	// RefreshToken enables automatic refresh when the access token
	// expires.
	RefreshToken string
}

// Token is one issued OAuth2 token set.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	IDToken      string    `json:"id_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	Scope        string    `json:"scope"`
	ExpiresAt    time.Time `json:"-"`
}

// Expired reports whether the token needs refreshing. A small skew
// window avoids using a token that dies mid-request.
func (t *Token) Expired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}

	return time.Now().Add(30 * time.Second).After(t.ExpiresAt)
}

// tokenStore holds the current token set behind a mutex.
type tokenStore struct {
	mutex sync.RWMutex
	token *Token
}

func (s *tokenStore) Get() *Token {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.token
}

func (s *tokenStore) Set(token *Token) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = token
}

// OAuth2TokenManager manages OAuth2 tokens with automatic refresh. It
// implements CredentialSource, so it plugs straight into the transport.
type OAuth2TokenManager struct {
	config  *OAuth2Config
	oauth   *oauth2.Config
	store   *tokenStore
	refresh sync.Mutex
}

// NewOAuth2TokenManager creates a token manager for config. Empty
// AuthURL and TokenURL default to the Roblox OAuth2 endpoints.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	authURL := config.AuthURL
	if authURL == "" {
		authURL = constants.DefaultAuthURL
	}

	tokenURL := config.TokenURL
	if tokenURL == "" {
		tokenURL = constants.DefaultTokenURL
	}

	manager := &OAuth2TokenManager{
		config: config,
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURI,
			Scopes:       config.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store: &tokenStore{},
	}

	if config.AccessToken != "" || config.RefreshToken != "" {
		manager.store.Set(&Token{
			AccessToken:  config.AccessToken,
			RefreshToken: config.RefreshToken,
		})
	}

	return manager
}

// AuthCodeURL builds the consent URL the resource owner must visit.
func (m *OAuth2TokenManager) AuthCodeURL(state string) string {
	return m.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token set.
func (m *OAuth2TokenManager) Exchange(ctx context.Context, code string) (*Token, error) {
	issued, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	token := fromOAuth2Token(issued)
	m.store.Set(token)

	return token, nil
}

// GetToken returns a valid access token, refreshing if necessary.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token != nil && token.AccessToken != "" && !token.Expired() {
		return token.AccessToken, nil
	}

	err := m.RefreshToken(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken forces a token refresh using the stored refresh token.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.refresh.Lock()
	defer m.refresh.Unlock()

	current := m.store.Get()
	if current == nil || current.RefreshToken == "" {
		return ErrNoRefresh
	}

	source := m.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: current.RefreshToken})

	issued, err := source.Token()
	if err != nil {
		return fmt.Errorf("refreshing token: %w", err)
	}

	refreshed := fromOAuth2Token(issued)
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = current.RefreshToken
	}

	m.store.Set(refreshed)

	return nil
}

// SetToken manually sets the access token.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	current := m.store.Get()

	refreshToken := ""
	if current != nil {
		refreshToken = current.RefreshToken
	}

	m.store.Set(&Token{
		AccessToken:  token,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}

// Credential implements CredentialSource.
func (m *OAuth2TokenManager) Credential(ctx context.Context) (string, error) {
	token, err := m.GetToken(ctx)
	if err != nil {
		return "", err
	}

	return BearerPrefix + token, nil
}

func fromOAuth2Token(issued *oauth2.Token) *Token {
	token := &Token{
		AccessToken:  issued.AccessToken,
		RefreshToken: issued.RefreshToken,
		TokenType:    issued.TokenType,
		ExpiresAt:    issued.Expiry,
	}

	if idToken, ok := issued.Extra("id_token").(string); ok {
		token.IDToken = idToken
	}

	return token
}

// IDTokenClaims is the identity payload embedded in an OpenID id_token.
type IDTokenClaims struct {
	Subject           string `json:"sub"`
	Name              string `json:"name"`
	Nickname          string `json:"nickname"`
	PreferredUsername string `json:"preferred_username"`
	Picture           string `json:"picture"`
	CreatedAt         int64  `json:"created_at"`
}

// ParseIDToken extracts the identity claims from an id_token. The token
// signature is not verified here; the token arrived over TLS from the
// issuer itself.
func ParseIDToken(idToken string) (*IDTokenClaims, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}

	_, _, err := parser.ParseUnverified(idToken, claims)
	if err != nil {
		return nil, fmt.Errorf("parsing id_token: %w", err)
	}

	parsed := &IDTokenClaims{}
	parsed.Subject, _ = claims["sub"].(string)
	parsed.Name, _ = claims["name"].(string)
	parsed.Nickname, _ = claims["nickname"].(string)
	parsed.PreferredUsername, _ = claims["preferred_username"].(string)
	parsed.Picture, _ = claims["picture"].(string)

	if created, ok := claims["created_at"].(float64); ok {
		parsed.CreatedAt = int64(created)
	}

	return parsed, nil
}
