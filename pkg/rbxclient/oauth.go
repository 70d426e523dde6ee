package rbxclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/rbxcloud-io/rbxcloud/internal/auth"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// OAuth2FlowConfig configures a three-legged OAuth2 authorization code
// flow against the Roblox OAuth2 endpoints.
type OAuth2FlowConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	// AuthURL and TokenURL override the Roblox OAuth2 endpoints.
	AuthURL  string
	TokenURL string
}

// OAuth2Token is one issued token set.
type OAuth2Token struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	Scope        string
	ExpiresAt    time.Time
}

// IDTokenClaims is the identity carried in an openid id_token.
type IDTokenClaims struct {
	Subject           string
	Name              string
	Nickname          string
	PreferredUsername string
	Picture           string
	CreatedAt         time.Time
}

// OAuth2Flow drives the authorization code flow: send the resource
// owner to AuthCodeURL, then trade the code on the redirect for tokens
// with Exchange. The tokens plug into Config.BearerToken and
// Config.RefreshToken.
type OAuth2Flow struct {
	manager *auth.OAuth2TokenManager
}

// NewOAuth2Flow creates a flow for the app's registered credentials.
func NewOAuth2Flow(config *OAuth2FlowConfig) *OAuth2Flow {
	return &OAuth2Flow{
		manager: auth.NewOAuth2TokenManager(&auth.OAuth2Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURI:  config.RedirectURI,
			Scopes:       config.Scopes,
			AuthURL:      config.AuthURL,
			TokenURL:     config.TokenURL,
		}),
	}
}

// AuthCodeURL builds the consent URL the resource owner must visit.
// State is echoed back on the redirect and must be checked there.
func (f *OAuth2Flow) AuthCodeURL(state string) string {
	return f.manager.AuthCodeURL(state)
}

// Exchange trades the authorization code from the redirect for a token
// set. A 400 or 401 from the token endpoint means the code itself was
// rejected; transport and server failures keep their own errors.
func (f *OAuth2Flow) Exchange(ctx context.Context, code string) (*OAuth2Token, error) {
	token, err := f.manager.Exchange(ctx, code)
	if err != nil {
		if codeRejected(err) {
			return nil, fmt.Errorf("%w: %s", opencloud.ErrInvalidCode, err)
		}

		return nil, err
	}

	return &OAuth2Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      token.IDToken,
		Scope:        token.Scope,
		ExpiresAt:    token.ExpiresAt,
	}, nil
}

func codeRejected(err error) bool {
	var retrieve *oauth2.RetrieveError
	if !errors.As(err, &retrieve) || retrieve.Response == nil {
		return false
	}

	status := retrieve.Response.StatusCode

	return status == http.StatusBadRequest || status == http.StatusUnauthorized
}

// Client builds an Open Cloud client authenticated as the resource
// owner whose tokens the flow holds.
func (f *OAuth2Flow) Client(token *OAuth2Token) (opencloud.Client, error) {
	return New(&opencloud.Config{
		BearerToken: token.AccessToken,
	})
}

// ParseIDToken extracts the identity claims from an openid id_token.
// The signature is not verified; the token came straight from the
// issuer over TLS during Exchange.
func ParseIDToken(idToken string) (*IDTokenClaims, error) {
	claims, err := auth.ParseIDToken(idToken)
	if err != nil {
		return nil, err
	}

	parsed := &IDTokenClaims{
		Subject:           claims.Subject,
		Name:              claims.Name,
		Nickname:          claims.Nickname,
		PreferredUsername: claims.PreferredUsername,
		Picture:           claims.Picture,
	}

	if claims.CreatedAt > 0 {
		parsed.CreatedAt = time.Unix(claims.CreatedAt, 0)
	}

	return parsed, nil
}
