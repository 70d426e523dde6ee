package rbxclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
	"github.com/rbxcloud-io/rbxcloud/pkg/rbxclient"
)

func TestOAuth2Flow_AuthCodeURL(t *testing.T) {
	flow := rbxclient.NewOAuth2Flow(&rbxclient.OAuth2FlowConfig{
		ClientID:    "client-1",
		RedirectURI: "https://example.com/callback",
		Scopes:      []string{"openid", "universe-messaging-service:publish"},
	})

	authURL := flow.AuthCodeURL("state-7")
	assert.Contains(t, authURL, "https://apis.roblox.com/oauth/v1/authorize")
	assert.Contains(t, authURL, "client_id=client-1")
	assert.Contains(t, authURL, "state=state-7")
	assert.Contains(t, authURL, "universe-messaging-service")
}

func TestOAuth2Flow_Exchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "code-1", r.FormValue("code"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "access-1",
			"refresh_token": "refresh-1",
			"token_type": "Bearer",
			"expires_in": 899
		}`))
	}))
	defer server.Close()

	flow := rbxclient.NewOAuth2Flow(&rbxclient.OAuth2FlowConfig{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		TokenURL:     server.URL,
	})

	token, err := flow.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", token.AccessToken)
	assert.Equal(t, "refresh-1", token.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(899*time.Second), token.ExpiresAt, 5*time.Second)

	client, err := flow.Client(token)
	require.NoError(t, err)
	assert.NotNil(t, client.DataStores())
}

func TestOAuth2Flow_Exchange_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant"}`))
	}))
	defer server.Close()

	flow := rbxclient.NewOAuth2Flow(&rbxclient.OAuth2FlowConfig{
		ClientID: "client-1",
		TokenURL: server.URL,
	})

	_, err := flow.Exchange(context.Background(), "bad-code")
	assert.ErrorIs(t, err, opencloud.ErrInvalidCode)
}

func TestOAuth2Flow_Exchange_ServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	flow := rbxclient.NewOAuth2Flow(&rbxclient.OAuth2FlowConfig{
		ClientID: "client-1",
		TokenURL: server.URL,
	})

	// A 5xx from the token endpoint says nothing about the code; it must
	// not surface as an invalid-code error.
	_, err := flow.Exchange(context.Background(), "code-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, opencloud.ErrInvalidCode)
}

func TestParseIDToken(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":                "287113233",
		"name":               "Builder",
		"preferred_username": "builderman",
		"created_at":         float64(1199145600),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	claims, err := rbxclient.ParseIDToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "287113233", claims.Subject)
	assert.Equal(t, "builderman", claims.PreferredUsername)
	assert.Equal(t, 2008, claims.CreatedAt.UTC().Year())
}
