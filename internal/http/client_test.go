package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbxcloud-io/rbxcloud/internal/auth"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

func TestClient_Do_ExpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Invalid API key"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	t.Run("unexpected 401 translates to invalid key", func(t *testing.T) {
		_, err := client.Do(context.Background(), &Request{
			Method:         http.MethodGet,
			Path:           "/thing",
			ExpectedStatus: []int{200},
		})
		require.Error(t, err)
		assert.True(t, opencloud.IsInvalidKey(err))

		var apiErr *opencloud.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "Invalid API key", apiErr.Message)
	})

	t.Run("expected 401 returns the raw response", func(t *testing.T) {
		resp, err := client.Do(context.Background(), &Request{
			Method:         http.MethodGet,
			Path:           "/thing",
			ExpectedStatus: []int{200, 401},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("nil expected list never errors on status", func(t *testing.T) {
		resp, err := client.Do(context.Background(), &Request{
			Method: http.MethodGet,
			Path:   "/thing",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestClient_Do_StatusTranslation(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"forbidden", http.StatusForbidden, opencloud.IsPermissionDenied},
		{"not found", http.StatusNotFound, opencloud.IsNotFound},
		{"rate limited", http.StatusTooManyRequests, opencloud.IsRateLimited},
		{"precondition failed", http.StatusPreconditionFailed, opencloud.IsPreconditionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
			}))
			defer server.Close()

			client := NewClient(server.URL, nil)

			_, err := client.Get(context.Background(), "/thing", nil)
			require.Error(t, err)
			assert.True(t, tt.check(err))
		})
	}
}

func TestClient_Do_RateLimitNotRetried(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil,
		WithRetryConfig(3, time.Millisecond, 2*time.Millisecond))

	_, err := client.Get(context.Background(), "/thing", nil)
	require.Error(t, err)
	assert.True(t, opencloud.IsRateLimited(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Do_RetriesServerErrors(t *testing.T) {
	t.Run("succeeds within retry budget", func(t *testing.T) {
		var calls int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)

				return
			}

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}))
		defer server.Close()

		client := NewClient(server.URL, nil,
			WithRetryConfig(2, time.Millisecond, 2*time.Millisecond))

		resp, err := client.Get(context.Background(), "/thing", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("fails once the budget is spent", func(t *testing.T) {
		var calls int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewClient(server.URL, nil,
			WithRetryConfig(2, time.Millisecond, 2*time.Millisecond))

		_, err := client.Get(context.Background(), "/thing", nil)
		require.Error(t, err)
		assert.True(t, opencloud.IsServiceUnavailable(err))
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})
}

func TestClient_Do_CredentialRouting(t *testing.T) {
	t.Run("api key uses x-api-key header", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "secret-key", r.Header.Get("x-api-key"))
			assert.Empty(t, r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.URL, auth.NewAPIKeyCredential("secret-key"))

		_, err := client.Get(context.Background(), "/thing", nil)
		require.NoError(t, err)
	})

	t.Run("bearer token uses authorization header", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
			assert.Empty(t, r.Header.Get("x-api-key"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.URL, auth.NewBearerCredential("user-token"))

		_, err := client.Get(context.Background(), "/thing", nil)
		require.NoError(t, err)
	})
}

func TestClient_Do_SendsJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["message"])

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	_, err := client.Post(context.Background(), "/topics/test", map[string]string{"message": "hello"})
	require.NoError(t, err)
}

func TestClient_Do_CachesCacheableGets(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"value": "cached"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil,
		WithCache(opencloud.NewMemoryCache(10), time.Minute))

	req := &Request{
		Method:         http.MethodGet,
		Path:           "/entry",
		ExpectedStatus: []int{200},
		Cacheable:      true,
	}

	first, err := client.Do(context.Background(), req)
	require.NoError(t, err)

	second, err := client.Do(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Do_CacheHitPreservesHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("roblox-entry-version", "v42")
		w.Header().Set("roblox-entry-userids", "[287113233]")
		_ = json.NewEncoder(w).Encode(map[string]string{"value": "cached"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil,
		WithCache(opencloud.NewMemoryCache(10), time.Minute))

	req := &Request{
		Method:         http.MethodGet,
		Path:           "/entry",
		ExpectedStatus: []int{200},
		Cacheable:      true,
	}

	first, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "v42", first.Headers.Get("roblox-entry-version"))

	second, err := client.Do(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "v42", second.Headers.Get("roblox-entry-version"))
	assert.Equal(t, "[287113233]", second.Headers.Get("roblox-entry-userids"))
}

func TestResponse_Decoded(t *testing.T) {
	jsonResp := &Response{
		Body:    []byte(`{"key":"value"}`),
		Headers: http.Header{"Content-Type": []string{"application/json"}},
	}
	decoded, ok := jsonResp.Decoded().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "value", decoded["key"])

	textResp := &Response{
		Body:    []byte("plain text"),
		Headers: http.Header{"Content-Type": []string{"text/plain"}},
	}
	assert.Equal(t, "plain text", textResp.Decoded())
}
