package opencloud

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterceptorChain_Order(t *testing.T) {
	chain := NewInterceptorChain()

	var order []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *Request) error {
		order = append(order, "first")

		return nil
	})
	chain.AddRequestInterceptor(func(ctx context.Context, req *Request) error {
		order = append(order, "second")

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &Request{Method: http.MethodGet})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestInterceptorChain_RequestErrorStopsChain(t *testing.T) {
	chain := NewInterceptorChain()
	failErr := errors.New("rejected")

	var reached bool

	chain.AddRequestInterceptor(func(ctx context.Context, req *Request) error {
		return failErr
	})
	chain.AddRequestInterceptor(func(ctx context.Context, req *Request) error {
		reached = true

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &Request{})
	assert.ErrorIs(t, err, failErr)
	assert.False(t, reached)
}

func TestInterceptorChain_CanMutateRequest(t *testing.T) {
	chain := NewInterceptorChain()
	chain.AddRequestInterceptor(func(ctx context.Context, req *Request) error {
		req.Headers.Set("X-Trace-Id", "trace-1")

		return nil
	})

	req := &Request{Method: http.MethodGet, Headers: http.Header{}}
	require.NoError(t, chain.ExecuteRequestInterceptors(context.Background(), req))
	assert.Equal(t, "trace-1", req.Headers.Get("X-Trace-Id"))
}

func TestInterceptorChain_ResponseInterceptors(t *testing.T) {
	chain := NewInterceptorChain()

	var seenStatus int

	chain.AddResponseInterceptor(func(ctx context.Context, req *Request, resp *Response) error {
		seenStatus = resp.StatusCode

		return nil
	})

	err := chain.ExecuteResponseInterceptors(context.Background(),
		&Request{Method: http.MethodGet, Path: "/v1/universes/1"},
		&Response{StatusCode: 200})
	require.NoError(t, err)
	assert.Equal(t, 200, seenStatus)
}

func TestScrubHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer secret-token")
	headers.Set("X-Api-Key", "api-key-value")
	headers.Set("Content-Type", "application/json")

	scrubbed := ScrubHeaders(headers)

	assert.Equal(t, "[REDACTED]", scrubbed.Get("Authorization"))
	assert.Equal(t, "[REDACTED]", scrubbed.Get("X-Api-Key"))
	assert.Equal(t, "application/json", scrubbed.Get("Content-Type"))

	// The original is untouched.
	assert.Equal(t, "Bearer secret-token", headers.Get("Authorization"))
}
