package opencloud

import (
	"context"
	"fmt"
	"net/http"
)

// Request is the view of an outgoing HTTP request that interceptors see.
type Request struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

// Response is the view of a completed HTTP exchange that interceptors see.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// RequestInterceptor is called before a request is sent.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor is called after a response is received.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor appends a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor appends a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// ExecuteRequestInterceptors runs all request interceptors in order.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors in order.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// Common interceptors.

// sensitiveHeaders are never included in interceptor log output.
var sensitiveHeaders = []string{"Authorization", "X-Api-Key"}

// LoggingInterceptor logs outgoing requests with credentials scrubbed.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		logger.Debug("API Request", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs completed exchanges.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
			"status": resp.StatusCode,
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Error("API Response", fields)

			return nil
		}

		logger.Debug("API Response", fields)

		return nil
	}
}

// ScrubHeaders returns a copy of headers with credential values redacted,
// for interceptors that want to log full headers.
func ScrubHeaders(headers http.Header) http.Header {
	scrubbed := headers.Clone()
	for _, name := range sensitiveHeaders {
		if scrubbed.Get(name) != "" {
			scrubbed.Set(name, "[REDACTED]")
		}
	}

	return scrubbed
}

// PageObserver adapts a response interceptor into a pagination PageHook
// feed: it counts pages fetched, which tests and rate-limit monitors use.
type PageObserver struct {
	Pages int
	Items int
}

// Hook returns a PageHook that records fetch counts on the observer.
func (p *PageObserver) Hook() PageHook {
	return func(items int, nextCursor string) {
		p.Pages++
		p.Items += items
	}
}
