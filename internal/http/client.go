// Package http implements the Open Cloud transport: one logical HTTP
// call with uniform status-to-error translation and bounded retry on
// server failures.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/rbxcloud-io/rbxcloud/internal/auth"
	"github.com/rbxcloud-io/rbxcloud/internal/constants"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

const defaultUserAgent = "rbxcloud-go"

// Logger interface for transport logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request describes one logical HTTP call.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string

	// Body is JSON-marshaled when set. Mutually exclusive with RawBody.
	Body any

	// RawBody is sent verbatim with ContentType.
	RawBody     []byte
	ContentType string

	// ExpectedStatus lists the status codes the caller handles itself.
	// When nil, no status is treated as an error and the raw response is
	// always returned; this escape hatch lets internals inspect non-2xx
	// bodies (e.g. a 412 payload) before deciding how to react.
	ExpectedStatus []int

	// Cacheable marks a GET whose 200 response may be served from and
	// stored to the configured response cache.
	Cacheable bool
}

// Response is the outcome of one logical HTTP call.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// JSON unmarshals the response body into out.
func (r *Response) JSON(out any) error {
	return json.Unmarshal(r.Body, out)
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// IsJSON reports whether the response declared a JSON content type.
func (r *Response) IsJSON() bool {
	return strings.Contains(r.Headers.Get("Content-Type"), "application/json")
}

// Decoded returns the body parsed as JSON when the content type says so,
// falling back to the raw text on any parse failure.
func (r *Response) Decoded() any {
	if r.IsJSON() {
		var decoded any
		if err := json.Unmarshal(r.Body, &decoded); err == nil {
			return decoded
		}
	}

	return r.Text()
}

// Client sends requests to the Open Cloud API.
type Client struct {
	baseURL     string
	credentials auth.CredentialSource
	http        *retryablehttp.Client
	userAgent   string
	logger      Logger
	debug       bool
	cache       opencloud.Cache
	cacheTTL    time.Duration
	chain       *opencloud.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the transport logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig sets the retry budget for 5xx responses.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.http.RetryMax = retryMax
		c.http.RetryWaitMin = waitMin
		c.http.RetryWaitMax = waitMax
	}
}

// WithTimeout bounds each request round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.HTTPClient.Timeout = timeout
	}
}

// WithCache enables read-through caching for cacheable GETs.
func WithCache(cache opencloud.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache

		if ttl <= 0 {
			ttl = constants.DefaultCacheTTL
		}

		c.cacheTTL = ttl
	}
}

// WithInterceptors installs an interceptor chain run around every call.
func WithInterceptors(chain *opencloud.InterceptorChain) Option {
	return func(c *Client) {
		c.chain = chain
	}
}

// NewClient creates a transport for baseURL. credentials may be nil for
// unauthenticated endpoints and tests.
func NewClient(baseURL string, credentials auth.CredentialSource, opts ...Option) *Client {
	retry := retryablehttp.NewClient()
	retry.Logger = nil
	retry.RetryMax = constants.DefaultRetryMax
	retry.RetryWaitMin = constants.DefaultRetryWaitMin
	retry.RetryWaitMax = constants.DefaultRetryWaitMax
	retry.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retry.CheckRetry = checkRetry
	// Hand back the final response after the budget is spent so the
	// status policy can translate it.
	retry.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		credentials: credentials,
		http:        retry,
		userAgent:   defaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// checkRetry retries transport failures and 5xx responses only. 4xx
// statuses, including 429, are translated by the caller instead of
// retried; the rate-limit policy belongs to the error taxonomy, not the
// retry loop.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return true, nil
	}

	return resp.StatusCode >= http.StatusInternalServerError, nil
}

// Do sends one logical request, following the retry budget on server
// failures, and translates the final status per req.ExpectedStatus.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	cacheKey := c.cacheKey(req)

	if cached := c.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	httpReq, intercepted, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.notifyResponse(ctx, intercepted, nil, err)

		return nil, fmt.Errorf("sending request: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}

	c.notifyResponse(ctx, intercepted, resp, nil)

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
			"status": resp.StatusCode,
		})
	}

	err = c.translateStatus(req, resp)
	if err != nil {
		return resp, err
	}

	c.toCache(ctx, cacheKey, resp)

	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, req *Request) (*retryablehttp.Request, *opencloud.Request, error) {
	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	rawBody, contentType, err := encodeBody(req)
	if err != nil {
		return nil, nil, err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, bytes.NewReader(rawBody))
	if err != nil {
		return nil, nil, fmt.Errorf("building request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	err = c.applyCredential(ctx, httpReq)
	if err != nil {
		return nil, nil, err
	}

	intercepted := &opencloud.Request{
		Method:  req.Method,
		Path:    req.Path,
		Headers: opencloud.ScrubHeaders(httpReq.Header),
		Body:    rawBody,
	}

	if c.chain != nil {
		err = c.chain.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, nil, err
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		})
	}

	return httpReq, intercepted, nil
}

func encodeBody(req *Request) ([]byte, string, error) {
	if req.RawBody != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		return req.RawBody, contentType, nil
	}

	if req.Body == nil {
		return nil, "", nil
	}

	encoded, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encoding request body: %w", err)
	}

	return encoded, "application/json", nil
}

// applyCredential routes the credential to the right header: bearer
// tokens use standard authorization, anything else is an API key. The
// same call sites serve both API-key and OAuth2 flows.
func (c *Client) applyCredential(ctx context.Context, httpReq *retryablehttp.Request) error {
	if c.credentials == nil {
		return nil
	}

	credential, err := c.credentials.Credential(ctx)
	if err != nil {
		return fmt.Errorf("resolving credential: %w", err)
	}

	if credential == "" {
		return nil
	}

	if strings.HasPrefix(credential, auth.BearerPrefix) {
		httpReq.Header.Set("Authorization", credential)
	} else {
		httpReq.Header.Set("x-api-key", credential)
	}

	return nil
}

// translateStatus applies the uniform status policy. Callers that passed
// no expected list get the raw response back regardless of status.
func (c *Client) translateStatus(req *Request, resp *Response) error {
	if req.ExpectedStatus == nil {
		return nil
	}

	for _, status := range req.ExpectedStatus {
		if resp.StatusCode == status {
			return nil
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return opencloud.NewAPIError(resp.StatusCode, opencloud.ErrInvalidKey, resp.Body)
	case resp.StatusCode == http.StatusForbidden:
		return opencloud.NewAPIError(resp.StatusCode, opencloud.ErrPermissionDenied, resp.Body)
	case resp.StatusCode == http.StatusNotFound:
		return opencloud.NewAPIError(resp.StatusCode, opencloud.ErrNotFound, resp.Body)
	case resp.StatusCode == http.StatusTooManyRequests:
		return opencloud.NewAPIError(resp.StatusCode, opencloud.ErrRateLimited, resp.Body)
	case resp.StatusCode == http.StatusPreconditionFailed:
		return opencloud.NewAPIError(resp.StatusCode, opencloud.ErrPreconditionFailed, resp.Body)
	case resp.StatusCode >= http.StatusInternalServerError:
		// The retry budget is already spent by the time we see this.
		return opencloud.NewAPIError(resp.StatusCode, opencloud.ErrServiceUnavailable, resp.Body)
	default:
		return opencloud.NewAPIError(resp.StatusCode, opencloud.ErrUnexpectedStatus, resp.Body)
	}
}

func (c *Client) cacheKey(req *Request) string {
	if c.cache == nil || !req.Cacheable || req.Method != http.MethodGet {
		return ""
	}

	return req.Method + " " + req.Path + "?" + req.Query.Encode()
}

func (c *Client) fromCache(ctx context.Context, key string) *Response {
	if key == "" {
		return nil
	}

	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil
	}

	// Restore the original headers: entry reads carry version and user
	// metadata in roblox-entry-* headers, so a hit must look exactly
	// like the response it replaced.
	headers := http.Header(entry.Headers).Clone()
	if headers == nil {
		headers = http.Header{"Content-Type": []string{"application/json"}}
	}

	return &Response{
		StatusCode: http.StatusOK,
		Body:       entry.Data,
		Headers:    headers,
	}
}

func (c *Client) toCache(ctx context.Context, key string, resp *Response) {
	if key == "" || resp.StatusCode != http.StatusOK {
		return
	}

	_ = c.cache.Set(ctx, key, &opencloud.CacheEntry{
		Data:      resp.Body,
		Headers:   resp.Headers,
		ExpiresAt: time.Now().Add(c.cacheTTL),
		ETag:      resp.Headers.Get("ETag"),
	})
}

func (c *Client) notifyResponse(ctx context.Context, req *opencloud.Request, resp *Response, err error) {
	if c.chain == nil || req == nil {
		return
	}

	intercepted := &opencloud.Response{Error: err}
	if resp != nil {
		intercepted.StatusCode = resp.StatusCode
		intercepted.Headers = resp.Headers
		intercepted.Body = resp.Body
	}

	_ = c.chain.ExecuteResponseInterceptors(ctx, req, intercepted)
}

// Convenience helpers. These treat any 2xx as success and translate
// everything else.

var success2xx = []int{200, 201, 202, 204}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method:         http.MethodGet,
		Path:           path,
		Query:          query,
		ExpectedStatus: success2xx,
	})
}

// Post sends a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{
		Method:         http.MethodPost,
		Path:           path,
		Body:           body,
		ExpectedStatus: success2xx,
	})
}

// Patch sends a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{
		Method:         http.MethodPatch,
		Path:           path,
		Body:           body,
		ExpectedStatus: success2xx,
	})
}

// Put sends a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{
		Method:         http.MethodPut,
		Path:           path,
		Body:           body,
		ExpectedStatus: success2xx,
	})
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method:         http.MethodDelete,
		Path:           path,
		ExpectedStatus: success2xx,
	})
}
