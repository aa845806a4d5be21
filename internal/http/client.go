// Package http implements the Auvo request executor: credential injection,
// one re-authentication replay on 401 and status-to-error mapping on top of a
// retrying, rate-limited transport.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/auvo-client/internal/constants"
	"github.com/fivetwenty-io/auvo-client/internal/metrics"
	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// TokenSource is the part of auvo.TokenSource the executor needs.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	SignIn(ctx context.Context) (*auvo.Token, error)
}

// Client sends requests to the Auvo API.
type Client struct {
	baseURL     string
	tokens      TokenSource
	retryable   *retryablehttp.Client
	logger      Logger
	logRequests bool
	userAgent   string
	metrics     *metrics.Collector

	timeout    time.Duration
	retryMax   int
	retryDelay time.Duration
	ratePerMin int
	base       *http.Client
}

// Option configures the HTTP client.
type Option func(*Client)

// Request represents an HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	RequestID  string
}

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// NewClient creates a new HTTP client. tokens may be nil, in which case no
// Authorization header is sent and a 401 is returned as is.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		userAgent:  constants.DefaultUserAgent,
		timeout:    constants.DefaultHTTPTimeout,
		retryMax:   constants.DefaultRetryMax,
		retryDelay: constants.DefaultRetryDelay,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.retryable == nil {
		client.retryable = NewRetryableClient(client.transportConfig())
	}

	return client
}

// WithLogger sets the logger for the client.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLogRequests enables per-attempt request logging.
func WithLogRequests(enabled bool) Option {
	return func(c *Client) {
		c.logRequests = enabled
	}
}

// WithRetryConfig sets the low-level retry count and the fixed delay between
// attempts.
func WithRetryConfig(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		c.retryMax = maxRetries
		c.retryDelay = delay
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRateLimit caps the request rate. perMinute <= 0 disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		c.ratePerMin = perMinute
	}
}

// WithMetrics records requests and replays on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithHTTPClient sets the base client whose transport carries the requests.
func WithHTTPClient(base *http.Client) Option {
	return func(c *Client) {
		c.base = base
	}
}

// WithRetryableClient uses an already built transport, typically one shared
// with the token source. It overrides the retry, timeout, rate limit and base
// client options.
func WithRetryableClient(retryable *retryablehttp.Client) Option {
	return func(c *Client) {
		c.retryable = retryable
	}
}

// StandardClient returns a *http.Client backed by the retrying transport.
func (c *Client) StandardClient() *http.Client {
	return c.retryable.StandardClient()
}

// Execute sends one logical request and decodes the body. GET sends query as
// the query string; the other methods send payload as the JSON body. An empty
// response body decodes to an empty Envelope.
func (c *Client) Execute(ctx context.Context, method, path string, query url.Values, payload any) (auvo.Envelope, error) {
	req := &Request{
		Method: strings.ToUpper(method),
		Path:   path,
	}

	if req.Method == http.MethodGet {
		req.Query = query
	} else {
		req.Body = payload
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	return auvo.DecodeEnvelope(resp.Body)
}

// Do sends req. The Authorization header is derived from the token source
// before the first attempt; a 401 triggers one sign-in and one replay.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if !supportedMethods[method] {
		return nil, auvo.NewAPIError("unsupported HTTP method "+req.Method, auvo.ErrUnsupportedMethod)
	}

	requestID := uuid.NewString()

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, method, req, token, requestID)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == constants.StatusUnauthorized && c.tokens != nil {
		c.logFailure("Auvo Request Failed", method, req, resp)

		resp, err = c.replay(ctx, method, req, resp)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logFailure("Auvo Request Failed", method, req, resp)

		return resp, auvo.ErrorFromResponse(resp.StatusCode, resp.Body)
	}

	return resp, nil
}

// logFailure records a failed attempt with its status and body.
func (c *Client) logFailure(msg, method string, req *Request, resp *Response, extra ...map[string]interface{}) {
	if !c.logRequests || c.logger == nil {
		return
	}

	fields := map[string]interface{}{
		"method":     method,
		"uri":        req.Path,
		"status":     resp.StatusCode,
		"body":       string(resp.Body),
		"request_id": resp.RequestID,
	}

	for _, more := range extra {
		maps.Copy(fields, more)
	}

	c.logger.Error(msg, fields)
}

// replay signs in again and resends the request with the new token, exactly
// once. A failed sign-in ends the request with a KindAPI error; rejected is
// the response that triggered the replay.
func (c *Client) replay(ctx context.Context, method string, req *Request, rejected *Response) (*Response, error) {
	_, err := c.tokens.SignIn(ctx)
	if err != nil {
		c.logFailure("Auvo Request Failed - Auth Error", method, req, rejected, map[string]interface{}{
			"error": err.Error(),
		})

		return nil, auvo.NewAPIError("re-authentication failed", err)
	}

	c.metrics.IncReauthReplay()

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	return c.send(ctx, method, req, token, rejected.RequestID)
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", auvo.AsAPIError("obtaining access token", err)
	}

	return token, nil
}

func (c *Client) send(ctx context.Context, method string, req *Request, token, requestID string) (*Response, error) {
	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body []byte

	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, auvo.NewAPIError("encoding request body", err)
		}

		body = encoded
	}

	var reqBody interface{}
	if body != nil {
		reqBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, auvo.NewAPIError("creating request", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(constants.HeaderRequestID, requestID)

	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.logRequests && c.logger != nil {
		fields := map[string]interface{}{
			"method":     method,
			"uri":        req.Path,
			"request_id": requestID,
		}

		if req.Query != nil {
			fields["query"] = req.Query.Encode()
		}

		if body != nil {
			fields["payload"] = string(body)
		}

		c.logger.Debug("Auvo Request", fields)
	}

	resp, err := c.retryable.Do(httpReq)
	if err != nil {
		return nil, auvo.NewAPIError("request failed", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, auvo.NewAPIError("reading response body", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       bytes.TrimSpace(respBody),
		Headers:    resp.Header,
		RequestID:  requestID,
	}, nil
}

func (c *Client) transportConfig() TransportConfig {
	cfg := TransportConfig{
		Timeout:            c.timeout,
		RetryMax:           c.retryMax,
		RetryDelay:         c.retryDelay,
		RateLimitPerMinute: c.ratePerMin,
		Base:               c.base,
		Metrics:            c.metrics,
	}

	if c.logRequests {
		cfg.Logger = c.logger
	}

	return cfg
}
