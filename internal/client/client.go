// Package client provides the concrete auvo.Client: it binds the request
// executor, the token source and the resource query builders.
package client

import (
	"context"
	"net/url"

	"github.com/fivetwenty-io/auvo-client/internal/auth"
	"github.com/fivetwenty-io/auvo-client/internal/http"
	"github.com/fivetwenty-io/auvo-client/internal/metrics"
	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
)

// Client implements the auvo.Client interface.
type Client struct {
	httpClient  *http.Client
	tokens      auvo.TokenSource
	logger      auvo.Logger
	logRequests bool
	metrics     *metrics.Collector
}

// New creates a new Auvo API client. The configuration must carry both
// credentials; the optional fields fall back to auvo.DefaultConfig.
func New(ctx context.Context, config *auvo.Config) (*Client, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	cfg := config.WithDefaults()
	collector := metrics.New(cfg.Registerer)

	transport := http.NewRetryableClient(createTransportConfig(cfg, collector))

	tokens, err := auth.NewManager(
		cfg.BaseURI,
		cfg.APIKey,
		cfg.APIToken,
		auth.WithHTTPClient(transport.StandardClient()),
		auth.WithLogger(cfg.Logger),
		auth.WithMetrics(collector),
	)
	if err != nil {
		return nil, err
	}

	client := NewWithTokenSource(cfg, tokens, http.WithRetryableClient(transport), http.WithMetrics(collector))
	client.metrics = collector

	if cfg.SignInOnInit {
		_, err = tokens.SignIn(ctx)
		if err != nil {
			return nil, auvo.NewAPIError("initial sign-in failed", err)
		}
	}

	return client, nil
}

// NewWithTokenSource creates a client around a caller-provided token source.
// cfg is used as given; call WithDefaults first when it may be sparse.
func NewWithTokenSource(cfg *auvo.Config, tokens auvo.TokenSource, extra ...http.Option) *Client {
	httpOpts := createHTTPClientOptions(cfg)
	httpOpts = append(httpOpts, extra...)

	return &Client{
		httpClient:  http.NewClient(cfg.BaseURI, tokens, httpOpts...),
		tokens:      tokens,
		logger:      cfg.Logger,
		logRequests: cfg.LogRequests,
	}
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(cfg *auvo.Config) []http.Option {
	httpOpts := []http.Option{
		http.WithRetryConfig(cfg.RetryMax, cfg.RetryDelay),
		http.WithTimeout(cfg.Timeout),
		http.WithRateLimit(cfg.RateLimitPerMinute),
		http.WithUserAgent(cfg.UserAgent),
		http.WithLogRequests(cfg.LogRequests),
	}

	if cfg.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(cfg.Logger))
	}

	if cfg.HTTPClient != nil {
		httpOpts = append(httpOpts, http.WithHTTPClient(cfg.HTTPClient))
	}

	return httpOpts
}

func createTransportConfig(cfg *auvo.Config, collector *metrics.Collector) http.TransportConfig {
	transport := http.TransportConfig{
		Timeout:            cfg.Timeout,
		RetryMax:           cfg.RetryMax,
		RetryDelay:         cfg.RetryDelay,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Base:               cfg.HTTPClient,
		Metrics:            collector,
	}

	if cfg.LogRequests && cfg.Logger != nil {
		transport.Logger = cfg.Logger
	}

	return transport
}

// Execute implements auvo.Executor.
func (c *Client) Execute(ctx context.Context, method, path string, query url.Values, payload any) (auvo.Envelope, error) {
	return c.httpClient.Execute(ctx, method, path, query, payload)
}

// Auth implements auvo.Client.Auth.
func (c *Client) Auth() auvo.TokenSource {
	return c.tokens
}

// Query implements auvo.Client.Query.
func (c *Client) Query(endpoint string) *auvo.Query {
	query := auvo.NewQuery(c, endpoint)

	if c.logRequests && c.logger != nil {
		query.SetLogger(c.logger)
	}

	return query
}

// Users implements auvo.Client.Users.
func (c *Client) Users() *auvo.Query {
	return c.Query(auvo.EndpointUsers)
}

// Tasks implements auvo.Client.Tasks.
func (c *Client) Tasks() *auvo.Query {
	return c.Query(auvo.EndpointTasks)
}

// Customers implements auvo.Client.Customers.
func (c *Client) Customers() *auvo.Query {
	return c.Query(auvo.EndpointCustomers)
}

// Teams implements auvo.Client.Teams.
func (c *Client) Teams() *auvo.Query {
	return c.Query(auvo.EndpointTeams)
}

// Metrics returns the collector registered for this client, or nil.
func (c *Client) Metrics() *metrics.Collector {
	return c.metrics
}
