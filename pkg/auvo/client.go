package auvo

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/auvo-client/internal/constants"
	"github.com/prometheus/client_golang/prometheus"
)

// Supported request methods.
const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodPatch  = http.MethodPatch
	MethodDelete = http.MethodDelete
)

// Resource endpoints.
const (
	EndpointUsers     = "/users"
	EndpointTasks     = "/tasks"
	EndpointCustomers = "/customers"
	EndpointTeams     = "/teams"
)

// Client is the main interface for the Auvo API client.
type Client interface {
	Executor

	// Auth returns the token source the client authenticates with.
	Auth() TokenSource

	// Query returns a builder bound to an arbitrary collection endpoint.
	Query(endpoint string) *Query

	Users() *Query
	Tasks() *Query
	Customers() *Query
	Teams() *Query
}

// Executor sends one logical request and returns the decoded body. GET
// requests carry query as the query string; the other methods send payload as
// the JSON body.
type Executor interface {
	Execute(ctx context.Context, method, path string, query url.Values, payload any) (Envelope, error)
}

// TokenSource owns the current access token.
type TokenSource interface {
	// SignIn authenticates with the API key and token and replaces the held token.
	SignIn(ctx context.Context) (*Token, error)
	// ValidToken returns the held token, signing in when it is absent or expired.
	ValidToken(ctx context.Context) (*Token, error)
	// AccessToken returns the bearer string of ValidToken.
	AccessToken(ctx context.Context) (string, error)
	// RefreshToken always fails: the API has no refresh tokens.
	RefreshToken(ctx context.Context) error
	// Token returns the held token, or nil.
	Token() *Token
	// SetToken replaces the held token.
	SetToken(token *Token)
}

// Logger interface for client logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building an auvo.Client.
//
// Only APIKey and APIToken are required. Zero values of the optional fields
// fall back to DefaultConfig.
type Config struct {
	// BaseURI: base URL of the API (e.g., "https://api.auvo.com.br/v2").
	BaseURI string
	// APIKey and APIToken: integration credentials from the Auvo account.
	// They are sent to the login endpoint only and never logged.
	APIKey   string
	APIToken string

	// Timeout: per-attempt HTTP timeout.
	Timeout time.Duration
	// RetryMax: low-level retries for network failures (timeouts, refused
	// connections). Distinct from the single 401 re-authentication replay.
	// Zero uses the default; a negative value disables retries.
	RetryMax int
	// RetryDelay: fixed wait between low-level retries.
	RetryDelay time.Duration
	// RateLimitPerMinute: client-side request quota. Zero uses the documented
	// 400 requests per minute; a negative value disables limiting.
	RateLimitPerMinute int

	// LogRequests: log every attempt (method, uri, payload) and every failure.
	LogRequests bool
	// Logger: receives request logs. Nil disables logging.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string

	// Registerer: when set, request and sign-in metrics are registered on it.
	Registerer prometheus.Registerer
	// HTTPClient: optional base client whose transport carries the requests.
	HTTPClient *http.Client
	// SignInOnInit: authenticate while constructing the client.
	SignInOnInit bool
}

// DefaultConfig returns the configuration defaults of the Auvo API.
func DefaultConfig() *Config {
	return &Config{
		BaseURI:            constants.DefaultBaseURI,
		Timeout:            constants.DefaultHTTPTimeout,
		RetryMax:           constants.DefaultRetryMax,
		RetryDelay:         constants.DefaultRetryDelay,
		RateLimitPerMinute: constants.RateLimitPerMinute,
		UserAgent:          constants.DefaultUserAgent,
	}
}

// Validate checks the required credentials.
func (c *Config) Validate() error {
	if c == nil {
		return NewAPIError("invalid configuration", ErrConfigRequired)
	}

	if strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.APIToken) == "" {
		return NewAPIError("invalid configuration", ErrMissingCredentials)
	}

	return nil
}

// WithDefaults returns a copy of c with zero optional fields filled in.
func (c *Config) WithDefaults() *Config {
	defaults := DefaultConfig()
	merged := *c

	if merged.BaseURI == "" {
		merged.BaseURI = defaults.BaseURI
	}

	merged.BaseURI = strings.TrimSuffix(merged.BaseURI, "/")

	if merged.Timeout <= 0 {
		merged.Timeout = defaults.Timeout
	}

	switch {
	case merged.RetryMax == 0:
		merged.RetryMax = defaults.RetryMax
	case merged.RetryMax < 0:
		merged.RetryMax = 0
	}

	if merged.RetryDelay <= 0 {
		merged.RetryDelay = defaults.RetryDelay
	}

	if merged.RateLimitPerMinute == 0 {
		merged.RateLimitPerMinute = defaults.RateLimitPerMinute
	}

	if merged.UserAgent == "" {
		merged.UserAgent = defaults.UserAgent
	}

	return &merged
}
