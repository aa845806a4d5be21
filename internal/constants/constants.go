package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files. The file holds
	// the API token.
	ConfigFilePerm = 0600
)

// API endpoint defaults.
const (
	// DefaultBaseURI is the production Auvo API v2 base URI.
	DefaultBaseURI = "https://api.auvo.com.br/v2"

	// LoginPath is the sign-in endpoint, relative to the base URI.
	LoginPath = "/login/"

	// DefaultUserAgent is sent when the configuration does not override it.
	DefaultUserAgent = "auvo-client-go"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits for transient network failures.
const (
	// DefaultRetryMax is the default number of low-level retries.
	DefaultRetryMax = 3

	// DefaultRetryDelay is the fixed wait between low-level retries.
	DefaultRetryDelay = 100 * time.Millisecond
)

// Token lifecycle.
const (
	// TokenLifetime is the documented lifetime of an Auvo access token.
	TokenLifetime = 30 * time.Minute
)

// Rate limiting.
const (
	// RateLimitPerMinute is the documented Auvo request quota.
	RateLimitPerMinute = 400

	// RateLimitMarker is the body text that distinguishes a rate-limit 403
	// from an authorization 403.
	RateLimitMarker = "Rate limit"
)

// Pagination.
const (
	// AggregatePageSize is the page size used when fetching every page.
	AggregatePageSize = 100

	// DefaultPageSize is used by list commands that fetch a single page.
	DefaultPageSize = 10
)

// HTTP status codes the error mapping distinguishes.
const (
	StatusBadRequest          = 400
	StatusUnauthorized        = 401
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusUnprocessableEntity = 422
)

// Query parameter names.
const (
	// ParamFilter carries the JSON-serialized filter set.
	ParamFilter = "paramFilter"

	// ParamPage selects the page number (1-based).
	ParamPage = "page"

	// ParamPageSize selects the number of entities per page.
	ParamPageSize = "pageSize"

	// ParamSelectFields restricts the returned entity fields.
	ParamSelectFields = "selectfields"
)

// Headers.
const (
	// HeaderRequestID correlates the attempts of one logical request.
	HeaderRequestID = "X-Request-ID"
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// CLI argument counts.
const (
	// MinimumArgumentCount is the argument count of "config set KEY VALUE".
	MinimumArgumentCount = 2

	// MaxInferredColumns bounds the columns picked when --columns is not set.
	MaxInferredColumns = 6
)
