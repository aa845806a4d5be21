package auvoclient

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/auvo-client/internal/client"
	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
)

// Environment variables read by NewFromEnv and ConfigFromEnv.
const (
	EnvAPIKey      = "AUVO_API_KEY"
	EnvAPIToken    = "AUVO_API_TOKEN"
	EnvBaseURL     = "AUVO_API_BASE_URL"
	EnvTimeout     = "AUVO_TIMEOUT"
	EnvRetry       = "AUVO_RETRY"
	EnvRetryDelay  = "AUVO_RETRY_DELAY"
	EnvLogRequests = "AUVO_LOG_REQUESTS"
)

// New creates a new Auvo API client.
func New(ctx context.Context, config *auvo.Config) (auvo.Client, error) {
	if config == nil {
		return nil, auvo.NewAPIError("invalid configuration", auvo.ErrConfigRequired)
	}

	normalized := *config
	normalized.BaseURI = normalizeBaseURI(normalized.BaseURI)

	cli, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, auvo.AsAPIError("failed to create new client", err)
	}

	return cli, nil
}

// NewWithCredentials creates a client with default settings.
func NewWithCredentials(ctx context.Context, apiKey, apiToken string) (auvo.Client, error) {
	return New(ctx, &auvo.Config{
		APIKey:   apiKey,
		APIToken: apiToken,
	})
}

// NewFromEnv creates a client from the AUVO_* environment variables.
func NewFromEnv(ctx context.Context) (auvo.Client, error) {
	config, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}

	return New(ctx, config)
}

// ConfigFromEnv builds a configuration from the AUVO_* environment variables.
// AUVO_TIMEOUT is in seconds and AUVO_RETRY_DELAY in milliseconds.
func ConfigFromEnv() (*auvo.Config, error) {
	config := auvo.DefaultConfig()
	config.APIKey = os.Getenv(EnvAPIKey)
	config.APIToken = os.Getenv(EnvAPIToken)

	if value := os.Getenv(EnvBaseURL); value != "" {
		config.BaseURI = value
	}

	if value := os.Getenv(EnvTimeout); value != "" {
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return nil, envError(EnvTimeout, err)
		}

		config.Timeout = time.Duration(seconds) * time.Second
	}

	if value := os.Getenv(EnvRetry); value != "" {
		retry, err := strconv.Atoi(value)
		if err != nil {
			return nil, envError(EnvRetry, err)
		}

		config.RetryMax = retry
		if retry == 0 {
			config.RetryMax = -1
		}
	}

	if value := os.Getenv(EnvRetryDelay); value != "" {
		millis, err := strconv.Atoi(value)
		if err != nil {
			return nil, envError(EnvRetryDelay, err)
		}

		config.RetryDelay = time.Duration(millis) * time.Millisecond
	}

	if value := os.Getenv(EnvLogRequests); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return nil, envError(EnvLogRequests, err)
		}

		config.LogRequests = enabled
	}

	return config, nil
}

func envError(name string, err error) error {
	return auvo.NewAPIError(fmt.Sprintf("invalid value for %s", name), err)
}

// normalizeBaseURI trims the trailing slash and defaults the scheme to https.
func normalizeBaseURI(baseURI string) string {
	baseURI = strings.TrimSuffix(strings.TrimSpace(baseURI), "/")
	if baseURI == "" {
		return ""
	}

	if !strings.HasPrefix(baseURI, "http://") && !strings.HasPrefix(baseURI, "https://") {
		baseURI = "https://" + baseURI
	}

	return baseURI
}
