package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fivetwenty-io/auvo-client/internal/metrics"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// TransportConfig configures the retrying transport shared by the executor
// and the token source.
type TransportConfig struct {
	Timeout            time.Duration
	RetryMax           int
	RetryDelay         time.Duration
	RateLimitPerMinute int // <= 0 disables limiting
	Base               *http.Client
	Logger             Logger // routes retryablehttp's own logging; nil keeps it silent
	Metrics            *metrics.Collector
}

// NewRetryableClient builds a retryablehttp client that retries transport
// failures only, waits RetryDelay between attempts and passes every attempt
// through the rate limiter and the metrics collector.
func NewRetryableClient(cfg TransportConfig) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = cfg.RetryDelay
	client.RetryWaitMax = cfg.RetryDelay
	client.Backoff = fixedBackoff
	client.CheckRetry = retryTransportErrors
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client.Logger = nil
	if cfg.Logger != nil {
		client.Logger = &leveledLogger{logger: cfg.Logger}
	}

	httpClient := &http.Client{}
	if cfg.Base != nil {
		*httpClient = *cfg.Base
	}

	base := httpClient.Transport
	if base == nil {
		base = client.HTTPClient.Transport
	}

	httpClient.Timeout = cfg.Timeout
	httpClient.Transport = &instrumentedTransport{
		base:    base,
		limiter: newLimiter(cfg.RateLimitPerMinute),
		metrics: cfg.Metrics,
	}
	client.HTTPClient = httpClient

	return client
}

// retryTransportErrors retries only when no response was received. Status
// codes are never retried here: 401 has its own replay and the other failures
// are mapped to typed errors.
func retryTransportErrors(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		return false, nil
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func fixedBackoff(minWait, _ time.Duration, _ int, _ *http.Response) time.Duration {
	return minWait
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// instrumentedTransport waits on the rate limiter before every attempt and
// records each attempt's status and latency.
type instrumentedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
	metrics *metrics.Collector
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		err := t.limiter.Wait(req.Context())
		if err != nil {
			return nil, err
		}
	}

	start := time.Now()

	resp, err := t.base.RoundTrip(req)

	status := 0
	if err == nil {
		status = resp.StatusCode
	}

	t.metrics.ObserveRequest(req.URL.Path, req.Method, status, start)

	return resp, err
}
