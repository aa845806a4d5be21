// Package auth implements the Auvo token source: it exchanges the API key and
// API token for a 30-minute bearer token and renews it on demand.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fivetwenty-io/auvo-client/internal/constants"
	"github.com/fivetwenty-io/auvo-client/internal/metrics"
	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
	"golang.org/x/sync/singleflight"
)

const signInKey = "signin"

// Manager implements auvo.TokenSource.
//
// The held token is swapped atomically and never mutated in place. Concurrent
// sign-ins collapse into one login request.
type Manager struct {
	baseURI    string
	apiKey     string
	apiToken   string
	httpClient *http.Client
	logger     auvo.Logger
	metrics    *metrics.Collector
	now        func() time.Time

	token atomic.Pointer[auvo.Token]
	group singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the client used for login requests.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger auvo.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics records sign-in attempts on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(m *Manager) {
		m.metrics = collector
	}
}

// WithClock replaces the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a token source for the API at baseURI. It fails with a
// KindAPI error when either credential is empty.
func NewManager(baseURI, apiKey, apiToken string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(apiToken) == "" {
		return nil, auvo.NewAPIError("invalid configuration", auvo.ErrMissingCredentials)
	}

	manager := &Manager{
		baseURI:    strings.TrimSuffix(baseURI, "/"),
		apiKey:     apiKey,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager, nil
}

// SignIn always performs a login request and replaces the held token on
// success. Concurrent callers share one request.
func (m *Manager) SignIn(ctx context.Context) (*auvo.Token, error) {
	value, err, _ := m.group.Do(signInKey, func() (interface{}, error) {
		return m.signIn(ctx)
	})
	if err != nil {
		return nil, err
	}

	token, _ := value.(*auvo.Token)

	return token.Clone(), nil
}

// ValidToken returns the held token while it is unexpired and signs in
// otherwise.
func (m *Manager) ValidToken(ctx context.Context) (*auvo.Token, error) {
	if token := m.token.Load(); token != nil && !token.IsExpiredAt(m.now()) {
		return token.Clone(), nil
	}

	return m.SignIn(ctx)
}

// AccessToken returns the bearer string of a valid token.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	token, err := m.ValidToken(ctx)
	if err != nil {
		return "", err
	}

	if token.AccessToken == "" {
		return "", auvo.NewAPIError("access token not available", auvo.ErrMissingAccessToken)
	}

	return token.AccessToken, nil
}

// RefreshToken always fails: the API issues no refresh tokens.
func (m *Manager) RefreshToken(_ context.Context) error {
	return auvo.NewAPIError("refresh not supported", auvo.ErrRefreshNotSupported)
}

// Token returns a copy of the held token, or nil.
func (m *Manager) Token() *auvo.Token {
	return m.token.Load().Clone()
}

// SetToken replaces the held token. A nil token clears it.
func (m *Manager) SetToken(token *auvo.Token) {
	m.token.Store(token.Clone())
}

func (m *Manager) signIn(ctx context.Context) (*auvo.Token, error) {
	token, err := m.login(ctx)
	m.metrics.IncSignIn(err == nil)

	if err != nil {
		if m.logger != nil {
			m.logger.Error("Auvo Sign In Failed", map[string]interface{}{
				"status": auvo.StatusCodeOf(err),
				"error":  err.Error(),
			})
		}

		return nil, err
	}

	m.token.Store(token)

	if m.logger != nil {
		m.logger.Debug("Auvo Sign In", map[string]interface{}{
			"expiration": token.Expiration,
		})
	}

	return token, nil
}

func (m *Manager) login(ctx context.Context) (*auvo.Token, error) {
	payload, err := json.Marshal(map[string]string{
		"apiKey":   m.apiKey,
		"apiToken": m.apiToken,
	})
	if err != nil {
		return nil, auvo.NewAPIError("encoding sign-in request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURI+constants.LoginPath, bytes.NewReader(payload))
	if err != nil {
		return nil, auvo.NewAPIError("creating sign-in request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, auvo.NewAPIError("authentication request failed", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, auvo.NewAPIError("reading sign-in response", err)
	}

	switch {
	case resp.StatusCode == constants.StatusUnauthorized || resp.StatusCode == constants.StatusNotFound:
		return nil, &auvo.Error{
			Kind:       auvo.KindAuthentication,
			StatusCode: resp.StatusCode,
			Message:    "could not authenticate, check API key and API token",
			Body:       string(body),
		}
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return nil, &auvo.Error{
			Kind:       auvo.KindAPI,
			StatusCode: resp.StatusCode,
			Message:    "authentication request failed",
			Body:       string(body),
		}
	}

	envelope, err := auvo.DecodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	if len(envelope) == 0 {
		return nil, &auvo.Error{
			Kind:       auvo.KindAPI,
			StatusCode: resp.StatusCode,
			Message:    "invalid sign-in response",
			Err:        auvo.ErrMalformedResponse,
		}
	}

	token := auvo.TokenFromMap(envelope)
	if !token.Authenticated {
		message := token.Message
		if message == "" {
			message = "unknown error"
		}

		return nil, auvo.NewAuthenticationError(fmt.Sprintf("authentication failed: %s", message), constants.StatusUnauthorized)
	}

	return token, nil
}
