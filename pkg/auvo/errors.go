package auvo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/auvo-client/internal/constants"
)

// ErrorKind classifies failures reported by the Auvo API and by this client.
type ErrorKind int

const (
	// KindAPI is the catch-all kind: unsupported method, malformed response,
	// missing resource id, unmapped status codes and wrapped transport errors.
	KindAPI ErrorKind = iota
	// KindAuthentication covers HTTP 401, 403 without the rate-limit marker and
	// sign-in responses reporting authenticated=false.
	KindAuthentication
	// KindNotFound covers HTTP 404.
	KindNotFound
	// KindValidation covers HTTP 400 and 422.
	KindValidation
	// KindRateLimit covers HTTP 403 whose body carries the rate-limit marker.
	KindRateLimit
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication error"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation error"
	case KindRateLimit:
		return "rate limit exceeded"
	case KindAPI:
		return "api error"
	default:
		return fmt.Sprintf("unknown error kind %d", int(k))
	}
}

// Sentinel errors for use with errors.Is(). Every *Error matches ErrAPI, and
// additionally the sentinel of its own kind.
var (
	ErrAPI            = errors.New("auvo api error")
	ErrAuthentication = errors.New("auvo authentication error")
	ErrNotFound       = errors.New("auvo resource not found")
	ErrValidation     = errors.New("auvo validation error")
	ErrRateLimit      = errors.New("auvo rate limit exceeded")
)

// Static causes wrapped into KindAPI errors.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrMissingCredentials  = errors.New("API key and API token are required")
	ErrUnsupportedMethod   = errors.New("unsupported HTTP method")
	ErrResourceIDRequired  = errors.New("resource id required")
	ErrMissingAccessToken  = errors.New("access token not available after authentication")
	ErrMalformedResponse   = errors.New("malformed API response")
	ErrRefreshNotSupported = errors.New(
		"the Auvo API does not issue refresh tokens; tokens are valid for 30 minutes and must be renewed with SignIn",
	)
)

// Error is the single error type returned by every public operation.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("auvo: ")

	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(e.Kind.String())
	}

	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status: %d)", e.StatusCode)
	}

	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is() for comparing with the kind sentinels.
func (e *Error) Is(target error) bool {
	if target == ErrAPI {
		return true
	}

	switch e.Kind {
	case KindAuthentication:
		return target == ErrAuthentication
	case KindNotFound:
		return target == ErrNotFound
	case KindValidation:
		return target == ErrValidation
	case KindRateLimit:
		return target == ErrRateLimit
	case KindAPI:
		return false
	}

	return false
}

// NewAPIError returns a KindAPI error wrapping cause.
func NewAPIError(message string, cause error) *Error {
	return &Error{Kind: KindAPI, Message: message, Err: cause}
}

// NewAuthenticationError returns a KindAuthentication error.
func NewAuthenticationError(message string, statusCode int) *Error {
	return &Error{Kind: KindAuthentication, StatusCode: statusCode, Message: message}
}

// ErrorFromResponse maps a failed HTTP response to its typed error. The
// executor, the token source and the query builder all classify through here.
func ErrorFromResponse(statusCode int, body []byte) *Error {
	text := string(body)

	if statusCode == constants.StatusForbidden && strings.Contains(text, constants.RateLimitMarker) {
		return &Error{
			Kind:       KindRateLimit,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("rate limit exceeded on Auvo API (limit: %d requests per minute)", constants.RateLimitPerMinute),
			Body:       text,
		}
	}

	kind := KindAPI
	message := "request failed"

	switch statusCode {
	case constants.StatusUnauthorized, constants.StatusForbidden:
		kind = KindAuthentication
		message = "authentication error on Auvo API"
	case constants.StatusNotFound:
		kind = KindNotFound
		message = "resource not found on Auvo API"
	case constants.StatusBadRequest, constants.StatusUnprocessableEntity:
		kind = KindValidation
		message = "validation error on Auvo API"
	}

	return &Error{Kind: kind, StatusCode: statusCode, Message: message, Body: text}
}

// AsAPIError returns err unchanged when it already is an *Error and wraps it
// into a KindAPI error otherwise. A nil err stays nil.
func AsAPIError(message string, err error) error {
	if err == nil {
		return nil
	}

	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return err
	}

	return NewAPIError(message, err)
}

// KindOf reports the kind of err. ok is false when err carries no *Error.
func KindOf(err error) (kind ErrorKind, ok bool) {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}

	return KindAPI, false
}

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	return 0
}

// IsAuthentication checks if the error is an authentication error.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsRateLimited checks if the error is a rate limit error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimit)
}
