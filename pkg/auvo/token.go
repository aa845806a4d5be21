package auvo

import (
	"time"
)

// timestampLayouts are tried in order when parsing the created and
// expiration fields of a sign-in response. Zoneless layouts are interpreted
// in the local time zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Token is the result of a sign-in. A token is never mutated after it is
// built; a later sign-in supersedes it with a new value.
type Token struct {
	Authenticated bool   `json:"authenticated"         yaml:"authenticated"`
	AccessToken   string `json:"accessToken,omitempty" yaml:"accessToken,omitempty"`
	Created       string `json:"created,omitempty"     yaml:"created,omitempty"`
	Expiration    string `json:"expiration,omitempty"  yaml:"expiration,omitempty"`
	Message       string `json:"message,omitempty"     yaml:"message,omitempty"`
}

// NewToken builds an authenticated token expiring at expiresAt.
func NewToken(accessToken string, createdAt, expiresAt time.Time) *Token {
	return &Token{
		Authenticated: true,
		AccessToken:   accessToken,
		Created:       createdAt.Format(time.RFC3339),
		Expiration:    expiresAt.Format(time.RFC3339),
	}
}

// TokenFromMap builds a token from a decoded sign-in body. The fields are
// read from the "result" object, or from data itself when there is none.
func TokenFromMap(data map[string]any) *Token {
	result := data
	if nested, ok := data["result"].(map[string]any); ok {
		result = nested
	}

	token := &Token{}
	token.Authenticated, _ = result["authenticated"].(bool)
	token.AccessToken, _ = result["accessToken"].(string)
	token.Created, _ = result["created"].(string)
	token.Expiration, _ = result["expiration"].(string)
	token.Message, _ = result["message"].(string)

	return token
}

// Clone returns a copy of t. Cloning nil yields nil.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}

	clone := *t

	return &clone
}

// ToMap returns the token in its wire shape.
func (t *Token) ToMap() map[string]any {
	return map[string]any{
		"authenticated": t.Authenticated,
		"accessToken":   t.AccessToken,
		"created":       t.Created,
		"expiration":    t.Expiration,
		"message":       t.Message,
	}
}

// CreatedAt parses the creation timestamp.
func (t *Token) CreatedAt() (time.Time, bool) {
	return parseTimestamp(t.Created)
}

// ExpiresAt parses the expiration timestamp.
func (t *Token) ExpiresAt() (time.Time, bool) {
	return parseTimestamp(t.Expiration)
}

// IsExpired reports whether the token must be renewed.
func (t *Token) IsExpired() bool {
	return t.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether the token is expired at now. A token without a
// parseable expiration is always expired; otherwise it is expired unless the
// expiration is strictly after now.
func (t *Token) IsExpiredAt(now time.Time) bool {
	expiresAt, ok := t.ExpiresAt()
	if !ok {
		return true
	}

	return !expiresAt.After(now)
}

func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return parsed, true
		}
	}

	return time.Time{}, false
}
