package auvo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Envelope is a decoded Auvo response body. Numbers are kept as json.Number
// so integer identifiers survive the round trip.
type Envelope map[string]any

// Entity is a single resource object as returned by the API.
type Entity map[string]any

// DecodeEnvelope decodes a response body. An empty body, or a JSON null,
// decodes to an empty envelope; anything that is not a JSON object fails with
// a KindAPI error.
func DecodeEnvelope(body []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Envelope{}, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var envelope Envelope

	err := decoder.Decode(&envelope)
	if err != nil {
		return nil, &Error{
			Kind:    KindAPI,
			Message: "invalid response from Auvo API",
			Body:    string(body),
			Err:     fmt.Errorf("%w: %w", ErrMalformedResponse, err),
		}
	}

	return envelope, nil
}

// Result returns the "result" object, if the envelope has one.
func (e Envelope) Result() (map[string]any, bool) {
	result, ok := e["result"].(map[string]any)

	return result, ok
}

// IsList reports whether the envelope is a paged list envelope, i.e. it
// carries result.entityList.
func (e Envelope) IsList() bool {
	result, ok := e.Result()
	if !ok {
		return false
	}

	_, ok = result["entityList"].([]any)

	return ok
}

// Entity normalizes a single-entity envelope: the "result" object when there
// is one, the envelope itself otherwise.
func (e Envelope) Entity() Entity {
	if result, ok := e.Result(); ok {
		return Entity(result)
	}

	return Entity(e)
}

// ListResponse wraps a paged list envelope:
//
//	{"result": {"entityList": [...], "pagedSearchReturnData": {"page": 1, "pageSize": 10, "totalItems": 2}, "links": [...]}}
type ListResponse struct {
	raw Envelope
}

// NewListResponse wraps body when it is a list envelope.
func NewListResponse(body Envelope) (*ListResponse, bool) {
	if !body.IsList() {
		return nil, false
	}

	return &ListResponse{raw: body}, true
}

// Entities returns the page's entities in server order.
func (r *ListResponse) Entities() []Entity {
	result, _ := r.raw.Result()
	items, _ := result["entityList"].([]any)

	entities := make([]Entity, 0, len(items))
	for _, item := range items {
		if object, ok := item.(map[string]any); ok {
			entities = append(entities, Entity(object))
		}
	}

	return entities
}

// Len returns the number of entities on this page.
func (r *ListResponse) Len() int {
	return len(r.Entities())
}

// ItemCount returns the number of raw entityList items, including null or
// scalar items that Entities skips.
func (r *ListResponse) ItemCount() int {
	result, _ := r.raw.Result()
	items, _ := result["entityList"].([]any)

	return len(items)
}

// PagedSearchReturnData returns the raw pagination metadata.
func (r *ListResponse) PagedSearchReturnData() map[string]any {
	result, _ := r.raw.Result()
	data, _ := result["pagedSearchReturnData"].(map[string]any)

	if data == nil {
		return map[string]any{}
	}

	return data
}

// Links returns the HATEOAS links of the page.
func (r *ListResponse) Links() []any {
	result, _ := r.raw.Result()

	switch links := result["links"].(type) {
	case []any:
		return links
	case nil:
		return nil
	default:
		return []any{links}
	}
}

// TotalItems returns the total number of items across all pages.
func (r *ListResponse) TotalItems() int {
	return r.metadataInt("totalItems", 0)
}

// CurrentPage returns the page number, 1 when absent.
func (r *ListResponse) CurrentPage() int {
	return r.metadataInt("page", 1)
}

// PageSize returns the page size reported by the server, 0 when absent.
func (r *ListResponse) PageSize() int {
	return r.metadataInt("pageSize", 0)
}

// HasMorePages reports whether pages beyond the current one exist.
func (r *ListResponse) HasMorePages() bool {
	return HasMorePages(r.CurrentPage(), r.PageSize(), r.TotalItems())
}

// Raw returns the undecorated envelope.
func (r *ListResponse) Raw() Envelope {
	return r.raw
}

func (r *ListResponse) metadataInt(key string, fallback int) int {
	value, ok := r.PagedSearchReturnData()[key]
	if !ok {
		return fallback
	}

	parsed, ok := toInt(value)
	if !ok {
		return fallback
	}

	return parsed
}

// HasMorePages implements currentPage*pageSize < totalItems. A zero page size
// yields false; it signals malformed metadata, not the last page.
func HasMorePages(currentPage, pageSize, totalItems int) bool {
	if pageSize == 0 {
		return false
	}

	return currentPage*pageSize < totalItems
}

func toInt(value any) (int, bool) {
	switch typed := value.(type) {
	case json.Number:
		if parsed, err := typed.Int64(); err == nil {
			return int(parsed), true
		}

		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}

		return int(math.Trunc(parsed)), true
	case float64:
		return int(math.Trunc(typed)), true
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0, false
		}

		return parsed, true
	case nil:
		return 0, false
	}

	return 0, false
}
