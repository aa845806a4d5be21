package auvo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/auvo-client/internal/constants"
)

// Query accumulates filters, direct query parameters and an optional
// resource id for one collection endpoint, and executes requests against it.
//
// Filters are serialized together as one JSON object in the paramFilter query
// parameter; params are sent as individual query parameters. The two sets are
// disjoint: when filters are present they own paramFilter.
//
// A Query is not safe for concurrent mutation. AllPages works on a copy.
type Query struct {
	executor   Executor
	endpoint   string
	filters    map[string]any
	params     map[string]any
	data       map[string]any
	resourceID string
	logger     Logger
}

// QueryOption mutates a query. Resource filter helpers are QueryOptions.
type QueryOption func(q *Query)

// Result is the outcome of Query.Get. List is set when the body is a paged
// list envelope; Body always holds the decoded response.
type Result struct {
	Body Envelope
	List *ListResponse
}

// IsList reports whether the response was a list envelope.
func (r *Result) IsList() bool {
	return r.List != nil
}

// NewQuery creates a query bound to endpoint (e.g. "/tasks").
func NewQuery(executor Executor, endpoint string) *Query {
	return &Query{
		executor: executor,
		endpoint: "/" + strings.Trim(endpoint, "/"),
		filters:  make(map[string]any),
		params:   make(map[string]any),
		data:     make(map[string]any),
	}
}

// SetLogger makes the query log failed requests.
func (q *Query) SetLogger(logger Logger) *Query {
	q.logger = logger

	return q
}

// With applies the given options.
func (q *Query) With(opts ...QueryOption) *Query {
	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Where sets a filter predicate (sent inside paramFilter). The last value
// set for a key wins.
func (q *Query) Where(key string, value any) *Query {
	q.filters[key] = value

	return q
}

// Param sets a direct query parameter.
func (q *Query) Param(key string, value any) *Query {
	q.params[key] = value

	return q
}

// SetParams merges params into the direct query parameters.
func (q *Query) SetParams(params map[string]any) *Query {
	maps.Copy(q.params, params)

	return q
}

// SetData replaces the stored request payload used by Create, Update and
// Delete when they are called without data.
func (q *Query) SetData(data map[string]any) *Query {
	q.data = deepCopyMap(data)
	if q.data == nil {
		q.data = make(map[string]any)
	}

	return q
}

// Find selects a single resource. id may be a string or an integer; nil
// clears the selection.
func (q *Query) Find(id any) *Query {
	if id == nil {
		q.resourceID = ""

		return q
	}

	q.resourceID = fmt.Sprint(id)

	return q
}

// Page sets the page number parameter.
func (q *Query) Page(page int) *Query {
	return q.Param(constants.ParamPage, page)
}

// PageSize sets the page size parameter.
func (q *Query) PageSize(size int) *Query {
	return q.Param(constants.ParamPageSize, size)
}

// SelectFields restricts the fields returned for each entity.
func (q *Query) SelectFields(fields string) *Query {
	return q.Param(constants.ParamSelectFields, fields)
}

// Endpoint returns the collection path.
func (q *Query) Endpoint() string {
	return q.endpoint
}

// ResourceID returns the selected resource id.
func (q *Query) ResourceID() (string, bool) {
	return q.resourceID, q.resourceID != ""
}

// Filters returns a copy of the filter set.
func (q *Query) Filters() map[string]any {
	return maps.Clone(q.filters)
}

// Params returns a copy of the direct parameter set.
func (q *Query) Params() map[string]any {
	return maps.Clone(q.params)
}

// URI returns the endpoint, suffixed with the resource id when one is set.
func (q *Query) URI() string {
	if q.resourceID == "" {
		return q.endpoint
	}

	return q.endpoint + "/" + url.PathEscape(q.resourceID)
}

// Values builds the query string: every direct parameter, plus paramFilter
// holding the JSON filter set when it is not empty.
func (q *Query) Values() (url.Values, error) {
	values := url.Values{}

	for key, value := range q.params {
		values.Set(key, formatParam(value))
	}

	if len(q.filters) > 0 {
		encoded, err := json.Marshal(q.filters)
		if err != nil {
			return nil, NewAPIError("encoding filters", err)
		}

		values.Set(constants.ParamFilter, string(encoded))
	}

	return values, nil
}

// Clone returns a deep copy that shares no mutable state with q.
func (q *Query) Clone() *Query {
	return &Query{
		executor:   q.executor,
		endpoint:   q.endpoint,
		filters:    deepCopyMap(q.filters),
		params:     deepCopyMap(q.params),
		data:       deepCopyMap(q.data),
		resourceID: q.resourceID,
		logger:     q.logger,
	}
}

// Get executes a GET against URI with the built query string.
func (q *Query) Get(ctx context.Context) (*Result, error) {
	values, err := q.Values()
	if err != nil {
		return nil, err
	}

	body, err := q.executor.Execute(ctx, MethodGet, q.URI(), values, nil)
	if err != nil {
		return nil, q.fail(err)
	}

	result := &Result{Body: body}
	if list, ok := NewListResponse(body); ok {
		result.List = list
	}

	return result, nil
}

// Create executes a POST. Empty data falls back to the stored payload.
func (q *Query) Create(ctx context.Context, data map[string]any) (Envelope, error) {
	return q.send(ctx, MethodPost, data)
}

// Update executes a PATCH against the selected resource.
func (q *Query) Update(ctx context.Context, data map[string]any) (Envelope, error) {
	if q.resourceID == "" {
		return nil, NewAPIError("resource id is required for update", ErrResourceIDRequired)
	}

	return q.send(ctx, MethodPatch, data)
}

// Delete executes a DELETE against the selected resource.
func (q *Query) Delete(ctx context.Context, data map[string]any) (Envelope, error) {
	if q.resourceID == "" {
		return nil, NewAPIError("resource id is required for delete", ErrResourceIDRequired)
	}

	return q.send(ctx, MethodDelete, data)
}

// First fetches one resource by id and flattens the response to the entity,
// whether the server answered with a list envelope or a single entity.
func (q *Query) First(ctx context.Context, id any) (Entity, error) {
	result, err := q.Find(id).Get(ctx)
	if err != nil {
		return nil, err
	}

	if result.List != nil {
		entities := result.List.Entities()
		if len(entities) == 0 {
			return Entity{}, nil
		}

		return entities[0], nil
	}

	return result.Body.Entity(), nil
}

// AllPages returns an aggregator bound to a snapshot of the query.
func (q *Query) AllPages() *PageAggregator {
	return newPageAggregator(q.Clone())
}

// GetAll fetches every page and returns the concatenated entities.
func (q *Query) GetAll(ctx context.Context) ([]Entity, error) {
	return q.AllPages().Get(ctx)
}

func (q *Query) send(ctx context.Context, method string, data map[string]any) (Envelope, error) {
	payload := data
	if len(payload) == 0 {
		payload = q.data
	}

	if payload == nil {
		payload = map[string]any{}
	}

	body, err := q.executor.Execute(ctx, method, q.URI(), nil, payload)
	if err != nil {
		return nil, q.fail(err)
	}

	return body, nil
}

func (q *Query) fail(err error) error {
	err = AsAPIError("request failed", err)

	if q.logger != nil {
		fields := map[string]interface{}{
			"endpoint": q.URI(),
			"status":   StatusCodeOf(err),
			"error":    err.Error(),
		}

		apiErr := &Error{}
		if errors.As(err, &apiErr) && apiErr.Body != "" {
			fields["body"] = apiErr.Body
		}

		q.logger.Error("Auvo Query Request Failed", fields)
	}

	return err
}

func formatParam(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case json.Number:
		return typed.String()
	case []string:
		return strings.Join(typed, ",")
	case fmt.Stringer:
		return typed.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}

func deepCopyMap(source map[string]any) map[string]any {
	if source == nil {
		return nil
	}

	copied := make(map[string]any, len(source))
	for key, value := range source {
		copied[key] = deepCopyValue(value)
	}

	return copied
}

func deepCopyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return deepCopyMap(typed)
	case Entity:
		return Entity(deepCopyMap(typed))
	case []any:
		copied := make([]any, len(typed))
		for i, item := range typed {
			copied[i] = deepCopyValue(item)
		}

		return copied
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}
