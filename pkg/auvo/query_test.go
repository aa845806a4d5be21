package auvo_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loggedEntry struct {
	msg    string
	fields map[string]interface{}
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []loggedEntry
}

func (l *recordingLogger) Debug(string, map[string]interface{}) {}
func (l *recordingLogger) Info(string, map[string]interface{})  {}
func (l *recordingLogger) Warn(string, map[string]interface{})  {}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.errors = append(l.errors, loggedEntry{msg: msg, fields: fields})
}

func TestQuery_Values(t *testing.T) {
	t.Parallel()

	query := auvo.NewQuery(&fakeExecutor{}, "tasks/").
		Where("userId", 7).
		Where("status", "scheduled").
		Page(2).
		PageSize(50).
		SelectFields("id,name")

	assert.Equal(t, "/tasks", query.Endpoint())

	values, err := query.Values()
	require.NoError(t, err)

	assert.Equal(t, "2", values.Get("page"))
	assert.Equal(t, "50", values.Get("pageSize"))
	assert.Equal(t, "id,name", values.Get("selectfields"))

	var filters map[string]any
	require.NoError(t, json.Unmarshal([]byte(values.Get("paramFilter")), &filters))
	assert.Equal(t, map[string]any{"userId": float64(7), "status": "scheduled"}, filters)

	again, err := query.Values()
	require.NoError(t, err)
	assert.Equal(t, values, again)
}

func TestQuery_ValuesWithoutFilters(t *testing.T) {
	t.Parallel()

	values, err := auvo.NewQuery(&fakeExecutor{}, "/users").Param("active", true).Values()
	require.NoError(t, err)

	assert.Equal(t, "true", values.Get("active"))
	assert.False(t, values.Has("paramFilter"))
}

func TestQuery_FilterOwnsParamFilter(t *testing.T) {
	t.Parallel()

	values, err := auvo.NewQuery(&fakeExecutor{}, "/users").
		Param("paramFilter", "raw").
		Where("email", "a@b.c").
		Values()
	require.NoError(t, err)

	assert.JSONEq(t, `{"email":"a@b.c"}`, values.Get("paramFilter"))
}

func TestQuery_WhereLastValueWins(t *testing.T) {
	t.Parallel()

	query := auvo.NewQuery(&fakeExecutor{}, "/tasks").Where("status", "completed").Where("status", "scheduled")
	assert.Equal(t, map[string]any{"status": "scheduled"}, query.Filters())
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestQuery_ValuesIgnoreCallOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(q *auvo.Query) *auvo.Query
	}{
		{
			name: "filters in order",
			build: func(q *auvo.Query) *auvo.Query {
				return q.Where("a", 1).Where("b", 2).Param("page", 3).Where("c", "x")
			},
		},
		{
			name: "filters reversed",
			build: func(q *auvo.Query) *auvo.Query {
				return q.Where("c", "x").Param("page", 3).Where("b", 2).Where("a", 1)
			},
		},
		{
			name: "overwritten key",
			build: func(q *auvo.Query) *auvo.Query {
				return q.Where("b", 9).Where("a", 1).Where("c", "x").Where("b", 2).Param("page", 3)
			},
		},
		{
			name: "param first",
			build: func(q *auvo.Query) *auvo.Query {
				return q.Param("page", 1).Where("b", 2).Param("page", 3).Where("c", "y").Where("a", 1).Where("c", "x")
			},
		},
	}

	reference, err := tests[0].build(auvo.NewQuery(&fakeExecutor{}, "/tasks")).Values()
	require.NoError(t, err)
	require.Equal(t, `{"a":1,"b":2,"c":"x"}`, reference.Get("paramFilter"))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			values, err := tt.build(auvo.NewQuery(&fakeExecutor{}, "/tasks")).Values()
			require.NoError(t, err)
			assert.Equal(t, reference.Get("paramFilter"), values.Get("paramFilter"))
			assert.Equal(t, reference.Encode(), values.Encode())
		})
	}
}

func TestQuery_URI(t *testing.T) {
	t.Parallel()

	query := auvo.NewQuery(&fakeExecutor{}, "/customers")
	assert.Equal(t, "/customers", query.URI())

	_, ok := query.ResourceID()
	assert.False(t, ok)

	query.Find(0)
	id, ok := query.ResourceID()
	assert.True(t, ok)
	assert.Equal(t, "0", id)
	assert.Equal(t, "/customers/0", query.URI())

	query.Find("a b")
	assert.Equal(t, "/customers/a%20b", query.URI())

	query.Find(nil)
	_, ok = query.ResourceID()
	assert.False(t, ok)
	assert.Equal(t, "/customers", query.URI())
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestQuery_Get(t *testing.T) {
	t.Parallel()

	t.Run("list envelope", func(t *testing.T) {
		t.Parallel()

		executor := &fakeExecutor{handler: func(executedCall) (auvo.Envelope, error) {
			return listPage(1, 10, 2, 1, 2), nil
		}}

		result, err := auvo.NewQuery(executor, "/tasks").Where("status", "completed").Get(context.Background())
		require.NoError(t, err)
		require.True(t, result.IsList())
		assert.Equal(t, []int{1, 2}, entityIDs(result.List.Entities()))

		calls := executor.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, auvo.MethodGet, calls[0].method)
		assert.Equal(t, "/tasks", calls[0].path)
		assert.JSONEq(t, `{"status":"completed"}`, calls[0].query.Get("paramFilter"))
		assert.Nil(t, calls[0].payload)
	})

	t.Run("single entity", func(t *testing.T) {
		t.Parallel()

		executor := &fakeExecutor{handler: func(executedCall) (auvo.Envelope, error) {
			return auvo.Envelope{"result": map[string]any{"id": 5}}, nil
		}}

		result, err := auvo.NewQuery(executor, "/users").Find(5).Get(context.Background())
		require.NoError(t, err)
		assert.False(t, result.IsList())
		assert.Equal(t, auvo.Entity{"id": 5}, result.Body.Entity())
		assert.Equal(t, "/users/5", executor.Calls()[0].path)
	})

	t.Run("errors are typed and logged", func(t *testing.T) {
		t.Parallel()

		executor := &fakeExecutor{handler: func(executedCall) (auvo.Envelope, error) {
			return nil, auvo.ErrorFromResponse(404, []byte(`{"message":"missing"}`))
		}}
		logger := &recordingLogger{}

		_, err := auvo.NewQuery(executor, "/users").SetLogger(logger).Find(9).Get(context.Background())
		require.Error(t, err)
		assert.True(t, auvo.IsNotFound(err))

		require.Len(t, logger.errors, 1)
		assert.Equal(t, "Auvo Query Request Failed", logger.errors[0].msg)
		assert.Equal(t, "/users/9", logger.errors[0].fields["endpoint"])
		assert.Equal(t, 404, logger.errors[0].fields["status"])
		assert.Equal(t, `{"message":"missing"}`, logger.errors[0].fields["body"])
	})

	t.Run("untyped errors become api errors", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection reset")
		executor := &fakeExecutor{handler: func(executedCall) (auvo.Envelope, error) {
			return nil, cause
		}}

		_, err := auvo.NewQuery(executor, "/users").Get(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)

		kind, ok := auvo.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, auvo.KindAPI, kind)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestQuery_Mutations(t *testing.T) {
	t.Parallel()

	t.Run("create sends data", func(t *testing.T) {
		t.Parallel()

		executor := &fakeExecutor{handler: func(executedCall) (auvo.Envelope, error) {
			return auvo.Envelope{"result": map[string]any{"id": 10}}, nil
		}}

		body, err := auvo.NewQuery(executor, "/customers").Create(context.Background(), map[string]any{"name": "ACME"})
		require.NoError(t, err)
		assert.Equal(t, auvo.Entity{"id": 10}, body.Entity())

		calls := executor.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, auvo.MethodPost, calls[0].method)
		assert.Equal(t, "/customers", calls[0].path)
		assert.Equal(t, map[string]any{"name": "ACME"}, calls[0].payload)
		assert.Nil(t, calls[0].query)
	})

	t.Run("empty data falls back to stored payload", func(t *testing.T) {
		t.Parallel()

		executor := &fakeExecutor{}
		query := auvo.NewQuery(executor, "/customers").SetData(map[string]any{"name": "Stored"})

		_, err := query.Create(context.Background(), nil)
		require.NoError(t, err)
		_, err = query.Find(3).Update(context.Background(), map[string]any{})
		require.NoError(t, err)

		calls := executor.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, map[string]any{"name": "Stored"}, calls[0].payload)
		assert.Equal(t, auvo.MethodPatch, calls[1].method)
		assert.Equal(t, "/customers/3", calls[1].path)
		assert.Equal(t, map[string]any{"name": "Stored"}, calls[1].payload)
	})

	t.Run("no payload sends empty object", func(t *testing.T) {
		t.Parallel()

		executor := &fakeExecutor{}

		_, err := auvo.NewQuery(executor, "/teams").Find(4).Delete(context.Background(), nil)
		require.NoError(t, err)

		calls := executor.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, auvo.MethodDelete, calls[0].method)
		assert.Equal(t, map[string]any{}, calls[0].payload)
	})

	t.Run("update and delete require an id", func(t *testing.T) {
		t.Parallel()

		executor := &fakeExecutor{}
		query := auvo.NewQuery(executor, "/teams")

		_, err := query.Update(context.Background(), map[string]any{"name": "x"})
		require.ErrorIs(t, err, auvo.ErrResourceIDRequired)

		_, err = query.Delete(context.Background(), nil)
		require.ErrorIs(t, err, auvo.ErrResourceIDRequired)

		_, err = query.Find(nil).Update(context.Background(), map[string]any{"name": "x"})
		require.ErrorIs(t, err, auvo.ErrResourceIDRequired)

		kind, ok := auvo.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, auvo.KindAPI, kind)
		assert.Empty(t, executor.Calls())
	})
}

func TestQuery_First(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response auvo.Envelope
		expected auvo.Entity
	}{
		{name: "list envelope", response: listPage(1, 10, 2, 8, 9), expected: auvo.Entity{"id": 8}},
		{name: "empty list", response: listPage(1, 10, 0), expected: auvo.Entity{}},
		{name: "result object", response: auvo.Envelope{"result": map[string]any{"id": 8}}, expected: auvo.Entity{"id": 8}},
		{name: "bare object", response: auvo.Envelope{"id": 8}, expected: auvo.Entity{"id": 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			executor := &fakeExecutor{handler: func(executedCall) (auvo.Envelope, error) {
				return tt.response, nil
			}}

			entity, err := auvo.NewQuery(executor, "/users").First(context.Background(), 8)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, entity)
			assert.Equal(t, "/users/8", executor.Calls()[0].path)
		})
	}
}

func TestQuery_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	original := auvo.NewQuery(&fakeExecutor{}, "/tasks").
		Where("nested", map[string]any{"a": 1}).
		Param("page", 1).
		SetData(map[string]any{"tags": []any{"x"}})

	clone := original.Clone()
	clone.Where("status", "completed").Param("page", 2).Find(3)

	nested, ok := clone.Filters()["nested"].(map[string]any)
	require.True(t, ok)
	nested["a"] = 2

	assert.Equal(t, map[string]any{"nested": map[string]any{"a": 1}}, original.Filters())
	assert.Equal(t, map[string]any{"page": 1}, original.Params())

	_, hasID := original.ResourceID()
	assert.False(t, hasID)
}
