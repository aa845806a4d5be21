package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/fivetwenty-io/auvo-client/internal/client"
	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuvo is a minimal Auvo API: /login/ plus a paged /tasks collection.
type fakeAuvo struct {
	server     *httptest.Server
	logins     atomic.Int32
	taskCalls  atomic.Int32
	rejectNext atomic.Bool
	totalTasks int
}

func newFakeAuvo(t *testing.T, totalTasks int) *fakeAuvo {
	t.Helper()

	fake := &fakeAuvo{totalTasks: totalTasks}

	mux := http.NewServeMux()
	mux.HandleFunc("/login/", fake.login)
	mux.HandleFunc("/tasks", fake.tasks)

	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)

	return fake
}

func (f *fakeAuvo) login(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	if body["apiKey"] != "key" || body["apiToken"] != "secret" {
		w.WriteHeader(http.StatusUnauthorized)

		return
	}

	n := f.logins.Add(1)
	_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{
		"authenticated": true,
		"accessToken":   "token-" + strconv.Itoa(int(n)),
		"expiration":    time.Now().Add(30 * time.Minute).Format(time.RFC3339),
	}})
}

func (f *fakeAuvo) tasks(w http.ResponseWriter, r *http.Request) {
	f.taskCalls.Add(1)

	if f.rejectNext.CompareAndSwap(true, false) || r.Header.Get("Authorization") == "" {
		w.WriteHeader(http.StatusUnauthorized)

		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	if page == 0 {
		page = 1
	}

	if size == 0 {
		size = 10
	}

	items := []any{}
	for id := (page-1)*size + 1; id <= page*size && id <= f.totalTasks; id++ {
		items = append(items, map[string]any{"id": id})
	}

	_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{
		"entityList":            items,
		"pagedSearchReturnData": map[string]any{"page": page, "pageSize": size, "totalItems": f.totalTasks},
	}})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), nil)
		require.ErrorIs(t, err, auvo.ErrConfigRequired)
	})

	t.Run("requires credentials", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), &auvo.Config{APIKey: "key"})
		require.ErrorIs(t, err, auvo.ErrMissingCredentials)
	})

	t.Run("does not sign in eagerly by default", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAuvo(t, 0)

		client, err := New(context.Background(), &auvo.Config{BaseURI: fake.server.URL, APIKey: "key", APIToken: "secret"})
		require.NoError(t, err)
		assert.Nil(t, client.Auth().Token())
		assert.Equal(t, int32(0), fake.logins.Load())
	})

	t.Run("signs in on init", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAuvo(t, 0)

		client, err := New(context.Background(), &auvo.Config{
			BaseURI: fake.server.URL, APIKey: "key", APIToken: "secret", SignInOnInit: true,
		})
		require.NoError(t, err)
		require.NotNil(t, client.Auth().Token())
		assert.Equal(t, "token-1", client.Auth().Token().AccessToken)
	})

	t.Run("initial sign-in failure", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAuvo(t, 0)

		_, err := New(context.Background(), &auvo.Config{
			BaseURI: fake.server.URL, APIKey: "key", APIToken: "wrong", SignInOnInit: true,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, auvo.ErrAuthentication)
		assert.Contains(t, err.Error(), "initial sign-in failed")
	})
}

func TestClient_ResourceQueries(t *testing.T) {
	t.Parallel()

	fake := newFakeAuvo(t, 0)

	client, err := New(context.Background(), &auvo.Config{BaseURI: fake.server.URL, APIKey: "key", APIToken: "secret"})
	require.NoError(t, err)

	assert.Equal(t, auvo.EndpointUsers, client.Users().Endpoint())
	assert.Equal(t, auvo.EndpointTasks, client.Tasks().Endpoint())
	assert.Equal(t, auvo.EndpointCustomers, client.Customers().Endpoint())
	assert.Equal(t, auvo.EndpointTeams, client.Teams().Endpoint())
	assert.Equal(t, "/questionnaires", client.Query("questionnaires").Endpoint())
	assert.Nil(t, client.Metrics())
}

func TestClient_EndToEnd(t *testing.T) {
	t.Parallel()

	fake := newFakeAuvo(t, 25)
	registry := prometheus.NewRegistry()

	client, err := New(context.Background(), &auvo.Config{
		BaseURI:    fake.server.URL,
		APIKey:     "key",
		APIToken:   "secret",
		Registerer: registry,
	})
	require.NoError(t, err)

	tasks, err := client.Tasks().With(auvo.Completed()).AllPages().PageSize(10).Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 25)
	assert.Equal(t, int32(1), fake.logins.Load())
	assert.Equal(t, int32(3), fake.taskCalls.Load())

	// A 401 mid-session triggers one sign-in and a replay.
	fake.rejectNext.Store(true)

	result, err := client.Tasks().Page(1).PageSize(5).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, result.List.Len())
	assert.Equal(t, int32(2), fake.logins.Load())
	assert.Equal(t, "token-2", client.Auth().Token().AccessToken)

	collector := client.Metrics()
	require.NotNil(t, collector)
	assert.InDelta(t, 1, testutil.ToFloat64(collector.ReauthReplaysTotal), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(collector.RequestsTotal.WithLabelValues("/tasks", http.MethodGet, "200")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(collector.SignInsTotal.WithLabelValues("ok")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(collector.RequestsTotal.WithLabelValues("/login", http.MethodPost, "200")), 0)
}
