package auvo_test

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
)

type executedCall struct {
	method  string
	path    string
	query   url.Values
	payload any
}

// fakeExecutor records calls and answers them through handler.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   []executedCall
	handler func(call executedCall) (auvo.Envelope, error)
}

func (f *fakeExecutor) Execute(_ context.Context, method, path string, query url.Values, payload any) (auvo.Envelope, error) {
	call := executedCall{method: method, path: path, query: query, payload: payload}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.handler == nil {
		return auvo.Envelope{}, nil
	}

	return f.handler(call)
}

func (f *fakeExecutor) Calls() []executedCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]executedCall(nil), f.calls...)
}

// listPage builds a list envelope holding entities with the given ids.
func listPage(page, pageSize, totalItems int, ids ...int) auvo.Envelope {
	items := make([]any, len(ids))
	for i, id := range ids {
		items[i] = map[string]any{"id": id}
	}

	return rawPage(page, pageSize, totalItems, items...)
}

// rawPage builds a list envelope around arbitrary entityList items.
func rawPage(page, pageSize, totalItems int, items ...any) auvo.Envelope {
	if items == nil {
		items = []any{}
	}

	return auvo.Envelope{
		"result": map[string]any{
			"entityList": items,
			"pagedSearchReturnData": map[string]any{
				"page":       page,
				"pageSize":   pageSize,
				"totalItems": totalItems,
			},
		},
	}
}

// pagedCollection serves total sequential ids in pages of the requested size.
func pagedCollection(total int) func(call executedCall) (auvo.Envelope, error) {
	return func(call executedCall) (auvo.Envelope, error) {
		page, _ := strconv.Atoi(call.query.Get("page"))
		size, _ := strconv.Atoi(call.query.Get("pageSize"))

		var ids []int
		for id := (page-1)*size + 1; id <= page*size && id <= total; id++ {
			ids = append(ids, id)
		}

		return listPage(page, size, total, ids...), nil
	}
}

func entityIDs(entities []auvo.Entity) []int {
	ids := make([]int, 0, len(entities))
	for _, entity := range entities {
		id, _ := entity["id"].(int)
		ids = append(ids, id)
	}

	return ids
}
