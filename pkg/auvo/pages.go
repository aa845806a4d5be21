package auvo

import (
	"context"
	"errors"

	"github.com/fivetwenty-io/auvo-client/internal/constants"
)

// ErrPageLimitReached is wrapped into the error returned when aggregation
// stops at the MaxPages bound while the server still reports more pages.
var ErrPageLimitReached = errors.New("page limit reached")

// PageAggregator walks every page of a query, starting at page 1.
//
// It stops on the first of: a response that is not a list envelope, an empty
// page, a page shorter than the reported page size, pagination metadata
// saying no more pages remain, or the MaxPages bound. The first failing page
// request aborts aggregation with that page's error.
type PageAggregator struct {
	query    *Query
	pageSize int
	maxPages int
}

func newPageAggregator(query *Query) *PageAggregator {
	return &PageAggregator{
		query:    query,
		pageSize: constants.AggregatePageSize,
	}
}

// PageSize overrides the page size requested for every page.
func (a *PageAggregator) PageSize(size int) *PageAggregator {
	if size > 0 {
		a.pageSize = size
	}

	return a
}

// MaxPages bounds the number of page requests. Zero means unbounded.
func (a *PageAggregator) MaxPages(limit int) *PageAggregator {
	if limit >= 0 {
		a.maxPages = limit
	}

	return a
}

// Each calls fn for every entity, page by page, in server order. An error
// from fn stops aggregation and is returned as is. The context is checked
// before each page request.
func (a *PageAggregator) Each(ctx context.Context, fn func(Entity) error) error {
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return NewAPIError("page aggregation canceled", err)
		}

		if a.maxPages > 0 && page > a.maxPages {
			return NewAPIError("page aggregation stopped", ErrPageLimitReached)
		}

		result, err := a.query.Clone().Page(page).PageSize(a.pageSize).Get(ctx)
		if err != nil {
			return err
		}

		if result.List == nil {
			return nil
		}

		received := result.List.ItemCount()
		if received == 0 {
			return nil
		}

		for _, entity := range result.List.Entities() {
			if err := fn(entity); err != nil {
				return err
			}
		}

		if !a.hasMore(result.List, received) {
			return nil
		}
	}
}

// Get returns the concatenation of every page. On error the entities
// collected before the failure are returned with it.
func (a *PageAggregator) Get(ctx context.Context) ([]Entity, error) {
	var all []Entity

	err := a.Each(ctx, func(entity Entity) error {
		all = append(all, entity)

		return nil
	})
	if all == nil {
		all = []Entity{}
	}

	return all, err
}

// hasMore decides whether another page should be requested after a page of
// received entityList items. A reported page size of zero is malformed metadata: the
// walk then continues only while full pages arrive.
func (a *PageAggregator) hasMore(list *ListResponse, received int) bool {
	reported := list.PageSize()
	if reported == 0 {
		return received >= a.pageSize
	}

	if received < reported {
		return false
	}

	return list.HasMorePages()
}
