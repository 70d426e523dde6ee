package opencloud

import (
	"context"
)

// PageFunc fetches one page of results. It receives the cursor returned
// by the previous page, empty for the first request, and returns the
// page's items along with the cursor for the next page. An empty next
// cursor means the final page.
type PageFunc[T any] func(ctx context.Context, cursor string) (items []T, nextCursor string, err error)

// PageHook is invoked after every page fetch with the number of items
// the page produced and the cursor it returned.
type PageHook func(items int, nextCursor string)

// Pager iterates a cursor-paginated list endpoint as a single flat, lazy
// sequence. It is forward-only and single-pass: re-iterating requires a
// new Pager, which re-issues requests from the first page.
//
// A page whose next cursor repeats the cursor that requested it ends the
// sequence after that page's items. Servers are not supposed to do this,
// but the guard keeps a misbehaving one from looping the iterator
// forever.
type Pager[T any] struct {
	ctx    context.Context
	fetch  PageFunc[T]
	hook   PageHook
	limit  int
	buffer []T

	cursor  string
	yielded int
	done    bool
	fillErr error
}

// PagerOption configures a Pager.
type PagerOption func(*pagerOptions)

type pagerOptions struct {
	limit int
	hook  PageHook
}

// WithLimit caps the total number of items the pager will produce. Once
// the cap is reached no further pages are fetched. Zero means no limit.
func WithLimit(limit int) PagerOption {
	return func(o *pagerOptions) {
		o.limit = limit
	}
}

// WithPageHook registers a hook called after every page fetch.
func WithPageHook(hook PageHook) PagerOption {
	return func(o *pagerOptions) {
		o.hook = hook
	}
}

// NewPager creates a pager over fetch. No request is issued until the
// first item is needed.
func NewPager[T any](ctx context.Context, fetch PageFunc[T], opts ...PagerOption) *Pager[T] {
	options := pagerOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	return &Pager[T]{
		ctx:   ctx,
		fetch: fetch,
		hook:  options.hook,
		limit: options.limit,
	}
}

// fill fetches pages until at least one item is buffered or the sequence
// ends. Pages are strictly sequential: the next request is never issued
// before the current response's cursor is known.
func (p *Pager[T]) fill() error {
	for len(p.buffer) == 0 && !p.done {
		if p.limitReached() {
			return nil
		}

		items, next, err := p.fetch(p.ctx, p.cursor)
		if err != nil {
			return err
		}

		if p.hook != nil {
			p.hook(len(items), next)
		}

		p.buffer = append(p.buffer, items...)

		switch {
		case next == "":
			p.done = true
		case next == p.cursor:
			// Repeated cursor. Keep this page's items but stop here.
			p.done = true
		default:
			p.cursor = next
		}
	}

	return nil
}

func (p *Pager[T]) limitReached() bool {
	return p.limit > 0 && p.yielded >= p.limit
}

// HasNext reports whether Next will produce another item. It may fetch
// the next page to find out; a fetch error is held and surfaced by the
// following Next call.
func (p *Pager[T]) HasNext() bool {
	if p.fillErr != nil {
		return true
	}

	if p.limitReached() {
		return false
	}

	if len(p.buffer) > 0 {
		return true
	}

	if p.done {
		return false
	}

	err := p.fill()
	if err != nil {
		p.fillErr = err

		return true
	}

	return len(p.buffer) > 0
}

// Next returns the next item in the sequence. It returns ErrNoMoreItems
// once the sequence is exhausted. A transport error from the failing
// page fetch is returned as-is; items yielded before it remain valid.
func (p *Pager[T]) Next() (T, error) {
	var zero T

	if p.fillErr != nil {
		err := p.fillErr
		p.fillErr = nil

		return zero, err
	}

	if p.limitReached() {
		return zero, ErrNoMoreItems
	}

	if len(p.buffer) == 0 {
		err := p.fill()
		if err != nil {
			return zero, err
		}
	}

	if len(p.buffer) == 0 {
		return zero, ErrNoMoreItems
	}

	item := p.buffer[0]
	p.buffer = p.buffer[1:]
	p.yielded++

	return item, nil
}

// All drains the remaining sequence into a slice.
func (p *Pager[T]) All() ([]T, error) {
	var results []T

	for p.HasNext() {
		item, err := p.Next()
		if err != nil {
			return results, err
		}

		results = append(results, item)
	}

	return results, nil
}

// Collect drains up to max items from pager into a slice. A max of zero
// or less drains the whole sequence.
func Collect[T any](pager *Pager[T], max int) ([]T, error) {
	var results []T

	for pager.HasNext() {
		if max > 0 && len(results) >= max {
			break
		}

		item, err := pager.Next()
		if err != nil {
			return results, err
		}

		results = append(results, item)
	}

	return results, nil
}
