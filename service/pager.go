package service

import (
	"context"
	"sync"
)

// FetchPage loads one page of items for a Pager.
type FetchPage[T any] func(ctx context.Context, page int) ([]T, error)

// Pager is a "load more" cursor over a server-paged collection. Items
// accumulate append-only until Reset. A LoadNext while another load is in
// flight is ignored, and responses that arrive after a Reset are dropped.
type Pager[T any] struct {
	fetch FetchPage[T]
	size  int

	mu         sync.Mutex
	page       int
	items      []T
	hasMore    bool
	inFlight   bool
	generation int
}

func NewPager[T any](size int, fetch FetchPage[T]) *Pager[T] {
	return &Pager[T]{
		fetch:   fetch,
		size:    size,
		hasMore: true,
	}
}

// Seed installs an already-fetched first page, as when a search submission
// returns page zero and the pager continues from page one.
func (p *Pager[T]) Seed(items []T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = append([]T(nil), items...)
	p.page = 1
	p.hasMore = len(items) == p.size
	p.generation++
}

// LoadNext fetches the next page and appends its items. Calls made while a
// fetch is in flight, or after the last page, are no-ops.
func (p *Pager[T]) LoadNext(ctx context.Context) error {
	p.mu.Lock()
	if p.inFlight || !p.hasMore {
		p.mu.Unlock()
		return nil
	}
	p.inFlight = true
	page := p.page
	generation := p.generation
	p.mu.Unlock()

	items, err := p.fetch(ctx, page)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false

	// A Reset while the fetch was in flight makes this response stale.
	if generation != p.generation {
		return nil
	}
	// The cursor stays where it was so the same page can be retried.
	if err != nil {
		return err
	}

	p.items = append(p.items, items...)
	p.page = page + 1
	p.hasMore = len(items) == p.size
	return nil
}

// Reset clears the accumulated items and cursor, used when the criteria
// behind the pager change.
func (p *Pager[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = nil
	p.page = 0
	p.hasMore = true
	p.generation++
}

func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]T(nil), p.items...)
}

func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.hasMore
}

func (p *Pager[T]) CurrentPage() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.page
}

// Mutate applies fn to the accumulated items under the pager's lock, for
// local updates such as flagging a booking as cancelled.
func (p *Pager[T]) Mutate(fn func(items []T) []T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = fn(p.items)
}
