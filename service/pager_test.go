package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func sequentialFetch(pageSize, totalItems int, calls *int32) FetchPage[int] {
	return func(ctx context.Context, page int) ([]int, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		start := page * pageSize
		var items []int
		for i := start; i < start+pageSize && i < totalItems; i++ {
			items = append(items, i)
		}
		return items, nil
	}
}

func TestPagerLoadsSequentialPages(t *testing.T) {
	pager := NewPager(2, sequentialFetch(2, 5, nil))
	ctx := context.Background()

	if err := pager.LoadNext(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pager.Items(); len(got) != 2 {
		t.Fatalf("got %d items after first page", len(got))
	}
	if !pager.HasMore() {
		t.Fatal("a full page should leave HasMore true")
	}

	if err := pager.LoadNext(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pager.LoadNext(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := pager.Items()
	if len(items) != 5 {
		t.Fatalf("got %d items, want 5", len(items))
	}
	for i, v := range items {
		if v != i {
			t.Errorf("items[%d] = %d", i, v)
		}
	}
	if pager.HasMore() {
		t.Error("a short page should end the paging")
	}

	var calls int32
	exhausted := NewPager(2, sequentialFetch(2, 0, &calls))
	_ = exhausted.LoadNext(ctx)
	_ = exhausted.LoadNext(ctx)
	if atomic.LoadInt32(&calls) != 1 {
		t.Error("LoadNext after the last page must not fetch again")
	}
}

func TestPagerIgnoresLoadWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	pager := NewPager(2, func(ctx context.Context, page int) ([]int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []int{1, 2}, nil
	})

	done := make(chan error)
	go func() { done <- pager.LoadNext(context.Background()) }()

	// Wait until the first load holds the in-flight slot.
	for atomic.LoadInt32(&calls) == 0 {
		time.Sleep(time.Millisecond)
	}

	if err := pager.LoadNext(context.Background()); err != nil {
		t.Fatalf("concurrent LoadNext should be a no-op, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fetch ran %d times, want 1", got)
	}
}

func TestPagerDropsStaleResponseAfterReset(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	pager := NewPager(2, func(ctx context.Context, page int) ([]int, error) {
		close(started)
		<-release
		return []int{1, 2}, nil
	})

	done := make(chan error)
	go func() { done <- pager.LoadNext(context.Background()) }()

	<-started
	pager.Reset()
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pager.Items(); len(got) != 0 {
		t.Errorf("stale response must be dropped, got %v", got)
	}
	if pager.CurrentPage() != 0 {
		t.Errorf("cursor advanced on a stale response: page %d", pager.CurrentPage())
	}
}

func TestPagerRetriesSamePageAfterError(t *testing.T) {
	boom := fmt.Errorf("backend down")
	var calls int32
	pager := NewPager(2, func(ctx context.Context, page int) ([]int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, boom
		}
		if page != 0 {
			return nil, fmt.Errorf("retry asked for page %d, want 0", page)
		}
		return []int{1, 2}, nil
	})

	if err := pager.LoadNext(context.Background()); err != boom {
		t.Fatalf("got %v, want the fetch error", err)
	}
	if !pager.HasMore() {
		t.Fatal("a failed load must not end the paging")
	}
	if got := pager.Items(); len(got) != 0 {
		t.Fatalf("a failed load must not add items, got %v", got)
	}

	if err := pager.LoadNext(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got := pager.Items(); len(got) != 2 {
		t.Errorf("got %d items after retry, want 2", len(got))
	}
	if pager.CurrentPage() != 1 {
		t.Errorf("cursor at page %d after retry, want 1", pager.CurrentPage())
	}
}

func TestPagerSeed(t *testing.T) {
	var calls int32
	pager := NewPager(2, sequentialFetch(2, 6, &calls))
	pager.Seed([]int{0, 1})

	if pager.CurrentPage() != 1 {
		t.Errorf("seeded pager should continue from page 1, got %d", pager.CurrentPage())
	}

	if err := pager.LoadNext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := pager.Items()
	if len(items) != 4 || items[2] != 2 || items[3] != 3 {
		t.Errorf("unexpected items after seeded load: %v", items)
	}

	short := NewPager(2, sequentialFetch(2, 6, nil))
	short.Seed([]int{0})
	if short.HasMore() {
		t.Error("a short seed page should end the paging")
	}
}

func TestPagerMutate(t *testing.T) {
	pager := NewPager(2, sequentialFetch(2, 2, nil))
	_ = pager.LoadNext(context.Background())

	pager.Mutate(func(items []int) []int {
		for i := range items {
			items[i] *= 10
		}
		return items
	})

	items := pager.Items()
	if len(items) != 2 || items[0] != 0 || items[1] != 10 {
		t.Errorf("unexpected items after Mutate: %v", items)
	}
}
