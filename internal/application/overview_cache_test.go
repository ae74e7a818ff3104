package application

import (
	"context"
	"testing"
	"time"
)

func TestOverviewCacheStoresAndReturnsCopies(t *testing.T) {
	current := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := newOverviewCache(time.Minute, 4, func() time.Time { return current })

	hour := 22
	original := Overview{TotalUsers: 3, PeakHour: &hour}
	cache.Store("2026-05-01", original)

	hour = 5

	cached, ok := cache.Get("2026-05-01")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if cached.TotalUsers != 3 || cached.PeakHour == nil || *cached.PeakHour != 22 {
		t.Fatalf("expected the stored overview, got %+v", cached)
	}

	*cached.PeakHour = 1
	again, ok := cache.Get("2026-05-01")
	if !ok || *again.PeakHour != 22 {
		t.Fatalf("expected an independent copy on each read")
	}
}

func TestOverviewCacheExpiresEntries(t *testing.T) {
	current := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := newOverviewCache(time.Second, 4, func() time.Time { return current })

	cache.Store("day", Overview{TotalUsers: 1})
	if _, ok := cache.Get("day"); !ok {
		t.Fatalf("expected cache hit before expiry")
	}

	current = current.Add(2 * time.Second)
	if _, ok := cache.Get("day"); ok {
		t.Fatalf("expected cache entry to expire")
	}
}

func TestOverviewCacheEvictsOldestWhenFull(t *testing.T) {
	current := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := newOverviewCache(time.Minute, 2, func() time.Time { return current })

	cache.Store("a", Overview{TotalUsers: 1})
	current = current.Add(time.Second)
	cache.Store("b", Overview{TotalUsers: 2})
	current = current.Add(time.Second)
	cache.Store("c", Overview{TotalUsers: 3})

	if _, ok := cache.Get("a"); ok {
		t.Fatalf("expected the oldest entry to be evicted")
	}
	if _, ok := cache.Get("b"); !ok {
		t.Fatalf("expected b to survive")
	}
	if _, ok := cache.Get("c"); !ok {
		t.Fatalf("expected c to survive")
	}
}

func TestOverviewCacheInvalidate(t *testing.T) {
	cache := newOverviewCache(time.Minute, 4, time.Now)
	cache.Store("day", Overview{})
	cache.Invalidate()
	if _, ok := cache.Get("day"); ok {
		t.Fatalf("expected cache to be empty after invalidation")
	}
}

func TestNilOverviewCacheIsNoop(t *testing.T) {
	var cache *overviewCache
	cache.Store("day", Overview{})
	cache.Invalidate()
	if _, ok := cache.Get("day"); ok {
		t.Fatalf("nil cache must never hit")
	}
}

func TestAdminService_OverviewIsCachedPerDay(t *testing.T) {
	t.Parallel()

	store := &adminStoreStub{summaries: []UserSummary{summary("a", "a@example.com", 0, 0, 0, "2026-10-16")}}
	svc := newAdminFixture(store, newMemStore())

	first, err := svc.Overview(context.Background(), adminPrincipal)
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	store.summaries = append(store.summaries, summary("b", "b@example.com", 0, 0, 0, "2026-10-16"))

	second, err := svc.Overview(context.Background(), adminPrincipal)
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if first.TotalUsers != 1 || second.TotalUsers != 1 {
		t.Fatalf("expected the cached total, got %d then %d", first.TotalUsers, second.TotalUsers)
	}
}
