package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"mcstatus/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// countingStore wraps a store and counts queries
type countingStore struct {
	PresenceStore
	queries  int
	failRead bool
	failSave bool
}

func (s *countingStore) UpsertSeen(ctx context.Context, names []string, now time.Time) error {
	if s.failSave {
		return errors.New("disk full")
	}
	return s.PresenceStore.UpsertSeen(ctx, names, now)
}

func (s *countingStore) QueryRecentlySeen(ctx context.Context, excluding []string, window time.Duration, now time.Time) ([]models.PresenceRecord, error) {
	s.queries++
	if s.failRead {
		return nil, errors.New("connection reset")
	}
	return s.PresenceStore.QueryRecentlySeen(ctx, excluding, window, now)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Failed to read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestPresenceTracker_AbsorbsStoreFailures(t *testing.T) {
	base, _ := newFileStore(t)
	store := &countingStore{PresenceStore: base, failRead: true, failSave: true}
	metrics := NewMetrics(prometheus.NewRegistry())
	tracker := NewPresenceTracker(store, metrics)

	tracker.RecordSeen(context.Background(), []string{"Steve"})
	records := tracker.RecentlySeen(context.Background(), nil, week)

	if records == nil || len(records) != 0 {
		t.Errorf("Expected empty non-nil result, got %#v", records)
	}
	if got := counterValue(t, metrics.PresenceStoreErrors.WithLabelValues("upsert")); got != 1 {
		t.Errorf("Expected 1 upsert error, got %v", got)
	}
	if got := counterValue(t, metrics.PresenceStoreErrors.WithLabelValues("query")); got != 1 {
		t.Errorf("Expected 1 query error, got %v", got)
	}
}

func TestPresenceTracker_FailedWriteKeepsPriorState(t *testing.T) {
	base, _ := newFileStore(t)
	clock := &fakeClock{now: baseTime}
	store := &countingStore{PresenceStore: base}
	tracker := NewPresenceTracker(store, nil).WithClock(clock.Now)

	tracker.RecordSeen(context.Background(), []string{"Steve"})

	store.failSave = true
	clock.Advance(time.Hour)
	tracker.RecordSeen(context.Background(), []string{"Steve", "Alex"})

	records := tracker.RecentlySeen(context.Background(), nil, week)
	if len(records) != 1 || records[0].Name != "Steve" || !records[0].LastSeenAt.Equal(baseTime) {
		t.Errorf("Expected only the first write to stick, got %+v", records)
	}
}

func TestRecentlySeenCache_ServesStaleWithinTTL(t *testing.T) {
	base, _ := newFileStore(t)
	clock := &fakeClock{now: baseTime}
	_ = base.UpsertSeen(context.Background(), []string{"Steve", "Alex"}, baseTime.Add(-time.Hour))

	store := &countingStore{PresenceStore: base}
	tracker := NewPresenceTracker(store, nil).WithClock(clock.Now)
	cache := NewRecentlySeenCache(tracker, time.Minute, clock.Now)

	first := cache.Get(context.Background(), []string{"Steve"}, week)
	clock.Advance(30 * time.Second)
	second := cache.Get(context.Background(), []string{"Alex"}, week)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical cached view, got %v then %v", recordNames(first), recordNames(second))
	}
	if store.queries != 1 {
		t.Errorf("Expected one store query, got %d", store.queries)
	}
	if got := recordNames(first); !reflect.DeepEqual(got, []string{"Alex"}) {
		t.Errorf("Expected first refresh to exclude Steve, got %v", got)
	}
}

func TestRecentlySeenCache_RefreshesAfterTTL(t *testing.T) {
	tests := []struct {
		name        string
		elapsed     time.Duration
		wantQueries int
	}{
		{name: "exactly at ttl", elapsed: time.Minute, wantQueries: 1},
		{name: "past ttl", elapsed: time.Minute + time.Second, wantQueries: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, _ := newFileStore(t)
			clock := &fakeClock{now: baseTime}
			store := &countingStore{PresenceStore: base}
			tracker := NewPresenceTracker(store, nil).WithClock(clock.Now)
			cache := NewRecentlySeenCache(tracker, time.Minute, clock.Now)

			cache.Get(context.Background(), nil, week)
			clock.Advance(tt.elapsed)
			cache.Get(context.Background(), nil, week)

			if store.queries != tt.wantQueries {
				t.Errorf("Expected %d queries, got %d", tt.wantQueries, store.queries)
			}
		})
	}
}

func TestRecentlySeenCache_Invalidate(t *testing.T) {
	base, _ := newFileStore(t)
	clock := &fakeClock{now: baseTime}
	store := &countingStore{PresenceStore: base}
	cache := NewRecentlySeenCache(NewPresenceTracker(store, nil).WithClock(clock.Now), 0, clock.Now)

	cache.Get(context.Background(), nil, week)
	cache.Invalidate()
	cache.Get(context.Background(), nil, week)

	if store.queries != 2 {
		t.Errorf("Expected invalidate to force a refresh, got %d queries", store.queries)
	}
}

func TestRecentlySeenCache_CallersCannotMutateCachedView(t *testing.T) {
	base, _ := newFileStore(t)
	clock := &fakeClock{now: baseTime}
	_ = base.UpsertSeen(context.Background(), []string{"Steve"}, baseTime.Add(-2*time.Hour))
	_ = base.UpsertSeen(context.Background(), []string{"Alex"}, baseTime.Add(-time.Hour))

	tracker := NewPresenceTracker(base, nil).WithClock(clock.Now)
	cache := NewRecentlySeenCache(tracker, time.Minute, clock.Now)

	fresh := cache.Get(context.Background(), nil, week)
	fresh[0].Name = "Herobrine"

	hit := cache.Get(context.Background(), nil, week)
	hit[1].Name = "Notch"

	again := cache.Get(context.Background(), nil, week)
	if got := recordNames(again); !reflect.DeepEqual(got, []string{"Alex", "Steve"}) {
		t.Errorf("Expected cached view to be unchanged, got %v", got)
	}
}
