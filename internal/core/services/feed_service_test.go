package services

import (
	"fmt"
	"testing"

	"twitchbridge/internal/core/domain"

	"go.uber.org/zap/zaptest"
)

func newTestFeed(t *testing.T) *feedService {
	t.Helper()
	return NewFeedService(FeedConfig{BufferCapacity: 50, ListenerBacklog: 16}, nil, zaptest.NewLogger(t).Sugar()).(*feedService)
}

func TestFeedService_BufferCapsAtNewestFifty(t *testing.T) {
	feed := newTestFeed(t)
	tenantID := domain.TenantID("tenant-1")

	for i := 0; i < 60; i++ {
		feed.Append(tenantID, domain.CanonicalEvent{
			ID:        fmt.Sprintf("evt-%d", i),
			EventType: domain.EventFollow,
		})
	}

	snapshot := feed.Snapshot(tenantID)
	if len(snapshot) != 50 {
		t.Fatalf("Snapshot() len = %d, want 50", len(snapshot))
	}
	if snapshot[0].ID != "evt-59" {
		t.Errorf("newest event = %s, want evt-59", snapshot[0].ID)
	}
	if snapshot[49].ID != "evt-10" {
		t.Errorf("oldest kept event = %s, want evt-10", snapshot[49].ID)
	}
}

func TestFeedService_SnapshotIsolatedPerTenant(t *testing.T) {
	feed := newTestFeed(t)

	feed.Append("tenant-a", domain.CanonicalEvent{ID: "a1", EventType: domain.EventFollow})
	feed.Append("tenant-b", domain.CanonicalEvent{ID: "b1", EventType: domain.EventCheer})

	if got := feed.Snapshot("tenant-a"); len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("Snapshot(tenant-a) = %v", got)
	}
	if got := feed.Snapshot("tenant-b"); len(got) != 1 || got[0].ID != "b1" {
		t.Errorf("Snapshot(tenant-b) = %v", got)
	}
	if got := feed.Snapshot("tenant-c"); len(got) != 0 {
		t.Errorf("Snapshot(tenant-c) = %v, want empty", got)
	}
}

func TestFeedService_Stats(t *testing.T) {
	feed := newTestFeed(t)
	tenantID := domain.TenantID("tenant-1")

	feed.Append(tenantID, domain.CanonicalEvent{
		ID: "e1", EventType: domain.EventCheer,
		Data: map[string]interface{}{"bits": 100},
	})
	feed.Append(tenantID, domain.CanonicalEvent{ID: "e2", EventType: domain.EventSubscribe})
	feed.Append(tenantID, domain.CanonicalEvent{ID: "e3", EventType: domain.EventGiftSubscription})
	feed.Append(tenantID, domain.CanonicalEvent{
		ID: "e4", EventType: domain.EventRaid,
		Data: map[string]interface{}{"viewers": 200},
	})

	stats := feed.Stats(tenantID)
	if stats.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d, want 4", stats.TotalEvents)
	}
	// 100 bits + 5 per sub + 5 per gift sub, raids are worth nothing.
	if stats.TotalValue != 110 {
		t.Errorf("TotalValue = %d, want 110", stats.TotalValue)
	}
	if stats.EventTypes[domain.EventCheer] != 1 || stats.EventTypes[domain.EventRaid] != 1 {
		t.Errorf("EventTypes = %v", stats.EventTypes)
	}
}

func TestFeedService_ListenerReceivesAppends(t *testing.T) {
	feed := newTestFeed(t)
	tenantID := domain.TenantID("tenant-1")

	l := feed.Subscribe(tenantID)
	defer feed.Unsubscribe(l)

	feed.Append(tenantID, domain.CanonicalEvent{ID: "e1", EventType: domain.EventFollow})

	select {
	case got := <-l.C:
		if got.ID != "e1" {
			t.Errorf("received event %s, want e1", got.ID)
		}
	default:
		t.Fatal("listener channel empty, want delivered event")
	}
}

func TestFeedService_ListenerNotCrossTenant(t *testing.T) {
	feed := newTestFeed(t)

	l := feed.Subscribe("tenant-a")
	defer feed.Unsubscribe(l)

	feed.Append("tenant-b", domain.CanonicalEvent{ID: "b1", EventType: domain.EventFollow})

	select {
	case got := <-l.C:
		t.Errorf("listener for tenant-a received %s from tenant-b", got.ID)
	default:
	}
}

func TestFeedService_FullListenerDropsNotBlocks(t *testing.T) {
	feed := NewFeedService(FeedConfig{BufferCapacity: 50, ListenerBacklog: 1}, nil, zaptest.NewLogger(t).Sugar()).(*feedService)
	tenantID := domain.TenantID("tenant-1")

	l := feed.Subscribe(tenantID)
	defer feed.Unsubscribe(l)

	// Second append must not block even though nobody drains the channel.
	feed.Append(tenantID, domain.CanonicalEvent{ID: "e1", EventType: domain.EventFollow})
	feed.Append(tenantID, domain.CanonicalEvent{ID: "e2", EventType: domain.EventFollow})

	if got := <-l.C; got.ID != "e1" {
		t.Errorf("received %s, want e1", got.ID)
	}
	if snapshot := feed.Snapshot(tenantID); len(snapshot) != 2 {
		t.Errorf("buffer len = %d, want 2 (drop affects listener only)", len(snapshot))
	}
}

func TestFeedService_UnsubscribeIdempotent(t *testing.T) {
	feed := newTestFeed(t)

	l := feed.Subscribe("tenant-1")
	feed.Unsubscribe(l)
	feed.Unsubscribe(l)
	feed.Unsubscribe(nil)

	feed.Append("tenant-1", domain.CanonicalEvent{ID: "e1", EventType: domain.EventFollow})
	select {
	case <-l.C:
		t.Error("unsubscribed listener still receives events")
	default:
	}
}
