package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"twitchbridge/internal/core/domain"

	"go.uber.org/zap/zaptest"
)

func TestEventService_HandleNotification_Cheer(t *testing.T) {
	sink := &fakeSink{}
	feed := &fakeFeed{}
	svc := NewEventService(sink, feed, nil, zaptest.NewLogger(t).Sugar(), 0)

	payload := json.RawMessage(`{
		"user_id": "1234",
		"user_name": "generous_viewer",
		"bits": 500,
		"message": "take my bits"
	}`)

	err := svc.HandleNotification(context.Background(), newTestTenant(), "channel.cheer", payload)
	if err != nil {
		t.Fatalf("HandleNotification() error = %v", err)
	}

	if len(sink.forward) != 1 || sink.forward[0] != domain.EventCheer {
		t.Fatalf("forwarded = %v, want [cheer]", sink.forward)
	}
	if len(feed.appended) != 1 {
		t.Fatalf("appended = %d events, want 1", len(feed.appended))
	}

	got := feed.appended[0]
	if got.EventType != domain.EventCheer {
		t.Errorf("EventType = %v, want cheer", got.EventType)
	}
	if got.DisplayName != "generous_viewer" {
		t.Errorf("DisplayName = %q, want generous_viewer", got.DisplayName)
	}
	if got.Data["bits"] != 500 {
		t.Errorf("Data[bits] = %v, want 500", got.Data["bits"])
	}
	if got.Data["message"] != "take my bits" {
		t.Errorf("Data[message] = %v", got.Data["message"])
	}
	if got.Value() != 500 {
		t.Errorf("Value() = %d, want 500", got.Value())
	}
}

func TestEventService_HandleNotification_RaidDisplayName(t *testing.T) {
	sink := &fakeSink{}
	feed := &fakeFeed{}
	svc := NewEventService(sink, feed, nil, zaptest.NewLogger(t).Sugar(), 0)

	payload := json.RawMessage(`{
		"from_broadcaster_user_id": "777",
		"from_broadcaster_user_name": "raider",
		"viewers": 42
	}`)

	if err := svc.HandleNotification(context.Background(), newTestTenant(), "channel.raid", payload); err != nil {
		t.Fatalf("HandleNotification() error = %v", err)
	}

	got := feed.appended[0]
	if got.DisplayName != "raider" {
		t.Errorf("DisplayName = %q, want raider (from broadcaster name)", got.DisplayName)
	}
	if got.Data["viewers"] != 42 {
		t.Errorf("Data[viewers] = %v, want 42", got.Data["viewers"])
	}
}

func TestEventService_HandleNotification_UnsupportedType(t *testing.T) {
	sink := &fakeSink{}
	feed := &fakeFeed{}
	svc := NewEventService(sink, feed, nil, zaptest.NewLogger(t).Sugar(), 0)

	err := svc.HandleNotification(context.Background(), newTestTenant(), "channel.poll.begin", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("HandleNotification() error = %v, want nil for unsupported type", err)
	}
	if len(sink.forward) != 0 {
		t.Error("unsupported type must not be forwarded")
	}
	if len(feed.appended) != 0 {
		t.Error("unsupported type must not reach the feed")
	}
}

func TestEventService_HandleNotification_SinkFailureSuppressed(t *testing.T) {
	sink := &fakeSink{err: errors.New("connection refused")}
	feed := &fakeFeed{}
	svc := NewEventService(sink, feed, nil, zaptest.NewLogger(t).Sugar(), 0)

	payload := json.RawMessage(`{"user_id":"1","user_name":"bob","tier":"1000","is_gift":false}`)

	err := svc.HandleNotification(context.Background(), newTestTenant(), "channel.subscribe", payload)
	if err != nil {
		t.Fatalf("HandleNotification() error = %v, sink failures must not propagate", err)
	}
	if len(feed.appended) != 0 {
		t.Error("failed forward must keep the event out of the feed")
	}
}

func TestEventService_HandleNotification_MalformedPayload(t *testing.T) {
	svc := NewEventService(&fakeSink{}, &fakeFeed{}, nil, zaptest.NewLogger(t).Sugar(), 0)

	err := svc.HandleNotification(context.Background(), newTestTenant(), "channel.subscribe", json.RawMessage(`{not json`))
	if err == nil {
		t.Error("HandleNotification() = nil, want decode error")
	}
}

func TestNormalize_FieldMapping(t *testing.T) {
	tests := []struct {
		name             string
		subscriptionType string
		payload          string
		wantType         domain.EventType
		wantData         map[string]interface{}
	}{
		{
			name:             "subscribe",
			subscriptionType: "channel.subscribe",
			payload:          `{"user_id":"1","user_name":"bob","tier":"1000","is_gift":true}`,
			wantType:         domain.EventSubscribe,
			wantData:         map[string]interface{}{"userName": "bob", "userId": "1", "tier": "1000", "isGift": true},
		},
		{
			name:             "gift subscription",
			subscriptionType: "channel.subscription.gift",
			payload:          `{"user_id":"2","user_name":"alice","total":5,"tier":"1000","cumulative_total":20}`,
			wantType:         domain.EventGiftSubscription,
			wantData:         map[string]interface{}{"userName": "alice", "userId": "2", "total": 5, "tier": "1000", "cumulativeTotal": 20},
		},
		{
			name:             "follow",
			subscriptionType: "channel.follow",
			payload:          `{"user_id":"3","user_name":"carol","followed_at":"2026-03-01T12:00:00Z"}`,
			wantType:         domain.EventFollow,
			wantData:         map[string]interface{}{"userName": "carol", "userId": "3", "followedAt": "2026-03-01T12:00:00Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotData, err := normalize(tt.subscriptionType, json.RawMessage(tt.payload))
			if err != nil {
				t.Fatalf("normalize() error = %v", err)
			}
			if gotType != tt.wantType {
				t.Errorf("normalize() type = %v, want %v", gotType, tt.wantType)
			}
			for k, want := range tt.wantData {
				if gotData[k] != want {
					t.Errorf("normalize() data[%s] = %v, want %v", k, gotData[k], want)
				}
			}
			if len(gotData) != len(tt.wantData) {
				t.Errorf("normalize() data has %d fields, want %d", len(gotData), len(tt.wantData))
			}
		})
	}
}
