package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"twitchbridge/internal/core/domain"

	"go.uber.org/zap/zaptest"
)

type stubTokens struct {
	appToken  string
	appErr    error
	userErr   error
	userCalls int
}

func (s *stubTokens) GetAppToken(context.Context, domain.TenantID) (string, error) {
	return s.appToken, s.appErr
}

func (s *stubTokens) GetUserToken(context.Context, domain.TenantID) (string, error) {
	s.userCalls++
	if s.userErr != nil {
		return "", s.userErr
	}
	return "user-token", nil
}

func (s *stubTokens) ExchangeAuthorizationCode(context.Context, domain.TenantID, string, string) (domain.OAuthToken, error) {
	return domain.OAuthToken{Value: "user-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func TestSubscriptionService_Subscribe_RequiresPriorAuth(t *testing.T) {
	repo := newFakeTenantRepo(newTestTenant())
	platform := &fakePlatform{}
	tokens := &stubTokens{appToken: "app-token", userErr: domain.ErrAuthorizationRequired}
	svc := NewSubscriptionService(repo, platform, tokens, zaptest.NewLogger(t).Sugar())

	req := domain.SubscriptionRequest{
		Type: "channel.subscribe", Version: "1",
		Condition: map[string]interface{}{"broadcaster_user_id": "42"},
	}

	_, err := svc.Subscribe(context.Background(), "tenant-1", req, "https://bridge.example.com/webhook/tenant-1")
	if !errors.Is(err, domain.ErrAuthorizationRequired) {
		t.Fatalf("Subscribe() error = %v, want ErrAuthorizationRequired", err)
	}
	if len(platform.createCalls) != 0 {
		t.Error("no subscription must be created without prior authorization")
	}
}

func TestSubscriptionService_Subscribe_RaidSkipsAuthCheck(t *testing.T) {
	repo := newFakeTenantRepo(newTestTenant())
	platform := &fakePlatform{}
	tokens := &stubTokens{appToken: "app-token", userErr: domain.ErrAuthorizationRequired}
	svc := NewSubscriptionService(repo, platform, tokens, zaptest.NewLogger(t).Sugar())

	req := domain.SubscriptionRequest{
		Type: "channel.raid", Version: "1",
		Condition: map[string]interface{}{"to_broadcaster_user_id": "42"},
	}

	if _, err := svc.Subscribe(context.Background(), "tenant-1", req, "https://bridge.example.com/webhook/tenant-1"); err != nil {
		t.Fatalf("Subscribe() error = %v, raid needs no broadcaster grant", err)
	}
	if tokens.userCalls != 0 {
		t.Error("raid subscription must not check the user token")
	}
	if len(platform.createCalls) != 1 {
		t.Fatalf("create calls = %d, want 1", len(platform.createCalls))
	}
}

func TestSubscriptionService_Setup_AllFive(t *testing.T) {
	repo := newFakeTenantRepo(newTestTenant())
	platform := &fakePlatform{}
	tokens := &stubTokens{appToken: "app-token"}
	svc := NewSubscriptionService(repo, platform, tokens, zaptest.NewLogger(t).Sugar())

	results := svc.Setup(context.Background(), "tenant-1", "42", "https://bridge.example.com/webhook/tenant-1")
	if len(results) != 5 {
		t.Fatalf("Setup() returned %d results, want 5", len(results))
	}
	for _, r := range results {
		if r.Status != "success" {
			t.Errorf("Setup() %s status = %s (%s)", r.Type, r.Status, r.Error)
		}
	}

	byType := make(map[string]domain.SubscriptionRequest)
	for _, req := range platform.createCalls {
		byType[req.Type] = req
	}
	if got := byType["channel.raid"].Condition["to_broadcaster_user_id"]; got != "42" {
		t.Errorf("raid condition = %v", byType["channel.raid"].Condition)
	}
	follow := byType["channel.follow"]
	if follow.Version != "2" || follow.Condition["moderator_user_id"] != "42" {
		t.Errorf("follow request = %+v, want version 2 with moderator condition", follow)
	}
}

func TestSubscriptionService_Setup_PartialFailure(t *testing.T) {
	repo := newFakeTenantRepo(newTestTenant())
	platform := &fakePlatform{
		createSubscriptionFn: func(_ context.Context, _, _ string, req domain.SubscriptionRequest, _, _ string) (json.RawMessage, error) {
			if req.Type == "channel.cheer" {
				return nil, errors.New("409 subscription already exists")
			}
			return json.RawMessage(`{"data":[]}`), nil
		},
	}
	tokens := &stubTokens{appToken: "app-token"}
	svc := NewSubscriptionService(repo, platform, tokens, zaptest.NewLogger(t).Sugar())

	results := svc.Setup(context.Background(), "tenant-1", "42", "https://bridge.example.com/webhook/tenant-1")

	failed := 0
	for _, r := range results {
		if r.Status == "failed" {
			failed++
			if r.Type != "channel.cheer" {
				t.Errorf("unexpected failure for %s: %s", r.Type, r.Error)
			}
		}
	}
	if failed != 1 {
		t.Errorf("failed results = %d, want 1 (others proceed)", failed)
	}
}
