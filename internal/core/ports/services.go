package ports

import (
	"context"
	"encoding/json"

	"twitchbridge/internal/core/domain"
)

type TokenService interface {
	GetAppToken(ctx context.Context, tenantID domain.TenantID) (string, error)
	GetUserToken(ctx context.Context, tenantID domain.TenantID) (string, error)
	ExchangeAuthorizationCode(ctx context.Context, tenantID domain.TenantID, code, redirectURI string) (domain.OAuthToken, error)
}

type EventService interface {
	// HandleNotification maps a platform notification to a canonical event,
	// forwards it to the tenant's sink and, on forwarding success, appends it
	// to the live buffer. Unsupported subscription types are a no-op.
	HandleNotification(ctx context.Context, tenant *domain.Tenant, subscriptionType string, event json.RawMessage) error
}

type FeedService interface {
	Append(tenantID domain.TenantID, event domain.CanonicalEvent)
	Subscribe(tenantID domain.TenantID) *domain.Listener
	Unsubscribe(listener *domain.Listener)
	Snapshot(tenantID domain.TenantID) []domain.CanonicalEvent
	Stats(tenantID domain.TenantID) domain.FeedStats
}

type SubscriptionService interface {
	Subscribe(ctx context.Context, tenantID domain.TenantID, req domain.SubscriptionRequest, callbackURL string) (json.RawMessage, error)
	ListSubscriptions(ctx context.Context, tenantID domain.TenantID) (json.RawMessage, error)
	DeleteSubscription(ctx context.Context, tenantID domain.TenantID, subscriptionID domain.SubscriptionID) error
	Setup(ctx context.Context, tenantID domain.TenantID, broadcasterUserID, callbackURL string) []domain.SetupResult
	LookupUser(ctx context.Context, tenantID domain.TenantID, login string) (*domain.PlatformUser, error)
}
