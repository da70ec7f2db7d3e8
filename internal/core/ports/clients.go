package ports

import (
	"context"
	"encoding/json"

	"twitchbridge/internal/core/domain"
)

// TokenResponse is the platform token endpoint's reply to any grant exchange.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// PlatformClient talks to the streaming platform's token and management APIs.
type PlatformClient interface {
	ExchangeClientCredentials(ctx context.Context, clientID, clientSecret string) (*TokenResponse, error)
	ExchangeRefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*TokenResponse, error)
	ExchangeAuthorizationCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*TokenResponse, error)
	CreateSubscription(ctx context.Context, clientID, appToken string, req domain.SubscriptionRequest, callbackURL, secret string) (json.RawMessage, error)
	ListSubscriptions(ctx context.Context, clientID, appToken string) (json.RawMessage, error)
	DeleteSubscription(ctx context.Context, clientID, appToken string, id domain.SubscriptionID) error
	GetUserByLogin(ctx context.Context, clientID, token, login string) (*domain.PlatformUser, error)
}

// EventSink delivers canonical events to a tenant's downstream game server.
type EventSink interface {
	Forward(ctx context.Context, tenant *domain.Tenant, eventType domain.EventType, data map[string]interface{}) error
}
