package services

import (
	"context"
	"encoding/json"
	"fmt"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"

	"go.uber.org/zap"
)

// requiresPriorAuth lists subscription types the platform only accepts after
// the broadcaster has granted the application the matching scopes. The grant
// attaches to the client ID, so webhook subscriptions still use the app token.
var requiresPriorAuth = map[string]bool{
	"channel.subscribe":            true,
	"channel.subscription.gift":    true,
	"channel.subscription.message": true,
	"channel.cheer":                true,
	"channel.follow":               true,
}

type subscriptionService struct {
	tenants  ports.TenantRepository
	platform ports.PlatformClient
	tokens   ports.TokenService
	logger   *zap.SugaredLogger
}

func NewSubscriptionService(
	tenants ports.TenantRepository,
	platform ports.PlatformClient,
	tokens ports.TokenService,
	logger *zap.SugaredLogger,
) ports.SubscriptionService {
	return &subscriptionService{
		tenants:  tenants,
		platform: platform,
		tokens:   tokens,
		logger:   logger,
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, tenantID domain.TenantID, req domain.SubscriptionRequest, callbackURL string) (json.RawMessage, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if requiresPriorAuth[req.Type] {
		if _, err := s.tokens.GetUserToken(ctx, tenantID); err != nil {
			return nil, fmt.Errorf("subscription type %q needs broadcaster authorization: %w", req.Type, err)
		}
	}

	appToken, err := s.tokens.GetAppToken(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result, err := s.platform.CreateSubscription(ctx, tenant.ClientID, appToken, req, callbackURL, tenant.EventSubSecret)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("subscription created", "tenant_id", tenantID, "type", req.Type)
	return result, nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, tenantID domain.TenantID) (json.RawMessage, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	appToken, err := s.tokens.GetAppToken(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return s.platform.ListSubscriptions(ctx, tenant.ClientID, appToken)
}

func (s *subscriptionService) DeleteSubscription(ctx context.Context, tenantID domain.TenantID, subscriptionID domain.SubscriptionID) error {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}

	appToken, err := s.tokens.GetAppToken(ctx, tenantID)
	if err != nil {
		return err
	}

	if err := s.platform.DeleteSubscription(ctx, tenant.ClientID, appToken, subscriptionID); err != nil {
		return err
	}

	s.logger.Infow("subscription deleted", "tenant_id", tenantID, "subscription_id", subscriptionID)
	return nil
}

// defaultSubscriptions builds the standard set of event subscriptions for a
// broadcaster. Raid targets the broadcaster as the raided channel; follow v2
// requires a moderator condition, satisfied by the broadcaster themselves.
func defaultSubscriptions(broadcasterUserID string) []domain.SubscriptionRequest {
	return []domain.SubscriptionRequest{
		{Type: "channel.subscribe", Version: "1", Condition: map[string]interface{}{"broadcaster_user_id": broadcasterUserID}},
		{Type: "channel.subscription.gift", Version: "1", Condition: map[string]interface{}{"broadcaster_user_id": broadcasterUserID}},
		{Type: "channel.cheer", Version: "1", Condition: map[string]interface{}{"broadcaster_user_id": broadcasterUserID}},
		{Type: "channel.raid", Version: "1", Condition: map[string]interface{}{"to_broadcaster_user_id": broadcasterUserID}},
		{Type: "channel.follow", Version: "2", Condition: map[string]interface{}{
			"broadcaster_user_id": broadcasterUserID,
			"moderator_user_id":   broadcasterUserID,
		}},
	}
}

func (s *subscriptionService) Setup(ctx context.Context, tenantID domain.TenantID, broadcasterUserID, callbackURL string) []domain.SetupResult {
	results := make([]domain.SetupResult, 0, 5)
	for _, req := range defaultSubscriptions(broadcasterUserID) {
		if _, err := s.Subscribe(ctx, tenantID, req, callbackURL); err != nil {
			results = append(results, domain.SetupResult{Type: req.Type, Status: "failed", Error: err.Error()})
			continue
		}
		results = append(results, domain.SetupResult{Type: req.Type, Status: "success"})
	}
	return results
}

func (s *subscriptionService) LookupUser(ctx context.Context, tenantID domain.TenantID, login string) (*domain.PlatformUser, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	appToken, err := s.tokens.GetAppToken(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return s.platform.GetUserByLogin(ctx, tenant.ClientID, appToken, login)
}
