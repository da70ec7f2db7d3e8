package services

import (
	"context"
	"fmt"
	"time"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"

	"go.uber.org/zap"
)

// tokenService caches one app token and one user token per tenant, refreshing
// them lazily on first use after expiry. Token writes go through the tenant
// repository so restarts (with a persistent store) keep warm tokens.
type tokenService struct {
	tenants  ports.TenantRepository
	platform ports.PlatformClient
	metrics  ports.MetricsRecorder
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewTokenService(
	tenants ports.TenantRepository,
	platform ports.PlatformClient,
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
) ports.TokenService {
	return &tokenService{
		tenants:  tenants,
		platform: platform,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *tokenService) GetAppToken(ctx context.Context, tenantID domain.TenantID) (string, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return "", err
	}

	if tenant.AppToken.Valid(s.now()) {
		return tenant.AppToken.Value, nil
	}

	resp, err := s.platform.ExchangeClientCredentials(ctx, tenant.ClientID, tenant.ClientSecret)
	if err != nil {
		s.recordExchange("client_credentials", false)
		return "", fmt.Errorf("%w: %v", domain.ErrCredentialRejected, err)
	}
	s.recordExchange("client_credentials", true)

	token := domain.OAuthToken{
		Value:     resp.AccessToken,
		ExpiresAt: s.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}

	if err := s.tenants.SaveAppToken(ctx, tenantID, token); err != nil {
		return "", fmt.Errorf("failed to persist app token: %w", err)
	}

	s.logger.Infow("app token refreshed", "tenant_id", tenantID, "expires_at", token.ExpiresAt)
	return token.Value, nil
}

func (s *tokenService) GetUserToken(ctx context.Context, tenantID domain.TenantID) (string, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return "", err
	}

	if tenant.UserToken.Valid(s.now()) {
		return tenant.UserToken.Value, nil
	}

	if tenant.UserToken.RefreshToken == "" {
		return "", domain.ErrAuthorizationRequired
	}

	resp, err := s.platform.ExchangeRefreshToken(ctx, tenant.ClientID, tenant.ClientSecret, tenant.UserToken.RefreshToken)
	if err != nil {
		s.recordExchange("refresh_token", false)
		s.logger.Warnw("user token refresh rejected, re-authorization needed",
			"tenant_id", tenantID, "error", err)
		return "", domain.ErrAuthorizationRequired
	}
	s.recordExchange("refresh_token", true)

	token := domain.OAuthToken{
		Value:        resp.AccessToken,
		ExpiresAt:    s.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		RefreshToken: resp.RefreshToken,
	}
	// Rotated refresh tokens replace the old one; if the platform omits it,
	// keep using the previous one.
	if token.RefreshToken == "" {
		token.RefreshToken = tenant.UserToken.RefreshToken
	}

	if err := s.tenants.SaveUserToken(ctx, tenantID, token); err != nil {
		return "", fmt.Errorf("failed to persist user token: %w", err)
	}

	s.logger.Infow("user token refreshed", "tenant_id", tenantID, "expires_at", token.ExpiresAt)
	return token.Value, nil
}

func (s *tokenService) ExchangeAuthorizationCode(ctx context.Context, tenantID domain.TenantID, code, redirectURI string) (domain.OAuthToken, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return domain.OAuthToken{}, err
	}

	resp, err := s.platform.ExchangeAuthorizationCode(ctx, tenant.ClientID, tenant.ClientSecret, code, redirectURI)
	if err != nil {
		s.recordExchange("authorization_code", false)
		return domain.OAuthToken{}, fmt.Errorf("%w: %v", domain.ErrCredentialRejected, err)
	}
	s.recordExchange("authorization_code", true)

	token := domain.OAuthToken{
		Value:        resp.AccessToken,
		ExpiresAt:    s.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		RefreshToken: resp.RefreshToken,
	}

	if err := s.tenants.SaveUserToken(ctx, tenantID, token); err != nil {
		return domain.OAuthToken{}, fmt.Errorf("failed to persist user token: %w", err)
	}

	s.logger.Infow("authorization code exchanged", "tenant_id", tenantID, "expires_at", token.ExpiresAt)
	return token, nil
}

func (s *tokenService) recordExchange(grantType string, success bool) {
	if s.metrics != nil {
		s.metrics.TokenExchange(grantType, success)
	}
}
