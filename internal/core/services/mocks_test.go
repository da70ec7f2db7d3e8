package services

import (
	"context"
	"encoding/json"
	"sync"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"
)

type fakeTenantRepo struct {
	mu      sync.Mutex
	tenants map[domain.TenantID]*domain.Tenant
}

func newFakeTenantRepo(tenants ...*domain.Tenant) *fakeTenantRepo {
	r := &fakeTenantRepo{tenants: make(map[domain.TenantID]*domain.Tenant)}
	for _, t := range tenants {
		cp := *t
		r.tenants[t.ID] = &cp
	}
	return r
}

func (r *fakeTenantRepo) Create(_ context.Context, tenant *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tenants[tenant.ID]; exists {
		return domain.ErrTenantExists
	}
	cp := *tenant
	r.tenants[tenant.ID] = &cp
	return nil
}

func (r *fakeTenantRepo) GetByID(_ context.Context, id domain.TenantID) (*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTenantRepo) GetByUsername(_ context.Context, username string) (*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if t.Username == username {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrTenantNotFound
}

func (r *fakeTenantRepo) GetByAPIKey(_ context.Context, apiKey string) (*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if t.APIKey == apiKey {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrTenantNotFound
}

func (r *fakeTenantRepo) Update(_ context.Context, id domain.TenantID, update domain.TenantUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return domain.ErrTenantNotFound
	}
	if update.SinkBaseURL != nil {
		t.SinkBaseURL = *update.SinkBaseURL
	}
	if update.ClientID != nil {
		t.ClientID = *update.ClientID
	}
	if update.ClientSecret != nil {
		t.ClientSecret = *update.ClientSecret
	}
	return nil
}

func (r *fakeTenantRepo) SaveAppToken(_ context.Context, id domain.TenantID, token domain.OAuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return domain.ErrTenantNotFound
	}
	t.AppToken = token
	return nil
}

func (r *fakeTenantRepo) SaveUserToken(_ context.Context, id domain.TenantID, token domain.OAuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return domain.ErrTenantNotFound
	}
	t.UserToken = token
	return nil
}

type fakePlatform struct {
	clientCredentialsFn  func(ctx context.Context, clientID, clientSecret string) (*ports.TokenResponse, error)
	refreshTokenFn       func(ctx context.Context, clientID, clientSecret, refreshToken string) (*ports.TokenResponse, error)
	authorizationCodeFn  func(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*ports.TokenResponse, error)
	createSubscriptionFn func(ctx context.Context, clientID, appToken string, req domain.SubscriptionRequest, callbackURL, secret string) (json.RawMessage, error)

	clientCredentialsCalls int
	createCalls            []domain.SubscriptionRequest
}

func (p *fakePlatform) ExchangeClientCredentials(ctx context.Context, clientID, clientSecret string) (*ports.TokenResponse, error) {
	p.clientCredentialsCalls++
	return p.clientCredentialsFn(ctx, clientID, clientSecret)
}

func (p *fakePlatform) ExchangeRefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*ports.TokenResponse, error) {
	return p.refreshTokenFn(ctx, clientID, clientSecret, refreshToken)
}

func (p *fakePlatform) ExchangeAuthorizationCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*ports.TokenResponse, error) {
	return p.authorizationCodeFn(ctx, clientID, clientSecret, code, redirectURI)
}

func (p *fakePlatform) CreateSubscription(ctx context.Context, clientID, appToken string, req domain.SubscriptionRequest, callbackURL, secret string) (json.RawMessage, error) {
	p.createCalls = append(p.createCalls, req)
	if p.createSubscriptionFn != nil {
		return p.createSubscriptionFn(ctx, clientID, appToken, req, callbackURL, secret)
	}
	return json.RawMessage(`{"data":[]}`), nil
}

func (p *fakePlatform) ListSubscriptions(_ context.Context, _, _ string) (json.RawMessage, error) {
	return json.RawMessage(`{"data":[]}`), nil
}

func (p *fakePlatform) DeleteSubscription(_ context.Context, _, _ string, _ domain.SubscriptionID) error {
	return nil
}

func (p *fakePlatform) GetUserByLogin(_ context.Context, _, _, login string) (*domain.PlatformUser, error) {
	return &domain.PlatformUser{ID: "42", Login: login, DisplayName: login}, nil
}

type fakeSink struct {
	mu      sync.Mutex
	err     error
	forward []domain.EventType
}

func (s *fakeSink) Forward(_ context.Context, _ *domain.Tenant, eventType domain.EventType, _ map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.forward = append(s.forward, eventType)
	return nil
}

type fakeFeed struct {
	mu       sync.Mutex
	appended []domain.CanonicalEvent
}

func (f *fakeFeed) Append(_ domain.TenantID, event domain.CanonicalEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, event)
}

func (f *fakeFeed) Subscribe(tenantID domain.TenantID) *domain.Listener {
	return &domain.Listener{ID: "l1", TenantID: tenantID, C: make(chan domain.CanonicalEvent, 1)}
}

func (f *fakeFeed) Unsubscribe(*domain.Listener) {}

func (f *fakeFeed) Snapshot(domain.TenantID) []domain.CanonicalEvent { return nil }

func (f *fakeFeed) Stats(domain.TenantID) domain.FeedStats { return domain.FeedStats{} }
