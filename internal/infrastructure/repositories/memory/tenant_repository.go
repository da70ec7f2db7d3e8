package memory

import (
	"context"
	"sync"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"
)

// MemoryTenantRepository keeps tenants in process memory with secondary
// indexes for username and API key lookups. Values are copied on the way in
// and out so callers never share mutable state with the store.
type MemoryTenantRepository struct {
	mu         sync.RWMutex
	tenants    map[domain.TenantID]*domain.Tenant
	byUsername map[string]domain.TenantID
	byAPIKey   map[string]domain.TenantID
}

func NewMemoryTenantRepository() ports.TenantRepository {
	return &MemoryTenantRepository{
		tenants:    make(map[domain.TenantID]*domain.Tenant),
		byUsername: make(map[string]domain.TenantID),
		byAPIKey:   make(map[string]domain.TenantID),
	}
}

func (r *MemoryTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tenants[tenant.ID]; exists {
		return domain.ErrTenantExists
	}
	if _, exists := r.byUsername[tenant.Username]; exists {
		return domain.ErrTenantExists
	}

	cp := *tenant
	r.tenants[tenant.ID] = &cp
	r.byUsername[tenant.Username] = tenant.ID
	r.byAPIKey[tenant.APIKey] = tenant.ID
	return nil
}

func (r *MemoryTenantRepository) GetByID(ctx context.Context, id domain.TenantID) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(id)
}

func (r *MemoryTenantRepository) GetByUsername(ctx context.Context, username string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byUsername[username]
	if !exists {
		return nil, domain.ErrTenantNotFound
	}
	return r.get(id)
}

func (r *MemoryTenantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byAPIKey[apiKey]
	if !exists {
		return nil, domain.ErrTenantNotFound
	}
	return r.get(id)
}

func (r *MemoryTenantRepository) Update(ctx context.Context, id domain.TenantID, update domain.TenantUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tenant, exists := r.tenants[id]
	if !exists {
		return domain.ErrTenantNotFound
	}

	if update.SinkBaseURL != nil {
		tenant.SinkBaseURL = *update.SinkBaseURL
	}
	if update.ClientID != nil {
		tenant.ClientID = *update.ClientID
	}
	if update.ClientSecret != nil {
		tenant.ClientSecret = *update.ClientSecret
	}
	return nil
}

func (r *MemoryTenantRepository) SaveAppToken(ctx context.Context, id domain.TenantID, token domain.OAuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tenant, exists := r.tenants[id]
	if !exists {
		return domain.ErrTenantNotFound
	}
	tenant.AppToken = token
	return nil
}

func (r *MemoryTenantRepository) SaveUserToken(ctx context.Context, id domain.TenantID, token domain.OAuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tenant, exists := r.tenants[id]
	if !exists {
		return domain.ErrTenantNotFound
	}
	tenant.UserToken = token
	return nil
}

// get returns a copy; callers hold at least a read lock.
func (r *MemoryTenantRepository) get(id domain.TenantID) (*domain.Tenant, error) {
	tenant, exists := r.tenants[id]
	if !exists {
		return nil, domain.ErrTenantNotFound
	}
	cp := *tenant
	return &cp, nil
}
