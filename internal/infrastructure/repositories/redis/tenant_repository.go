package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// tenantRecord is the stored form of a tenant. The domain struct hides
// secrets from its JSON encoding, so persistence needs its own mapping.
type tenantRecord struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"password_hash"`
	APIKey         string    `json:"api_key"`
	EventSubSecret string    `json:"eventsub_secret"`
	ClientID       string    `json:"client_id"`
	ClientSecret   string    `json:"client_secret"`
	SinkBaseURL    string    `json:"sink_base_url"`
	AppToken       tokenRec  `json:"app_token"`
	UserToken      tokenRec  `json:"user_token"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

type tokenRec struct {
	Value        string    `json:"value,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

func toRecord(t *domain.Tenant) tenantRecord {
	return tenantRecord{
		ID:             string(t.ID),
		Username:       t.Username,
		PasswordHash:   t.PasswordHash,
		APIKey:         t.APIKey,
		EventSubSecret: t.EventSubSecret,
		ClientID:       t.ClientID,
		ClientSecret:   t.ClientSecret,
		SinkBaseURL:    t.SinkBaseURL,
		AppToken:       tokenRec(t.AppToken),
		UserToken:      tokenRec(t.UserToken),
		Active:         t.Active,
		CreatedAt:      t.CreatedAt,
	}
}

func (r tenantRecord) toDomain() *domain.Tenant {
	return &domain.Tenant{
		ID:             domain.TenantID(r.ID),
		Username:       r.Username,
		PasswordHash:   r.PasswordHash,
		APIKey:         r.APIKey,
		EventSubSecret: r.EventSubSecret,
		ClientID:       r.ClientID,
		ClientSecret:   r.ClientSecret,
		SinkBaseURL:    r.SinkBaseURL,
		AppToken:       domain.OAuthToken(r.AppToken),
		UserToken:      domain.OAuthToken(r.UserToken),
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
	}
}

// RedisTenantRepository stores tenants as JSON values with username and API
// key index keys pointing at the tenant ID.
type RedisTenantRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisTenantRepository(client *redis.Client) ports.TenantRepository {
	return &RedisTenantRepository{
		client: client,
		prefix: "twitchbridge:tenant:",
	}
}

func (r *RedisTenantRepository) tenantKey(id domain.TenantID) string {
	return r.prefix + string(id)
}

func (r *RedisTenantRepository) usernameKey(username string) string {
	return r.prefix + "username:" + username
}

func (r *RedisTenantRepository) apiKeyKey(apiKey string) string {
	return r.prefix + "apikey:" + apiKey
}

func (r *RedisTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	taken, err := r.client.Exists(ctx, r.usernameKey(tenant.Username)).Result()
	if err != nil {
		return fmt.Errorf("failed to check username index: %w", err)
	}
	if taken > 0 {
		return domain.ErrTenantExists
	}

	if err := r.save(ctx, tenant); err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.usernameKey(tenant.Username), string(tenant.ID), 0)
	pipe.Set(ctx, r.apiKeyKey(tenant.APIKey), string(tenant.ID), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write tenant indexes: %w", err)
	}
	return nil
}

func (r *RedisTenantRepository) GetByID(ctx context.Context, id domain.TenantID) (*domain.Tenant, error) {
	data, err := r.client.Get(ctx, r.tenantKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant from Redis: %w", err)
	}

	var rec tenantRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tenant: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *RedisTenantRepository) GetByUsername(ctx context.Context, username string) (*domain.Tenant, error) {
	return r.getByIndex(ctx, r.usernameKey(username))
}

func (r *RedisTenantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Tenant, error) {
	return r.getByIndex(ctx, r.apiKeyKey(apiKey))
}

func (r *RedisTenantRepository) getByIndex(ctx context.Context, indexKey string) (*domain.Tenant, error) {
	id, err := r.client.Get(ctx, indexKey).Result()
	if err == redis.Nil {
		return nil, domain.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tenant index: %w", err)
	}
	return r.GetByID(ctx, domain.TenantID(id))
}

func (r *RedisTenantRepository) Update(ctx context.Context, id domain.TenantID, update domain.TenantUpdate) error {
	tenant, err := r.GetByID(ctx, id)
	if err != nil {
		return err
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
	return r.save(ctx, tenant)
}

func (r *RedisTenantRepository) SaveAppToken(ctx context.Context, id domain.TenantID, token domain.OAuthToken) error {
	tenant, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	tenant.AppToken = token
	return r.save(ctx, tenant)
}

func (r *RedisTenantRepository) SaveUserToken(ctx context.Context, id domain.TenantID, token domain.OAuthToken) error {
	tenant, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	tenant.UserToken = token
	return r.save(ctx, tenant)
}

func (r *RedisTenantRepository) save(ctx context.Context, tenant *domain.Tenant) error {
	data, err := json.Marshal(toRecord(tenant))
	if err != nil {
		return fmt.Errorf("failed to marshal tenant: %w", err)
	}
	if err := r.client.Set(ctx, r.tenantKey(tenant.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set tenant in Redis: %w", err)
	}
	return nil
}
