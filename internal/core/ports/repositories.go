package ports

import (
	"context"

	"twitchbridge/internal/core/domain"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id domain.TenantID) (*domain.Tenant, error)
	GetByUsername(ctx context.Context, username string) (*domain.Tenant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Tenant, error)
	Update(ctx context.Context, id domain.TenantID, update domain.TenantUpdate) error
	// SaveAppToken and SaveUserToken overwrite the whole token triple in a
	// single write; concurrent refreshes resolve last-writer-wins.
	SaveAppToken(ctx context.Context, id domain.TenantID, token domain.OAuthToken) error
	SaveUserToken(ctx context.Context, id domain.TenantID, token domain.OAuthToken) error
}
