package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"
	"twitchbridge/pkg/utils"

	"go.uber.org/zap"
)

// RegisterParams carries everything needed to provision a new tenant.
type RegisterParams struct {
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	SinkBaseURL  string
}

// AccountService manages tenant registration, login and profile updates.
type AccountService interface {
	Register(ctx context.Context, params RegisterParams) (*domain.Tenant, error)
	Login(ctx context.Context, username, password string) (*domain.Tenant, error)
	Get(ctx context.Context, id domain.TenantID) (*domain.Tenant, error)
	Update(ctx context.Context, id domain.TenantID, update domain.TenantUpdate) (*domain.Tenant, error)
}

type accountService struct {
	tenants ports.TenantRepository
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func NewAccountService(tenants ports.TenantRepository, logger *zap.SugaredLogger) AccountService {
	return &accountService{tenants: tenants, logger: logger, now: time.Now}
}

func (s *accountService) Register(ctx context.Context, params RegisterParams) (*domain.Tenant, error) {
	if _, err := s.tenants.GetByUsername(ctx, params.Username); err == nil {
		return nil, domain.ErrTenantExists
	}

	tenant := &domain.Tenant{
		ID:             domain.TenantID(utils.GenerateTenantID()),
		Username:       params.Username,
		PasswordHash:   hashPassword(params.Password),
		APIKey:         utils.GenerateAPIKey(),
		EventSubSecret: utils.GenerateSecret(),
		ClientID:       params.ClientID,
		ClientSecret:   params.ClientSecret,
		SinkBaseURL:    utils.TrimBaseURL(params.SinkBaseURL),
		Active:         true,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.Infow("tenant registered", "tenant_id", tenant.ID, "username", tenant.Username)
	return tenant, nil
}

func (s *accountService) Login(ctx context.Context, username, password string) (*domain.Tenant, error) {
	tenant, err := s.tenants.GetByUsername(ctx, username)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	hash := hashPassword(password)
	if subtle.ConstantTimeCompare([]byte(hash), []byte(tenant.PasswordHash)) != 1 {
		return nil, domain.ErrInvalidCredentials
	}
	if !tenant.Active {
		return nil, domain.ErrTenantInactive
	}

	return tenant, nil
}

func (s *accountService) Get(ctx context.Context, id domain.TenantID) (*domain.Tenant, error) {
	return s.tenants.GetByID(ctx, id)
}

func (s *accountService) Update(ctx context.Context, id domain.TenantID, update domain.TenantUpdate) (*domain.Tenant, error) {
	if update.SinkBaseURL != nil {
		trimmed := utils.TrimBaseURL(*update.SinkBaseURL)
		update.SinkBaseURL = &trimmed
	}
	if !update.Empty() {
		if err := s.tenants.Update(ctx, id, update); err != nil {
			return nil, err
		}
	}
	return s.tenants.GetByID(ctx, id)
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
