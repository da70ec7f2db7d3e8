package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"
	"twitchbridge/pkg/circuitbreaker"
	"twitchbridge/pkg/utils"

	"go.uber.org/zap"
)

// HeaderTenantID identifies the originating tenant on forwarded events.
const HeaderTenantID = "X-Tenant-ID"

// Config controls forwarding behavior.
type Config struct {
	Timeout time.Duration
	Breaker circuitbreaker.Config
}

// forwardPayload is the body delivered to the game server.
type forwardPayload struct {
	EventType domain.EventType       `json:"eventType"`
	Data      map[string]interface{} `json:"data"`
}

// HTTPSink POSTs canonical events to each tenant's game server at
// {sink base}/twitch-event. A per-tenant circuit breaker keeps one
// unreachable game server from tying up webhook handling for everyone.
type HTTPSink struct {
	cfg    Config
	http   *http.Client
	logger *zap.SugaredLogger

	mu       sync.Mutex
	breakers map[domain.TenantID]*circuitbreaker.CircuitBreaker
}

func NewHTTPSink(cfg Config, logger *zap.SugaredLogger) ports.EventSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Breaker.FailureThreshold <= 0 {
		cfg.Breaker = circuitbreaker.DefaultConfig()
	}
	return &HTTPSink{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
		breakers: make(map[domain.TenantID]*circuitbreaker.CircuitBreaker),
	}
}

func (s *HTTPSink) breaker(tenantID domain.TenantID) *circuitbreaker.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.breakers[tenantID]
	if !ok {
		cb = circuitbreaker.New(s.cfg.Breaker)
		cb.OnStateChange(func(from, to circuitbreaker.State) {
			s.logger.Warnw("sink circuit state changed",
				"tenant_id", tenantID, "from", from.String(), "to", to.String())
		})
		s.breakers[tenantID] = cb
	}
	return cb
}

func (s *HTTPSink) Forward(ctx context.Context, tenant *domain.Tenant, eventType domain.EventType, data map[string]interface{}) error {
	if tenant.SinkBaseURL == "" {
		return fmt.Errorf("%w: tenant %s has no sink configured", domain.ErrForwardingFailed, tenant.ID)
	}

	body, err := json.Marshal(forwardPayload{EventType: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}
	target := utils.TrimBaseURL(tenant.SinkBaseURL) + "/twitch-event"

	return s.breaker(tenant.ID).Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to build forward request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(HeaderTenantID, string(tenant.ID))

		resp, err := s.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrForwardingFailed, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
			return fmt.Errorf("%w: sink returned %d: %s", domain.ErrForwardingFailed, resp.StatusCode, string(snippet))
		}
		return nil
	})
}
