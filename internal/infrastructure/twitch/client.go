package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"
	"twitchbridge/pkg/cache"
	"twitchbridge/pkg/retry"
	"twitchbridge/pkg/utils"

	"go.uber.org/zap"
)

// ClientConfig carries the platform endpoints. Tests point these at a local
// httptest server.
type ClientConfig struct {
	TokenURL       string
	HelixURL       string
	RequestTimeout time.Duration
	Retry          retry.Config
	UserCacheTTL   time.Duration
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		TokenURL:       "https://id.twitch.tv/oauth2/token",
		HelixURL:       "https://api.twitch.tv/helix",
		RequestTimeout: 10 * time.Second,
		Retry:          retry.DefaultConfig(),
		UserCacheTTL:   5 * time.Minute,
	}
}

// Client implements ports.PlatformClient against the Twitch OAuth and Helix
// APIs. User lookups are cached; idempotent GETs are retried.
type Client struct {
	cfg       ClientConfig
	http      *http.Client
	userCache *cache.Cache
	logger    *zap.SugaredLogger
}

func NewClient(cfg ClientConfig, logger *zap.SugaredLogger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	ttl := cfg.UserCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.RequestTimeout},
		userCache: cache.New(ttl),
		logger:    logger,
	}
}

// Close releases the client's background resources.
func (c *Client) Close() {
	c.userCache.Close()
}

func (c *Client) ExchangeClientCredentials(ctx context.Context, clientID, clientSecret string) (*ports.TokenResponse, error) {
	form := url.Values{
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"grant_type":    {"client_credentials"},
	}
	return c.exchangeToken(ctx, form)
}

func (c *Client) ExchangeRefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*ports.TokenResponse, error) {
	form := url.Values{
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.exchangeToken(ctx, form)
}

func (c *Client) ExchangeAuthorizationCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*ports.TokenResponse, error) {
	form := url.Values{
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}
	return c.exchangeToken(ctx, form)
}

func (c *Client) exchangeToken(ctx context.Context, form url.Values) (*ports.TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, utils.Truncate(string(body), 200))
	}

	var token ports.TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &token, nil
}

// subscriptionPayload is the Helix EventSub create request body.
type subscriptionPayload struct {
	Type      string                 `json:"type"`
	Version   string                 `json:"version"`
	Condition map[string]interface{} `json:"condition"`
	Transport struct {
		Method   string `json:"method"`
		Callback string `json:"callback"`
		Secret   string `json:"secret"`
	} `json:"transport"`
}

func (c *Client) CreateSubscription(ctx context.Context, clientID, appToken string, req domain.SubscriptionRequest, callbackURL, secret string) (json.RawMessage, error) {
	payload := subscriptionPayload{
		Type:      req.Type,
		Version:   req.Version,
		Condition: req.Condition,
	}
	payload.Transport.Method = "webhook"
	payload.Transport.Callback = callbackURL
	payload.Transport.Secret = secret

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode subscription request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.HelixURL+"/eventsub/subscriptions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build subscription request: %w", err)
	}
	c.setHelixHeaders(httpReq, clientID, appToken)
	httpReq.Header.Set("Content-Type", "application/json")

	return c.doHelix(httpReq, http.StatusAccepted, http.StatusOK, http.StatusCreated)
}

func (c *Client) ListSubscriptions(ctx context.Context, clientID, appToken string) (json.RawMessage, error) {
	var result json.RawMessage
	err := retry.Do(ctx, c.cfg.Retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.HelixURL+"/eventsub/subscriptions", nil)
		if err != nil {
			return err
		}
		c.setHelixHeaders(req, clientID, appToken)

		result, err = c.doHelix(req, http.StatusOK)
		return err
	})
	return result, err
}

func (c *Client) DeleteSubscription(ctx context.Context, clientID, appToken string, id domain.SubscriptionID) error {
	endpoint := fmt.Sprintf("%s/eventsub/subscriptions?id=%s", c.cfg.HelixURL, url.QueryEscape(string(id)))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	c.setHelixHeaders(req, clientID, appToken)

	_, err = c.doHelix(req, http.StatusNoContent, http.StatusOK)
	return err
}

// helixUsersResponse mirrors the Helix /users reply.
type helixUsersResponse struct {
	Data []struct {
		ID              string `json:"id"`
		Login           string `json:"login"`
		DisplayName     string `json:"display_name"`
		BroadcasterType string `json:"broadcaster_type"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

func (c *Client) GetUserByLogin(ctx context.Context, clientID, token, login string) (*domain.PlatformUser, error) {
	cacheKey := "login:" + login
	if cached, ok := c.userCache.Get(cacheKey); ok {
		user := cached.(domain.PlatformUser)
		return &user, nil
	}

	var body json.RawMessage
	err := retry.Do(ctx, c.cfg.Retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.HelixURL+"/users?login="+url.QueryEscape(login), nil)
		if err != nil {
			return err
		}
		c.setHelixHeaders(req, clientID, token)

		body, err = c.doHelix(req, http.StatusOK)
		return err
	})
	if err != nil {
		return nil, err
	}

	var users helixUsersResponse
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users response: %w", err)
	}
	if len(users.Data) == 0 {
		return nil, fmt.Errorf("no user found with login %q", login)
	}

	u := users.Data[0]
	user := domain.PlatformUser{
		ID:              u.ID,
		Login:           u.Login,
		DisplayName:     u.DisplayName,
		BroadcasterType: u.BroadcasterType,
		ProfileImageURL: u.ProfileImageURL,
	}
	c.userCache.Set(cacheKey, user)
	return &user, nil
}

func (c *Client) setHelixHeaders(req *http.Request, clientID, token string) {
	req.Header.Set("Client-ID", clientID)
	req.Header.Set("Authorization", "Bearer "+token)
}

func (c *Client) doHelix(req *http.Request, okStatuses ...int) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("helix request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read helix response: %w", err)
	}

	for _, status := range okStatuses {
		if resp.StatusCode == status {
			return body, nil
		}
	}

	c.logger.Warnw("helix request rejected",
		"method", req.Method, "url", req.URL.Path, "status", resp.StatusCode,
		"body", utils.Truncate(string(body), 200))
	return nil, fmt.Errorf("helix returned %d: %s", resp.StatusCode, utils.Truncate(string(body), 200))
}
