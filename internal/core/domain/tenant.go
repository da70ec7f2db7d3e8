package domain

import (
	"time"
)

type TenantID string
type SubscriptionID string

// OAuthToken is one cached platform token with its absolute expiry.
// Expiry is computed once at acquisition time (now + expires_in).
type OAuthToken struct {
	Value        string    `json:"value"`
	ExpiresAt    time.Time `json:"expires_at"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// Valid reports whether the token can still be used at the given instant.
func (t OAuthToken) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// Tenant is one registered account: its Twitch application credentials,
// webhook signing secret and downstream game-server address. AppToken and
// UserToken are mutated only by the token service.
type Tenant struct {
	ID             TenantID   `json:"id"`
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"`
	APIKey         string     `json:"api_key"`
	EventSubSecret string     `json:"eventsub_secret"`
	ClientID       string     `json:"twitch_client_id"`
	ClientSecret   string     `json:"-"`
	SinkBaseURL    string     `json:"sink_base_url"`
	AppToken       OAuthToken `json:"-"`
	UserToken      OAuthToken `json:"-"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TenantUpdate is a typed partial update: only non-nil fields are applied.
type TenantUpdate struct {
	SinkBaseURL  *string
	ClientID     *string
	ClientSecret *string
}

// Empty reports whether the update carries no fields.
func (u TenantUpdate) Empty() bool {
	return u.SinkBaseURL == nil && u.ClientID == nil && u.ClientSecret == nil
}
