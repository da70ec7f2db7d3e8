package domain

// SubscriptionRequest describes one EventSub subscription to create on the
// platform. Condition is passed through verbatim; the platform owns the
// subscription resource, we only broker the call.
type SubscriptionRequest struct {
	Type      string                 `json:"type"`
	Version   string                 `json:"version"`
	Condition map[string]interface{} `json:"condition"`
}

// SetupResult reports the outcome of one subscription attempt during quick
// setup; failures do not abort the remaining subscriptions.
type SetupResult struct {
	Type   string `json:"event"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// PlatformUser is the subset of a Twitch user record the bridge exposes.
type PlatformUser struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	BroadcasterType string `json:"broadcaster_type"`
	ProfileImageURL string `json:"profile_image_url"`
}
