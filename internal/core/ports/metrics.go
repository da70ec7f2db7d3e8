package ports

import "twitchbridge/internal/core/domain"

// MetricsRecorder receives counters from the event pipeline. Implemented by
// the Prometheus collector; a nil-safe no-op is used in tests.
type MetricsRecorder interface {
	EventReceived(eventType domain.EventType)
	EventForwarded(eventType domain.EventType)
	ForwardingFailed(eventType domain.EventType)
	WebhookRejected(reason string)
	TokenExchange(grantType string, success bool)
	ListenersChanged(delta int)
	BufferedEventsChanged(delta int)
}
