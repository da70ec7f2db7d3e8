package domain

// Listener is one live feed subscriber. Events are pushed to C with
// at-most-once semantics: a listener that cannot accept at broadcast time
// misses that event. The feed service owns registration; the transport layer
// drains C and unsubscribes on disconnect.
type Listener struct {
	ID       string
	TenantID TenantID
	C        chan CanonicalEvent
}
