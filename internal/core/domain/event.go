package domain

import (
	"time"
)

type EventType string

const (
	EventSubscribe        EventType = "subscribe"
	EventGiftSubscription EventType = "gift_subscription"
	EventCheer            EventType = "cheer"
	EventRaid             EventType = "raid"
	EventFollow           EventType = "follow"
)

// subValue is the flat value credited per subscription-type event in stats.
const subValue = 5

// CanonicalEvent is the platform-agnostic form of an inbound notification.
// Data holds the type-specific fields; DisplayName is denormalized for the
// dashboard feed.
type CanonicalEvent struct {
	ID          string                 `json:"id"`
	EventType   EventType              `json:"eventType"`
	Timestamp   time.Time              `json:"timestamp"`
	Data        map[string]interface{} `json:"data"`
	DisplayName string                 `json:"userName"`
}

// Value is the event's contribution to the aggregate stats value:
// cheers count their bits, subs and gift subs a flat unit, everything else 0.
func (e CanonicalEvent) Value() int {
	switch e.EventType {
	case EventCheer:
		if bits, ok := e.Data["bits"].(int); ok {
			return bits
		}
		if bits, ok := e.Data["bits"].(float64); ok {
			return int(bits)
		}
		return 0
	case EventSubscribe, EventGiftSubscription:
		return subValue
	default:
		return 0
	}
}

// FeedStats aggregates the current buffer contents for a tenant.
type FeedStats struct {
	TotalEvents int               `json:"totalEvents"`
	EventTypes  map[EventType]int `json:"eventTypes"`
	TotalValue  int               `json:"totalValue"`
}
