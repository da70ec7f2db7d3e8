package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"
	"twitchbridge/pkg/utils"

	"go.uber.org/zap"
)

// eventService normalizes platform notifications into canonical events,
// forwards them to the tenant's game server and mirrors successfully
// forwarded events into the live feed. A sink failure is logged and counted
// but never surfaces to the webhook response: the platform must still get
// its acknowledgement, and the failed event is kept out of the feed.
type eventService struct {
	sink           ports.EventSink
	feed           ports.FeedService
	metrics        ports.MetricsRecorder
	logger         *zap.SugaredLogger
	forwardTimeout time.Duration
	now            func() time.Time
}

func NewEventService(
	sink ports.EventSink,
	feed ports.FeedService,
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
	forwardTimeout time.Duration,
) ports.EventService {
	if forwardTimeout <= 0 {
		forwardTimeout = 5 * time.Second
	}
	return &eventService{
		sink:           sink,
		feed:           feed,
		metrics:        metrics,
		logger:         logger,
		forwardTimeout: forwardTimeout,
		now:            time.Now,
	}
}

// rawEvent covers the union of fields across all supported notification
// payloads; each type picks the ones it maps.
type rawEvent struct {
	UserID              string `json:"user_id"`
	UserName            string `json:"user_name"`
	Tier                string `json:"tier"`
	IsGift              bool   `json:"is_gift"`
	Total               int    `json:"total"`
	CumulativeTotal     int    `json:"cumulative_total"`
	Bits                int    `json:"bits"`
	Message             string `json:"message"`
	FromBroadcasterID   string `json:"from_broadcaster_user_id"`
	FromBroadcasterName string `json:"from_broadcaster_user_name"`
	Viewers             int    `json:"viewers"`
	FollowedAt          string `json:"followed_at"`
}

func (s *eventService) HandleNotification(ctx context.Context, tenant *domain.Tenant, subscriptionType string, event json.RawMessage) error {
	eventType, data, err := normalize(subscriptionType, event)
	if err != nil {
		return err
	}
	if eventType == "" {
		s.logger.Debugw("unhandled subscription type, acknowledging without forwarding",
			"tenant_id", tenant.ID, "subscription_type", subscriptionType)
		return nil
	}

	if s.metrics != nil {
		s.metrics.EventReceived(eventType)
	}

	forwardCtx, cancel := context.WithTimeout(ctx, s.forwardTimeout)
	defer cancel()

	if err := s.sink.Forward(forwardCtx, tenant, eventType, data); err != nil {
		if s.metrics != nil {
			s.metrics.ForwardingFailed(eventType)
		}
		s.logger.Errorw("failed to forward event to sink",
			"tenant_id", tenant.ID, "event_type", eventType, "sink", tenant.SinkBaseURL, "error", err)
		return nil
	}
	if s.metrics != nil {
		s.metrics.EventForwarded(eventType)
	}

	canonical := domain.CanonicalEvent{
		ID:          utils.GenerateEventID(),
		EventType:   eventType,
		Timestamp:   s.now().UTC(),
		Data:        data,
		DisplayName: displayName(data),
	}
	s.feed.Append(tenant.ID, canonical)

	s.logger.Infow("event forwarded",
		"tenant_id", tenant.ID, "event_type", eventType, "event_id", canonical.ID)
	return nil
}

// normalize maps a platform subscription type and payload to a canonical
// event type and its data fields. Unknown types return an empty event type.
func normalize(subscriptionType string, event json.RawMessage) (domain.EventType, map[string]interface{}, error) {
	var raw rawEvent
	if err := json.Unmarshal(event, &raw); err != nil {
		return "", nil, fmt.Errorf("failed to decode event payload: %w", err)
	}

	switch subscriptionType {
	case "channel.subscribe":
		return domain.EventSubscribe, map[string]interface{}{
			"userName": raw.UserName,
			"userId":   raw.UserID,
			"tier":     raw.Tier,
			"isGift":   raw.IsGift,
		}, nil
	case "channel.subscription.gift":
		return domain.EventGiftSubscription, map[string]interface{}{
			"userName":        raw.UserName,
			"userId":          raw.UserID,
			"total":           raw.Total,
			"tier":            raw.Tier,
			"cumulativeTotal": raw.CumulativeTotal,
		}, nil
	case "channel.cheer":
		return domain.EventCheer, map[string]interface{}{
			"userName": raw.UserName,
			"userId":   raw.UserID,
			"bits":     raw.Bits,
			"message":  raw.Message,
		}, nil
	case "channel.raid":
		return domain.EventRaid, map[string]interface{}{
			"fromBroadcasterName": raw.FromBroadcasterName,
			"fromBroadcasterId":   raw.FromBroadcasterID,
			"viewers":             raw.Viewers,
		}, nil
	case "channel.follow":
		return domain.EventFollow, map[string]interface{}{
			"userName":   raw.UserName,
			"userId":     raw.UserID,
			"followedAt": raw.FollowedAt,
		}, nil
	default:
		return "", nil, nil
	}
}

func displayName(data map[string]interface{}) string {
	if name, ok := data["userName"].(string); ok && name != "" {
		return name
	}
	if name, ok := data["fromBroadcasterName"].(string); ok && name != "" {
		return name
	}
	return "Anonymous"
}
