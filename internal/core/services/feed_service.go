package services

import (
	"sync"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"
	"twitchbridge/pkg/utils"

	"go.uber.org/zap"
)

// FeedConfig sizes the per-tenant event buffer and listener channels.
type FeedConfig struct {
	BufferCapacity  int
	ListenerBacklog int
}

type tenantFeed struct {
	mu        sync.Mutex
	events    []domain.CanonicalEvent // newest first
	listeners map[string]*domain.Listener
}

// feedService keeps a bounded newest-first buffer of recent events per tenant
// and fans new events out to live listeners. Delivery to a listener is
// at-most-once: a full channel drops the event for that listener only.
type feedService struct {
	cfg     FeedConfig
	metrics ports.MetricsRecorder
	logger  *zap.SugaredLogger

	mu    sync.RWMutex
	feeds map[domain.TenantID]*tenantFeed
}

func NewFeedService(cfg FeedConfig, metrics ports.MetricsRecorder, logger *zap.SugaredLogger) ports.FeedService {
	if cfg.BufferCapacity <= 0 {
		cfg.BufferCapacity = 50
	}
	if cfg.ListenerBacklog <= 0 {
		cfg.ListenerBacklog = 16
	}
	return &feedService{
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		feeds:   make(map[domain.TenantID]*tenantFeed),
	}
}

func (s *feedService) feed(tenantID domain.TenantID) *tenantFeed {
	s.mu.RLock()
	tf, ok := s.feeds[tenantID]
	s.mu.RUnlock()
	if ok {
		return tf
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tf, ok = s.feeds[tenantID]; ok {
		return tf
	}
	tf = &tenantFeed{listeners: make(map[string]*domain.Listener)}
	s.feeds[tenantID] = tf
	return tf
}

func (s *feedService) Append(tenantID domain.TenantID, event domain.CanonicalEvent) {
	tf := s.feed(tenantID)

	tf.mu.Lock()
	defer tf.mu.Unlock()

	before := len(tf.events)
	tf.events = append([]domain.CanonicalEvent{event}, tf.events...)
	if len(tf.events) > s.cfg.BufferCapacity {
		tf.events = tf.events[:s.cfg.BufferCapacity]
	}
	if delta := len(tf.events) - before; delta != 0 && s.metrics != nil {
		s.metrics.BufferedEventsChanged(delta)
	}

	for _, l := range tf.listeners {
		select {
		case l.C <- event:
		default:
			s.logger.Warnw("listener channel full, event dropped",
				"tenant_id", tenantID, "listener_id", l.ID, "event_id", event.ID)
		}
	}
}

func (s *feedService) Subscribe(tenantID domain.TenantID) *domain.Listener {
	tf := s.feed(tenantID)

	l := &domain.Listener{
		ID:       utils.GenerateListenerID(),
		TenantID: tenantID,
		C:        make(chan domain.CanonicalEvent, s.cfg.ListenerBacklog),
	}

	tf.mu.Lock()
	tf.listeners[l.ID] = l
	tf.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ListenersChanged(1)
	}
	return l
}

func (s *feedService) Unsubscribe(listener *domain.Listener) {
	if listener == nil {
		return
	}
	tf := s.feed(listener.TenantID)

	tf.mu.Lock()
	_, present := tf.listeners[listener.ID]
	delete(tf.listeners, listener.ID)
	tf.mu.Unlock()

	if present && s.metrics != nil {
		s.metrics.ListenersChanged(-1)
	}
}

func (s *feedService) Snapshot(tenantID domain.TenantID) []domain.CanonicalEvent {
	tf := s.feed(tenantID)

	tf.mu.Lock()
	defer tf.mu.Unlock()

	out := make([]domain.CanonicalEvent, len(tf.events))
	copy(out, tf.events)
	return out
}

func (s *feedService) Stats(tenantID domain.TenantID) domain.FeedStats {
	tf := s.feed(tenantID)

	tf.mu.Lock()
	defer tf.mu.Unlock()

	stats := domain.FeedStats{
		TotalEvents: len(tf.events),
		EventTypes:  make(map[domain.EventType]int),
	}
	for _, e := range tf.events {
		stats.EventTypes[e.EventType]++
		stats.TotalValue += e.Value()
	}
	return stats
}
