package monitoring

import (
	"twitchbridge/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	eventsReceivedTotal  *prometheus.CounterVec
	eventsForwardedTotal *prometheus.CounterVec
	forwardingFailures   *prometheus.CounterVec
	webhookRejections    *prometheus.CounterVec
	tokenExchangesTotal  *prometheus.CounterVec
	feedListeners        prometheus.Gauge
	bufferedEvents       prometheus.Gauge
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		eventsReceivedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "twitchbridge_events_received_total",
			Help: "Total number of supported platform notifications received",
		}, []string{"event_type"}),

		eventsForwardedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "twitchbridge_events_forwarded_total",
			Help: "Total number of events delivered to game server sinks",
		}, []string{"event_type"}),

		forwardingFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "twitchbridge_forwarding_failures_total",
			Help: "Total number of failed deliveries to game server sinks",
		}, []string{"event_type"}),

		webhookRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "twitchbridge_webhook_rejections_total",
			Help: "Total number of rejected webhook requests by reason",
		}, []string{"reason"}),

		tokenExchangesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "twitchbridge_token_exchanges_total",
			Help: "Total number of OAuth token exchanges by grant type and outcome",
		}, []string{"grant_type", "outcome"}),

		feedListeners: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "twitchbridge_feed_listeners",
			Help: "Current number of connected live feed listeners",
		}),

		bufferedEvents: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "twitchbridge_feed_buffered_events",
			Help: "Current number of events held in recent-event buffers",
		}),
	}
}

func (p *PrometheusCollector) EventReceived(eventType domain.EventType) {
	p.eventsReceivedTotal.WithLabelValues(string(eventType)).Inc()
}

func (p *PrometheusCollector) EventForwarded(eventType domain.EventType) {
	p.eventsForwardedTotal.WithLabelValues(string(eventType)).Inc()
}

func (p *PrometheusCollector) ForwardingFailed(eventType domain.EventType) {
	p.forwardingFailures.WithLabelValues(string(eventType)).Inc()
}

func (p *PrometheusCollector) WebhookRejected(reason string) {
	p.webhookRejections.WithLabelValues(reason).Inc()
}

func (p *PrometheusCollector) TokenExchange(grantType string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	p.tokenExchangesTotal.WithLabelValues(grantType, outcome).Inc()
}

func (p *PrometheusCollector) ListenersChanged(delta int) {
	p.feedListeners.Add(float64(delta))
}

func (p *PrometheusCollector) BufferedEventsChanged(delta int) {
	p.bufferedEvents.Add(float64(delta))
}
