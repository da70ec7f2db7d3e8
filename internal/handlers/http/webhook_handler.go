package http

import (
	"encoding/json"
	"io"
	"net/http"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"
	"twitchbridge/internal/infrastructure/twitch"
	"twitchbridge/pkg/logger"
	"twitchbridge/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody bounds inbound notification payloads.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	tenants  ports.TenantRepository
	verifier *twitch.Verifier
	events   ports.EventService
	metrics  ports.MetricsRecorder
	ctxLog   *logger.ContextLogger
}

func NewWebhookHandler(
	tenants ports.TenantRepository,
	verifier *twitch.Verifier,
	events ports.EventService,
	metrics ports.MetricsRecorder,
	log *zap.SugaredLogger,
) *WebhookHandler {
	return &WebhookHandler{
		tenants:  tenants,
		verifier: verifier,
		events:   events,
		metrics:  metrics,
		ctxLog:   logger.NewContextLogger(log.Desugar()),
	}
}

func (h *WebhookHandler) SetupRoutes(router *gin.Engine) {
	router.POST("/webhook/:tenantId", h.Handle)
}

// notificationBody is the envelope of verification and notification messages.
type notificationBody struct {
	Challenge    string `json:"challenge"`
	Subscription struct {
		Type string `json:"type"`
	} `json:"subscription"`
	Event json.RawMessage `json:"event"`
}

// Handle processes one EventSub delivery. The raw body bytes are read before
// any JSON handling: the signature covers them exactly as sent.
func (h *WebhookHandler) Handle(c *gin.Context) {
	tenantID := domain.TenantID(c.Param("tenantId"))

	ctx, span := tracing.TraceWebhook(c.Request.Context(), string(tenantID), c.GetHeader(twitch.HeaderMessageType))
	defer span.End()

	log := h.ctxLog.WithContext(ctx).Sugar()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read request body"})
		return
	}

	tenant, err := h.tenants.GetByID(ctx, tenantID)
	if err != nil {
		h.reject("unknown_tenant")
		log.Warnw("webhook received for unknown tenant", "tenant_id", tenantID)
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}

	if err := h.verifier.Verify(
		c.GetHeader(twitch.HeaderMessageID),
		c.GetHeader(twitch.HeaderTimestamp),
		c.GetHeader(twitch.HeaderSignature),
		body,
		tenant.EventSubSecret,
	); err != nil {
		h.reject("bad_signature")
		log.Warnw("webhook signature rejected", "tenant_id", tenantID, "error", err)
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}

	switch c.GetHeader(twitch.HeaderMessageType) {
	case twitch.MessageTypeVerification:
		var payload notificationBody
		if err := json.Unmarshal(body, &payload); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "malformed verification payload"})
			return
		}
		log.Infow("webhook verification challenge answered", "tenant_id", tenantID)
		c.String(http.StatusOK, payload.Challenge)

	case twitch.MessageTypeRevocation:
		log.Warnw("subscription revoked", "tenant_id", tenantID, "body", string(body))
		c.Status(http.StatusNoContent)

	case twitch.MessageTypeNotification:
		var payload notificationBody
		if err := json.Unmarshal(body, &payload); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "malformed notification payload"})
			return
		}

		if err := h.events.HandleNotification(ctx, tenant, payload.Subscription.Type, payload.Event); err != nil {
			log.Errorw("failed to process notification",
				"tenant_id", tenantID, "subscription_type", payload.Subscription.Type, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Status(http.StatusNoContent)

	default:
		c.Status(http.StatusOK)
	}
}

func (h *WebhookHandler) reject(reason string) {
	if h.metrics != nil {
		h.metrics.WebhookRejected(reason)
	}
}
