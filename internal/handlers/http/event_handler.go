package http

import (
	"net/http"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"
	"twitchbridge/internal/core/services"
	"twitchbridge/internal/infrastructure/feed"
	"twitchbridge/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	feed        ports.FeedService
	streamer    *feed.StreamServer
	authService services.AuthService
}

func NewEventHandler(feedService ports.FeedService, streamer *feed.StreamServer, authService services.AuthService) *EventHandler {
	return &EventHandler{
		feed:        feedService,
		streamer:    streamer,
		authService: authService,
	}
}

func (h *EventHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/events")
	api.Use(middleware.AuthMiddleware(h.authService))
	{
		api.GET("", h.Snapshot)
		api.GET("/stats", h.Stats)
		api.GET("/stream", h.Stream)
	}
}

// Snapshot returns the buffered recent events, newest first.
func (h *EventHandler) Snapshot(c *gin.Context) {
	tenantID := c.MustGet(middleware.ContextTenantID).(domain.TenantID)

	events := h.feed.Snapshot(tenantID)
	if events == nil {
		events = []domain.CanonicalEvent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

func (h *EventHandler) Stats(c *gin.Context) {
	tenantID := c.MustGet(middleware.ContextTenantID).(domain.TenantID)

	c.JSON(http.StatusOK, h.feed.Stats(tenantID))
}

// Stream upgrades to a WebSocket pushing live events as they arrive.
func (h *EventHandler) Stream(c *gin.Context) {
	tenantID := c.MustGet(middleware.ContextTenantID).(domain.TenantID)

	h.streamer.HandleStream(c.Writer, c.Request, tenantID)
}
