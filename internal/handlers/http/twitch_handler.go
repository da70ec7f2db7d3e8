package http

import (
	"errors"
	"fmt"
	"net/http"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"
	"twitchbridge/internal/core/services"
	"twitchbridge/internal/infrastructure/middleware"
	apperrors "twitchbridge/pkg/errors"
	"twitchbridge/pkg/utils"

	"github.com/gin-gonic/gin"
)

type TwitchHandler struct {
	subscriptions   ports.SubscriptionService
	platform        ports.PlatformClient
	authService     services.AuthService
	callbackBaseURL string
}

func NewTwitchHandler(subscriptions ports.SubscriptionService, platform ports.PlatformClient, authService services.AuthService, callbackBaseURL string) *TwitchHandler {
	return &TwitchHandler{
		subscriptions:   subscriptions,
		platform:        platform,
		authService:     authService,
		callbackBaseURL: utils.TrimBaseURL(callbackBaseURL),
	}
}

func (h *TwitchHandler) SetupRoutes(router *gin.Engine) {
	// Public probe so prospective tenants can check credentials before
	// registering.
	router.POST("/api/twitch/validate-credentials", h.ValidateCredentials)

	api := router.Group("/api/twitch")
	api.Use(middleware.AuthMiddleware(h.authService))
	{
		api.POST("/subscribe", h.Subscribe)
		api.GET("/subscriptions", h.ListSubscriptions)
		api.DELETE("/subscriptions/:id", h.DeleteSubscription)
		api.POST("/setup", h.Setup)
		api.GET("/users/:login", h.LookupUser)
	}
}

type SubscribeRequest struct {
	Type      string                 `json:"type" binding:"required"`
	Version   string                 `json:"version" binding:"required"`
	Condition map[string]interface{} `json:"condition" binding:"required"`
}

type SetupRequest struct {
	BroadcasterUserID string `json:"broadcasterUserId" binding:"required"`
}

func (h *TwitchHandler) callbackURL(tenantID domain.TenantID) string {
	return fmt.Sprintf("%s/webhook/%s", h.callbackBaseURL, tenantID)
}

func (h *TwitchHandler) Subscribe(c *gin.Context) {
	tenantID := c.MustGet(middleware.ContextTenantID).(domain.TenantID)

	var req SubscribeRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("missing required fields: type, version, condition"))
		return
	}

	result, err := h.subscriptions.Subscribe(c.Request.Context(), tenantID, domain.SubscriptionRequest{
		Type:      req.Type,
		Version:   req.Version,
		Condition: req.Condition,
	}, h.callbackURL(tenantID))
	if err != nil {
		h.subscriptionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("subscribed to %s", req.Type),
		"data":    result,
	})
}

func (h *TwitchHandler) ListSubscriptions(c *gin.Context) {
	tenantID := c.MustGet(middleware.ContextTenantID).(domain.TenantID)

	result, err := h.subscriptions.ListSubscriptions(c.Request.Context(), tenantID)
	if err != nil {
		h.subscriptionError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", result)
}

func (h *TwitchHandler) DeleteSubscription(c *gin.Context) {
	tenantID := c.MustGet(middleware.ContextTenantID).(domain.TenantID)
	subscriptionID := domain.SubscriptionID(c.Param("id"))

	if err := h.subscriptions.DeleteSubscription(c.Request.Context(), tenantID, subscriptionID); err != nil {
		h.subscriptionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "subscription deleted", "id": subscriptionID})
}

func (h *TwitchHandler) Setup(c *gin.Context) {
	tenantID := c.MustGet(middleware.ContextTenantID).(domain.TenantID)

	var req SetupRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("broadcasterUserId is required"))
		return
	}

	results := h.subscriptions.Setup(c.Request.Context(), tenantID, req.BroadcasterUserID, h.callbackURL(tenantID))

	c.JSON(http.StatusOK, gin.H{
		"message": "setup completed",
		"results": results,
	})
}

type ValidateCredentialsRequest struct {
	TwitchClientID     string `json:"twitchClientId" binding:"required"`
	TwitchClientSecret string `json:"twitchClientSecret" binding:"required"`
}

func (h *TwitchHandler) ValidateCredentials(c *gin.Context) {
	var req ValidateCredentialsRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("missing twitchClientId or twitchClientSecret"))
		return
	}

	token, err := h.platform.ExchangeClientCredentials(c.Request.Context(), req.TwitchClientID, req.TwitchClientSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"valid":   false,
			"message": "invalid credentials",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"message":    "credentials are valid",
		"token_type": token.TokenType,
		"expires_in": token.ExpiresIn,
	})
}

func (h *TwitchHandler) LookupUser(c *gin.Context) {
	tenantID := c.MustGet(middleware.ContextTenantID).(domain.TenantID)

	user, err := h.subscriptions.LookupUser(c.Request.Context(), tenantID, c.Param("login"))
	if err != nil {
		h.subscriptionError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *TwitchHandler) subscriptionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrAuthorizationRequired):
		c.Error(apperrors.NewAuthorizationRequiredError().
			WithContext("authorize_url", "/api/oauth/authorize-url"))
	case errors.Is(err, domain.ErrCredentialRejected):
		c.Error(apperrors.NewCredentialRejectedError(err))
	case errors.Is(err, domain.ErrTenantNotFound):
		c.Error(apperrors.NewNotFoundError("tenant"))
	default:
		c.Error(err)
	}
}
