package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/services"
	"twitchbridge/internal/infrastructure/middleware"
	"twitchbridge/pkg/errors"
	"twitchbridge/pkg/utils"
	"twitchbridge/pkg/validation"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	accounts        services.AccountService
	authService     services.AuthService
	accessTokenTTL  time.Duration
	callbackBaseURL string
}

func NewAuthHandler(accounts services.AccountService, authService services.AuthService, accessTokenTTL time.Duration, callbackBaseURL string) *AuthHandler {
	return &AuthHandler{
		accounts:        accounts,
		authService:     authService,
		accessTokenTTL:  accessTokenTTL,
		callbackBaseURL: utils.TrimBaseURL(callbackBaseURL),
	}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/auth")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/refresh", h.RefreshToken)
	}

	me := router.Group("/api/auth/me")
	me.Use(middleware.AuthMiddleware(h.authService))
	{
		me.GET("", h.Me)
		me.PATCH("", h.UpdateMe)
	}
}

type RegisterRequest struct {
	Username           string `json:"username" binding:"required,min=3,max=50"`
	Password           string `json:"password" binding:"required,min=8,max=128"`
	TwitchClientID     string `json:"twitchClientId" binding:"required"`
	TwitchClientSecret string `json:"twitchClientSecret" binding:"required"`
	SinkBaseURL        string `json:"sinkBaseUrl" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=128"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required,max=2048"`
}

type UpdateAccountRequest struct {
	SinkBaseURL        *string `json:"sinkBaseUrl"`
	TwitchClientID     *string `json:"twitchClientId"`
	TwitchClientSecret *string `json:"twitchClientSecret"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	if err := validation.ValidateUsername(req.Username); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidateSinkURL(req.SinkBaseURL); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidateClientCredentials(req.TwitchClientID, req.TwitchClientSecret); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	tenant, err := h.accounts.Register(c.Request.Context(), services.RegisterParams{
		Username:     req.Username,
		Password:     req.Password,
		ClientID:     req.TwitchClientID,
		ClientSecret: req.TwitchClientSecret,
		SinkBaseURL:  req.SinkBaseURL,
	})
	if err != nil {
		if err == domain.ErrTenantExists {
			c.Error(errors.NewConflictError("username already taken"))
			return
		}
		c.Error(err)
		return
	}

	accessToken, refreshToken, err := h.issueTokens(tenant)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"tenant":        tenant,
		"webhook_url":   fmt.Sprintf("%s/webhook/%s", h.callbackBaseURL, tenant.ID),
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(h.accessTokenTTL / time.Second),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	tenant, err := h.accounts.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		switch err {
		case domain.ErrInvalidCredentials:
			c.Error(errors.NewUnauthorizedError("invalid username or password"))
		case domain.ErrTenantInactive:
			c.Error(errors.NewForbiddenError("account is deactivated"))
		default:
			c.Error(err)
		}
		return
	}

	accessToken, refreshToken, err := h.issueTokens(tenant)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tenant":        tenant,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(h.accessTokenTTL / time.Second),
	})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	claims, err := h.authService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.Error(errors.NewUnauthorizedError("invalid refresh token"))
		return
	}

	tenant, err := h.accounts.Get(c.Request.Context(), claims.TenantID)
	if err != nil {
		c.Error(errors.NewUnauthorizedError("unknown tenant"))
		return
	}

	accessToken, err := h.authService.GenerateToken(tenant.ID, tenant.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"expires_in":   int(h.accessTokenTTL / time.Second),
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	tenantID := c.MustGet(middleware.ContextTenantID).(domain.TenantID)

	tenant, err := h.accounts.Get(c.Request.Context(), tenantID)
	if err != nil {
		c.Error(errors.NewNotFoundError("tenant"))
		return
	}

	c.JSON(http.StatusOK, tenant)
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	tenantID := c.MustGet(middleware.ContextTenantID).(domain.TenantID)

	var req UpdateAccountRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	if req.SinkBaseURL != nil {
		if err := validation.ValidateSinkURL(*req.SinkBaseURL); err != nil {
			c.Error(errors.NewInvalidInputError(err.Error()))
			return
		}
	}

	tenant, err := h.accounts.Update(c.Request.Context(), tenantID, domain.TenantUpdate{
		SinkBaseURL:  req.SinkBaseURL,
		ClientID:     req.TwitchClientID,
		ClientSecret: req.TwitchClientSecret,
	})
	if err != nil {
		if err == domain.ErrTenantNotFound {
			c.Error(errors.NewNotFoundError("tenant"))
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, tenant)
}

func (h *AuthHandler) issueTokens(tenant *domain.Tenant) (string, string, error) {
	accessToken, err := h.authService.GenerateToken(tenant.ID, tenant.Username)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := h.authService.GenerateRefreshToken(tenant.ID)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}
