package http

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"
	"twitchbridge/internal/core/services"
	"twitchbridge/internal/infrastructure/middleware"
	apperrors "twitchbridge/pkg/errors"
	"twitchbridge/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// oauthScopes are requested from the broadcaster during authorization. They
// cover every subscription type the bridge can set up.
var oauthScopes = []string{
	"channel:read:subscriptions",
	"bits:read",
	"moderator:read:followers",
}

type OAuthHandler struct {
	tenants         ports.TenantRepository
	tokens          ports.TokenService
	authService     services.AuthService
	authorizeURL    string
	callbackBaseURL string
	logger          *zap.SugaredLogger
}

func NewOAuthHandler(
	tenants ports.TenantRepository,
	tokens ports.TokenService,
	authService services.AuthService,
	authorizeURL, callbackBaseURL string,
	logger *zap.SugaredLogger,
) *OAuthHandler {
	return &OAuthHandler{
		tenants:         tenants,
		tokens:          tokens,
		authService:     authService,
		authorizeURL:    authorizeURL,
		callbackBaseURL: utils.TrimBaseURL(callbackBaseURL),
		logger:          logger,
	}
}

func (h *OAuthHandler) SetupRoutes(router *gin.Engine) {
	// The callback is hit by the browser redirect from the platform and
	// carries its identity in the state parameter, not in a session.
	router.GET("/api/oauth/callback", h.Callback)

	api := router.Group("/api/oauth")
	api.Use(middleware.AuthMiddleware(h.authService))
	{
		api.GET("/authorize-url", h.AuthorizeURL)
		api.GET("/status", h.Status)
	}
}

type oauthState struct {
	TenantID domain.TenantID `json:"tenantId"`
}

func (h *OAuthHandler) redirectURI() string {
	return h.callbackBaseURL + "/api/oauth/callback"
}

func (h *OAuthHandler) AuthorizeURL(c *gin.Context) {
	tenantID := c.MustGet(middleware.ContextTenantID).(domain.TenantID)

	tenant, err := h.tenants.GetByID(c.Request.Context(), tenantID)
	if err != nil {
		c.Error(apperrors.NewNotFoundError("tenant"))
		return
	}

	stateJSON, err := json.Marshal(oauthState{TenantID: tenantID})
	if err != nil {
		c.Error(err)
		return
	}
	state := base64.URLEncoding.EncodeToString(stateJSON)

	params := url.Values{
		"client_id":     {tenant.ClientID},
		"redirect_uri":  {h.redirectURI()},
		"response_type": {"code"},
		"scope":         {strings.Join(oauthScopes, " ")},
		"state":         {state},
	}

	c.JSON(http.StatusOK, gin.H{
		"authUrl": h.authorizeURL + "?" + params.Encode(),
		"message": "Open this URL in your browser to authorize",
		"scopes":  oauthScopes,
	})
}

func (h *OAuthHandler) Callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		h.logger.Warnw("authorization denied by user", "error", errParam,
			"description", c.Query("error_description"))
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8",
			[]byte(callbackFailurePage(errParam, c.Query("error_description"))))
		return
	}

	code := c.Query("code")
	stateParam := c.Query("state")
	if code == "" || stateParam == "" {
		c.String(http.StatusBadRequest, "Missing code or state parameter")
		return
	}

	stateJSON, err := base64.URLEncoding.DecodeString(stateParam)
	if err != nil {
		c.String(http.StatusBadRequest, "Malformed state parameter")
		return
	}
	var state oauthState
	if err := json.Unmarshal(stateJSON, &state); err != nil || state.TenantID == "" {
		c.String(http.StatusBadRequest, "Malformed state parameter")
		return
	}

	if _, err := h.tokens.ExchangeAuthorizationCode(c.Request.Context(), state.TenantID, code, h.redirectURI()); err != nil {
		h.logger.Errorw("authorization code exchange failed", "tenant_id", state.TenantID, "error", err)
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8",
			[]byte(callbackFailurePage("exchange_failed", "could not exchange authorization code")))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(callbackSuccessPage))
}

func (h *OAuthHandler) Status(c *gin.Context) {
	tenantID := c.MustGet(middleware.ContextTenantID).(domain.TenantID)

	tenant, err := h.tenants.GetByID(c.Request.Context(), tenantID)
	if err != nil {
		c.Error(apperrors.NewNotFoundError("tenant"))
		return
	}

	authorized := tenant.UserToken.Valid(time.Now())

	var expiry interface{}
	if !tenant.UserToken.ExpiresAt.IsZero() {
		expiry = tenant.UserToken.ExpiresAt
	}

	message := "Tenant needs to authorize. Call GET /api/oauth/authorize-url"
	if authorized {
		message = "Tenant is authorized"
	}

	c.JSON(http.StatusOK, gin.H{
		"authorized":  authorized,
		"tokenExpiry": expiry,
		"message":     message,
	})
}

const callbackSuccessPage = `<!DOCTYPE html>
<html>
  <head>
    <style>
      body { font-family: Arial; text-align: center; padding: 50px; background: #0e0e10; color: #efeff1; }
      h1 { color: #9147ff; }
    </style>
  </head>
  <body>
    <h1>Authorization Successful</h1>
    <p>You can now close this window and use the setup endpoint.</p>
    <p>Your server can now subscribe to Twitch events.</p>
  </body>
</html>`

func callbackFailurePage(errCode, description string) string {
	if description == "" {
		description = "No description"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
  <body>
    <h1>Authorization Failed</h1>
    <p>Error: %s</p>
    <p>Description: %s</p>
  </body>
</html>`, html.EscapeString(errCode), html.EscapeString(description))
}
