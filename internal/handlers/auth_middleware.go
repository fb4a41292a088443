package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

const sessionContextKey = "session"

// AuthMiddleware turns bearer tokens into sessions.
type AuthMiddleware struct {
	authService services.AuthService
	logger      utils.Logger
}

func NewAuthMiddleware(authService services.AuthService, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{authService: authService, logger: logger}
}

// Authenticate rejects requests without a valid token.
func (am *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		sess, err := am.authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.GetLogger(c, am.logger).Warn("Token rejected", "error", err)
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		setSession(c, sess)
		c.Next()
	}
}

// Optional attaches a session when a valid token is present and lets the
// request through either way.
func (am *AuthMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			if sess, err := am.authService.Authenticate(c.Request.Context(), token); err == nil {
				setSession(c, sess)
			}
		}
		c.Next()
	}
}

// RequireRole allows the listed roles. Admin always passes.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := GetSessionFromContext(c)
		if err != nil {
			abortUnauthorized(c, "user not authenticated")
			return
		}
		if !sess.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Error:     http.StatusText(http.StatusForbidden),
				Message:   fmt.Sprintf("insufficient permissions, required role: %v", roles),
				Code:      "forbidden",
				Timestamp: time.Now().UTC(),
				Path:      c.Request.URL.Path,
			})
			return
		}
		c.Next()
	}
}

// GetSessionFromContext returns the session set by the auth middleware.
func GetSessionFromContext(c *gin.Context) (auth.SessionContext, error) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return auth.SessionContext{}, auth.ErrNoSession
	}
	sess, ok := v.(auth.SessionContext)
	if !ok || sess.UserID == "" {
		return auth.SessionContext{}, auth.ErrNoSession
	}
	return sess, nil
}

func setSession(c *gin.Context, sess auth.SessionContext) {
	c.Set(sessionContextKey, sess)
	c.Set("user_id", sess.UserID)
	c.Set("user_role", sess.Role)
	c.Set("user_email", sess.Email)
	c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), sess))
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("authorization header missing")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("invalid authorization header format")
	}
	return parts[1], nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Error:     http.StatusText(http.StatusUnauthorized),
		Message:   message,
		Code:      "unauthorized",
		Timestamp: time.Now().UTC(),
		Path:      c.Request.URL.Path,
	})
}
