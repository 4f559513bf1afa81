package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/bravo68web/ghcrm/internal/domain/service"
	apperrors "github.com/bravo68web/ghcrm/pkg/errors"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// UserContextKey is the key for storing user in context
	UserContextKey ContextKey = "user"
	// SessionContextKey is the key for storing the current session in context
	SessionContextKey ContextKey = "session"
	// IsAuthenticatedKey is the key for checking if user is authenticated
	IsAuthenticatedKey ContextKey = "is_authenticated"
)

// AuthMiddleware resolves the session cookie into a user
type AuthMiddleware struct {
	authService service.AuthService
	cookieName  string
	log         *logger.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance
func NewAuthMiddleware(authService service.AuthService, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		cookieName:  cookieName,
		log:         logger.Get().WithFields(logger.Component("auth-middleware")),
	}
}

// Authenticate attaches the user when a valid session cookie is present.
// Requests without one continue anonymously.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(IsAuthenticatedKey), false)

		token, err := c.Cookie(m.cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		session, user, err := m.authService.AuthenticateSession(c.Request.Context(), token)
		if err != nil {
			if !apperrors.IsUnauthorized(err) {
				m.log.Error("Session lookup failed", logger.Error(err), logger.ClientIP(c.ClientIP()))
			}
			c.Next()
			return
		}

		m.setUserContext(c, session, user)
		c.Next()
	}
}

// RequireAuth rejects requests that carry no valid session
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(m.cookieName)
		if err != nil || token == "" {
			abortUnauthorized(c, "authentication required")
			return
		}

		session, user, err := m.authService.AuthenticateSession(c.Request.Context(), token)
		if err != nil {
			if apperrors.IsUnauthorized(err) {
				m.log.Debug("Rejected session cookie", logger.Error(err), logger.ClientIP(c.ClientIP()))
				abortUnauthorized(c, "authentication required")
				return
			}
			m.log.Error("Session lookup failed", logger.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "an internal error occurred",
			})
			return
		}

		m.setUserContext(c, session, user)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": message,
	})
}

// setUserContext sets the session and user in both the gin and request contexts
func (m *AuthMiddleware) setUserContext(c *gin.Context, session *models.Session, user *models.User) {
	c.Set(string(UserContextKey), user)
	c.Set(string(SessionContextKey), session)
	c.Set(string(IsAuthenticatedKey), true)

	ctx := context.WithValue(c.Request.Context(), UserContextKey, user)
	ctx = context.WithValue(ctx, SessionContextKey, session)
	c.Request = c.Request.WithContext(ctx)
}

// GetUserFromContext retrieves the authenticated user from gin context
func GetUserFromContext(c *gin.Context) *models.User {
	if user, exists := c.Get(string(UserContextKey)); exists {
		if u, ok := user.(*models.User); ok {
			return u
		}
	}
	return nil
}

// GetSessionFromContext retrieves the current session from gin context
func GetSessionFromContext(c *gin.Context) *models.Session {
	if session, exists := c.Get(string(SessionContextKey)); exists {
		if s, ok := session.(*models.Session); ok {
			return s
		}
	}
	return nil
}

// IsAuthenticated checks if the current request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	if auth, exists := c.Get(string(IsAuthenticatedKey)); exists {
		if isAuth, ok := auth.(bool); ok {
			return isAuth
		}
	}
	return false
}

// GetUserFromRequestContext retrieves the user from a standard context
func GetUserFromRequestContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}
