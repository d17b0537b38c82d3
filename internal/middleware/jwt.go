package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pocket-university-api/internal/models"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
	"github.com/noah-isme/pocket-university-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing the acting user.
	ContextUserKey = "currentUser"
	// ContextClaimsKey is the gin context key storing the token claims.
	ContextClaimsKey = "tokenClaims"
)

// SessionAuthenticator validates tokens against the portal's single session.
type SessionAuthenticator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
	Current() (*models.User, bool)
}

// JWT protects routes by requiring a valid access token issued to the user
// currently holding the session. A token for a logged-out user is refused
// even when it has not expired.
func JWT(auth SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		current, ok := auth.Current()
		if !ok || current.ID != claims.UserID {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "session is no longer active"))
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextUserKey, current)
		c.Next()
	}
}

// CurrentUser returns the acting user attached by JWT.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
