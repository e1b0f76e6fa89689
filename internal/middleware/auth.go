package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/pkg/auth"
)

const (
	UserIDKey      = "userID"
	TokenKey       = "token"
	TokenExpiryKey = "tokenExpiresAt"
)

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "unauthorized"})
}

// AuthMiddleware resolves the bearer token into the acting user id. With
// allowQuery the token may also arrive as ?token=, which browsers need for
// websocket upgrades.
func AuthMiddleware(jwtManager *auth.JWTManager, blacklist *auth.Blacklist, logger *zap.Logger, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil && allowQuery {
			if q := c.Query("token"); q != "" {
				token, err = q, nil
			}
		}
		if err != nil {
			unauthorized(c, "missing or invalid token")
			return
		}

		revoked, err := blacklist.IsRevoked(c.Request.Context(), token)
		if err != nil {
			logger.Error("blacklist lookup", zap.Error(err))
			unauthorized(c, "could not verify token")
			return
		}
		if revoked {
			unauthorized(c, "token is revoked")
			return
		}

		userID, claims, err := jwtManager.UserID(token)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(TokenKey, token)
		c.Set(TokenExpiryKey, claims.ExpiresAt.Time)
		c.Next()
	}
}

// CurrentUser returns the id stored by AuthMiddleware.
func CurrentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(UserIDKey).(uuid.UUID)
}

// CurrentToken returns the raw bearer token and its expiry.
func CurrentToken(c *gin.Context) (string, time.Time) {
	return c.GetString(TokenKey), c.GetTime(TokenExpiryKey)
}
