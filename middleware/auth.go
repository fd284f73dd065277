package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sitecraft/models"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey = "user_id"
	UserKey   = "user"
)

// UserLookup resolves an API key to its user.
type UserLookup interface {
	GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
}

// AuthRequired accepts "Authorization: Bearer <key>". Websocket clients
// that cannot set headers may pass the key as ?access_token= instead.
func AuthRequired(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		// Validate API key against the user store
		ctx := c.Request.Context()
		user, err := users.GetUserByAPIKey(ctx, apiKey)
		if errors.Is(err, models.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}
		if err != nil {
			log.Printf("AuthRequired error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			c.Abort()
			return
		}

		// Store user in context for handlers to use
		c.Set(UserIDKey, user.ID)
		c.Set(UserKey, user)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := strings.TrimSpace(c.Query("access_token"))
		return token, token != ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
