package handlers

import (
	"context"
	"net/http"
	"sitecraft/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserReader interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// Me returns the caller with a fresh balance.
func Me(users UserReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			respondError(c, "Me", err)
			return
		}

		c.JSON(http.StatusOK, user)
	}
}
