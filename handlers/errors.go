package handlers

import (
	"errors"
	"log"
	"net/http"
	"sitecraft/middleware"
	"sitecraft/models"
	"sitecraft/workflow"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps a workflow or store error to a status. Internal
// detail is logged and never sent to the client.
func respondError(c *gin.Context, op string, err error) {
	status, message := http.StatusInternalServerError, "internal server error"

	switch {
	case errors.Is(err, workflow.ErrInvalidInput):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrInvalidQuery):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, workflow.ErrUnauthorized), errors.Is(err, models.ErrUserNotFound):
		status, message = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, workflow.ErrNotFound),
		errors.Is(err, models.ErrProjectNotFound),
		errors.Is(err, models.ErrVersionNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, workflow.ErrInsufficientCredits):
		status, message = http.StatusForbidden, "insufficient credits"
	case errors.Is(err, workflow.ErrGenerationFailure):
		message = "unable to generate website changes, please try again"
	}

	log.Printf("%s error: status=%d error=%v", op, status, err)
	c.JSON(status, gin.H{"error": message})
}

// currentUserID returns the authenticated user, or responds 401.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	userID, ok := v.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
