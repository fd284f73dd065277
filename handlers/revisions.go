package handlers

import (
	"net/http"
	"sitecraft/models"
	"sitecraft/workflow"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Revise runs the whole revision before responding. The new code is not
// returned; clients re-fetch the project.
func Revise(svc *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		projectID, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		var req models.RevisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := svc.Revise(c.Request.Context(), userID, projectID, req.Message)
		if err != nil {
			respondError(c, "Revise", err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func Rollback(svc *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		projectID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		versionID, ok := uuidParam(c, "versionId")
		if !ok {
			return
		}

		if _, err := svc.Rollback(c.Request.Context(), userID, projectID, versionID); err != nil {
			respondError(c, "Rollback", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Rollback successful"})
	}
}
