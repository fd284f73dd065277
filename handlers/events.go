package handlers

import (
	"sitecraft/events"
	"sitecraft/workflow"

	"github.com/gin-gonic/gin"
)

// ProjectEvents streams completion events for an owned project over a
// websocket.
func ProjectEvents(svc *workflow.Service, hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		projectID, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		if _, err := svc.Authorize(c.Request.Context(), userID, projectID); err != nil {
			respondError(c, "ProjectEvents", err)
			return
		}

		hub.ServeWS(c.Writer, c.Request, projectID)
	}
}
