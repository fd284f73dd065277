package handlers

import (
	"sitecraft/cache"
	"sitecraft/events"
	"sitecraft/middleware"
	"sitecraft/workflow"

	"github.com/gin-gonic/gin"
)

// Store is the read and create surface the handlers use directly.
type Store interface {
	middleware.UserLookup
	UserReader
	ProjectStore
	PublishedLister
}

type Deps struct {
	Store     Store
	Service   *workflow.Service
	Hub       *events.Hub
	Published *cache.Published
}

func Register(r *gin.Engine, d Deps) {
	r.GET("/health", HealthCheck)
	r.GET("/published", ListPublished(d.Store))
	r.GET("/published/:id", GetPublished(d.Published))

	auth := r.Group("/", middleware.AuthRequired(d.Store))
	auth.GET("/users/me", Me(d.Store))

	auth.POST("/projects", CreateProject(d.Store))
	auth.GET("/projects", ListProjects(d.Store))
	auth.GET("/projects/:id", GetProject(d.Service))
	auth.DELETE("/projects/:id", DeleteProject(d.Service))
	auth.POST("/projects/:id/revisions", Revise(d.Service))
	auth.POST("/projects/:id/versions/:versionId/rollback", Rollback(d.Service))
	auth.PUT("/projects/:id/code", SaveCode(d.Service))
	auth.PATCH("/projects/:id/publish", TogglePublish(d.Service))
	auth.GET("/projects/:id/events", ProjectEvents(d.Service, d.Hub))
}
