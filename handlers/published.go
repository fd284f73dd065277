package handlers

import (
	"context"
	"net/http"
	"sitecraft/cache"
	"sitecraft/database"
	"sitecraft/models"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PublishedLister interface {
	ListPublishedProjects(ctx context.Context, params models.PublishedQuery) ([]models.Project, int64, error)
}

// PublishedSummary is a community listing entry. Code is left out; the
// viewer fetches it per site.
type PublishedSummary struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	InitialPrompt string    `json:"initial_prompt"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type PublishedResponse struct {
	Projects []PublishedSummary `json:"projects"`
	Total    int64              `json:"total"`
	Limit    int                `json:"limit,omitempty"`
	Offset   int                `json:"offset,omitempty"`
	HasMore  bool               `json:"has_more"`
}

func ListPublished(store PublishedLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params models.PublishedQuery
		if err := c.ShouldBindQuery(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		params.Limit, params.Offset = database.NormalizePage(params.Limit, params.Offset)

		projects, total, err := store.ListPublishedProjects(c.Request.Context(), params)
		if err != nil {
			respondError(c, "ListPublished", err)
			return
		}

		summaries := make([]PublishedSummary, 0, len(projects))
		for _, p := range projects {
			summaries = append(summaries, PublishedSummary{
				ID:            p.ID,
				Name:          p.Name,
				InitialPrompt: p.InitialPrompt,
				UpdatedAt:     p.UpdatedAt,
			})
		}

		c.JSON(http.StatusOK, PublishedResponse{
			Projects: summaries,
			Total:    total,
			Limit:    params.Limit,
			Offset:   params.Offset,
			HasMore:  int64(params.Offset+len(projects)) < total,
		})
	}
}

func GetPublished(sites *cache.Published) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		site, err := sites.Get(c.Request.Context(), projectID)
		if err != nil {
			respondError(c, "GetPublished", err)
			return
		}

		c.JSON(http.StatusOK, site)
	}
}
