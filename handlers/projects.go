package handlers

import (
	"context"
	"log"
	"net/http"
	"sitecraft/models"
	"sitecraft/workflow"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxDefaultNameRunes = 50

// ProjectStore is what the project handlers read and create directly;
// everything that mutates an existing project goes through the workflow.
type ProjectStore interface {
	CreateProject(ctx context.Context, userID uuid.UUID, name, initialPrompt string) (*models.Project, error)
	ListUserProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
}

func CreateProject(store ProjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req models.CreateProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Printf("Bind error: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		prompt := strings.TrimSpace(req.InitialPrompt)
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = defaultProjectName(prompt)
		}

		log.Printf("Creating project: %s", name)

		ctx := c.Request.Context()
		project, err := store.CreateProject(ctx, userID, name, prompt)
		if err != nil {
			respondError(c, "CreateProject", err)
			return
		}

		log.Printf("Project created: %s", project.ID)
		c.JSON(http.StatusCreated, project)
	}
}

func ListProjects(store ProjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		projects, err := store.ListUserProjects(ctx, userID)
		if err != nil {
			respondError(c, "ListProjects", err)
			return
		}

		c.JSON(http.StatusOK, models.ProjectsResponse{
			Projects: projects,
			Total:    int64(len(projects)),
		})
	}
}

func GetProject(svc *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		projectID, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		detail, err := svc.Project(c.Request.Context(), userID, projectID)
		if err != nil {
			respondError(c, "GetProject", err)
			return
		}

		c.JSON(http.StatusOK, detail)
	}
}

func DeleteProject(svc *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		projectID, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), userID, projectID); err != nil {
			respondError(c, "DeleteProject", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
	}
}

func SaveCode(svc *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		projectID, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		var req models.SaveCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if _, err := svc.SaveCode(c.Request.Context(), userID, projectID, req.Code); err != nil {
			respondError(c, "SaveCode", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Project saved successfully"})
	}
}

func TogglePublish(svc *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		projectID, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		project, err := svc.TogglePublish(c.Request.Context(), userID, projectID)
		if err != nil {
			respondError(c, "TogglePublish", err)
			return
		}

		message := "Project unpublished"
		if project.IsPublished {
			message = "Project published"
		}
		c.JSON(http.StatusOK, gin.H{"message": message, "is_published": project.IsPublished})
	}
}

func defaultProjectName(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= maxDefaultNameRunes {
		return prompt
	}
	return strings.TrimSpace(string(runes[:maxDefaultNameRunes])) + "..."
}
