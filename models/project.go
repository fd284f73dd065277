package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is one website-building session owned by a single user.
// CurrentCode mirrors the code of the version referenced by CurrentVersionID,
// except after a manual save, which sets CurrentCode and clears the pointer.
type Project struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	Name             string     `json:"name" db:"name"`
	InitialPrompt    string     `json:"initial_prompt" db:"initial_prompt"`
	CurrentCode      string     `json:"current_code" db:"current_code"`
	CurrentVersionID *uuid.UUID `json:"current_version_index" db:"current_version_id"`
	IsPublished      bool       `json:"is_published" db:"is_published"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// HasCode reports whether any code has been produced or saved yet.
func (p *Project) HasCode() bool {
	return p != nil && p.CurrentCode != ""
}

// CreateProjectRequest is the payload for starting a new project.
// Name is optional and defaults to a prefix of the prompt.
type CreateProjectRequest struct {
	Name          string `json:"name" binding:"max=255"`
	InitialPrompt string `json:"initial_prompt" binding:"required,min=3"`
}

// ProjectsResponse is the standard response format for project listings.
type ProjectsResponse struct {
	Projects []Project `json:"projects"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
	HasMore  bool      `json:"has_more"`
}

// ProjectDetail is the full project fetch: the project row, its version
// history and its conversation, plus the two logs merged for display.
type ProjectDetail struct {
	Project
	Versions     []Version          `json:"versions"`
	Conversation []ConversationTurn `json:"conversation"`
	Timeline     []TimelineEntry    `json:"timeline"`
}

// PublishedQuery filters the community listing.
type PublishedQuery struct {
	Search    string `form:"search"`
	StartTime string `form:"start_time"`
	EndTime   string `form:"end_time"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// PublishedSite is what the public viewer needs to render a published project.
type PublishedSite struct {
	ProjectID uuid.UUID `json:"project_id"`
	Code      string    `json:"code"`
}
