package models

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds published when a project's state settles.
const (
	EventRevisionCompleted = "revision.completed"
	EventRevisionFailed    = "revision.failed"
	EventRollbackCompleted = "rollback.completed"
	EventProjectSaved      = "project.saved"
	EventProjectPublished  = "project.published"
	EventProjectDeleted    = "project.deleted"
)

type ProjectEvent struct {
	Type      string     `json:"type"`
	ProjectID uuid.UUID  `json:"project_id"`
	VersionID *uuid.UUID `json:"version_id,omitempty"`
	Message   string     `json:"message,omitempty"`
	At        time.Time  `json:"at"`
}
