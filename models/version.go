package models

import (
	"time"

	"github.com/google/uuid"
)

// Version is an immutable snapshot of a project's generated code.
// Versions of a project are ordered by CreatedAt; there is no link
// between a version and the one before it.
type Version struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ProjectID   uuid.UUID `json:"project_id" db:"project_id"`
	Code        string    `json:"code" db:"code"`
	Description string    `json:"description" db:"description"`
	Timestamp   time.Time `json:"timestamp" db:"created_at"`
}
