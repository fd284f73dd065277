package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ConversationTurn is one append-only entry in a project's conversation.
type ConversationTurn struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RevisionRequest is the payload for asking the generator to change a site.
type RevisionRequest struct {
	Message string `json:"message"`
}

// SaveCodeRequest carries hand-edited code that replaces current_code.
type SaveCodeRequest struct {
	Code string `json:"code"`
}
