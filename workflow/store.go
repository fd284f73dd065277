package workflow

import (
	"context"
	"sitecraft/models"

	"github.com/google/uuid"
)

// CreditLedger is the only writer of user balances.
type CreditLedger interface {
	DebitCredits(ctx context.Context, userID uuid.UUID, amount int) error
	RefundCredits(ctx context.Context, userID uuid.UUID, amount int) error
}

// ConversationLog is an append-only record of user-visible actions.
type ConversationLog interface {
	AppendTurn(ctx context.Context, projectID uuid.UUID, role models.Role, content string) (uuid.UUID, error)
	AppendTurns(ctx context.Context, projectID uuid.UUID, role models.Role, contents ...string) error
	ListTurns(ctx context.Context, projectID uuid.UUID) ([]models.ConversationTurn, error)
}

// VersionStore holds immutable code snapshots and moves the current pointer.
type VersionStore interface {
	CommitVersion(ctx context.Context, projectID uuid.UUID, code, description string) (*models.Version, error)
	GetVersion(ctx context.Context, projectID, versionID uuid.UUID) (*models.Version, error)
	SetCurrentVersion(ctx context.Context, projectID, versionID uuid.UUID) (*models.Project, error)
	ListVersions(ctx context.Context, projectID uuid.UUID) ([]models.Version, error)
}

type ProjectStore interface {
	GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	SaveProjectCode(ctx context.Context, projectID uuid.UUID, code string) (*models.Project, error)
	TogglePublish(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	DeleteProject(ctx context.Context, projectID uuid.UUID) error
}

// Store is everything the workflows need. Both the Postgres store and the
// in-memory store satisfy it.
type Store interface {
	CreditLedger
	ConversationLog
	VersionStore
	ProjectStore
}

// Notifier receives an event once a project operation has settled.
// Notify must not block.
type Notifier interface {
	Notify(event models.ProjectEvent)
}

// Notifiers fans an event out to each notifier in order.
type Notifiers []Notifier

func (n Notifiers) Notify(event models.ProjectEvent) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Notify(event)
		}
	}
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(models.ProjectEvent)

func (f NotifierFunc) Notify(event models.ProjectEvent) {
	f(event)
}
