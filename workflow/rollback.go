package workflow

import (
	"context"
	"log"
	"sitecraft/models"

	"github.com/google/uuid"
)

// Rollback points the project back at one of its own versions. Newer
// versions are kept. It costs nothing and records a turn on every call.
func (s *Service) Rollback(ctx context.Context, userID, projectID, versionID uuid.UUID) (*models.Project, error) {
	_, unlock, err := s.lockOwned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.store.GetVersion(ctx, projectID, versionID); err != nil {
		return nil, classify(err)
	}

	project, err := s.store.SetCurrentVersion(ctx, projectID, versionID)
	if err != nil {
		return nil, classify(err)
	}

	if _, err := s.store.AppendTurn(ctx, projectID, models.RoleAssistant, RollbackTurn); err != nil {
		log.Printf("Rollback: project=%s turn not recorded: %v", projectID, err)
	}

	log.Printf("Rollback: project=%s version=%s", projectID, versionID)
	s.notify(models.EventRollbackCompleted, projectID, &versionID, RollbackTurn)
	return project, nil
}
