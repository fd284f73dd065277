package workflow

import (
	"context"
	"sitecraft/models"

	"github.com/google/uuid"
)

// Project returns the owned project with its versions and conversation,
// plus both merged into a display timeline.
func (s *Service) Project(ctx context.Context, userID, projectID uuid.UUID) (*models.ProjectDetail, error) {
	project, err := s.loadOwned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	versions, err := s.store.ListVersions(ctx, projectID)
	if err != nil {
		return nil, classify(err)
	}
	turns, err := s.store.ListTurns(ctx, projectID)
	if err != nil {
		return nil, classify(err)
	}

	return &models.ProjectDetail{
		Project:      *project,
		Versions:     versions,
		Conversation: turns,
		Timeline:     models.BuildTimeline(turns, versions),
	}, nil
}

// TogglePublish flips the project's visibility in the community listing.
func (s *Service) TogglePublish(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	_, unlock, err := s.lockOwned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	project, err := s.store.TogglePublish(ctx, projectID)
	if err != nil {
		return nil, classify(err)
	}

	s.notify(models.EventProjectPublished, projectID, project.CurrentVersionID, "")
	return project, nil
}

// Delete removes the project with its versions and conversation.
func (s *Service) Delete(ctx context.Context, userID, projectID uuid.UUID) error {
	_, unlock, err := s.lockOwned(ctx, userID, projectID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		return classify(err)
	}

	s.notify(models.EventProjectDeleted, projectID, nil, "")
	return nil
}
