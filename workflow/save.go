package workflow

import (
	"context"
	"fmt"
	"log"
	"sitecraft/models"
	"strings"

	"github.com/google/uuid"
)

// SaveCode stores hand-edited code as the project's current code and
// detaches it from the version history. No version or turn is written.
func (s *Service) SaveCode(ctx context.Context, userID, projectID uuid.UUID, code string) (*models.Project, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: code is empty", ErrInvalidInput)
	}

	_, unlock, err := s.lockOwned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	project, err := s.store.SaveProjectCode(ctx, projectID, code)
	if err != nil {
		return nil, classify(err)
	}

	log.Printf("SaveCode: project=%s bytes=%d", projectID, len(code))
	s.notify(models.EventProjectSaved, projectID, nil, "")
	return project, nil
}
