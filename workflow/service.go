package workflow

import (
	"context"
	"fmt"
	"log"
	"sitecraft/generation"
	"sitecraft/models"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultRevisionCost      = 5
	DefaultGenerationTimeout = 3 * time.Minute
)

// Conversation texts shown to the user.
const (
	GeneratingNotice   = "Now making changes to your website..."
	SuccessTurn        = "Changes have been made to your website. Check out the new version!"
	FailureTurn        = "Unable to generate the code, please try again"
	RollbackTurn       = "I've rolled back your website to selected version. You can preview it now."
	RevisionSucceeded  = "Changes made successfully"
	VersionDescription = "changes made"
)

func EnhancementTurn(enhanced string) string {
	return fmt.Sprintf("I've enhanced your prompt to: \"%s\"", enhanced)
}

type Options struct {
	// RevisionCost is debited once per revision attempt.
	RevisionCost int
	// GenerationTimeout bounds each call to the generation client.
	GenerationTimeout time.Duration
	Notifier          Notifier
}

// Service runs the project workflows. Operations on the same project are
// serialized; different projects run in parallel.
type Service struct {
	store    Store
	gen      generation.Client
	notifier Notifier
	locks    *projectLocks
	cost     int
	timeout  time.Duration
	now      func() time.Time
}

func New(store Store, gen generation.Client, opts Options) *Service {
	if opts.RevisionCost <= 0 {
		opts.RevisionCost = DefaultRevisionCost
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = DefaultGenerationTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = Notifiers{}
	}

	return &Service{
		store:    store,
		gen:      gen,
		notifier: opts.Notifier,
		locks:    newProjectLocks(),
		cost:     opts.RevisionCost,
		timeout:  opts.GenerationTimeout,
		now:      time.Now,
	}
}

func (s *Service) RevisionCost() int {
	return s.cost
}

// loadOwned fetches the project and checks that userID owns it. A project
// owned by someone else is reported as not found so its existence is not
// revealed.
func (s *Service) loadOwned(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: no authenticated user", ErrUnauthorized)
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, classify(err)
	}
	if project.UserID != userID {
		return nil, fmt.Errorf("%w: project %s is not owned by user %s", ErrNotFound, projectID, userID)
	}
	return project, nil
}

// Authorize returns the project if userID owns it.
func (s *Service) Authorize(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	return s.loadOwned(ctx, userID, projectID)
}

// lockOwned serializes on the project and then checks ownership. The
// caller must call unlock when err is nil.
func (s *Service) lockOwned(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, func(), error) {
	unlock, err := s.locks.Lock(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}

	project, err := s.loadOwned(ctx, userID, projectID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return project, unlock, nil
}

func (s *Service) notify(eventType string, projectID uuid.UUID, versionID *uuid.UUID, message string) {
	s.notifier.Notify(models.ProjectEvent{
		Type:      eventType,
		ProjectID: projectID,
		VersionID: versionID,
		Message:   message,
		At:        s.now().UTC(),
	})
}

func (s *Service) appendAssistant(ctx context.Context, projectID uuid.UUID, contents ...string) {
	if err := s.store.AppendTurns(ctx, projectID, models.RoleAssistant, contents...); err != nil {
		log.Printf("AppendTurns failed: project=%s error=%v", projectID, err)
	}
}
