package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sitecraft/generation"
	"sitecraft/models"
	"strings"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateIdle               State = "Idle"
	StateCreditCheck        State = "CreditCheck"
	StateLoggingRequest     State = "LoggingRequest"
	StateEnhancing          State = "Enhancing"
	StateLoggingEnhancement State = "LoggingEnhancement"
	StateGenerating         State = "Generating"
	StateSanitizing         State = "Sanitizing"
	StatePersisting         State = "Persisting"
	StateLoggingSuccess     State = "LoggingSuccess"
	StateDone               State = "Done"
	StateCompensating       State = "Compensating"
	StateLoggingFailure     State = "LoggingFailure"
	StateFailed             State = "Failed"
)

type RevisionResult struct {
	Message   string    `json:"message"`
	VersionID uuid.UUID `json:"version_id"`
}

// revision carries one attempt through the state machine.
type revision struct {
	svc         *Service
	userID      uuid.UUID
	project     *models.Project
	instruction string
	state       State
	start       time.Time
	debited     bool
}

// Revise asks the generator to change the project's site according to
// instruction. Credits are debited up front; once debited, the attempt
// runs to completion even if ctx is cancelled, and any failure before the
// new version is committed refunds the debit and records a failure turn.
func (s *Service) Revise(ctx context.Context, userID, projectID uuid.UUID, instruction string) (*RevisionResult, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("%w: instruction is empty", ErrInvalidInput)
	}

	project, unlock, err := s.lockOwned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	r := &revision{
		svc:         s,
		userID:      userID,
		project:     project,
		instruction: instruction,
		state:       StateIdle,
		start:       time.Now(),
	}
	return r.run(ctx)
}

func (r *revision) enter(state State) {
	log.Printf("Revision: project=%s state=%s->%s elapsed=%v", r.project.ID, r.state, state, time.Since(r.start))
	r.state = state
}

func (r *revision) run(ctx context.Context) (*RevisionResult, error) {
	s := r.svc

	r.enter(StateCreditCheck)
	if err := s.store.DebitCredits(ctx, r.userID, s.cost); err != nil {
		r.enter(StateFailed)
		return nil, classify(err)
	}
	r.debited = true

	// The debit is committed; a client disconnect must not strand it.
	ctx = context.WithoutCancel(ctx)

	r.enter(StateLoggingRequest)
	if _, err := s.store.AppendTurn(ctx, r.project.ID, models.RoleUser, r.instruction); err != nil {
		return nil, r.compensate(ctx, fmt.Errorf("%w: failed to log request: %w", ErrInternal, err))
	}

	r.enter(StateEnhancing)
	enhanced := r.enhance(ctx)

	r.enter(StateLoggingEnhancement)
	s.appendAssistant(ctx, r.project.ID, EnhancementTurn(enhanced), GeneratingNotice)

	r.enter(StateGenerating)
	output, err := r.complete(ctx, generation.CodeSystemPrompt, generation.CodeUserPrompt(r.project.CurrentCode, enhanced))
	if err != nil {
		return nil, r.compensate(ctx, fmt.Errorf("%w: %w", ErrGenerationFailure, err))
	}

	r.enter(StateSanitizing)
	code := generation.Sanitize(output)
	if code == "" {
		return nil, r.compensate(ctx, fmt.Errorf("%w: %w", ErrGenerationFailure, generation.ErrEmptyOutput))
	}

	r.enter(StatePersisting)
	version, err := s.store.CommitVersion(ctx, r.project.ID, code, VersionDescription)
	if err != nil {
		return nil, r.compensate(ctx, fmt.Errorf("%w: failed to persist version: %w", ErrInternal, err))
	}

	r.enter(StateLoggingSuccess)
	if _, err := s.store.AppendTurn(ctx, r.project.ID, models.RoleAssistant, SuccessTurn); err != nil {
		log.Printf("Revision: project=%s success turn not recorded: %v", r.project.ID, err)
	}

	r.enter(StateDone)
	s.notify(models.EventRevisionCompleted, r.project.ID, &version.ID, RevisionSucceeded)

	return &RevisionResult{Message: RevisionSucceeded, VersionID: version.ID}, nil
}

// enhance restates the instruction in more detail. Any failure falls back
// to the raw instruction.
func (r *revision) enhance(ctx context.Context) string {
	output, err := r.complete(ctx, generation.EnhanceSystemPrompt, generation.EnhanceUserPrompt(r.instruction))
	if err != nil {
		log.Printf("Revision: project=%s enhancement skipped: %v", r.project.ID, err)
		return r.instruction
	}

	enhanced := strings.TrimSpace(output)
	if enhanced == "" {
		return r.instruction
	}
	return enhanced
}

func (r *revision) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.svc.timeout)
	defer cancel()

	output, err := r.svc.gen.Complete(ctx, system, user)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(output) == "" {
		return "", generation.ErrEmptyOutput
	}
	return output, nil
}

// compensate refunds the debit and records the failure. It runs at most
// once per attempt.
func (r *revision) compensate(ctx context.Context, cause error) error {
	s := r.svc

	r.enter(StateCompensating)
	kind := "output"
	if generation.IsTransport(cause) {
		kind = "transport"
	}
	log.Printf("Revision failed: project=%s user=%s kind=%s error=%v", r.project.ID, r.userID, kind, cause)

	var refundErr error
	if r.debited {
		refundErr = s.store.RefundCredits(ctx, r.userID, s.cost)
		r.debited = false
	}

	r.enter(StateLoggingFailure)
	if _, err := s.store.AppendTurn(ctx, r.project.ID, models.RoleAssistant, FailureTurn); err != nil {
		log.Printf("Revision: project=%s failure turn not recorded: %v", r.project.ID, err)
	}

	r.enter(StateFailed)
	s.notify(models.EventRevisionFailed, r.project.ID, nil, FailureTurn)

	if refundErr != nil {
		log.Printf("Revision: refund failed: user=%s amount=%d error=%v", r.userID, s.cost, refundErr)
		return fmt.Errorf("%w: refund failed: %w", ErrInternal, errors.Join(refundErr, cause))
	}
	return cause
}
