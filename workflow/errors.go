package workflow

import (
	"errors"
	"fmt"
	"sitecraft/models"
)

// Error taxonomy surfaced to callers. Use errors.Is; the wrapped cause is
// for server-side logs only.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrGenerationFailure   = errors.New("generation failure")
	ErrInternal            = errors.New("internal error")
)

// classify maps a store error onto the taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrProjectNotFound), errors.Is(err, models.ErrVersionNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, models.ErrUserNotFound):
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case errors.Is(err, models.ErrInsufficientBalance):
		return fmt.Errorf("%w: %w", ErrInsufficientCredits, err)
	default:
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
}
