package generation

import (
	"context"
	"errors"
	"fmt"
)

// Client is a single-turn, stateless text generation capability.
// Implementations do not retry.
type Client interface {
	Name() string
	Complete(ctx context.Context, systemInstruction, userInstruction string) (string, error)
}

// ErrEmptyOutput means the provider answered but produced no text.
var ErrEmptyOutput = errors.New("generation returned empty output")

// TransportError means the provider could not be reached or its answer
// could not be read. It is kept distinct from ErrEmptyOutput so callers
// can treat the two differently.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err came from the provider transport.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
