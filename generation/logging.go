package generation

import (
	"context"
	"log"
	"time"
)

// WithLogging logs request size, latency and errors. Provide a custom
// logger or nil to use log.Default().
func WithLogging(next Client, logger *log.Logger) Client {
	if logger == nil {
		logger = log.Default()
	}
	return &logging{next: next, log: logger}
}

type logging struct {
	next Client
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }

func (l *logging) Complete(ctx context.Context, systemInstruction, userInstruction string) (string, error) {
	start := time.Now()
	l.log.Printf("Generation request (%s): %d bytes", l.next.Name(), len(systemInstruction)+len(userInstruction))

	text, err := l.next.Complete(ctx, systemInstruction, userInstruction)
	if err != nil {
		l.log.Printf("Generation error (%s): duration=%v err=%v", l.next.Name(), time.Since(start), err)
		return text, err
	}

	l.log.Printf("Generation response (%s): duration=%v bytes=%d", l.next.Name(), time.Since(start), len(text))
	return text, nil
}
