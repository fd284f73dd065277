package generation

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
)

// Fake returns deterministic output for offline use. Enhancement requests
// echo the instruction; code requests return a small standalone page.
type Fake struct{}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Name() string { return "Fake" }

func (f *Fake) Complete(ctx context.Context, systemInstruction, userInstruction string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &TransportError{Provider: f.Name(), Err: err}
	}
	if systemInstruction == EnhanceSystemPrompt {
		return strings.TrimSpace(userInstruction), nil
	}
	return fmt.Sprintf("```html\n<!DOCTYPE html>\n<html>\n<head><script src=\"https://cdn.tailwindcss.com\"></script></head>\n"+
		"<body class=\"p-8\"><p class=\"text-gray-700\">%s</p></body>\n</html>\n```",
		html.EscapeString(lastLine(userInstruction))), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Reply is one scripted answer.
type Reply struct {
	Text string
	Err  error
}

// Call records one request made to a Scripted client.
type Call struct {
	System string
	User   string
}

// Scripted answers calls from a queue, in order. When the queue is empty
// it returns ErrEmptyOutput. Block, when set, is waited on before each
// answer so tests can hold a call in flight.
type Scripted struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call
	Block   chan struct{}
}

func NewScripted(replies ...Reply) *Scripted {
	return &Scripted{replies: replies}
}

func (s *Scripted) Name() string { return "Scripted" }

func (s *Scripted) Push(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Scripted) Complete(ctx context.Context, systemInstruction, userInstruction string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{System: systemInstruction, User: userInstruction})
	block := s.Block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", &TransportError{Provider: s.Name(), Err: ctx.Err()}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return "", ErrEmptyOutput
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	if r.Err != nil {
		return "", r.Err
	}
	if strings.TrimSpace(r.Text) == "" {
		return "", ErrEmptyOutput
	}
	return r.Text, nil
}
