// Package syncloop re-fetches a project while a revision is outstanding so a
// client can refresh its view. It is display-only: the revision response
// stays the source of truth.
package syncloop

import (
	"context"
	"errors"
	"sitecraft/models"
	"time"
)

const DefaultInterval = 10 * time.Second

// ErrNoFetch is returned by Run when Fetch is nil.
var ErrNoFetch = errors.New("syncloop: Fetch is required")

type Poller struct {
	Interval time.Duration
	Fetch    func(ctx context.Context) (*models.ProjectDetail, error)

	// OnUpdate receives every successful fetch.
	OnUpdate func(*models.ProjectDetail)
	// OnError receives fetch errors; polling continues after them.
	OnError func(error)

	// StopWhenCode ends polling once the project has code. Use it for a
	// project that has never produced any.
	StopWhenCode bool
}

// Run fetches immediately and then once per interval until done is closed,
// ctx ends, or StopWhenCode is satisfied. It returns ctx.Err() when ctx
// ended the loop and nil otherwise.
func (p *Poller) Run(ctx context.Context, done <-chan struct{}) error {
	if p.Fetch == nil {
		return ErrNoFetch
	}

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	if p.poll(ctx) {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// done wins over a tick that fired at the same time.
			select {
			case <-done:
				return nil
			default:
			}
			if p.poll(ctx) {
				return nil
			}
		}
	}
}

// poll runs one fetch and reports whether polling should stop.
func (p *Poller) poll(ctx context.Context) bool {
	detail, err := p.Fetch(ctx)
	if err != nil {
		if ctx.Err() == nil && p.OnError != nil {
			p.OnError(err)
		}
		return false
	}
	if detail == nil {
		return false
	}

	if p.OnUpdate != nil {
		p.OnUpdate(detail)
	}
	return p.StopWhenCode && detail.HasCode()
}
