// Package events delivers project completion signals to connected clients.
package events

import (
	"context"
	"log"
	"sitecraft/models"
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

// Hub fans project events out to subscribers of that project. Publishing
// never blocks; a subscriber whose buffer is full loses its oldest event.
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	ch chan models.ProjectEvent
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[*subscriber]struct{})}
}

// Subscribe returns a channel of events for projectID. The channel is
// closed when ctx ends or the hub is closed.
func (h *Hub) Subscribe(ctx context.Context, projectID uuid.UUID) <-chan models.ProjectEvent {
	sub := &subscriber{ch: make(chan models.ProjectEvent, subscriberBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch
	}
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[*subscriber]struct{})
	}
	h.subs[projectID][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.unsubscribe(projectID, sub)
	}()

	return sub.ch
}

func (h *Hub) unsubscribe(projectID uuid.UUID, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[projectID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, projectID)
	}
	close(sub.ch)
}

// Notify publishes event to the project's subscribers.
func (h *Hub) Notify(event models.ProjectEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[event.ProjectID] {
		push(sub.ch, event)
	}
}

// Subscribers reports how many subscribers projectID has.
func (h *Hub) Subscribers(projectID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[projectID])
}

// Close closes every subscriber channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for projectID, set := range h.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(h.subs, projectID)
	}
	h.closed = true
}

func push(ch chan models.ProjectEvent, event models.ProjectEvent) {
	select {
	case ch <- event:
		return
	default:
	}
	select {
	case dropped := <-ch:
		log.Printf("Events: dropped event=%s project=%s", dropped.Type, dropped.ProjectID)
	default:
	}
	select {
	case ch <- event:
	default:
	}
}
