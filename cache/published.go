// Package cache keeps recently viewed published sites in memory.
package cache

import (
	"context"
	"fmt"
	"sitecraft/models"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultSize = 256

// SiteSource loads a published site from the store.
type SiteSource interface {
	GetPublishedSite(ctx context.Context, projectID uuid.UUID) (*models.PublishedSite, error)
}

// Published is a read-through LRU of published site code. Any project
// event evicts that project's entry; misses are not cached.
//
// A load that overlaps an event for the same project is returned to its
// caller but not cached, so an event can never be undone by a slow read.
type Published struct {
	source SiteSource
	sites  *lru.Cache[uuid.UUID, string]

	mu sync.Mutex
	// invalidations counts events per project while loads are in flight.
	invalidations map[uuid.UUID]uint64
	loading       map[uuid.UUID]int
}

func NewPublished(source SiteSource, size int) (*Published, error) {
	if size <= 0 {
		size = DefaultSize
	}
	sites, err := lru.New[uuid.UUID, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create published cache: %w", err)
	}
	return &Published{
		source:        source,
		sites:         sites,
		invalidations: make(map[uuid.UUID]uint64),
		loading:       make(map[uuid.UUID]int),
	}, nil
}

func (p *Published) Get(ctx context.Context, projectID uuid.UUID) (*models.PublishedSite, error) {
	if code, ok := p.sites.Get(projectID); ok {
		return &models.PublishedSite{ProjectID: projectID, Code: code}, nil
	}

	seen := p.beginLoad(projectID)
	site, err := p.source.GetPublishedSite(ctx, projectID)
	p.endLoad(projectID, seen, site, err)
	if err != nil {
		return nil, err
	}
	return site, nil
}

func (p *Published) beginLoad(projectID uuid.UUID) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading[projectID]++
	return p.invalidations[projectID]
}

// endLoad caches site only if no event for the project arrived since
// beginLoad.
func (p *Published) endLoad(projectID uuid.UUID, seen uint64, site *models.PublishedSite, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err == nil && p.invalidations[projectID] == seen {
		p.sites.Add(projectID, site.Code)
	}

	p.loading[projectID]--
	if p.loading[projectID] == 0 {
		delete(p.loading, projectID)
		delete(p.invalidations, projectID)
	}
}

// Notify evicts the project named by event.
func (p *Published) Notify(event models.ProjectEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loading[event.ProjectID] > 0 {
		p.invalidations[event.ProjectID]++
	}
	p.sites.Remove(event.ProjectID)
}

func (p *Published) Len() int {
	return p.sites.Len()
}
