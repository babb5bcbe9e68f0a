package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// chartCache keeps the latest Registry snapshot per org. Mutations publish
// a chart event and the module invalidates the affected org, so readers
// between mutations reuse the snapshot instead of re-listing the store.
type chartCache struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]cachedSnapshot
}

type cachedSnapshot struct {
	Reg  *Registry
	AsOf time.Time
}

func newChartCache() *chartCache {
	return &chartCache{snapshots: make(map[uuid.UUID]cachedSnapshot)}
}

func (c *chartCache) Get(orgID uuid.UUID) (*Registry, bool) {
	c.mu.RLock()
	snap, ok := c.snapshots[orgID]
	c.mu.RUnlock()
	recordCacheRequest(ok)
	if !ok {
		return nil, false
	}
	return snap.Reg, true
}

func (c *chartCache) Set(orgID uuid.UUID, reg *Registry) {
	if orgID == uuid.Nil || reg == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[orgID] = cachedSnapshot{Reg: reg, AsOf: time.Now().UTC()}
}

func (c *chartCache) Invalidate(orgID uuid.UUID, reason string) {
	if orgID == uuid.Nil {
		return
	}
	c.mu.Lock()
	delete(c.snapshots, orgID)
	c.mu.Unlock()
	recordCacheInvalidate(reason)
}
