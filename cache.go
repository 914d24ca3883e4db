package taskgraph

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// DefaultPlanCacheCapacity is the default number of compiled plans a
// PlanCache retains.
const DefaultPlanCacheCapacity = 32

// PlanCache memoizes compiled plans, keyed by [Graph.Fingerprint].
//
// Compiling is a pure function of the declared accesses, so a frame that
// re-declares the same task list as the previous one can reuse the
// previous plan instead of re-running hazard detection and transitive
// reduction. Entries are evicted least-recently-used once the capacity is
// exceeded.
//
// PlanCache is safe for concurrent use.
type PlanCache struct {
	mu       sync.Mutex
	entries  map[uint64]*list.Element // fingerprint -> element
	lru      *list.List               // front = most recently used
	capacity int

	// Statistics (atomic for zero-allocation reads)
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// planEntry is one cached plan with its key.
type planEntry struct {
	fingerprint uint64
	plan        *Plan
}

// PlanCacheStats contains cache statistics for monitoring.
type PlanCacheStats struct {
	// Entries is the number of cached plans.
	Entries int
	// Hits is the number of cache hits.
	Hits uint64
	// Misses is the number of cache misses.
	Misses uint64
	// Evictions is the number of plans evicted.
	Evictions uint64
}

// NewPlanCache creates a plan cache retaining up to capacity plans.
// A capacity of zero or less uses [DefaultPlanCacheCapacity].
func NewPlanCache(capacity int) *PlanCache {
	if capacity <= 0 {
		capacity = DefaultPlanCacheCapacity
	}
	return &PlanCache{
		entries:  make(map[uint64]*list.Element),
		lru:      list.New(),
		capacity: capacity,
	}
}

// Compile returns the cached plan for g's fingerprint, compiling and
// caching it on a miss. Malformed graphs return the compile error and are
// not cached.
func (c *PlanCache) Compile(g *Graph) (*Plan, error) {
	key := g.Fingerprint()

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		plan := elem.Value.(*planEntry).plan
		c.mu.Unlock()
		c.hits.Add(1)
		return plan, nil
	}
	c.mu.Unlock()
	c.misses.Add(1)

	plan, err := g.Compile()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have compiled the same graph meanwhile; keep
	// the existing entry so concurrent callers converge on one plan.
	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*planEntry).plan, nil
	}

	elem := c.lru.PushFront(&planEntry{fingerprint: key, plan: plan})
	c.entries[key] = elem

	for c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*planEntry).fingerprint)
		c.evictions.Add(1)
	}
	return plan, nil
}

// Stats returns a snapshot of the cache statistics.
func (c *PlanCache) Stats() PlanCacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	return PlanCacheStats{
		Entries:   entries,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Clear removes all cached plans.
func (c *PlanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*list.Element)
	c.lru.Init()
}
