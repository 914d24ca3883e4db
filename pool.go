package taskgraph

import (
	"fmt"
	"sync"
)

// pageSize is the number of slots per pool page. Pages are allocated as a
// unit and never relocated, so growth leaves previously issued handles
// pointing at valid memory. The slot field of a Handle is 16 bits, which
// caps pageSize at 65536; 256 keeps pages small enough that a pool holding
// a handful of resources does not pay for thousands of empty slots.
const pageSize = 256

// slot holds one pooled value and the generation counter used to validate
// handles. The version changes only when the slot is reused after a Delete,
// never when the slot is first occupied.
type slot[T any] struct {
	value   T
	version uint64
	live    bool
}

// poolPage is a fixed-size block of slots. Pool keeps pages behind
// pointers so appending a new page never moves existing slots.
type poolPage[T any] struct {
	slots [pageSize]slot[T]
}

// Pool is a paged arena that owns values of type T and hands out
// generation-stamped handles for them.
//
// Deleted slots go onto a free list and are reused with their version
// incremented, so a stale handle held by a caller fails validation instead
// of aliasing the new occupant. Fresh slots are appended at a cursor,
// growing by one page at a time.
//
// Pool is safe for concurrent use: Add and Delete take the write lock,
// Get and Range take the read lock, matching the intended usage of many
// concurrent lookups against serialized mutation.
//
// The zero value is not usable; call [NewPool].
type Pool[T any] struct {
	mu sync.RWMutex

	pages []*poolPage[T]
	free  []Handle

	// Append cursor for slots that have never been occupied.
	currPage int
	currSlot int

	// live counts occupied slots for Len.
	live int
}

// NewPool creates an empty pool with one pre-allocated page.
func NewPool[T any]() *Pool[T] {
	return &Pool[T]{
		pages: []*poolPage[T]{{}},
	}
}

// Add inserts v into the pool, taking ownership, and returns its handle.
//
// A previously freed slot is preferred; its version is incremented so the
// returned handle differs from every handle previously issued for that
// slot. Otherwise a fresh slot is taken at the append cursor with version
// 0, allocating a new page when the current one is full. Add is amortized
// O(1) and never fails.
func (p *Pool[T]) Add(v T) Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.live++

	if n := len(p.free); n > 0 {
		h := p.free[n-1]
		p.free = p.free[:n-1]

		version := (h.version() + 1) & handleFieldMask
		s := &p.pages[h.page()].slots[h.slot()]
		s.value = v
		s.version = version
		s.live = true
		return newHandle(h.page(), h.slot(), version)
	}

	if p.currSlot == pageSize {
		p.pages = append(p.pages, &poolPage[T]{})
		p.currPage++
		p.currSlot = 0
	}

	s := &p.pages[p.currPage].slots[p.currSlot]
	s.value = v
	s.version = 0
	s.live = true

	h := newHandle(p.currPage, p.currSlot, 0)
	p.currSlot++
	return h
}

// Delete removes the value identified by h and returns it.
//
// The slot keeps its version number (reuse via Add increments from it) and
// h joins the free list. Returns [ErrStaleHandle] if the slot has been
// reused since h was issued, or [ErrInvalidHandle] if h does not refer to
// an occupied slot.
func (p *Pool[T]) Delete(h Handle) (T, error) {
	var zero T

	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.lookup(h)
	if err != nil {
		return zero, err
	}

	v := s.value
	s.value = zero // drop the reference so the GC can reclaim it
	s.live = false
	p.free = append(p.free, h)
	p.live--
	return v, nil
}

// Get returns the value identified by h without removing it.
// Fails with the same errors as [Pool.Delete] on stale or absent handles.
func (p *Pool[T]) Get(h Handle) (T, error) {
	var zero T

	p.mu.RLock()
	defer p.mu.RUnlock()

	s, err := p.lookup(h)
	if err != nil {
		return zero, err
	}
	return s.value, nil
}

// Len returns the number of live values in the pool.
func (p *Pool[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.live
}

// Range calls fn for every live value in the pool, in page/slot order,
// until fn returns false. The pool's read lock is held for the duration,
// so fn must not call Add or Delete on the same pool.
func (p *Pool[T]) Range(fn func(Handle, T) bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for pageIdx, page := range p.pages {
		for slotIdx := range page.slots {
			s := &page.slots[slotIdx]
			if !s.live {
				continue
			}
			if !fn(newHandle(pageIdx, slotIdx, s.version), s.value) {
				return
			}
		}
	}
}

// lookup resolves h to its slot, validating range, occupancy and version.
// Callers hold p.mu.
func (p *Pool[T]) lookup(h Handle) (*slot[T], error) {
	page, idx := h.page(), h.slot()
	if page >= len(p.pages) || idx >= pageSize {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandle, h)
	}
	s := &p.pages[page].slots[idx]
	if !s.live {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandle, h)
	}
	if s.version != h.version() {
		return nil, fmt.Errorf("%w: %v (slot at v=%d)", ErrStaleHandle, h, s.version)
	}
	return s, nil
}
