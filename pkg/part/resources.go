package part

import (
	"sync"

	"github.com/chazu/steelframe/pkg/metrics"
)

// Handle identifies an allocated geometry/material resource.
type Handle uint64

// Resources is the device-side allocator behind part geometry. A renderer
// with a retained GPU model implements it to upload and free buffers.
// Release of an unknown or already released handle must be a no-op.
type Resources interface {
	Allocate(label string) Handle
	Release(h Handle)
}

// Pool is an in-process Resources implementation that tracks live handles.
// It is safe for concurrent use.
type Pool struct {
	mu     sync.Mutex
	next   Handle
	live   map[Handle]string
	double int
}

// Compile-time interface check.
var _ Resources = (*Pool)(nil)

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{live: make(map[Handle]string)}
}

// Allocate records a new live handle.
func (p *Pool) Allocate(label string) Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.live[p.next] = label
	metrics.ResourcesLive.Inc()
	return p.next
}

// Release frees h. Unknown handles are counted and otherwise ignored.
func (p *Pool) Release(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.live[h]; !ok {
		p.double++
		return
	}
	delete(p.live, h)
	metrics.ResourcesLive.Dec()
}

// Live returns the number of handles not yet released.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// IgnoredReleases returns how many releases referred to unknown handles.
func (p *Pool) IgnoredReleases() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.double
}
