package vstbridge

import (
	"sync"
	"sync/atomic"
)

// Route selects the channel a call travels on
type Route uint8

const (
	RouteControl Route = iota // Control port, owner thread
	RouteAudio                // Audio port, every other thread
)

func (r Route) String() string {
	if r == RouteAudio {
		return "audio"
	}
	return "control"
}

// routeFor resolves the route for a call made on thread tid.
func routeFor(tid, owner int) Route {
	if tid == owner {
		return RouteControl
	}
	return RouteAudio
}

// reentrantMutex is a mutex the holding OS thread may lock again. A call
// that triggers a nested call on the same thread must not block on itself.
type reentrantMutex struct {
	mu    sync.Mutex
	owner atomic.Int64
	depth int
}

func (m *reentrantMutex) Lock() {
	tid := int64(threadID())
	if m.owner.Load() == tid {
		m.depth++
		return
	}
	m.mu.Lock()
	m.owner.Store(tid)
	m.depth = 1
}

func (m *reentrantMutex) Unlock() {
	m.depth--
	if m.depth == 0 {
		m.owner.Store(0)
		m.mu.Unlock()
	}
}
