// Package critsec provides the critical section that serializes engine
// creation, setup reads and teardown, and a scoped guard for it.
package critsec

import (
	"sync"
	"sync/atomic"
)

// CriticalSection is a mutual-exclusion primitive with a terminal disposed
// state. Once disposed, Enter and Leave are no-ops: they never block and never
// release twice. Must not be copied after first use.
type CriticalSection struct {
	mu       sync.Mutex
	disposed atomic.Bool
}

// New returns a ready-to-use critical section.
func New() *CriticalSection {
	return &CriticalSection{}
}

// Enter blocks until exclusive access is obtained, or returns immediately if
// the critical section has been disposed.
func (cs *CriticalSection) Enter() {
	cs.enter()
}

// enter reports whether it took the mutex.
func (cs *CriticalSection) enter() bool {
	if cs.disposed.Load() {
		return false
	}
	cs.mu.Lock()
	return true
}

// Leave releases exclusive access. No-op once disposed.
func (cs *CriticalSection) Leave() {
	if cs.disposed.Load() {
		return
	}
	cs.mu.Unlock()
}

// Dispose moves the critical section to its disposed state. The flag is set
// before anything else so that racing Enter/Leave calls take the no-op path.
// A Guard that took the mutex still unlocks it on Release, so goroutines
// parked in Acquire are let through. A bare Enter/Leave pair does not get
// that; its Leave is a no-op and a goroutine parked in Enter stays parked.
func (cs *CriticalSection) Dispose() {
	cs.disposed.Store(true)
}

// Disposed reports whether Dispose has been called.
func (cs *CriticalSection) Disposed() bool {
	return cs.disposed.Load()
}

// Guard holds a critical section for the duration of a scope.
//
//	defer critsec.Acquire(cs).Release()
type Guard struct {
	_        noCopy
	cs       *CriticalSection
	locked   bool
	released bool
}

// Acquire enters cs and returns a guard that leaves it on Release.
func Acquire(cs *CriticalSection) *Guard {
	return &Guard{cs: cs, locked: cs.enter()}
}

// Release leaves the critical section. Only the first call has an effect.
// A guard that took the mutex unlocks it even if cs was disposed meanwhile.
func (g *Guard) Release() {
	if g.released {
		return
	}
	g.released = true
	if g.locked {
		g.cs.mu.Unlock()
	}
}

// noCopy lets go vet's copylocks check flag copies of a Guard.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
