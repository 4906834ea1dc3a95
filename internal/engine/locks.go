package engine

import (
	"sync"
)

// goalLocks hands out one mutex per goal. Rules on different cadences can
// share a goal, so the goal-amount read-modify-write in the executor must be
// serialized per goal even though each batch processes rules sequentially.
type goalLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGoalLocks() *goalLocks {
	return &goalLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the goal's mutex and returns its unlock function.
func (l *goalLocks) Lock(goalID string) func() {
	l.mu.Lock()
	gl, ok := l.locks[goalID]
	if !ok {
		gl = &sync.Mutex{}
		l.locks[goalID] = gl
	}
	l.mu.Unlock()

	gl.Lock()
	return gl.Unlock
}
