package triage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the cancel handles of running pipelines per user.
// Handles are added when a pipeline starts and removed when it finishes
// or is canceled.
type Registry struct {
	mu      sync.Mutex
	handles map[int64]map[string]context.CancelFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[int64]map[string]context.CancelFunc)}
}

// Start derives a cancelable context for one pipeline of userID. The returned
// release func must be called when the pipeline ends.
func (r *Registry) Start(parent context.Context, userID int64) (context.Context, string, func()) {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()

	r.mu.Lock()

	userHandles, ok := r.handles[userID]
	if !ok {
		userHandles = make(map[string]context.CancelFunc)
		r.handles[userID] = userHandles
	}

	userHandles[id] = cancel
	r.mu.Unlock()

	release := func() {
		cancel()
		r.remove(userID, id)
	}

	return ctx, id, release
}

func (r *Registry) remove(userID int64, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userHandles, ok := r.handles[userID]
	if !ok {
		return
	}

	delete(userHandles, id)

	if len(userHandles) == 0 {
		delete(r.handles, userID)
	}
}

// CancelUser cancels every running pipeline of userID and returns how many there were.
func (r *Registry) CancelUser(userID int64) int {
	r.mu.Lock()
	userHandles := r.handles[userID]
	delete(r.handles, userID)
	r.mu.Unlock()

	for _, cancel := range userHandles {
		cancel()
	}

	return len(userHandles)
}

// CancelAll cancels every running pipeline.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	all := r.handles
	r.handles = make(map[int64]map[string]context.CancelFunc)
	r.mu.Unlock()

	for _, userHandles := range all {
		for _, cancel := range userHandles {
			cancel()
		}
	}
}

// Count returns the number of running pipelines of userID.
func (r *Registry) Count(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.handles[userID])
}

// Size returns the number of running pipelines.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, userHandles := range r.handles {
		n += len(userHandles)
	}

	return n
}
