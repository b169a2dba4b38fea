package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/nativeimage-mcp/internal/nimage"
)

// ErrUnknownHandle is returned for a handle id the server does not own.
var ErrUnknownHandle = errors.New("unknown handle")

// registry maps client-visible handle ids to live handles.
type registry struct {
	mu      sync.Mutex
	handles map[string]*nimage.Handle
}

func newRegistry() *registry {
	return &registry{handles: make(map[string]*nimage.Handle)}
}

func (r *registry) add(h *nimage.Handle) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.handles[id] = h
	r.mu.Unlock()
	return id
}

func (r *registry) get(id string) (*nimage.Handle, error) {
	r.mu.Lock()
	h, ok := r.handles[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownHandle, id)
	}
	return h, nil
}

func (r *registry) remove(id string) (*nimage.Handle, error) {
	r.mu.Lock()
	h, ok := r.handles[id]
	delete(r.handles, id)
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownHandle, id)
	}
	return h, nil
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// disposeAll empties the registry and disposes every handle in it.
func (r *registry) disposeAll() int {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]*nimage.Handle)
	r.mu.Unlock()

	for _, h := range handles {
		h.Dispose()
	}
	return len(handles)
}
