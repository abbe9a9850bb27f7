package webhook

import (
	"context"
	"sync"
)

// HandlerFunc processes one verified event.
type HandlerFunc func(ctx context.Context, e Event) error

// Registry maps event kinds to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Kind]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Kind]HandlerFunc)}
}

// Register sets the handler for kind, replacing any previous one.
func (r *Registry) Register(kind Kind, h HandlerFunc) {
	if h == nil {
		panic("webhook: nil handler for " + string(kind))
	}
	r.mu.Lock()
	r.handlers[kind] = h
	r.mu.Unlock()
}

func (r *Registry) Lookup(kind Kind) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}
