package queue

import (
	"context"
	"encoding/json"
	"sync"
)

// Handler replays one mutation with its original arguments.
//
// A nil error removes the mutation from the queue; any error counts as a
// failed attempt.
type Handler func(ctx context.Context, args json.RawMessage) error

// Registry maps handler names to functions.
//
// Registries are instance-scoped and injected into a Queue at construction,
// so independent queues (and tests) never share handler state. Names are
// unique; the last registration for a name wins, which is a documented risk
// rather than an error.
type Registry struct {
	mu       sync.Mutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds fn to name. Re-registering a name replaces the previous
// function silently.
func (r *Registry) Register(name string, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn, ok := r.handlers[name]
	return fn, ok
}
