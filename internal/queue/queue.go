package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/grocerly/grocerly/internal/connectivity"
	"github.com/grocerly/grocerly/internal/kv"
)

const (
	// DefaultCeiling is the maximum number of failed replay attempts before
	// a mutation is permanently dropped.
	DefaultCeiling = 5

	// DefaultSettleDelay is how long to wait after a reconnect before
	// draining, giving the link a moment to stabilize.
	DefaultSettleDelay = 250 * time.Millisecond

	// DefaultStorageKey is the kv key holding the serialized queue.
	DefaultStorageKey = "grocerly/mutation_queue"
)

// Queue is a durable, replayable queue of pending write operations.
//
// Thread-safety model:
//   - Enqueue, Drain, Clear, Pending: safe from any goroutine
//   - At most one drain pass runs at a time (atomic in-flight flag;
//     concurrent triggers no-op)
//   - The persisted blob is guarded by a mutex so a mutation enqueued while
//     a drain is replaying handlers is never lost by the survivor write
type Queue struct {
	store    kv.Store
	net      connectivity.Observer
	registry *Registry
	log      *slog.Logger

	key     string
	ceiling int
	settle  time.Duration
	hook    func() // cache invalidation, invoked after each successful replay
	newID   func() string
	now     func() time.Time

	draining atomic.Bool
	pmu      sync.Mutex // guards load/persist of the blob

	mu    sync.Mutex // guards unsub
	unsub func()
}

// Option configures a Queue.
type Option func(*Queue)

// WithRegistry injects a shared handler registry.
func WithRegistry(r *Registry) Option {
	return func(q *Queue) { q.registry = r }
}

// WithCeiling sets the maximum failed attempts before a mutation is dropped.
func WithCeiling(n int) Option {
	return func(q *Queue) {
		if n >= 1 {
			q.ceiling = n
		}
	}
}

// WithSettleDelay sets the post-reconnect delay before draining.
func WithSettleDelay(d time.Duration) Option {
	return func(q *Queue) {
		if d >= 0 {
			q.settle = d
		}
	}
}

// WithStorageKey sets the kv key the queue persists under.
func WithStorageKey(key string) Option {
	return func(q *Queue) { q.key = key }
}

// WithLogger sets the queue's logger.
func WithLogger(log *slog.Logger) Option {
	return func(q *Queue) { q.log = log }
}

// WithInvalidationHook sets a function invoked after each successful replay
// so stale cached reads can be refreshed.
func WithInvalidationHook(fn func()) Option {
	return func(q *Queue) { q.hook = fn }
}

// WithIDGenerator injects the mutation id generator. Tests use fixed ids.
func WithIDGenerator(fn func() string) Option {
	return func(q *Queue) { q.newID = fn }
}

// WithClock injects the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New creates a Queue persisting through store and gated by net.
func New(store kv.Store, net connectivity.Observer, opts ...Option) *Queue {
	q := &Queue{
		store:   store,
		net:     net,
		log:     slog.Default(),
		key:     DefaultStorageKey,
		ceiling: DefaultCeiling,
		settle:  DefaultSettleDelay,
		newID:   func() string { return uuid.Must(uuid.NewV7()).String() },
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.registry == nil {
		q.registry = NewRegistry()
	}
	return q
}

// RegisterHandler binds fn to name in the queue's registry.
// Last registration for a name wins.
func (q *Queue) RegisterHandler(name string, fn Handler) {
	q.registry.Register(name, fn)
}

// Enqueue appends a new mutation with a fresh id and zero attempts, and
// persists the updated list before returning.
//
// Durability contract: once Enqueue returns nil, a process restart before
// the next drain does not lose the mutation. Fails only if the persistence
// layer itself fails (*PersistenceError) or args cannot be serialized.
func (q *Queue) Enqueue(handler string, args any) (Mutation, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Mutation{}, fmt.Errorf("enqueue %s: marshal args: %w", handler, err)
	}

	m := Mutation{
		ID:        q.newID(),
		Handler:   handler,
		Args:      raw,
		CreatedAt: q.now().UTC(),
	}

	q.pmu.Lock()
	defer q.pmu.Unlock()

	items, err := q.load()
	if err != nil {
		return Mutation{}, err
	}
	if err := q.persist(append(items, m)); err != nil {
		return Mutation{}, err
	}

	q.log.Debug("mutation enqueued", "id", m.ID, "handler", handler)
	return m, nil
}

// Drain runs one replay pass over the persisted queue.
//
// Behavior:
//   - A drain already in flight makes this call an immediate no-op (nil).
//   - Offline: returns nil without touching the persisted queue.
//   - Per-item isolation: one handler's failure never aborts the pass.
//   - Success removes the item and fires the invalidation hook.
//   - Failure increments the attempt count; at the ceiling the item is
//     dropped and logged.
//   - Unregistered handler names are dropped with a distinct log outcome.
//   - Persistence failures abort the pass and propagate, leaving the
//     previously persisted list unchanged.
//
// The survivor list is written as one atomic replacement. Mutations
// enqueued while handlers were running are preserved by re-reading the blob
// before the replacement write.
func (q *Queue) Drain(ctx context.Context) error {
	if !q.draining.CompareAndSwap(false, true) {
		return nil
	}
	defer q.draining.Store(false)

	if !q.net.Connected() {
		return nil
	}

	q.pmu.Lock()
	items, err := q.load()
	q.pmu.Unlock()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	removed := make(map[string]struct{})
	failed := make(map[string]int)

	for _, m := range items {
		fn, ok := q.registry.Lookup(m.Handler)
		if !ok {
			q.log.Warn("dropping mutation: unregistered handler",
				"id", m.ID, "handler", m.Handler)
			removed[m.ID] = struct{}{}
			continue
		}

		if err := invokeHandler(ctx, fn, m); err != nil {
			next := m.Attempts + 1
			if next >= q.ceiling {
				q.log.Warn("dropping mutation: attempt ceiling reached",
					"id", m.ID, "handler", m.Handler, "attempts", next, "error", err)
				removed[m.ID] = struct{}{}
				continue
			}
			failed[m.ID] = next
			q.log.Debug("mutation replay failed, will retry",
				"id", m.ID, "handler", m.Handler, "attempts", next, "error", err)
			continue
		}

		q.log.Debug("mutation replayed", "id", m.ID, "handler", m.Handler)
		removed[m.ID] = struct{}{}
		if q.hook != nil {
			q.hook()
		}
	}

	q.pmu.Lock()
	defer q.pmu.Unlock()

	current, err := q.load()
	if err != nil {
		return err
	}
	survivors := make([]Mutation, 0, len(current))
	for _, m := range current {
		if _, ok := removed[m.ID]; ok {
			continue
		}
		if attempts, ok := failed[m.ID]; ok {
			m.Attempts = attempts
		}
		survivors = append(survivors, m)
	}
	return q.persist(survivors)
}

// Start triggers one immediate drain, then subscribes to connectivity
// changes: each offline-to-online transition schedules a drain after the
// settle delay. Calling Start while started is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.unsub != nil {
		q.mu.Unlock()
		return
	}
	q.unsub = q.net.Subscribe(func(online bool) {
		if !online {
			return
		}
		go func() {
			timer := time.NewTimer(q.settle)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			if err := q.Drain(ctx); err != nil {
				q.log.Error("drain after reconnect failed", "error", err)
			}
		}()
	})
	q.mu.Unlock()

	if err := q.Drain(ctx); err != nil {
		q.log.Error("initial drain failed", "error", err)
	}
}

// Stop unsubscribes from connectivity notifications.
// Idempotent; safe to call when not started.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.unsub != nil {
		q.unsub()
		q.unsub = nil
	}
}

// Clear unconditionally empties the persisted queue. Used for explicit
// resets such as logout, never by the drain logic.
func (q *Queue) Clear() error {
	q.pmu.Lock()
	defer q.pmu.Unlock()
	if err := q.store.Remove(q.key); err != nil {
		return &PersistenceError{Op: "clear", Err: err}
	}
	return nil
}

// Pending returns a copy of the currently persisted mutations.
func (q *Queue) Pending() ([]Mutation, error) {
	q.pmu.Lock()
	defer q.pmu.Unlock()
	return q.load()
}

// load reads and decodes the persisted list. A missing key is an empty
// queue. Callers must hold pmu.
func (q *Queue) load() ([]Mutation, error) {
	data, ok, err := q.store.Get(q.key)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	if !ok {
		return nil, nil
	}
	items, err := decodeMutations(data)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	return items, nil
}

// persist replaces the persisted list. Callers must hold pmu.
func (q *Queue) persist(items []Mutation) error {
	data, err := encodeMutations(items)
	if err != nil {
		return &PersistenceError{Op: "persist", Err: err}
	}
	if err := q.store.Set(q.key, data); err != nil {
		return &PersistenceError{Op: "persist", Err: err}
	}
	return nil
}

// invokeHandler runs a handler with panic isolation so one bad handler
// can't abort the drain pass.
func invokeHandler(ctx context.Context, fn Handler, m Mutation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", m.Handler, r)
		}
	}()
	return fn(ctx, m.Args)
}
