package connectivity

import "sync"

// Manual is an Observer driven entirely by SetOnline calls.
//
// Used by tests and by the CLI's one-shot commands, where connectivity is
// asserted rather than observed.
type Manual struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(bool)
}

var _ Observer = (*Manual)(nil)

// NewManual creates a manual observer in the given initial state.
func NewManual(online bool) *Manual {
	return &Manual{online: online, subs: make(map[int]func(bool))}
}

// Connected reports the last state set via SetOnline.
func (m *Manual) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline updates the state and notifies subscribers on a transition.
// Setting the same state twice does not notify.
func (m *Manual) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	// Notify outside the lock so a subscriber can re-enter Connected().
	for _, fn := range fns {
		fn(online)
	}
}

// Subscribe registers fn for transition notifications.
func (m *Manual) Subscribe(fn func(online bool)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
		})
	}
}
