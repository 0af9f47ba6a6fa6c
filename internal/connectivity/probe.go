package connectivity

import (
	"net"
	"sync"
	"time"
)

const (
	// DefaultProbeTimeout bounds a single reachability dial.
	DefaultProbeTimeout = 2 * time.Second
	// DefaultProbeInterval is how often the background loop re-checks.
	DefaultProbeInterval = 5 * time.Second
)

// Probe is an Observer that checks reachability by dialing a TCP address.
//
// Connected dials synchronously for a point-in-time answer. A background
// loop polls at a fixed interval and notifies subscribers on edge
// transitions only (offline to online, online to offline).
type Probe struct {
	addr     string
	timeout  time.Duration
	interval time.Duration

	mu     sync.Mutex
	known  bool // whether `online` has been observed at least once
	online bool
	nextID int
	subs   map[int]func(bool)

	done chan struct{}
	once sync.Once
}

var _ Observer = (*Probe)(nil)

// NewProbe creates a probe against addr (host:port) and starts its polling
// loop. Close must be called to stop the loop.
func NewProbe(addr string, interval time.Duration) *Probe {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	p := &Probe{
		addr:     addr,
		timeout:  DefaultProbeTimeout,
		interval: interval,
		subs:     make(map[int]func(bool)),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

// Connected dials the probe address and reports reachability.
func (p *Probe) Connected() bool {
	online := p.dial()
	p.observe(online)
	return online
}

// Subscribe registers fn for transition notifications.
func (p *Probe) Subscribe(fn func(online bool)) (cancel func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs, id)
		})
	}
}

// Close stops the polling loop. Idempotent.
func (p *Probe) Close() {
	p.once.Do(func() { close(p.done) })
}

func (p *Probe) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.observe(p.dial())
		}
	}
}

func (p *Probe) dial() bool {
	conn, err := net.DialTimeout("tcp", p.addr, p.timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// observe records a reachability sample and notifies on transitions.
func (p *Probe) observe(online bool) {
	p.mu.Lock()
	if p.known && p.online == online {
		p.mu.Unlock()
		return
	}
	first := !p.known
	p.known = true
	p.online = online
	fns := make([]func(bool), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	// The very first sample establishes a baseline; it is not a transition.
	if first {
		return
	}
	for _, fn := range fns {
		fn(online)
	}
}
