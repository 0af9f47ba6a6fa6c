// Package connectivity reports network reachability and notifies on changes.
//
// The mutation queue uses the point-in-time check to decide whether a drain
// may run at all, and the change subscription to trigger a drain when the
// device comes back online.
package connectivity

// Observer is the connectivity surface the queue depends on.
type Observer interface {
	// Connected reports whether the network is reachable right now.
	Connected() bool

	// Subscribe registers fn to be called on every connectivity transition.
	// The returned cancel function removes the subscription; calling it more
	// than once is safe.
	Subscribe(fn func(online bool)) (cancel func())
}
