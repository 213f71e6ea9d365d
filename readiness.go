package mediatex

import (
	"sync"
	"sync/atomic"
)

// readiness is a one-shot flag. It is set by exactly one completion and
// read by any number of queries. Anything published before set is visible
// to a reader that observes isSet as true.
type readiness struct {
	ready atomic.Bool
	once  sync.Once
	ch    chan struct{}
}

func newReadiness() *readiness {
	return &readiness{ch: make(chan struct{})}
}

// set reports whether this call made the transition.
func (r *readiness) set() bool {
	transitioned := false
	r.once.Do(func() {
		r.ready.Store(true)
		close(r.ch)
		transitioned = true
	})
	return transitioned
}

func (r *readiness) isSet() bool {
	return r.ready.Load()
}

func (r *readiness) done() <-chan struct{} {
	return r.ch
}
