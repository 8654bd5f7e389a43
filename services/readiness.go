package services

import "sync"

// Readiness is a set-once latch raised when startup ingestion succeeds.
// Create it with NewReadiness and pass it to whoever needs to read it.
type Readiness struct {
	once sync.Once
	done chan struct{}
}

func NewReadiness() *Readiness {
	return &Readiness{done: make(chan struct{})}
}

// MarkReady raises the latch. Later calls are no-ops.
func (r *Readiness) MarkReady() {
	r.once.Do(func() { close(r.done) })
}

func (r *Readiness) IsReady() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Done is closed once the latch is raised.
func (r *Readiness) Done() <-chan struct{} {
	return r.done
}
