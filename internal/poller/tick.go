package poller

import "sync"

// Tick is a counter that forces dependents to refetch. Bump increments it and
// wakes at most one waiter on C; a missed wake-up is fine because observers
// compare Value against what they last saw.
type Tick struct {
	mu sync.Mutex
	n  uint64
	ch chan struct{}
}

func NewTick() *Tick {
	return &Tick{ch: make(chan struct{}, 1)}
}

func (t *Tick) Bump() uint64 {
	t.mu.Lock()
	t.n++
	n := t.n
	t.mu.Unlock()
	select {
	case t.ch <- struct{}{}:
	default:
	}
	return n
}

func (t *Tick) Value() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n
}

func (t *Tick) C() <-chan struct{} { return t.ch }
