package session

import (
	"context"
	"sync"
)

// Scope is the lifetime of one mounted board view. Work started under the
// scope uses Context; results are applied through Deliver, which refuses once
// the scope has closed.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

func (s *Scope) Context() context.Context { return s.ctx }

// Deliver runs apply unless the scope has ended, and reports whether it ran.
// Close waits for a running apply to finish.
func (s *Scope) Deliver(apply func()) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.ctx.Err() != nil {
		return false
	}
	if apply != nil {
		apply()
	}
	return true
}

func (s *Scope) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed || s.ctx.Err() != nil
}

func (s *Scope) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}
