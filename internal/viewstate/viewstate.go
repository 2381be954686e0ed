// Package viewstate implements the idle, loading, ready and error life cycle
// shared by view controllers, with a generation counter that lets a
// controller discard the result of a superseded load.
package viewstate

import (
	"context"
	"sync"
)

// Status is the load state of a view.
type Status int

// Statuses.
const (
	Idle Status = iota
	Loading
	Ready
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	}
	return "unknown"
}

// Ticket identifies one load started by Begin.
type Ticket uint64

// Machine tracks the status of a view. It is safe for concurrent use.
type Machine struct {
	mu     sync.Mutex
	status Status
	err    error
	gen    Ticket
	cancel context.CancelFunc
}

// Begin moves the machine to Loading and returns a ticket plus a context
// derived from parent. Any earlier load is cancelled and its ticket becomes
// stale.
func (m *Machine) Begin(parent context.Context) (context.Context, Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel
	m.gen++
	m.status = Loading
	m.err = nil
	return ctx, m.gen
}

// Finish ends the load identified by t. It moves to Ready when err is nil
// and to Error otherwise. A stale ticket changes nothing and Finish returns
// false; the caller must then drop its result.
func (m *Machine) Finish(t Ticket, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t != m.gen || m.status != Loading {
		return false
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if err != nil {
		m.status = Error
		m.err = err
	} else {
		m.status = Ready
	}
	return true
}

// Current reports whether t is still the latest load and has not finished.
func (m *Machine) Current(t Ticket) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return t == m.gen && m.status == Loading
}

// Reset cancels any load in flight and returns to Idle.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.status = Idle
	m.err = nil
}

// Settle cancels a load in flight and moves to Ready, for a caller that
// already holds data newer than that load could return. It reports whether
// a load was cancelled; when none is in flight nothing changes.
func (m *Machine) Settle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != Loading {
		return false
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.status = Ready
	m.err = nil
	return true
}

// Status returns the current status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Err returns the error of the last failed load.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}
