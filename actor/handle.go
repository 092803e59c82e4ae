package actor

import "sync/atomic"

// PID is an owning handle to an actor (spec §3 "Actor handle"): equality is
// by identity, Retain increments the strong (live-handle) count and
// Release decrements it. Handles to a dead actor remain valid; deliveries
// to them simply fail rather than panicking.
//
// Go's garbage collector — not a manual refcount — is what actually
// reclaims a PID's memory (spec §9: "Replace [manual intrusive reference
// counting] with the language's standard shared-ownership primitive for
// actor handles"). The strong/weak counters below are kept only to make
// spec §3's data model observable and testable; they do not themselves
// trigger any cleanup. An actor ends only once an exit reason is set on it
// (an explicit Quit, a recovered panic, an unallowed Receive, or an exit
// signal from a linked peer); an empty Behavior does not end it.
type PID struct {
	id     uint64
	name   string
	state  *actorState
	strong *int32
	weak   *int32
}

func (p *PID) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.name
}

// Equal reports identity equality (spec §3: "Equality is by identity").
func (p *PID) Equal(o *PID) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.id == o.id
}

// Retain increments the strong reference count and returns the same
// handle, mirroring the source's copy-increments-refcount convention.
func (p *PID) Retain() *PID {
	if p != nil {
		atomic.AddInt32(p.strong, 1)
	}
	return p
}

// Release decrements the strong reference count.
func (p *PID) Release() {
	if p != nil {
		atomic.AddInt32(p.strong, -1)
	}
}

// StrongCount reports the current live-handle count (spec §3).
func (p *PID) StrongCount() int32 {
	if p == nil {
		return 0
	}
	return atomic.LoadInt32(p.strong)
}

// Addr is a weak handle: it refers to an actor's identity without keeping
// it alive and without participating in the strong refcount (spec §3
// "Actor handle": "A weak handle (address) refers to identity without
// keeping the actor alive.").
type Addr struct {
	id   uint64
	name string
}

func (a Addr) String() string { return a.name }

// Addr returns a weak handle to the same identity as p.
func (p *PID) Addr() Addr {
	if p == nil {
		return Addr{}
	}
	return Addr{id: p.id, name: p.name}
}
