package actor

import (
	"sync"
	"sync/atomic"
)

// registry is the runtime's name table and liveness counter (spec §3
// "Registry": "maps names to handles; tracks how many non-hidden actors are
// alive so the runtime can detect quiescence"). Hidden actors (spec §4.6)
// are tracked for name lookup but excluded from the liveness count.
type registry struct {
	mu      sync.RWMutex
	byName  map[string]*PID
	byID    map[uint64]*actorState
	live    int64 // atomic count of non-hidden, not-yet-exited actors
	drained chan struct{}
}

func newRegistry() *registry {
	return &registry{
		byName:  make(map[string]*PID),
		byID:    make(map[uint64]*actorState),
		drained: make(chan struct{}),
	}
}

// register records a freshly spawned actor. If name is non-empty it also
// becomes a lookup key (spec §3: "names are best-effort and not unique").
func (r *registry) register(pid *PID, st *actorState, name string) {
	r.mu.Lock()
	r.byID[pid.id] = st
	if name != "" {
		r.byName[name] = pid
	}
	r.mu.Unlock()

	if !st.hidden {
		if atomic.AddInt64(&r.live, 1) == 1 {
			r.mu.Lock()
			select {
			case <-r.drained:
				r.drained = make(chan struct{})
			default:
			}
			r.mu.Unlock()
		}
	}
}

// lookup resolves a registered name to its PID (spec §3 "Registry lookup").
func (r *registry) lookup(name string) (*PID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

func (r *registry) state(id uint64) (*actorState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.byID[id]
	return st, ok
}

// unregister removes a terminated actor from both tables and, if it wasn't
// hidden, decrements the liveness count — closing drained once it reaches
// zero (spec §3 "Quiescence": "the runtime is quiescent once every
// non-hidden actor has exited").
func (r *registry) unregister(pid *PID, name string, hidden bool) {
	r.mu.Lock()
	delete(r.byID, pid.id)
	if name != "" {
		if cur, ok := r.byName[name]; ok && cur.id == pid.id {
			delete(r.byName, name)
		}
	}
	r.mu.Unlock()

	if hidden {
		return
	}
	if atomic.AddInt64(&r.live, -1) == 0 {
		r.mu.Lock()
		select {
		case <-r.drained:
		default:
			close(r.drained)
		}
		r.mu.Unlock()
	}
}

// Quiescent reports whether every non-hidden actor has exited.
func (r *registry) Quiescent() bool {
	return atomic.LoadInt64(&r.live) == 0
}

// AwaitQuiescence blocks until the registry becomes quiescent or done is
// closed, whichever happens first (spec §3 "Quiescence").
func (r *registry) AwaitQuiescence(done <-chan struct{}) bool {
	if r.Quiescent() {
		return true
	}
	// drained is reassigned under r.mu by register (and closed by
	// unregister) whenever liveness toggles between zero and non-zero;
	// snapshot it under the same lock rather than reading the field
	// directly in the select below, or a concurrent register() racing
	// this call could hand the select a channel object that's already
	// being replaced.
	r.mu.RLock()
	drained := r.drained
	r.mu.RUnlock()
	select {
	case <-drained:
		return true
	case <-done:
		return false
	}
}
