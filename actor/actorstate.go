package actor

import (
	"sync/atomic"
)

// schedState is the scheduler-visible lifecycle word of an actor (spec §5
// "Scheduling state"), used only for observability. The authoritative
// "should this actor be (re-)enqueued" signal is the scheduled field below,
// CAS'd in Runtime.ready and scheduler.release — schedState itself is never
// read to make a scheduling decision.
type schedState int32

const (
	schedBlocked schedState = iota
	schedReady
	schedPending
	schedDone
)

// actorState is the runtime-private bookkeeping record for one actor,
// distinct from the user-visible PID (spec §3, §5).
type actorState struct {
	pid   *PID
	mb    *Mailbox
	stack *behaviorStack
	cache *skipCache
	prio  *priorityQueues // non-nil only for a priority-aware actor (spec §4.7)

	reason uint32 // atomic ExitReason; NotExited until CAS'd once

	reqs      requestCounter
	pending   *pendingTable
	linked    linkSet
	monitors  linkSet
	trapExit  bool
	hidden    bool
	priority  bool
	variant   variantKind

	sched      int32 // atomic schedState
	terminated int32 // atomic bool; CAS'd once so terminate() runs exactly once

	// scheduled is the event-based variant's single-active-execution gate:
	// 0 means "not currently queued or running", 1 means "either sitting in
	// the scheduler's ready queue or actively running a step". A push only
	// enqueues the actor when it CASes this 0->1, and the worker that
	// leaves an actor idle clears it, re-checking the mailbox afterward
	// (see Runtime.ready and scheduler.runWorker) — this, not mailbox
	// emptiness, is what guarantees an actor is never run by two workers
	// at once.
	scheduled int32

	tmoGen uint64 // bumped whenever a new receive-timeout is armed
}

func newActorState(pid *PID, opts SpawnOptions, initial Behavior) *actorState {
	st := &actorState{
		pid:      pid,
		mb:       newMailbox(),
		stack:    newBehaviorStack(initial),
		cache:    newSkipCache(),
		pending:  newPendingTable(),
		linked:   newLinkSet(),
		monitors: newLinkSet(),
		hidden:   opts.Hidden,
		priority: opts.PriorityAware,
		variant:  opts.variant(),
	}
	if st.priority {
		st.prio = newPriorityQueues()
	}
	return st
}

// setReason CASes the exit reason from NotExited to r, returning true only
// for the caller that wins — the first reason is monotonic and sticks (spec
// §3, and §9's "explicit result propagation" in place of exceptions).
func (s *actorState) setReason(r ExitReason) bool {
	return atomic.CompareAndSwapUint32(&s.reason, uint32(NotExited), uint32(r))
}

func (s *actorState) exitReason() ExitReason {
	return ExitReason(atomic.LoadUint32(&s.reason))
}

func (s *actorState) hasExited() bool {
	return s.exitReason() != NotExited
}

func (s *actorState) setSched(v schedState) {
	atomic.StoreInt32(&s.sched, int32(v))
}

func (s *actorState) loadSched() schedState {
	return schedState(atomic.LoadInt32(&s.sched))
}

func (s *actorState) nextTimeoutGen() uint64 {
	s.tmoGen++
	return s.tmoGen
}
