package actor

// step runs at most one dispatch cycle for st: it pops one envelope (or, if
// priority-aware, the highest-priority one available), routes system
// messages through preDispatch, and otherwise matches it against the
// current top-of-stack behavior (spec §4.1, §4.2, §4.7).
//
// It returns true after handling an envelope (the caller re-enqueues st for
// another step, which finds out whether anything is left) and false if the
// mailbox was empty, so the actor should now park, or the actor has exited.
func (rt *Runtime) step(st *actorState, h *handoff) (moreWork bool) {
	if st.hasExited() {
		rt.terminate(st)
		return false
	}

	e := rt.popNext(st)
	if e == nil {
		rt.armTimeoutIfAny(st)
		return false
	}

	if rt.preDispatch(st, e, h) {
		releaseEnvelope(e)
	} else {
		rt.dispatchToBehavior(st, e, h)
	}

	if st.hasExited() {
		rt.terminate(st)
		return false
	}
	return true
}

// popNext pops the next envelope for st: for an ordinary actor, straight
// off the mailbox; for a priority-aware one, through its two-level
// high/low split (spec §4.7 "Priority-aware variant"), which re-drains the
// mailbox into fresh sub-queues once both run dry.
func (rt *Runtime) popNext(st *actorState) *envelope {
	if st.prio != nil {
		return st.prio.next(st.mb)
	}
	return st.mb.tryPop()
}

// preDispatch recognizes and fully handles system-level envelopes — request
// responses, exit signals from a linked peer arriving for a non-trapping
// actor, and
// receive-timeout fires — so the ordinary behavior dispatch never sees
// them unless the actor opted in via TrapExit (spec §4.4, §4.8). It
// reports true if it consumed e itself.
func (rt *Runtime) preDispatch(st *actorState, e *envelope, h *handoff) bool {
	if e.id.IsResponse() {
		rt.resolvePending(st, e, h)
		return true
	}

	if sig, ok := messageIs[ExitSignal](e.message); ok {
		if !st.trapExit && sig.From != nil && st.linked.contains(sig.From) {
			// setReason here only; step()'s post-dispatch check drives
			// terminate() (and therefore this actor's own cascading
			// propagateExit) exactly once, regardless of which path set it.
			st.setReason(sig.Reason)
			return true
		}
		// trapping actors, and monitors of the exiting actor, see
		// ExitSignal through normal dispatch
		return false
	}

	if tmo, ok := messageIs[timeoutSignal](e.message); ok {
		if tmo.gen != st.tmoGen {
			return true // a stale fire from a superseded generation is swallowed
		}
		rt.runTimeoutClause(st, h)
		return true
	}

	if rtmo, ok := messageIs[requestTimeoutSignal](e.message); ok {
		rt.expirePending(st, rtmo.id, h)
		return true
	}

	return false
}

// expirePending resolves a timed-out pending request with a RequestError,
// unless it was already resolved by a genuine response that arrived first
// (spec §4.3 "idempotent delivery").
func (rt *Runtime) expirePending(st *actorState, id MessageID, h *handoff) {
	entry, ok := st.pending.resolve(id)
	if !ok {
		return
	}
	ctx := &Context{rt: rt, self: st.pid, st: st, hint: h}
	rt.invokeSafely(st, func() {
		entry.handler(ctx, Message{}, &RequestError{Reason: RemoteUnreachable})
	})
}

// runTimeoutClause invokes the current behavior's after(d) arm directly —
// it is reached only through a timeoutSignal, never through the ordinary
// clause list, since it carries no message payload to match against (spec
// §4.8).
func (rt *Runtime) runTimeoutClause(st *actorState, h *handoff) {
	b, ok := st.stack.current()
	if !ok || b.timeout == nil {
		return
	}
	ctx := &Context{rt: rt, self: st.pid, st: st, hint: h}
	rt.invokeSafely(st, func() {
		b.timeout.Run(ctx)
	})
}

// resolvePending looks the response envelope's correlation id up in st's
// pending table and invokes the stored continuation; a response with no
// matching entry (already resolved, or a duplicate) is dropped (spec §4.3
// "idempotent delivery").
func (rt *Runtime) resolvePending(st *actorState, e *envelope, h *handoff) {
	entry, ok := st.pending.resolve(e.id.requestID())
	if !ok {
		return
	}
	if entry.timeout != nil {
		entry.timeout.Stop()
	}
	ctx := &Context{rt: rt, self: st.pid, st: st, sender: e.sender, msgID: e.id, hint: h}
	rt.invokeSafely(st, func() {
		entry.handler(ctx, e.message, nil)
	})
}

// dispatchToBehavior finds the first clause in st's current behavior that
// matches e.message and runs it (spec §4.1 "clauses are tried in order;
// the first match wins"). An unmatched envelope is parked in st's cache
// rather than dropped (spec §4.4: "unmatched envelopes are also cached" —
// this package's Sequential mode, used by every event-based actor); it is
// reconsidered the next time Become/BecomeNested installs a new behavior
// (spec §4.4 "cache sweep"). Either way this call owns e's lifetime: a
// matched envelope is released once its handler returns, a cached one is
// retained by the cache instead.
func (rt *Runtime) dispatchToBehavior(st *actorState, e *envelope, h *handoff) {
	b, ok := st.stack.current()
	if !ok {
		releaseEnvelope(e)
		return
	}
	clause, ok := b.find(e.message)
	if !ok {
		st.cache.keep(e)
		return
	}
	ctx := &Context{rt: rt, self: st.pid, st: st, sender: e.sender, msgID: e.id, hint: h}
	rt.invokeSafely(st, func() {
		clause.Run(ctx, e.message)
	})
	releaseEnvelope(e)
}

// invokeSafely runs fn, converting an escaped panic into the
// UnhandledException exit (spec §3 "exit trigger: an escaped panic", §9:
// expressed as a recovered panic rather than the source's unchecked
// exception propagation, since Go has no exceptions to let escape).
func (rt *Runtime) invokeSafely(st *actorState, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			st.setReason(UnhandledException)
			rt.logger.Error("actor panic", "actor", st.pid.String(), "panic", r)
		}
	}()
	fn()
}

// armTimeoutIfAny schedules the current behavior's after(d) clause, if it
// has one and After reports ok, to fire as a timeoutSignal once the
// mailbox has gone idle for that long (spec §4.8). It is invoked by a
// variant's idle loop just before parking.
func (rt *Runtime) armTimeoutIfAny(st *actorState) {
	b, ok := st.stack.current()
	if !ok || b.timeout == nil {
		return
	}
	d, ok := b.timeout.After()
	if !ok {
		return
	}
	gen := st.nextTimeoutGen()
	rt.timers.after(d, func() {
		rt.send(nil, st.pid, MakeMessage(timeoutSignal{gen: gen}), nil)
	})
}
