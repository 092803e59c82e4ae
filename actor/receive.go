package actor

// awaitEnvelope blocks the calling goroutine until an envelope is ready
// for st or its mailbox has closed, used by both a detached actor's main
// loop (runDetached) and a nested Receive's wait (spec §4.4, §4.6): both
// park the same way, on the same mailbox, they just differ in who's
// asking for the next envelope and why.
func (rt *Runtime) awaitEnvelope(st *actorState) *envelope {
	for {
		if e := rt.popNext(st); e != nil {
			return e
		}
		if st.hasExited() {
			return nil
		}
		rt.armTimeoutIfAny(st)
		if !st.mb.tryBlock() {
			continue
		}
		st.setSched(schedBlocked)
		st.mb.block()
	}
}

// Receive blocks the calling actor until an envelope matching b arrives,
// first sweeping its own cache for one already parked there, then waiting
// on the mailbox (spec §4.4 "Nestable", §6 "receive(behavior)"). A handler
// running inside a Receive may call Receive again itself — nested receives
// are exactly how thread-backed and stackful-cooperative actors compose
// (spec §4.6) — because each call just blocks the actor's own goroutine
// one level deeper, the same way a normal function call would.
//
// Event-based actors have no private goroutine to block: the scheduler's
// worker pool would stall for every other actor sharing it. Calling
// Receive there is a programmer error (spec §4.4, §7 "unallowed_receive"):
// it takes the actor out with UnallowedReceive and returns immediately
// without running b at all.
func (c *Context) Receive(b Behavior) {
	if c.st.variant == variantEventBased {
		c.st.setReason(UnallowedReceive)
		return
	}
	c.rt.receiveNestable(c.st, b, c.hint)
}

// receiveNestable is Context.Receive's implementation for the thread-
// backed and stackful-cooperative variants.
func (rt *Runtime) receiveNestable(st *actorState, b Behavior, outer *handoff) {
	if e, ok := st.cache.take(func(e *envelope) bool {
		if e.marked {
			return false
		}
		_, match := b.find(e.message)
		return match
	}); ok {
		rt.runNestedClause(st, b, e, outer)
		return
	}

	for {
		e := rt.awaitEnvelope(st)
		if e == nil {
			return
		}

		h := &handoff{rt: rt}
		if rt.preDispatch(st, e, h) {
			releaseEnvelope(e)
			if h.next != nil {
				rt.sched.enqueue(h.next)
			}
			if st.hasExited() {
				return
			}
			continue
		}

		clause, ok := b.find(e.message)
		if !ok {
			st.cache.keep(e)
			if h.next != nil {
				rt.sched.enqueue(h.next)
			}
			continue
		}

		e.marked = true
		ctx := &Context{rt: rt, self: st.pid, st: st, sender: e.sender, msgID: e.id, hint: h}
		rt.invokeSafely(st, func() {
			clause.Run(ctx, e.message)
		})
		e.marked = false
		releaseEnvelope(e)
		if h.next != nil {
			rt.sched.enqueue(h.next)
		}
		return
	}
}

// runNestedClause runs clause against an envelope recovered from the
// cache (spec §4.4's cache sweep applied by a nested Receive), marking it
// for the duration so a Receive called from within clause's own handler
// cannot consume it a second time.
func (rt *Runtime) runNestedClause(st *actorState, b Behavior, e *envelope, outer *handoff) {
	clause, _ := b.find(e.message)
	e.marked = true
	ctx := &Context{rt: rt, self: st.pid, st: st, sender: e.sender, msgID: e.id, hint: outer}
	rt.invokeSafely(st, func() {
		clause.Run(ctx, e.message)
	})
	e.marked = false
	releaseEnvelope(e)
}
