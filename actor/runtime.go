package actor

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// RuntimeConfig configures a Runtime (spec §5, §9 ambient configuration).
// DefaultRuntimeConfig mirrors the teacher's DefaultConfig()-constructor
// convention.
type RuntimeConfig struct {
	// Workers is the event-based scheduler's pool size; zero means
	// GOMAXPROCS.
	Workers int
	// MailboxCapacityHint is an advisory capacity kept in the
	// configuration only: Spawn does not read it, and mailboxes are
	// unbounded (spec §4.2).
	MailboxCapacityHint int
	// Logger receives structured runtime diagnostics (recovered handler
	// panics). A nil Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultRuntimeConfig returns the configuration new callers should start
// from.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Workers:             0,
		MailboxCapacityHint: 16,
		Logger:              slog.Default(),
	}
}

// Initializer is either a BodyFunc (the body-callable spawn style, spec §6)
// or a BehaviorFunc (the event-based style that returns its first
// Behavior). It is a marker interface rather than a plain func parameter
// so Spawn can accept either calling convention through one entry point.
type Initializer interface {
	initAs(ctx *Context) Behavior
}

// BodyFunc is a spawn initializer that runs once and never returns a
// Behavior of its own; whatever ctx.Become installs during its body becomes
// the actor's first Behavior. If it installs none, the actor keeps an empty
// Behavior and is not exited: it matches no ordinary message, but still
// handles responses to its own requests (Runtime.Request relies on this).
type BodyFunc func(ctx *Context)

func (f BodyFunc) initAs(ctx *Context) Behavior {
	f(ctx)
	b, _ := ctx.st.stack.current()
	return b
}

// BehaviorFunc is a spawn initializer that returns the actor's first
// Behavior directly (spec §6's event-based spawn style).
type BehaviorFunc func(ctx *Context) Behavior

func (f BehaviorFunc) initAs(ctx *Context) Behavior {
	return f(ctx)
}

// Runtime owns every actor's mailbox, the scheduler, the timer service,
// and the registry — the single object an application constructs to start
// using this package (spec §5 "Runtime").
type Runtime struct {
	cfg      RuntimeConfig
	logger   *slog.Logger
	registry *registry
	sched    *scheduler
	timers   *timerService
	nextID   uint64
	detached sync.WaitGroup // thread-backed and stackful-cooperative actor goroutines
	closed   int32
}

// NewRuntime constructs and starts a Runtime: its scheduler's worker pool
// is already running when this returns.
func NewRuntime(cfg RuntimeConfig) *Runtime {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	rt := &Runtime{
		cfg:      cfg,
		logger:   cfg.Logger,
		registry: newRegistry(),
		timers:   newTimerService(),
	}
	rt.sched = newScheduler(rt, cfg.Workers)
	return rt
}

// Lookup resolves a registered name to its PID (spec §3 "Registry
// lookup").
func (rt *Runtime) Lookup(name string) (*PID, bool) {
	return rt.registry.lookup(name)
}

// Quiescent reports whether every non-hidden actor has exited (spec §3
// "Quiescence").
func (rt *Runtime) Quiescent() bool {
	return rt.registry.Quiescent()
}

// Send delivers an asynchronous, fire-and-forget message to target from
// outside any actor (spec §6 "send(receiver, make_message(xs...))") — the
// entry point a driver program (or a test) uses to kick off a scenario
// without itself being an actor.
func (rt *Runtime) Send(target *PID, values ...any) {
	rt.send(nil, target, MakeMessage(values...), nil)
}

// SendHighPriority is Send's priority-tagged counterpart (spec §4.7),
// usable from outside any actor the same way Send is.
func (rt *Runtime) SendHighPriority(target *PID, values ...any) {
	rt.deliver(nil, target, priorityFlag, MakeMessage(values...), nil)
}

// Request issues a synchronous request to target from outside any actor,
// registering handler as its continuation (spec §6 "request(receiver,
// timeout, make_message(xs...))"). A zero timeout never expires.
//
// There is no mailbox or dispatch loop outside an actor for a response to
// land on, so this spawns a transient hidden actor (excluded from
// quiescence) to hold the pending-sync entry and run handler exactly as if
// the caller had issued the request from inside its own Receive — the same
// "ask pattern" shape other actor frameworks use for the same reason.
func (rt *Runtime) Request(target *PID, timeout time.Duration, handler PendingHandler, values ...any) {
	rt.Spawn(SpawnOptions{Hidden: true}, "", BodyFunc(func(ctx *Context) {
		b := ctx.Request(target, values...)
		if timeout > 0 {
			b = b.Timeout(timeout)
		}
		b.Then(func(c *Context, m Message, err error) {
			handler(c, m, err)
			c.Quit(Normal)
		})
	}))
}

// Spawn creates a new actor running init and returns its handle (spec §6
// "Spawn"). name may be empty; opts.variant() selects the thread-backed,
// stackful-cooperative, or event-based execution strategy (spec §4.6).
func (rt *Runtime) Spawn(opts SpawnOptions, name string, init Initializer) *PID {
	id := atomic.AddUint64(&rt.nextID, 1)
	strong := int32(1)
	pid := &PID{id: id, name: name, strong: &strong, weak: new(int32)}

	st := newActorState(pid, opts, Behavior{})
	pid.state = st

	// Claim the scheduled token before the actor becomes reachable: a
	// sender who looks it up mid-init must find ready()'s CAS already
	// lost, so it only enqueues its message rather than racing this
	// Spawn's own initial enqueue (see Runtime.ready's invariant).
	if st.variant == variantEventBased {
		st.scheduled = 1
	}
	rt.registry.register(pid, st, name)

	switch st.variant {
	case variantEventBased:
		rt.runInit(st, init)
		rt.sched.enqueue(st)
	case variantStackfulCooperative, variantThreadBacked:
		rt.detached.Add(1)
		go rt.runDetached(st, init)
	}

	return pid
}

// runInit runs an actor's Initializer synchronously on the spawning
// goroutine to install its first Behavior, before the actor is ever handed
// to the scheduler. The actor is already registered (and so reachable by
// name) while this runs; messages sent meanwhile wait in its mailbox.
func (rt *Runtime) runInit(st *actorState, init Initializer) {
	ctx := &Context{rt: rt, self: st.pid, st: st}
	rt.invokeSafely(st, func() {
		st.stack.become(init.initAs(ctx))
	})
	if st.stack.isEmpty() {
		st.setReason(Normal)
	}
}

// runDetached backs the thread-backed and stackful-cooperative variants: a
// dedicated goroutine that blocks natively on its own mailbox instead of
// being scheduled onto the shared worker pool (spec §4.6, and spec §9:
// "prefer the host language's own cheap asynchronous tasks... over a
// hand-rolled fiber/stack-switching implementation" — a goroutine already
// is that cheap suspendable task, so both variants are rendered the same
// way here and differ only in their registry/detached-lifecycle metadata).
func (rt *Runtime) runDetached(st *actorState, init Initializer) {
	defer rt.detached.Done()
	ctx := &Context{rt: rt, self: st.pid, st: st}
	rt.invokeSafely(st, func() {
		st.stack.become(init.initAs(ctx))
	})

	for !st.hasExited() {
		e := rt.awaitEnvelope(st)
		if e == nil {
			break
		}
		h := &handoff{rt: rt}
		if rt.preDispatch(st, e, h) {
			releaseEnvelope(e)
		} else {
			rt.dispatchToBehavior(st, e, h)
		}
		if h.next != nil {
			rt.sched.enqueue(h.next)
		}
	}
	rt.terminate(st)
}

// send delivers msg asynchronously from sender to target with the
// uncorrelated id (spec §4.3 "send"). hint, if non-nil, lets the scheduler
// keep a chained sender/receiver pair on the same worker instead of
// bouncing target through the shared queue.
func (rt *Runtime) send(sender, target *PID, msg Message, hint *handoff) {
	rt.deliver(sender, target, 0, msg, hint)
}

// deliverResponse answers reqID on behalf of self, addressed back to
// target, flipping reqID into its paired response id (spec §4.3 "reply").
func (rt *Runtime) deliverResponse(self, target *PID, reqID MessageID, msg Message, hint *handoff) {
	if reqID.IsAsync() {
		rt.deliver(self, target, 0, msg, hint)
		return
	}
	rt.deliver(self, target, reqID.ResponseID(), msg, hint)
}

// deliver is the single low-level enqueue path every send, reply, and
// request funnels through.
func (rt *Runtime) deliver(sender, target *PID, id MessageID, msg Message, hint *handoff) {
	if target == nil || target.state == nil {
		return
	}
	e := acquireEnvelope(sender, id, msg)
	switch target.state.mb.push(e) {
	case pushClosed:
		releaseEnvelope(e)
		if id.IsRequest() {
			rt.bounceRequest(sender, id, MailboxClosed)
		}
	default:
		// pushFirstEnqueued or pushEnqueued: either way there is now at
		// least one envelope queued. Whether that actually needs to
		// (re-)activate the actor is decided by the scheduled-flag CAS in
		// ready, not by which of the two push reported — relying on
		// mailbox emptiness alone would let a push that lands in the
		// narrow window after a worker's own tryPop, but before that
		// worker has finished its step, enqueue the same actor onto a
		// second worker (spec §5's "at most one active execution per
		// actor").
		rt.ready(target.state, hint)
	}
}

// ready activates st for its next dispatch step, but only if it isn't
// already queued or running: the CAS on st.scheduled is what actually
// enforces spec §5's single-active-execution invariant, not mailbox
// emptiness (see deliver's comment). Detached actors don't participate —
// Mailbox.push already woke their parked reader directly.
func (rt *Runtime) ready(st *actorState, hint *handoff) {
	if st.variant != variantEventBased {
		return
	}
	if !atomic.CompareAndSwapInt32(&st.scheduled, 0, 1) {
		return
	}
	if hint != nil {
		hint.offer(st)
		return
	}
	rt.sched.enqueue(st)
}

// request allocates a fresh request id, registers handler as the
// continuation for it, optionally arms a timeout, and sends msg to target
// (spec §4.3 "request/then", "request timeout").
func (rt *Runtime) request(self, target *PID, msg Message, timeout time.Duration, handler PendingHandler, hint *handoff) {
	st := self.state
	id := st.reqs.nextRequestID()
	entry := &pendingEntry{id: id, handler: handler}
	if timeout > 0 {
		entry.timeout = rt.timers.after(timeout, func() {
			rt.send(nil, self, MakeMessage(requestTimeoutSignal{id: id}), nil)
		})
	}
	st.pending.add(entry)
	rt.deliver(self, target, id, msg, hint)
}

// bounceRequest synthesizes a failure response for a request whose target
// mailbox was already closed (spec §4.2, §7 "User-visible failures").
func (rt *Runtime) bounceRequest(sender *PID, id MessageID, reason ExitReason) {
	if sender == nil || sender.state == nil {
		return
	}
	st := sender.state
	entry, ok := st.pending.resolve(id)
	if !ok {
		return
	}
	if entry.timeout != nil {
		entry.timeout.Stop()
	}
	ctx := &Context{rt: rt, self: sender, st: st}
	rt.invokeSafely(st, func() {
		entry.handler(ctx, Message{}, &RequestError{Reason: reason})
	})
}

// delaySend schedules msg for delivery to target after d elapses (spec
// §4.8 "delayed_send").
func (rt *Runtime) delaySend(sender, target *PID, d time.Duration, msg Message) {
	rt.timers.after(d, func() {
		rt.send(sender, target, msg, nil)
	})
}

// link establishes a bidirectional exit-propagation relationship (spec
// §4.4 "Links").
func (rt *Runtime) link(a, b *PID) {
	if a == nil || b == nil || a.state == nil || b.state == nil {
		return
	}
	a.state.linked.add(b)
	b.state.linked.add(a)
}

func (rt *Runtime) unlink(a, b *PID) {
	if a == nil || b == nil || a.state == nil || b.state == nil {
		return
	}
	a.state.linked.remove(b)
	b.state.linked.remove(a)
}

// monitor establishes a one-way exit notification from target to watcher
// (spec §4.4 "Monitors").
func (rt *Runtime) monitor(watcher, target *PID) {
	if watcher == nil || target == nil || target.state == nil {
		return
	}
	target.state.monitors.add(watcher)
}

func (rt *Runtime) demonitor(watcher, target *PID) {
	if watcher == nil || target == nil || target.state == nil {
		return
	}
	target.state.monitors.remove(watcher)
}

// propagateExit notifies every linked peer and monitor of st's exit (spec
// §4.4 "Propagation policy"): linked peers that are not trapping exit are
// themselves killed with the same reason (cascading), trapping peers and
// all monitors simply receive an ExitSignal message.
func (rt *Runtime) propagateExit(st *actorState, reason ExitReason) {
	for _, peer := range st.linked.snapshot() {
		rt.send(st.pid, peer, MakeMessage(ExitSignal{From: st.pid, Reason: reason}), nil)
	}
	for _, watcher := range st.monitors.snapshot() {
		rt.send(st.pid, watcher, MakeMessage(ExitSignal{From: st.pid, Reason: reason}), nil)
	}
}

// terminate runs once, when an actor's reason first becomes non-zero
// (spec §3 "Termination"): it closes its mailbox (bouncing any
// request-kind envelopes still queued), propagates the exit to
// links/monitors, cancels any still-outstanding requests the actor itself
// made, and unregisters it. Closing first means a peer reacting to the
// ExitSignal always finds the mailbox already closed.
func (rt *Runtime) terminate(st *actorState) {
	if !atomic.CompareAndSwapInt32(&st.terminated, 0, 1) {
		return
	}
	reason := st.exitReason()
	st.mb.close(reason, func(e *envelope, r ExitReason) {
		rt.bounceRequest(e.sender, e.id, r)
	})
	rt.propagateExit(st, reason)
	st.pending.cancelAll(func(e *pendingEntry) {
		if e.timeout != nil {
			e.timeout.Stop()
		}
		ctx := &Context{rt: rt, self: st.pid, st: st}
		rt.invokeSafely(st, func() {
			e.handler(ctx, Message{}, &RequestError{Reason: reason})
		})
	})
	rt.registry.unregister(st.pid, st.pid.name, st.hidden)
}

// AwaitQuiescence blocks until every non-hidden actor has exited, or done
// is closed (spec §3 "Quiescence").
func (rt *Runtime) AwaitQuiescence(done <-chan struct{}) bool {
	return rt.registry.AwaitQuiescence(done)
}

// Shutdown stops the worker pool, cancels all pending timers, and waits
// for any thread-backed/stackful-cooperative actor goroutines to return.
// It does not itself terminate still-running actors; callers that need a
// clean stop should quiesce first.
func (rt *Runtime) Shutdown() {
	if !atomic.CompareAndSwapInt32(&rt.closed, 0, 1) {
		return
	}
	rt.sched.shutdown()
	rt.timers.closeAll()
	rt.detached.Wait()
}
