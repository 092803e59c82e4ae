package actor

import "time"

// Context is the handle a running handler uses to act as its actor: send,
// request, become a new behavior, link, monitor, or quit (spec §4
// throughout). A Context is only valid for the duration of the handler
// call that received it.
type Context struct {
	rt     *Runtime
	self   *PID
	st     *actorState
	sender *PID
	msgID  MessageID
	hint   *handoff
}

// Self returns this actor's own handle.
func (c *Context) Self() *PID { return c.self }

// Sender returns the sender of the message currently being handled, or nil
// for a message sent without a sender (spec §4.1 "Envelope").
func (c *Context) Sender() *PID { return c.sender }

// Send delivers an asynchronous, fire-and-forget message to target (spec
// §4.3 "send").
func (c *Context) Send(target *PID, values ...any) {
	c.rt.send(c.self, target, MakeMessage(values...), c.hint)
}

// Reply sends values back to the sender of the message currently being
// handled, correlated by the original message id if it was a request (spec
// §4.3 "reply").
func (c *Context) Reply(values ...any) {
	if c.sender == nil {
		return
	}
	c.rt.deliverResponse(c.self, c.sender, c.msgID, MakeMessage(values...), c.hint)
}

// SendHighPriority delivers an asynchronous message tagged for a
// priority-aware target's high sub-queue, processed ahead of any
// ordinary Send still waiting in its low sub-queue (spec §4.7
// "Priority-aware variant"). It has no effect on a target that isn't
// priority-aware — the tag is simply never consulted.
func (c *Context) SendHighPriority(target *PID, values ...any) {
	c.rt.deliver(c.self, target, priorityFlag, MakeMessage(values...), c.hint)
}

// Request sends values to target and returns a handle the caller chains a
// continuation onto via Then (spec §4.3 "request/then").
func (c *Context) Request(target *PID, values ...any) *RequestBuilder {
	return &RequestBuilder{ctx: c, target: target, msg: MakeMessage(values...)}
}

// RequestBuilder is the fluent continuation-attachment step of Context.Request.
type RequestBuilder struct {
	ctx     *Context
	target  *PID
	msg     Message
	timeout time.Duration
}

// Timeout bounds how long the request waits for a response before its
// handler is invoked with a RequestError (spec §4.3 "request timeout").
func (b *RequestBuilder) Timeout(d time.Duration) *RequestBuilder {
	b.timeout = d
	return b
}

// Then registers h as the continuation invoked when target replies, times
// out, or becomes unreachable (spec §4.3). Each Then call is independent;
// chained composition is just h1 calling ctx.Request(...).Then(h2) from
// inside its own body — no sentinel continuation type is required.
func (b *RequestBuilder) Then(h PendingHandler) {
	b.ctx.rt.request(b.ctx.self, b.target, b.msg, b.timeout, h, b.ctx.hint)
}

// Become replaces the actor's current top-of-stack behavior (spec §4.1
// "become"), then re-sweeps the receive cache: every envelope a previous
// behavior skipped gets restored to the mailbox so the new behavior sees
// it again, in original order, before anything newly arriving (spec §4.4
// "cache sweep ... whenever the actor installs a new behavior").
func (c *Context) Become(b Behavior) {
	c.st.stack.become(b)
	c.st.cache.drainInto(c.st.mb)
}

// BecomeNested pushes b as a new top behavior; a later UnbecomeNested
// reverts to the behavior beneath it (spec §4.1 "nested become"). Sweeps
// the receive cache the same way Become does.
func (c *Context) BecomeNested(b Behavior) {
	c.st.stack.becomeNested(b)
	c.st.cache.drainInto(c.st.mb)
}

// UnbecomeNested pops the current nested behavior off the stack, sweeping
// the receive cache against whatever behavior is newly exposed underneath
// (spec §4.4 "cache sweep").
func (c *Context) UnbecomeNested() {
	c.st.stack.unbecomeNested()
	c.st.cache.drainInto(c.st.mb)
}

// Quit terminates the actor with reason once the current handler returns
// (spec §3, §9: an explicit, monotonic result rather than a thrown
// exception).
func (c *Context) Quit(reason ExitReason) {
	c.st.setReason(reason)
}

// TrapExit toggles whether exit signals from linked peers arrive as
// ordinary ExitSignal messages (true) or terminate this actor directly
// (false, the default) — spec §4.4 "trap_exit".
func (c *Context) TrapExit(on bool) {
	c.st.trapExit = on
}

// Link establishes a bidirectional exit-propagation relationship with
// target (spec §4.4 "Links").
func (c *Context) Link(target *PID) {
	c.rt.link(c.self, target)
}

// Unlink removes a previously established link.
func (c *Context) Unlink(target *PID) {
	c.rt.unlink(c.self, target)
}

// Monitor establishes a one-way notification: this actor receives an
// ExitSignal when target exits, without target being affected by this
// actor's own exit (spec §4.4 "Monitors").
func (c *Context) Monitor(target *PID) {
	c.rt.monitor(c.self, target)
}

// Demonitor cancels a previously established monitor.
func (c *Context) Demonitor(target *PID) {
	c.rt.demonitor(c.self, target)
}

// DelaySend schedules values for asynchronous delivery to target after d
// elapses (spec §4.8 "delayed_send").
func (c *Context) DelaySend(d time.Duration, target *PID, values ...any) {
	c.rt.delaySend(c.self, target, d, MakeMessage(values...))
}

// Spawn creates a new actor as a child of the runtime (not of c.self —
// spec §3 draws no parent/child ownership relation between actors; Link
// explicitly if supervision is wanted).
func (c *Context) Spawn(opts SpawnOptions, name string, init Initializer) *PID {
	return c.rt.Spawn(opts, name, init)
}
