package actor

import "github.com/gammazero/deque"

// skipCache holds envelopes that the current behavior examined and did not
// match (parked by dispatchToBehavior and by receiveNestable), so they are
// not lost: Become, BecomeNested and UnbecomeNested restore them to the
// front of the mailbox in original order, and a nested Receive can take a
// matching one straight out of the cache. Built on gammazero/deque, the same
// ring-buffer-backed double-ended queue the corpus reaches for wherever it
// needs FIFO-with-requeue semantics, rather than a hand-rolled slice.
type skipCache struct {
	q deque.Deque[*envelope]
}

func newSkipCache() *skipCache {
	return &skipCache{}
}

// keep appends e to the cache, preserving arrival order.
func (c *skipCache) keep(e *envelope) {
	c.q.PushBack(e)
}

func (c *skipCache) len() int {
	return c.q.Len()
}

// drainInto pushes every cached envelope back onto the front of mb, in
// original arrival order, so the next reader sees them exactly as if they
// had never been removed.
func (c *skipCache) drainInto(mb *Mailbox) {
	for c.q.Len() > 0 {
		e := c.q.PopBack()
		mb.pushFront(e)
	}
}

// take scans the cache head-to-tail for the first envelope match accepts,
// removing it and leaving the rest in their original relative order (spec
// §4.4's cache sweep, applied by a nested Receive instead of Become: it
// re-examines what a narrower behavior skipped without disturbing anything
// else still waiting).
func (c *skipCache) take(match func(e *envelope) bool) (*envelope, bool) {
	n := c.q.Len()
	for i := 0; i < n; i++ {
		e := c.q.PopFront()
		if match(e) {
			return e, true
		}
		c.q.PushBack(e)
	}
	return nil, false
}
