package actor

import "github.com/gammazero/deque"

// priorityQueues implements the priority-aware variant's two-level drain
// (spec §4.7 "Priority-aware variant"), grounded on cppa's
// policy::prioritizing: on first use in a scheduling epoch it pulls the
// actor's entire mailbox into a high and a low gammazero/deque, then serves
// every high-priority envelope before any low-priority one. The split is
// re-populated only once both queues have been fully drained, matching
// cppa's "populated during the first drain of the mailbox per scheduling
// epoch" rule rather than re-splitting on every pop.
type priorityQueues struct {
	high deque.Deque[*envelope]
	low  deque.Deque[*envelope]
}

func newPriorityQueues() *priorityQueues {
	return &priorityQueues{}
}

// next returns the next envelope to dispatch, refilling from mb when both
// sub-queues have run dry.
func (p *priorityQueues) next(mb *Mailbox) *envelope {
	if p.high.Len() == 0 && p.low.Len() == 0 {
		for {
			e := mb.tryPop()
			if e == nil {
				break
			}
			if e.id.IsHighPriority() {
				p.high.PushBack(e)
			} else {
				p.low.PushBack(e)
			}
		}
	}
	if p.high.Len() > 0 {
		return p.high.PopFront()
	}
	if p.low.Len() > 0 {
		return p.low.PopFront()
	}
	return nil
}

// hasWork reports whether either sub-queue still holds an envelope, without
// touching the mailbox — used by the scheduler's release/recheck dance so a
// priority-aware actor's still-cached low-priority backlog isn't mistaken
// for an idle mailbox.
func (p *priorityQueues) hasWork() bool {
	return p.high.Len() > 0 || p.low.Len() > 0
}
