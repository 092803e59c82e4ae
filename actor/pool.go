package actor

import "sync"

// envelopePool amortizes envelope allocation on the send hot path (spec §9:
// "retain the contract... express it as an explicit arena/pool abstraction
// rather than a typeid-keyed global map"). Unlike the source's per-message-
// type free lists, a single pool suffices here: Go's GC already reclaims
// whatever a pooled envelope references once it is cleared, so splitting
// the pool per payload type would only add bookkeeping without reducing
// allocations further.
var envelopePool = sync.Pool{New: func() any { return new(envelope) }}

func acquireEnvelope(sender *PID, id MessageID, msg Message) *envelope {
	e := envelopePool.Get().(*envelope)
	e.sender, e.id, e.message, e.next, e.marked = sender, id, msg, nil, false
	return e
}

func releaseEnvelope(e *envelope) {
	e.sender, e.message, e.next = nil, Message{}, nil
	envelopePool.Put(e)
}
