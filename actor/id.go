package actor

import "sync/atomic"

// MessageID is the 64-bit correlator of spec §3 ("Message id"): zero means
// asynchronous/uncorrelated; bit 63 marks a request id, bit 62 marks its
// paired response id.
type MessageID uint64

const (
	requestFlag  MessageID = 1 << 63
	responseFlag MessageID = 1 << 62
	priorityFlag MessageID = 1 << 61
	idValueMask  MessageID = priorityFlag - 1
)

// IsRequest reports whether id was allocated by a synchronous send.
func (id MessageID) IsRequest() bool { return id&requestFlag != 0 }

// IsResponse reports whether id is the response-companion of a request id.
func (id MessageID) IsResponse() bool { return id&responseFlag != 0 }

// IsAsync reports whether id carries no request/response correlation (it
// may still carry the priority bit).
func (id MessageID) IsAsync() bool { return id&^priorityFlag == 0 }

// IsHighPriority reports whether id was marked for a priority-aware
// receiver's high sub-queue (spec §4.7 "Priority-aware variant"), grounded
// on cppa's message_id::is_high_priority bit.
func (id MessageID) IsHighPriority() bool { return id&priorityFlag != 0 }

// ResponseID flips a request id into its paired response id by clearing the
// request flag and setting the response flag (spec §3 "A request id...
// paired with a response id by flipping one bit").
func (id MessageID) ResponseID() MessageID {
	return (id &^ requestFlag) | responseFlag
}

// requestID recovers the original request id from its paired response id,
// the inverse of ResponseID, used to look a pending entry back up by the
// key it was stored under.
func (id MessageID) requestID() MessageID {
	return (id &^ responseFlag) | requestFlag
}

// requestCounter hands out fresh request ids from a per-actor monotonically
// increasing counter (spec §4.5).
type requestCounter struct{ next uint64 }

func (c *requestCounter) nextRequestID() MessageID {
	n := atomic.AddUint64(&c.next, 1)
	return MessageID(n)&idValueMask | requestFlag
}
