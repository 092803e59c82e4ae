package actor

import "fmt"

// ExitReason is the 32-bit exit code of spec §3 and §7. Once set non-zero
// on an actor it is monotonic: the first reason sticks.
type ExitReason uint32

const (
	// NotExited is the zero value: the actor has not planned an exit.
	NotExited ExitReason = 0
	// Normal: the ordinary, non-error exit, set by Quit(Normal).
	Normal ExitReason = 1
	// UnhandledException: a handler panicked; the actor is killed and
	// linked actors are notified.
	UnhandledException ExitReason = 2
	// UnallowedReceive: an event-based actor invoked the blocking Receive.
	UnallowedReceive ExitReason = 3
	// MailboxClosed: a request arrived for a target whose mailbox had
	// already closed (the target exited, or is exiting concurrently).
	// Distinct from UnallowedReceive, which is a programmer-error fault
	// an actor raises against itself — this one is a delivery outcome a
	// requester observes about someone else.
	MailboxClosed ExitReason = 4
	// RemoteUnreachable: a link partner became unreachable via the
	// transport.
	RemoteUnreachable ExitReason = 0x101
	// UserDefined is the first reason code free for application use;
	// reasons at or above this value are never produced by the runtime
	// itself.
	UserDefined ExitReason = 0x10000
)

func (r ExitReason) String() string {
	switch r {
	case NotExited:
		return "not_exited"
	case Normal:
		return "normal"
	case UnhandledException:
		return "unhandled_exception"
	case UnallowedReceive:
		return "unallowed_receive"
	case MailboxClosed:
		return "mailbox_closed"
	case RemoteUnreachable:
		return "remote_unreachable"
	default:
		if r >= UserDefined {
			return fmt.Sprintf("user(0x%x)", uint32(r))
		}
		return fmt.Sprintf("reason(0x%x)", uint32(r))
	}
}

// ExitSignal is the system message synthesized for link notifications
// (spec §4.4's "(exit_signal, reason)" shape, §7 "Propagation policy").
// It is delivered as an ordinary one-slot Message so that an actor with
// trap_exit enabled, or one monitoring the exiting actor, receives it
// through its normal Behavior dispatch.
type ExitSignal struct {
	From   *PID
	Reason ExitReason
}

// timeoutSignal is the system message synthesized for a receive-timeout
// fire (spec §4.4's "(sync_timeout, id)" shape, §4.8). gen is compared
// against the actor's current tmoGen generation so stale fires
// self-filter.
type timeoutSignal struct {
	gen uint64
}

// requestTimeoutSignal is delivered to the requesting actor's own mailbox
// when a Request's Timeout elapses without a response (spec §4.3 "request
// timeout"). Routing it through the mailbox like any other envelope, rather
// than invoking the pending handler directly from the timer's own
// goroutine, keeps the single-active-execution-per-actor invariant intact:
// the handler still only ever runs as part of that actor's own dispatch
// step.
type requestTimeoutSignal struct {
	id MessageID
}

// RequestError is the error a synchronous Request's waiter observes when
// the target exits, or its mailbox closes, without a proper reply (spec §7
// "User-visible failures").
type RequestError struct {
	Reason ExitReason
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("actor: request failed: %s", e.Reason)
}
