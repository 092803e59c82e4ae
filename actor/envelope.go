package actor

// envelope is the mailbox element of spec §3: {sender handle, message id,
// message, internal link pointer, marked flag}. It is owned by the mailbox
// while queued and by the receive policy while being processed.
type envelope struct {
	sender  *PID
	id      MessageID
	message Message
	next    *envelope // intrusive link field for the mailbox's linked list
	marked  bool       // set while a nestable receive is invoking this envelope's handler
}

// Envelope is the read-only view of an envelope exposed through Context.
type Envelope struct {
	Sender  *PID
	ID      MessageID
	Message Message
}

func (e *envelope) view() Envelope {
	return Envelope{Sender: e.sender, ID: e.id, Message: e.message}
}
