// Package transport is the one concrete external-transport adapter kept
// alongside the actor runtime core: a websocket listener that forwards
// already-serialized envelopes to and from actors by name (spec §6:
// "the transport is opaque to the core; it appears as an actor that
// forwards to/from the network"). It is an ordinary consumer of the
// actor package's public API, not part of the core itself.
package transport

import "encoding/json"

// WireEnvelope is the serialized envelope the transport moves to/from the
// network (spec §6: "{sender identity, receiver identity, message id,
// serialized message}"). Payload's own format is a caller concern — this
// package never looks inside it, it only routes by Sender/Receiver and
// carries ID for the caller's own request/response bookkeeping if it
// wants one.
type WireEnvelope struct {
	Sender   string          `json:"sender,omitempty"`
	Receiver string          `json:"receiver"`
	ID       uint64          `json:"id,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// inboundRead wraps one envelope read off the socket, handed from the
// read-loop goroutine to the connection actor's own mailbox.
type inboundRead struct {
	env WireEnvelope
}

// connClosed signals that the read loop has stopped, whether because the
// peer closed the connection or because teardown asked it to.
type connClosed struct {
	err error
}
