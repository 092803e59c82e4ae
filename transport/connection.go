package transport

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/lguibr/actorcore/actor"
)

const readTimeout = 90 * time.Second

var errReadLoopExited = errors.New("transport: read loop exited")

// connArgs carries what a connActor needs at spawn time.
type connArgs struct {
	conn *websocket.Conn
	rt   *actor.Runtime
	done chan struct{}
}

// connActor is the per-connection forwarder: one actor per accepted
// socket, grounded on the teacher's ConnectionHandlerActor
// (server/connection_handler.go). It owns a dedicated read-loop goroutine
// — the same shape the actor runtime's own thread-backed variant uses for
// a blocking native call — and forwards every WireEnvelope it reads to
// the receiver named in it; anything sent to this actor's own PID is an
// outbound WireEnvelope written out to the socket.
type connActor struct {
	conn         *websocket.Conn
	addr         string
	stopReadLoop chan struct{}
	readExited   chan struct{}
	done         chan struct{}
	closeOnce    sync.Once
}

func newConnActor(a connArgs) *connActor {
	addr := "unknown"
	if a.conn != nil {
		addr = a.conn.RemoteAddr().String()
	}
	return &connActor{
		conn:         a.conn,
		addr:         addr,
		stopReadLoop: make(chan struct{}),
		readExited:   make(chan struct{}),
		done:         a.done,
	}
}

// Behavior installs the connection actor's single behavior and starts its
// read-loop goroutine. rt is the runtime the actor forwards inbound
// envelopes into.
func (c *connActor) Behavior(ctx *actor.Context, rt *actor.Runtime) actor.Behavior {
	self := ctx.Self()
	go c.readLoop(rt, self)
	return actor.NewBehavior(
		actor.On(func(_ *actor.Context, env WireEnvelope) {
			c.writeOut(env)
		}),
		actor.On(func(_ *actor.Context, r inboundRead) {
			c.forward(rt, r.env)
		}),
		actor.On(func(ctx *actor.Context, closed connClosed) {
			c.teardown(ctx, closed.err)
		}),
	)
}

// readLoop blocks reading JSON-framed WireEnvelope values off the socket
// and relays each into the connection actor's own mailbox, exactly the
// way the teacher's readLoop relays InternalReadLoopMsg back to its
// ConnectionHandlerActor instead of touching actor state directly from
// this goroutine.
func (c *connActor) readLoop(rt *actor.Runtime, self *actor.PID) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("transport: panic in read loop for %s: %v\n%s\n", c.addr, r, debug.Stack())
		}
		close(c.readExited)
		rt.Send(self, connClosed{err: errReadLoopExited})
	}()

	for {
		select {
		case <-c.stopReadLoop:
			return
		default:
		}
		if c.conn == nil {
			return
		}

		var env WireEnvelope
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		err := websocket.JSON.Receive(c.conn, &env)
		_ = c.conn.SetReadDeadline(time.Time{})
		if err != nil {
			return
		}
		rt.Send(self, inboundRead{env: env})
	}
}

// forward resolves env's receiver to a PID in rt's registry and delivers
// the envelope to it unmodified; an envelope whose receiver is not
// registered is dropped silently, without any reply to the peer.
func (c *connActor) forward(rt *actor.Runtime, env WireEnvelope) {
	target, ok := rt.Lookup(env.Receiver)
	if !ok {
		return
	}
	rt.Send(target, env)
}

// writeOut serializes env back out over the socket.
func (c *connActor) writeOut(env WireEnvelope) {
	if c.conn == nil {
		return
	}
	if err := websocket.JSON.Send(c.conn, env); err != nil {
		fmt.Printf("transport: write error for %s: %v\n", c.addr, err)
	}
}

// teardown stops the read loop, signals done, and quits the actor —
// grounded on ConnectionHandlerActor.cleanup/performCleanupActions.
func (c *connActor) teardown(ctx *actor.Context, _ error) {
	c.signalAndWaitForReadLoop()
	c.closeOnce.Do(func() {
		if c.done != nil {
			close(c.done)
		}
	})
	ctx.Quit(actor.Normal)
}

func (c *connActor) signalAndWaitForReadLoop() {
	select {
	case <-c.stopReadLoop:
		return
	default:
		close(c.stopReadLoop)
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	select {
	case <-c.readExited:
	case <-time.After(2 * time.Second):
		fmt.Printf("transport: timeout waiting for read loop to exit on %s\n", c.addr)
	}
}
