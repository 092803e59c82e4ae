package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lguibr/actorcore/actor"
)

// Listener is the transport's acceptor: it spawns one connActor per
// accepted socket and tracks it by the connection's remote address, so
// another part of the application can address replies back to that
// socket (spec §6: "the transport... appears as an actor that forwards
// to/from the network"). Grounded on the teacher's Server/HandleSubscribe
// pairing in server/websocket.go and server/handlers.go.
type Listener struct {
	rt    *actor.Runtime
	mu    sync.Mutex
	conns map[string]*actor.PID
}

// New constructs a Listener that spawns connection actors into rt.
func New(rt *actor.Runtime) *Listener {
	return &Listener{rt: rt, conns: make(map[string]*actor.PID)}
}

// Handler returns a golang.org/x/net/websocket handler suitable for
// http.Handle: each accepted connection gets its own connActor, registered
// in rt under its remote address, and the handler blocks until that actor
// tears itself down — mirroring HandleSubscribe's own wait on its handler
// actor's done channel.
func (l *Listener) Handler() websocket.Handler {
	return func(ws *websocket.Conn) {
		name := ws.RemoteAddr().String()
		done := make(chan struct{})

		conn := newConnActor(connArgs{conn: ws, rt: l.rt, done: done})
		pid := l.rt.Spawn(actor.SpawnOptions{}, name, actor.BehaviorFunc(func(ctx *actor.Context) actor.Behavior {
			return conn.Behavior(ctx, l.rt)
		}))

		l.mu.Lock()
		l.conns[name] = pid
		l.mu.Unlock()

		<-done

		l.mu.Lock()
		delete(l.conns, name)
		l.mu.Unlock()
	}
}

// ServeMux registers the Listener's handler on mux at path, for embedding
// into a caller's own http.Server rather than owning one outright.
func (l *Listener) ServeMux(mux *http.ServeMux, path string) {
	mux.Handle(path, l.Handler())
}

// Lookup resolves an active connection's forwarder PID by the name it was
// registered under (its remote address).
func (l *Listener) Lookup(name string) (*actor.PID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pid, ok := l.conns[name]
	return pid, ok
}

// Serve runs an HTTP server bound to addr, serving this Listener's
// handler at path, until ctx is cancelled. It pairs the server's own
// goroutine with a watcher that calls Shutdown on cancellation through
// golang.org/x/sync/errgroup — the same coordination primitive the
// scheduler's worker pool uses for its own goroutines, applied here to
// the transport's accept loop instead.
func (l *Listener) Serve(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	l.ServeMux(mux, path)
	srv := &http.Server{Addr: addr, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown(context.Background())
	})
	g.Go(func() error {
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	return g.Wait()
}
