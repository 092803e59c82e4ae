package transport

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/lguibr/actorcore/actor"
)

func dial(t *testing.T, s *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(s.URL, "http")
	ws, err := websocket.Dial(wsURL, "", s.URL)
	require.NoError(t, err)
	return ws
}

func TestListener_ForwardsInboundEnvelopeToNamedReceiver(t *testing.T) {
	rt := actor.NewRuntime(actor.DefaultRuntimeConfig())
	defer rt.Shutdown()

	received := make(chan WireEnvelope, 1)
	rt.Spawn(actor.SpawnOptions{}, "echo", actor.BehaviorFunc(func(ctx *actor.Context) actor.Behavior {
		return actor.NewBehavior(actor.On(func(_ *actor.Context, env WireEnvelope) {
			received <- env
		}))
	}))

	l := New(rt)
	s := httptest.NewServer(l.Handler())
	defer s.Close()

	ws := dial(t, s)
	defer ws.Close()

	payload, _ := json.Marshal(map[string]string{"hello": "world"})
	require.NoError(t, websocket.JSON.Send(ws, WireEnvelope{Receiver: "echo", Payload: payload}))

	select {
	case env := <-received:
		assert.Equal(t, "echo", env.Receiver)
		assert.JSONEq(t, `{"hello":"world"}`, string(env.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarded envelope")
	}
}

func TestListener_WritesOutboundEnvelopeToSocket(t *testing.T) {
	rt := actor.NewRuntime(actor.DefaultRuntimeConfig())
	defer rt.Shutdown()

	l := New(rt)
	s := httptest.NewServer(l.Handler())
	defer s.Close()

	ws := dial(t, s)
	defer ws.Close()

	// Give the Handler goroutine a moment to register the connection actor
	// under its remote address before addressing it directly.
	var connPID *actor.PID
	require.Eventually(t, func() bool {
		pid, ok := l.Lookup(ws.LocalAddr().String())
		connPID = pid
		return ok
	}, time.Second, 10*time.Millisecond)

	rt.Send(connPID, WireEnvelope{Sender: "echo", Payload: []byte(`"pong"`)})

	var got WireEnvelope
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, websocket.JSON.Receive(ws, &got))
	assert.Equal(t, "echo", got.Sender)
}

func TestListener_ClosingSocketTearsDownConnectionActor(t *testing.T) {
	rt := actor.NewRuntime(actor.DefaultRuntimeConfig())
	defer rt.Shutdown()

	l := New(rt)
	s := httptest.NewServer(l.Handler())
	defer s.Close()

	ws := dial(t, s)
	require.Eventually(t, func() bool {
		_, ok := l.Lookup(ws.LocalAddr().String())
		return ok
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, ws.Close())

	assert.Eventually(t, func() bool {
		_, ok := l.Lookup(ws.LocalAddr().String())
		return !ok
	}, 3*time.Second, 10*time.Millisecond)
}
