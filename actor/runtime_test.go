package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type pingMsg struct{ n int }
type pongMsg struct{ n int }

func TestSendReceive_PingPong(t *testing.T) {
	rt := NewRuntime(DefaultRuntimeConfig())
	defer rt.Shutdown()

	var mu sync.Mutex
	var got []int

	pong := rt.Spawn(SpawnOptions{}, "pong", BehaviorFunc(func(ctx *Context) Behavior {
		return NewBehavior(On(func(ctx *Context, p pingMsg) {
			ctx.Reply(pongMsg{n: p.n + 1})
		}))
	}))

	ping := rt.Spawn(SpawnOptions{}, "ping", BehaviorFunc(func(ctx *Context) Behavior {
		return NewBehavior(On(func(ctx *Context, p pongMsg) {
			mu.Lock()
			got = append(got, p.n)
			mu.Unlock()
		}))
	}))

	rt.send(ping, pong, MakeMessage(pingMsg{n: 41}), nil)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []int{42}, got)
	mu.Unlock()
}

func TestRequestThen_Chained(t *testing.T) {
	rt := NewRuntime(DefaultRuntimeConfig())
	defer rt.Shutdown()

	doubler := rt.Spawn(SpawnOptions{}, "", BehaviorFunc(func(ctx *Context) Behavior {
		return NewBehavior(On(func(ctx *Context, n int) {
			ctx.Reply(n * 2)
		}))
	}))

	done := make(chan int, 1)
	caller := rt.Spawn(SpawnOptions{}, "", BehaviorFunc(func(ctx *Context) Behavior {
		return NewBehavior(On(func(ctx *Context, start string) {
			ctx.Request(doubler, 5).Then(func(ctx *Context, m Message, err error) {
				require.NoError(t, err)
				first := GetAs[int](m, 0)
				ctx.Request(doubler, first).Then(func(ctx *Context, m Message, err error) {
					require.NoError(t, err)
					done <- GetAs[int](m, 0)
				})
			})
		}))
	}))

	rt.send(nil, caller, MakeMessage("go"), nil)

	select {
	case v := <-done:
		assert.Equal(t, 20, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for chained request")
	}
}

func TestRequest_TimeoutFiresWhenNoReply(t *testing.T) {
	rt := NewRuntime(DefaultRuntimeConfig())
	defer rt.Shutdown()

	silent := rt.Spawn(SpawnOptions{}, "", BehaviorFunc(func(ctx *Context) Behavior {
		return NewBehavior() // never replies to anything
	}))

	errs := make(chan error, 1)
	caller := rt.Spawn(SpawnOptions{}, "", BehaviorFunc(func(ctx *Context) Behavior {
		return NewBehavior(On(func(ctx *Context, start string) {
			ctx.Request(silent, "ping").Timeout(30 * time.Millisecond).Then(func(ctx *Context, m Message, err error) {
				errs <- err
			})
		}))
	}))

	rt.send(nil, caller, MakeMessage("go"), nil)

	select {
	case err := <-errs:
		require.Error(t, err)
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, RemoteUnreachable, reqErr.Reason)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for request timeout to fire")
	}
}

func TestTrapExit_DeliversExitSignal(t *testing.T) {
	rt := NewRuntime(DefaultRuntimeConfig())
	defer rt.Shutdown()

	sig := make(chan ExitSignal, 1)

	watcher := rt.Spawn(SpawnOptions{}, "", BehaviorFunc(func(ctx *Context) Behavior {
		ctx.TrapExit(true)
		return NewBehavior(On(func(ctx *Context, s ExitSignal) {
			sig <- s
		}))
	}))

	worker := rt.Spawn(SpawnOptions{}, "", BehaviorFunc(func(ctx *Context) Behavior {
		return NewBehavior(On(func(ctx *Context, _ string) {
			ctx.Quit(UserDefined + 1)
		}))
	}))

	rt.link(watcher, worker)
	rt.send(nil, worker, MakeMessage("die"), nil)

	select {
	case s := <-sig:
		assert.True(t, worker.Equal(s.From))
		assert.Equal(t, ExitReason(UserDefined+1), s.Reason)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for exit signal")
	}
}

func TestMailboxClose_BouncesRequestToClosedMailbox(t *testing.T) {
	rt := NewRuntime(DefaultRuntimeConfig())
	defer rt.Shutdown()

	target := rt.Spawn(SpawnOptions{}, "", BehaviorFunc(func(ctx *Context) Behavior {
		return NewBehavior(On(func(ctx *Context, _ string) {
			ctx.Reply("ok")
			ctx.Quit(Normal)
		}))
	}))

	errs := make(chan error, 1)
	caller := rt.Spawn(SpawnOptions{}, "", BehaviorFunc(func(ctx *Context) Behavior {
		return NewBehavior(
			On(func(ctx *Context, _ string) {
				ctx.Monitor(target)
				ctx.Request(target, "first").Then(func(ctx *Context, m Message, err error) {
					require.NoError(t, err)
				})
			}),
			// Waiting for the monitor's ExitSignal, rather than sending the
			// second request straight from the first reply's continuation,
			// guarantees target's mailbox has already closed.
			On(func(ctx *Context, _ ExitSignal) {
				ctx.Request(target, "second").Then(func(ctx *Context, m Message, err error) {
					errs <- err
				})
			}),
		)
	}))

	rt.send(nil, caller, MakeMessage("go"), nil)

	select {
	case err := <-errs:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for bounced request")
	}
}

func TestQuiescence_ReportedOnceAllActorsExit(t *testing.T) {
	rt := NewRuntime(DefaultRuntimeConfig())
	defer rt.Shutdown()

	for i := 0; i < 5; i++ {
		pid := rt.Spawn(SpawnOptions{}, "", BehaviorFunc(func(ctx *Context) Behavior {
			return NewBehavior(On(func(ctx *Context, _ string) {
				ctx.Quit(Normal)
			}))
		}))
		rt.send(nil, pid, MakeMessage("die"), nil)
	}

	assert.Eventually(t, func() bool { return rt.Quiescent() }, time.Second, 5*time.Millisecond)
}

func TestHiddenActor_ExcludedFromQuiescence(t *testing.T) {
	rt := NewRuntime(DefaultRuntimeConfig())
	defer rt.Shutdown()

	rt.Spawn(SpawnOptions{Hidden: true}, "", BehaviorFunc(func(ctx *Context) Behavior {
		return NewBehavior(On(func(ctx *Context, _ string) {}))
	}))

	assert.True(t, rt.Quiescent(), "a hidden actor must not count toward liveness")
}

func TestMessageCOW_SharedMessageCopiesOnMutation(t *testing.T) {
	original := MakeMessage(1, "a")
	shared := original.retain() // refs now 2: cow() must copy, not alias

	copied := shared.cow()
	copied.data.values[0] = 99

	assert.Equal(t, 1, original.data.values[0], "cow() must not mutate the original backing array")
	assert.Equal(t, 99, copied.data.values[0])
	assert.True(t, original.Equal(MakeMessage(1, "a")))
}

func TestMessageCOW_UniquelyHeldMessageMutatesInPlace(t *testing.T) {
	m := MakeMessage(1, "a")
	same := m.cow()

	assert.Same(t, m.data, same.data, "a uniquely held message's cow() must return itself")
}
