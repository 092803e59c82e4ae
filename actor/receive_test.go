package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCacheDiscipline_UnmatchedEnvelopeSurvivesBecome exercises spec §8's
// "Cache discipline" property: an envelope a narrower behavior doesn't
// match is parked, not dropped, and is reconsidered once Become installs a
// behavior that does match it.
func TestCacheDiscipline_UnmatchedEnvelopeSurvivesBecome(t *testing.T) {
	rt := NewRuntime(DefaultRuntimeConfig())
	defer rt.Shutdown()

	got := make(chan string, 1)

	pid := rt.Spawn(SpawnOptions{}, "", BehaviorFunc(func(ctx *Context) Behavior {
		return NewBehavior(On(func(ctx *Context, _ int) {
			// Only int matches here; the pending string is parked by the
			// no-match branch of dispatchToBehavior instead of dropped.
			ctx.Become(NewBehavior(On(func(ctx *Context, s string) {
				got <- s
			})))
		}))
	}))

	rt.Send(pid, "parked")
	rt.Send(pid, 1)

	select {
	case s := <-got:
		assert.Equal(t, "parked", s)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the cached envelope to be redelivered after Become")
	}
}

// TestReceive_EventBasedActorFaults confirms Context.Receive is unallowed
// from an event-based actor (spec §4.4): it takes the actor out with
// UnallowedReceive instead of running anything.
func TestReceive_EventBasedActorFaults(t *testing.T) {
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
			ctx.Receive(NewBehavior())
		}))
	}))

	rt.link(watcher, worker)
	rt.Send(worker, "go")

	select {
	case s := <-sig:
		assert.Equal(t, UnallowedReceive, s.Reason)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for UnallowedReceive exit signal")
	}
}

// TestReceive_ThreadBackedNestedReceive exercises the Nestable receive
// policy end to end: a thread-backed actor's outer behavior only matches
// strings, so an int sent first is parked by dispatchToBehavior's no-match
// branch (finding the fix for spec §8's "Cache discipline" property).
// Once the string trigger arrives and the handler calls Receive again from
// inside its own handler — the recursive case spec §4.4 calls "Nestable" —
// that parked int is recovered straight out of the cache via skipCache.take
// instead of being lost or waited on a second time.
func TestReceive_ThreadBackedNestedReceive(t *testing.T) {
	rt := NewRuntime(DefaultRuntimeConfig())
	defer rt.Shutdown()

	started := make(chan struct{})
	done := make(chan []string, 1)

	pid := rt.Spawn(SpawnOptions{Detached: true}, "", BodyFunc(func(ctx *Context) {
		var order []string
		close(started)

		outer := NewBehavior(On(func(ctx *Context, tag string) {
			order = append(order, "outer:"+tag)
			inner := NewBehavior(On(func(ctx *Context, n int) {
				order = append(order, "inner")
			}))
			ctx.Receive(inner)
			done <- order
			ctx.Quit(Normal)
		}))
		ctx.Become(outer)
	}))

	<-started
	// Parked by dispatchToBehavior's no-match branch: outer's clause only
	// matches strings.
	rt.Send(pid, 7)
	rt.Send(pid, "go")

	select {
	case order := <-done:
		require.Len(t, order, 2)
		assert.Equal(t, "outer:go", order[0])
		assert.Equal(t, "inner", order[1])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for nested receive to recover the cached envelope")
	}
}
