package actor

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// scheduler is the event-based variant's worker pool (spec §5 "Worker
// pool"): a fixed number of goroutines pulling ready actors off a shared
// workQueue and running one dispatch step each. Coordinating worker
// lifetimes through errgroup mirrors the teacher's own use of the package
// to run its connection-handling goroutines and collect the first error.
type scheduler struct {
	rt      *Runtime
	wq      *workQueue
	group   *errgroup.Group
	groupCx context.Context
}

func newScheduler(rt *Runtime, workers int) *scheduler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, cx := errgroup.WithContext(context.Background())
	s := &scheduler{rt: rt, wq: newWorkQueue(), group: g, groupCx: cx}
	for i := 0; i < workers; i++ {
		g.Go(s.runWorker)
	}
	return s
}

// enqueue publishes st onto the shared queue. Callers are expected to have
// already won st's scheduled-flag CAS (see Runtime.ready and
// scheduler.release), so a given actor is never sitting in the queue twice.
func (s *scheduler) enqueue(st *actorState) {
	st.setSched(schedReady)
	s.wq.push(job{st: st})
}

// handoff carries at most one chained hand-off out of a single dispatch
// step: if running st's handler readied exactly one other actor (the
// common request/reply pattern), the worker runs that actor next itself
// instead of publishing it to the shared queue (spec §5 "chained send
// optimization"). A second readied actor within the same step falls back
// to the shared queue so no work is lost.
type handoff struct {
	rt   *Runtime
	next *actorState
}

// offer records st as the step's chained hand-off candidate, or — if one
// is already pending — enqueues it onto the shared queue immediately so it
// isn't lost. Every handoff is constructed with its owning Runtime (even
// on a detached-variant goroutine, which has no worker of its own to hand
// off to) specifically so a second readied actor within one step always
// has somewhere to go.
func (h *handoff) offer(st *actorState) {
	if h.next == nil {
		h.next = st
		return
	}
	h.rt.sched.enqueue(st)
}

// runWorker is one pool goroutine's loop: pop a job, run one step, and
// either re-enqueue the actor (more work waits), let it go idle, or follow
// a chained hand-off directly to the actor it just readied.
func (s *scheduler) runWorker() error {
	var local *actorState
	for {
		var st *actorState
		if local != nil {
			st, local = local, nil
		} else {
			j, ok := s.wq.popWait()
			if !ok {
				return nil // queue stopped
			}
			st = j.st
		}

		st.setSched(schedPending)
		h := &handoff{rt: s.rt}
		more := s.rt.step(st, h)
		switch {
		case more:
			s.wq.push(job{st: st})
		case st.hasExited():
			// terminate() already ran inside step(); scheduled is moot.
		default:
			s.release(st)
		}

		if h.next != nil {
			if local == nil {
				local = h.next
			} else {
				s.enqueue(h.next)
			}
		}
	}
}

// release clears st's scheduled flag now that its mailbox looked empty,
// then rechecks: a push that landed in the instant between this worker's
// last tryPop and this clear would otherwise leave st with queued work and
// nobody scheduled to run it (spec §5 "at most one active execution per
// actor", applied symmetrically to "at least one, once work exists").
func (s *scheduler) release(st *actorState) {
	st.setSched(schedBlocked)
	atomic.StoreInt32(&st.scheduled, 0)
	cached := st.prio != nil && st.prio.hasWork()
	if !cached && !st.mb.hasWork() {
		return
	}
	if atomic.CompareAndSwapInt32(&st.scheduled, 0, 1) {
		s.enqueue(st)
	}
	// CAS failure means a concurrent push already won the race and
	// enqueued st itself; nothing left for this worker to do.
}

// shutdown stops accepting new work and waits for every worker to return.
func (s *scheduler) shutdown() {
	s.wq.stop()
	_ = s.group.Wait()
}
