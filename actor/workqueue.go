package actor

import (
	"sync"

	"github.com/gammazero/deque"
)

// job is one unit of scheduler work: run a single dispatch step for st.
// Shutdown pushes no job: stop sets the stopped flag, and popWait reports
// ok=false once the queue is stopped and empty.
type job struct {
	st *actorState
}

// workQueue is the scheduler's shared ready queue (spec §5 "Worker pool"):
// a FIFO of actors ready to run a dispatch step, backed by
// gammazero/deque rather than a hand-rolled ring buffer or slice, and
// guarded by a condition variable so idle workers park instead of spinning.
//
// A worker (scheduler.runWorker) looks for its next actor in two places,
// cheapest first:
//  1. its own chained hand-off slot, a local variable in runWorker set when
//     the actor it just ran sent a message that readied another actor —
//     this keeps a hot sender/receiver pair on the same worker and avoids a
//     trip through this queue entirely (spec §5 "chained send
//     optimization").
//  2. popWait: take from the shared deque under the queue's mutex, blocking
//     on the condition variable until a push signals or the queue is
//     stopped.
//
// popShared is a non-blocking take from the same deque; the worker loop
// does not use it.
type workQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	q       deque.Deque[job]
	stopped bool
}

func newWorkQueue() *workQueue {
	wq := &workQueue{}
	wq.cond = sync.NewCond(&wq.mu)
	return wq
}

// push enqueues j and wakes one parked worker.
func (wq *workQueue) push(j job) {
	wq.mu.Lock()
	if wq.stopped {
		wq.mu.Unlock()
		return
	}
	wq.q.PushBack(j)
	wq.mu.Unlock()
	wq.cond.Signal()
}

// popShared takes the next job from the shared deque without blocking.
func (wq *workQueue) popShared() (job, bool) {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	if wq.q.Len() == 0 {
		return job{}, false
	}
	return wq.q.PopFront(), true
}

// popWait blocks until a job is available or the queue stops.
func (wq *workQueue) popWait() (job, bool) {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	for wq.q.Len() == 0 && !wq.stopped {
		wq.cond.Wait()
	}
	if wq.q.Len() == 0 {
		return job{}, false
	}
	return wq.q.PopFront(), true
}

// stop drains no further pushes and wakes every parked worker so it can
// observe stopped and return.
func (wq *workQueue) stop() {
	wq.mu.Lock()
	wq.stopped = true
	wq.mu.Unlock()
	wq.cond.Broadcast()
}
