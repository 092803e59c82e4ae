package actor

import "sync"

// PendingHandler is the continuation a caller attaches to an outstanding
// Request via Then (spec §4.3 "request/then"). It is an ordinary Go
// closure, so chaining "request(...).then(h1).then(h2)" needs no
// continuation-marker sentinel the way the source's chained-request
// mechanism does: h1 simply calls ctx.Request(...).Then(h2) itself.
type PendingHandler func(ctx *Context, m Message, err error)

// pendingEntry is one outstanding request awaiting a correlated response
// (spec §4.3).
type pendingEntry struct {
	id      MessageID
	handler PendingHandler
	timeout *timerHandle
}

// pendingTable is the per-actor map from MessageID to its waiting
// continuation (spec §4.3 "Pending-sync table"). Entries are removed on
// first use: a duplicate or late response is silently ignored (spec §4.3
// "idempotent delivery": "a second response for an already-resolved
// request id is dropped").
type pendingTable struct {
	mu      sync.Mutex
	entries map[MessageID]*pendingEntry
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[MessageID]*pendingEntry)}
}

func (t *pendingTable) add(e *pendingEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[e.id] = e
}

// resolve removes and returns the entry for id, or ok=false if none exists
// (already resolved, or the id is unknown).
func (t *pendingTable) resolve(id MessageID) (*pendingEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return e, ok
}

// cancelAll resolves every outstanding entry, handing each to deliver, used
// when the owning actor exits with requests still unanswered (spec §4.3,
// §7).
func (t *pendingTable) cancelAll(deliver func(e *pendingEntry)) {
	t.mu.Lock()
	remaining := t.entries
	t.entries = make(map[MessageID]*pendingEntry)
	t.mu.Unlock()

	for _, e := range remaining {
		deliver(e)
	}
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
