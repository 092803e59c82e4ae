package actor

import "sync"

// linkSet is the small, mutex-guarded set of peer PIDs backing both the
// bidirectional link table and the one-way monitor table (spec §4.4
// "Links" and "Monitors"). A plain map under a mutex is sufficient: link
// sets are small and mutated far less often than messages are sent, so
// there is no call for the lock-free treatment the mailbox gets.
type linkSet struct {
	mu   sync.Mutex
	pids map[uint64]*PID
}

func newLinkSet() linkSet {
	return linkSet{pids: make(map[uint64]*PID)}
}

func (s *linkSet) add(p *PID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pids[p.id] = p
}

func (s *linkSet) remove(p *PID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pids, p.id)
}

func (s *linkSet) contains(p *PID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pids[p.id]
	return ok
}

// snapshot returns a copy of the current members, safe to range over after
// the lock is released (e.g. while fanning out exit signals).
func (s *linkSet) snapshot() []*PID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*PID, 0, len(s.pids))
	for _, p := range s.pids {
		out = append(out, p)
	}
	return out
}
