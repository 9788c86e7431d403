package editor

import "sync"

// tickets tracks the latest test request per node. A result is only
// relevant while its ticket is still the node's current one.
type tickets struct {
	mu      sync.Mutex
	next    uint64
	current map[string]uint64
}

func newTickets() *tickets {
	return &tickets{current: make(map[string]uint64)}
}

func (t *tickets) issue(nodeID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	t.current[nodeID] = t.next

	return t.next
}

// redeem reports whether ticket is still current and retires it if so.
func (t *tickets) redeem(nodeID string, ticket uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current[nodeID] != ticket {
		return false
	}

	delete(t.current, nodeID)

	return true
}

func (t *tickets) cancel(nodeID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.current[nodeID]
	delete(t.current, nodeID)

	return ok
}

func (t *tickets) pending(nodeID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.current[nodeID]

	return ok
}

func (t *tickets) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.current)
}
