package ws

import (
	"sort"
	"sync"

	"chatapp/internal/observability"
)

// PresenceTracker maintains the set of currently-online user ids as a
// reference-counted map of live connections per user. A boolean set would
// mark a user offline while other devices are still connected.
type PresenceTracker struct {
	counts map[int]int
	mu     sync.Mutex
}

// NewPresenceTracker creates an empty tracker.
func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{counts: make(map[int]int)}
}

// ConnectionOpened records a new connection for the user and reports whether
// this was the offline-to-online transition.
func (p *PresenceTracker) ConnectionOpened(userID int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[userID]++
	first := p.counts[userID] == 1
	if first {
		observability.SetOnlineUsers(len(p.counts))
	}
	return first
}

// ConnectionClosed records a closed connection and reports whether this was
// the online-to-offline transition.
func (p *PresenceTracker) ConnectionClosed(userID int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	count, ok := p.counts[userID]
	if !ok {
		return false
	}
	if count > 1 {
		p.counts[userID] = count - 1
		return false
	}
	delete(p.counts, userID)
	observability.SetOnlineUsers(len(p.counts))
	return true
}

// IsOnline reports whether the user has at least one open connection.
func (p *PresenceTracker) IsOnline(userID int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[userID] > 0
}

// Online returns the current online set, sorted for stable output.
func (p *PresenceTracker) Online() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]int, 0, len(p.counts))
	for id := range p.counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
