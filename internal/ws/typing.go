package ws

import (
	"sync"
	"time"

	"chatapp/internal/models"
)

// DefaultTypingTimeout matches the debounce interval chat clients use.
const DefaultTypingTimeout = 1200 * time.Millisecond

// typingKey scopes a typing flag to a user and an optional peer. peerID is
// zero for public typing.
type typingKey struct {
	userID int
	peerID int
}

// TypingCoordinator relays explicit start/stop typing signals and enforces a
// timeout as a safety net against clients that disconnect without signaling
// stop. Nothing here is persisted.
type TypingCoordinator struct {
	hub     Emitter
	timeout time.Duration
	timers  map[typingKey]*time.Timer
	mu      sync.Mutex
}

// NewTypingCoordinator constructs a coordinator emitting through the hub.
func NewTypingCoordinator(hub Emitter, timeout time.Duration) *TypingCoordinator {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &TypingCoordinator{
		hub:     hub,
		timeout: timeout,
		timers:  make(map[typingKey]*time.Timer),
	}
}

// Start marks the user as typing toward the optional peer. The first signal
// emits typing-started; repeated signals only re-arm the timeout.
func (t *TypingCoordinator) Start(userID int, peerID *int) {
	key := makeKey(userID, peerID)

	t.mu.Lock()
	if timer, ok := t.timers[key]; ok {
		timer.Reset(t.timeout)
		t.mu.Unlock()
		return
	}
	t.timers[key] = time.AfterFunc(t.timeout, func() {
		t.expire(key)
	})
	t.mu.Unlock()

	t.emit(userID, peerID, true)
}

// Stop cancels the typing flag. It emits typing-stopped only when a
// transition actually occurred, so calling it twice emits once.
func (t *TypingCoordinator) Stop(userID int, peerID *int) {
	key := makeKey(userID, peerID)

	t.mu.Lock()
	timer, ok := t.timers[key]
	if ok {
		timer.Stop()
		delete(t.timers, key)
	}
	t.mu.Unlock()

	if ok {
		t.emit(userID, peerID, false)
	}
}

// StopAll clears every typing flag owned by the user. Called on disconnect
// so timers do not leak and peers are not left with a stuck indicator.
func (t *TypingCoordinator) StopAll(userID int) {
	t.mu.Lock()
	var cleared []typingKey
	for key, timer := range t.timers {
		if key.userID != userID {
			continue
		}
		timer.Stop()
		delete(t.timers, key)
		cleared = append(cleared, key)
	}
	t.mu.Unlock()

	for _, key := range cleared {
		t.emit(key.userID, peerFromKey(key), false)
	}
}

func (t *TypingCoordinator) expire(key typingKey) {
	t.mu.Lock()
	_, ok := t.timers[key]
	if ok {
		delete(t.timers, key)
	}
	t.mu.Unlock()

	// An explicit stop may have raced the timer; emit only if the flag was
	// still set.
	if ok {
		t.emit(key.userID, peerFromKey(key), false)
	}
}

func (t *TypingCoordinator) emit(userID int, peerID *int, started bool) {
	event := models.TypingEvent(userID, started)
	if peerID != nil {
		t.hub.EmitToUser(*peerID, event)
		return
	}
	t.hub.BroadcastExcept(userID, event)
}

func makeKey(userID int, peerID *int) typingKey {
	key := typingKey{userID: userID}
	if peerID != nil {
		key.peerID = *peerID
	}
	return key
}

func peerFromKey(key typingKey) *int {
	if key.peerID == 0 {
		return nil
	}
	peer := key.peerID
	return &peer
}
