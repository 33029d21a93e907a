package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceFirstConnectionGoesOnline(t *testing.T) {
	presence := NewPresenceTracker()

	assert.True(t, presence.ConnectionOpened(1))
	assert.True(t, presence.IsOnline(1))
}

func TestPresenceSecondConnectionDoesNotRetransition(t *testing.T) {
	presence := NewPresenceTracker()

	assert.True(t, presence.ConnectionOpened(1))
	assert.False(t, presence.ConnectionOpened(1))

	// Closing one of two devices keeps the user online.
	assert.False(t, presence.ConnectionClosed(1))
	assert.True(t, presence.IsOnline(1))

	assert.True(t, presence.ConnectionClosed(1))
	assert.False(t, presence.IsOnline(1))
}

func TestPresenceCloseWithoutOpenIsNoop(t *testing.T) {
	presence := NewPresenceTracker()

	assert.False(t, presence.ConnectionClosed(1))
	assert.Empty(t, presence.Online())
}

func TestPresenceOnlineSetIsSorted(t *testing.T) {
	presence := NewPresenceTracker()

	presence.ConnectionOpened(3)
	presence.ConnectionOpened(1)
	presence.ConnectionOpened(2)

	assert.Equal(t, []int{1, 2, 3}, presence.Online())
}
