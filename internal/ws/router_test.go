package ws

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatapp/internal/mocks"
	"chatapp/internal/models"
)

type emitted struct {
	kind   string // "user", "broadcast", "broadcast-except"
	userID int
	event  models.Event
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (f *fakeEmitter) EmitToUser(userID int, event models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{kind: "user", userID: userID, event: event})
}

func (f *fakeEmitter) Broadcast(event models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{kind: "broadcast", event: event})
}

func (f *fakeEmitter) BroadcastExcept(userID int, event models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{kind: "broadcast-except", userID: userID, event: event})
}

func (f *fakeEmitter) all() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emitted(nil), f.events...)
}

func TestSubmitPublicMessageBroadcasts(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	emitter := &fakeEmitter{}
	router := NewMessageRouter(repo, emitter)

	stored := models.Message{ID: 1, SenderID: 1, Content: "hello"}
	loaded := models.Message{ID: 1, SenderID: 1, Content: "hello", SenderUsername: "alice"}
	repo.On("CreateMessage", mock.Anything, 1, "hello", (*int)(nil)).Return(stored, nil).Once()
	repo.On("GetMessageWithSender", mock.Anything, 1).Return(loaded, nil).Once()

	require.NoError(t, router.Submit(context.Background(), 1, "hello", nil))

	events := emitter.all()
	require.Len(t, events, 1)
	assert.Equal(t, "broadcast", events[0].kind)
	assert.Equal(t, models.EventChatMessage, events[0].event.Type)
	assert.Equal(t, "alice", events[0].event.Message.SenderUsername)
	repo.AssertExpectations(t)
}

func TestSubmitPrivateMessageTargetsSenderAndRecipient(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	emitter := &fakeEmitter{}
	router := NewMessageRouter(repo, emitter)

	recipient := 2
	stored := models.Message{ID: 5, SenderID: 1, RecipientID: &recipient, Content: "hi"}
	repo.On("CreateMessage", mock.Anything, 1, "hi", &recipient).Return(stored, nil).Once()
	repo.On("GetMessageWithSender", mock.Anything, 5).Return(stored, nil).Once()

	require.NoError(t, router.Submit(context.Background(), 1, "hi", &recipient))

	events := emitter.all()
	require.Len(t, events, 2)
	assert.Equal(t, "user", events[0].kind)
	assert.Equal(t, 1, events[0].userID)
	assert.Equal(t, "user", events[1].kind)
	assert.Equal(t, 2, events[1].userID)
	for _, e := range events {
		assert.Equal(t, models.EventPrivateMessage, e.event.Type)
	}
	repo.AssertExpectations(t)
}

func TestSubmitSelfAddressedPrivateMessageEmitsOnce(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	emitter := &fakeEmitter{}
	router := NewMessageRouter(repo, emitter)

	recipient := 1
	stored := models.Message{ID: 9, SenderID: 1, RecipientID: &recipient, Content: "note"}
	repo.On("CreateMessage", mock.Anything, 1, "note", &recipient).Return(stored, nil).Once()
	repo.On("GetMessageWithSender", mock.Anything, 9).Return(stored, nil).Once()

	require.NoError(t, router.Submit(context.Background(), 1, "note", &recipient))

	events := emitter.all()
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].userID)
}

func TestSubmitRejectsEmptyContent(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	emitter := &fakeEmitter{}
	router := NewMessageRouter(repo, emitter)

	err := router.Submit(context.Background(), 1, "   ", nil)
	require.ErrorIs(t, err, ErrInvalidSubmission)

	err = router.Submit(context.Background(), 0, "hello", nil)
	require.ErrorIs(t, err, ErrInvalidSubmission)

	assert.Empty(t, emitter.all())
	repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitStoreFailureAbortsDelivery(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	emitter := &fakeEmitter{}
	router := NewMessageRouter(repo, emitter)

	repo.On("CreateMessage", mock.Anything, 1, "hello", (*int)(nil)).Return(models.Message{}, assert.AnError).Once()

	err := router.Submit(context.Background(), 1, "hello", nil)
	require.Error(t, err)
	assert.Empty(t, emitter.all())
	repo.AssertNotCalled(t, "GetMessageWithSender", mock.Anything, mock.Anything)
}

func TestSubmitReloadFailureAbortsDelivery(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	emitter := &fakeEmitter{}
	router := NewMessageRouter(repo, emitter)

	stored := models.Message{ID: 1, SenderID: 1, Content: "hello"}
	repo.On("CreateMessage", mock.Anything, 1, "hello", (*int)(nil)).Return(stored, nil).Once()
	repo.On("GetMessageWithSender", mock.Anything, 1).Return(models.Message{}, assert.AnError).Once()

	err := router.Submit(context.Background(), 1, "hello", nil)
	require.Error(t, err)
	assert.Empty(t, emitter.all())
}
