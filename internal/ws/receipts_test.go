package ws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatapp/internal/mocks"
	"chatapp/internal/models"
)

func TestMarkReadNotifiesBothParticipants(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	emitter := &fakeEmitter{}
	receipts := NewReadReceipts(repo, emitter)

	recipient := 2
	repo.On("InsertReadReceipt", mock.Anything, 1, 2).Return(true, nil).Once()
	repo.On("GetParticipants", mock.Anything, 1).Return(models.Participants{SenderID: 1, RecipientID: &recipient}, nil).Once()

	require.NoError(t, receipts.MarkRead(context.Background(), 1, 2))

	events := emitter.all()
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].userID)
	assert.Equal(t, 2, events[1].userID)
	for _, e := range events {
		assert.Equal(t, models.EventReadUpdate, e.event.Type)
		assert.Equal(t, 1, e.event.MessageID)
		assert.Equal(t, 2, e.event.ReaderID)
	}
	repo.AssertExpectations(t)
}

func TestMarkReadDuplicateIsNoop(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	emitter := &fakeEmitter{}
	receipts := NewReadReceipts(repo, emitter)

	repo.On("InsertReadReceipt", mock.Anything, 1, 2).Return(false, nil).Once()

	require.NoError(t, receipts.MarkRead(context.Background(), 1, 2))

	assert.Empty(t, emitter.all())
	repo.AssertNotCalled(t, "GetParticipants", mock.Anything, mock.Anything)
}

func TestMarkReadPublicMessageNotifiesSenderOnly(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	emitter := &fakeEmitter{}
	receipts := NewReadReceipts(repo, emitter)

	repo.On("InsertReadReceipt", mock.Anything, 3, 4).Return(true, nil).Once()
	repo.On("GetParticipants", mock.Anything, 3).Return(models.Participants{SenderID: 9}, nil).Once()

	require.NoError(t, receipts.MarkRead(context.Background(), 3, 4))

	events := emitter.all()
	require.Len(t, events, 1)
	assert.Equal(t, 9, events[0].userID)
}

func TestMarkReadInsertFailure(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	emitter := &fakeEmitter{}
	receipts := NewReadReceipts(repo, emitter)

	repo.On("InsertReadReceipt", mock.Anything, 1, 2).Return(false, assert.AnError).Once()

	require.Error(t, receipts.MarkRead(context.Background(), 1, 2))
	assert.Empty(t, emitter.all())
}
