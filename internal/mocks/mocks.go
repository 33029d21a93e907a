package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chatapp/internal/models"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, senderID int, content string, recipientID *int) (models.Message, error) {
	args := m.Called(ctx, senderID, content, recipientID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessageWithSender(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListVisibleMessages(ctx context.Context, viewerID int, peerID *int, limit int) ([]models.Message, error) {
	args := m.Called(ctx, viewerID, peerID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) InsertReadReceipt(ctx context.Context, messageID int, readerID int) (bool, error) {
	args := m.Called(ctx, messageID, readerID)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRepositoryMock) GetParticipants(ctx context.Context, messageID int) (models.Participants, error) {
	args := m.Called(ctx, messageID)
	var p models.Participants
	if val := args.Get(0); val != nil {
		p = val.(models.Participants)
	}
	return p, args.Error(1)
}

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(token string) (int, error) {
	args := m.Called(token)
	return args.Int(0), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
