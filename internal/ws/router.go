package ws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chatapp/internal/models"
	"chatapp/internal/repositories"
)

// ErrInvalidSubmission marks a submit with no sender or empty content. The
// event is dropped without persistence or fan-out; nothing is surfaced to
// other clients.
var ErrInvalidSubmission = errors.New("invalid message submission")

// MessageRouter persists inbound chat messages and fans them out: public
// messages to every connection, private ones to the sender and recipient
// rooms only.
type MessageRouter struct {
	repo repositories.MessageRepository
	hub  Emitter
}

// NewMessageRouter constructs a MessageRouter.
func NewMessageRouter(repo repositories.MessageRepository, hub Emitter) *MessageRouter {
	return &MessageRouter{repo: repo, hub: hub}
}

// Submit runs the persist, reload-with-sender, fan-out pipeline as sequential
// steps. A persistence failure aborts delivery entirely; the reload
// guarantees the outbound payload reflects commit-time sender identity.
func (r *MessageRouter) Submit(ctx context.Context, senderID int, content string, recipientID *int) error {
	if senderID == 0 || strings.TrimSpace(content) == "" {
		return ErrInvalidSubmission
	}

	stored, err := r.repo.CreateMessage(ctx, senderID, content, recipientID)
	if err != nil {
		return fmt.Errorf("store message: %w", err)
	}

	msg, err := r.repo.GetMessageWithSender(ctx, stored.ID)
	if err != nil {
		return fmt.Errorf("reload message %d: %w", stored.ID, err)
	}

	event := models.MessageEvent(msg)
	if recipientID == nil {
		r.hub.Broadcast(event)
		return nil
	}

	r.hub.EmitToUser(senderID, event)
	if *recipientID != senderID {
		r.hub.EmitToUser(*recipientID, event)
	}
	return nil
}
