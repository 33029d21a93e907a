package ws

import (
	"context"
	"fmt"

	"chatapp/internal/models"
	"chatapp/internal/repositories"
)

// ReadReceipts records first-read events idempotently and notifies the
// original participants.
type ReadReceipts struct {
	repo repositories.MessageRepository
	hub  Emitter
}

// NewReadReceipts constructs a ReadReceipts aggregator.
func NewReadReceipts(repo repositories.MessageRepository, hub Emitter) *ReadReceipts {
	return &ReadReceipts{repo: repo, hub: hub}
}

// MarkRead inserts the (message, reader) receipt and, on first insert,
// notifies both the sender's and the recipient's audiences. A duplicate call
// changes no state and emits nothing.
func (a *ReadReceipts) MarkRead(ctx context.Context, messageID int, readerID int) error {
	inserted, err := a.repo.InsertReadReceipt(ctx, messageID, readerID)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	if !inserted {
		return nil
	}

	participants, err := a.repo.GetParticipants(ctx, messageID)
	if err != nil {
		return fmt.Errorf("load participants for %d: %w", messageID, err)
	}

	event := models.ReadUpdateEvent(messageID, readerID)
	a.hub.EmitToUser(participants.SenderID, event)
	if participants.RecipientID != nil && *participants.RecipientID != participants.SenderID {
		a.hub.EmitToUser(*participants.RecipientID, event)
	}
	return nil
}
