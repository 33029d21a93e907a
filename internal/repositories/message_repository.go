package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chatapp/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions with the durable message store.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID int, content string, recipientID *int) (models.Message, error)
	GetMessageWithSender(ctx context.Context, messageID int) (models.Message, error)
	ListVisibleMessages(ctx context.Context, viewerID int, peerID *int, limit int) ([]models.Message, error)
	InsertReadReceipt(ctx context.Context, messageID int, readerID int) (bool, error)
	GetParticipants(ctx context.Context, messageID int) (models.Participants, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message; the store assigns id and timestamp.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID int, content string, recipientID *int) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (sender_id, content, recipient_id) VALUES ($1, $2, $3) RETURNING id, sender_id, recipient_id, content, created_at`, senderID, content, recipientID).
		Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Content, &msg.CreatedAt)
	return msg, err
}

// GetMessageWithSender reloads a persisted message joined with sender info.
func (r *MessageRepo) GetMessageWithSender(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT m.id, m.sender_id, m.recipient_id, m.content, m.created_at,
            u.username AS sender_username, u.avatar_url AS sender_avatar
        FROM messages m JOIN users u ON u.id = m.sender_id
        WHERE m.id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListVisibleMessages returns messages visible to the viewer, oldest first.
// With a peer it returns the private conversation between viewer and peer;
// without one it returns the public feed. Each row carries a per-viewer
// is_read flag.
func (r *MessageRepo) ListVisibleMessages(ctx context.Context, viewerID int, peerID *int, limit int) ([]models.Message, error) {
	var (
		msgs []models.Message
		err  error
	)
	if peerID != nil {
		query := `SELECT m.id, m.sender_id, m.recipient_id, m.content, m.created_at,
                u.username AS sender_username, u.avatar_url AS sender_avatar,
                EXISTS(SELECT 1 FROM message_reads r WHERE r.message_id = m.id AND r.reader_id = $1) AS is_read
            FROM messages m JOIN users u ON u.id = m.sender_id
            WHERE (m.sender_id=$1 AND m.recipient_id=$2) OR (m.sender_id=$2 AND m.recipient_id=$1)
            ORDER BY m.created_at DESC LIMIT $3`
		err = r.db.SelectContext(ctx, &msgs, query, viewerID, *peerID, limit)
	} else {
		query := `SELECT m.id, m.sender_id, m.recipient_id, m.content, m.created_at,
                u.username AS sender_username, u.avatar_url AS sender_avatar,
                EXISTS(SELECT 1 FROM message_reads r WHERE r.message_id = m.id AND r.reader_id = $1) AS is_read
            FROM messages m JOIN users u ON u.id = m.sender_id
            WHERE m.recipient_id IS NULL
            ORDER BY m.created_at DESC LIMIT $2`
		err = r.db.SelectContext(ctx, &msgs, query, viewerID, limit)
	}
	if err != nil {
		return nil, err
	}

	// Newest-first fetch for the limit, oldest-first for the caller.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// InsertReadReceipt records a first read. It reports false when the receipt
// already existed; duplicates are a no-op, not an error.
func (r *MessageRepo) InsertReadReceipt(ctx context.Context, messageID int, readerID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO message_reads (message_id, reader_id) VALUES ($1, $2)
        ON CONFLICT (message_id, reader_id) DO NOTHING`, messageID, readerID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetParticipants returns the sender and optional recipient of a message.
func (r *MessageRepo) GetParticipants(ctx context.Context, messageID int) (models.Participants, error) {
	var p models.Participants
	err := r.db.GetContext(ctx, &p, `SELECT sender_id, recipient_id FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participants{}, ErrMessageNotFound
	}
	return p, err
}
