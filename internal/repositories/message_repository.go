package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

// MessageRepository defines the persistence gateway for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID, receiverID int, content string, attachments []string) (models.Message, error)
	GetConversationPage(ctx context.Context, userA, userB, offset, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, messageIDs []int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message with a server-assigned timestamp and read=false.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID, receiverID int, content string, attachments []string) (models.Message, error) {
	if attachments == nil {
		attachments = []string{}
	}
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (sender_id, receiver_id, content, attachments) VALUES ($1, $2, $3, $4)
        RETURNING id, sender_id, receiver_id, content, attachments, read, created_at`,
		senderID, receiverID, content, pq.Array(attachments)).
		Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Attachments, &msg.Read, &msg.CreatedAt)
	return msg, err
}

// GetConversationPage returns one page of the conversation between two users,
// matching sender/receiver in either direction. Rows are fetched newest-first
// for the offset window and reversed so the result is always chronological
// ascending. The secondary id ordering keeps pagination stable when several
// rows share a timestamp.
func (r *MessageRepo) GetConversationPage(ctx context.Context, userA, userB, offset, limit int) ([]models.Message, error) {
	query := `SELECT id, sender_id, receiver_id, content, attachments, read, created_at
        FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY created_at DESC, id DESC
        LIMIT $3 OFFSET $4`
	var msgs []models.Message
	if err := r.db.SelectContext(ctx, &msgs, query, userA, userB, limit, offset); err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkRead flags the given messages as read. Unknown ids are ignored, so the
// operation is idempotent.
func (r *MessageRepo) MarkRead(ctx context.Context, messageIDs []int) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET read = TRUE WHERE id = ANY($1)`, pq.Array(messageIDs))
	return err
}
