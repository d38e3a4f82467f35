package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bizchat/server/internal/model"
)

type messageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a Postgres-backed MessageRepo
func NewMessageRepo(db *sql.DB) MessageRepo {
	return &messageRepo{db: db}
}

const messageColumns = `id, chat_id, sender_id, content, message_type, reply_to, sent_at,
	is_delivered, is_read, is_edited, edited_at, deleted_at`

// Create appends a message; seq (BIGSERIAL) records insertion order
func (r *messageRepo) Create(ctx context.Context, msg model.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, msg.ID, msg.ChatID, msg.SenderID, msg.Content, string(msg.MessageType), msg.ReplyTo, msg.Timestamp,
		msg.IsDelivered, msg.IsRead, msg.IsEdited, msg.EditedAt, msg.DeletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetByID retrieves a message by ID
func (r *messageRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Message, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to query message: %w", err)
	}
	msgs, err := scanMessages(rows)
	if err != nil {
		return model.Message{}, err
	}
	if len(msgs) == 0 {
		return model.Message{}, ErrNotFound
	}
	return msgs[0], nil
}

// ListByChat returns the chat's messages by send time, ties by insertion order
func (r *messageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE chat_id = $1
		ORDER BY sent_at, seq
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	defer rows.Close()

	msgs := make([]model.Message, 0)
	for rows.Next() {
		var msg model.Message
		var msgType string
		var replyTo uuid.NullUUID
		var editedAt, deletedAt sql.NullTime
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.SenderID,
			&msg.Content,
			&msgType,
			&replyTo,
			&msg.Timestamp,
			&msg.IsDelivered,
			&msg.IsRead,
			&msg.IsEdited,
			&editedAt,
			&deletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.MessageType = model.MessageType(msgType)
		if replyTo.Valid {
			msg.ReplyTo = &replyTo.UUID
		}
		if editedAt.Valid {
			msg.EditedAt = &editedAt.Time
		}
		if deletedAt.Valid {
			msg.DeletedAt = &deletedAt.Time
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return msgs, nil
}
