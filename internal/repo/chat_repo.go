package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bizchat/server/internal/model"
)

type chatRepo struct {
	db *sql.DB
}

// NewChatRepo creates a Postgres-backed ChatRepo
func NewChatRepo(db *sql.DB) ChatRepo {
	return &chatRepo{db: db}
}

const chatColumns = `id, name, is_group, participants, created_by, created_at, updated_at`

// Create inserts a chat with its participant array
func (r *chatRepo) Create(ctx context.Context, chat model.Chat) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chats (`+chatColumns+`)
		VALUES ($1, $2, $3, $4::uuid[], $5, $6, $7)
	`, chat.ID, chat.Name, chat.IsGroup, pq.Array(uuidStrings(chat.Participants)),
		chat.CreatedBy, chat.CreatedAt, chat.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

// GetByID retrieves a chat by ID
func (r *chatRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Chat, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = $1`, id)
	if err != nil {
		return model.Chat{}, fmt.Errorf("failed to query chat: %w", err)
	}
	chats, err := scanChats(rows)
	if err != nil {
		return model.Chat{}, err
	}
	if len(chats) == 0 {
		return model.Chat{}, ErrNotFound
	}
	return chats[0], nil
}

// ListByParticipant returns chats whose participant array contains userID
func (r *chatRepo) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]model.Chat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+chatColumns+`
		FROM chats
		WHERE $1::uuid = ANY(participants)
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return scanChats(rows)
}

// Touch bumps updated_at, typically after a new message
func (r *chatRepo) Touch(ctx context.Context, id uuid.UUID, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE chats SET updated_at = $2 WHERE id = $1`, id, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to touch chat: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanChats(rows *sql.Rows) ([]model.Chat, error) {
	defer rows.Close()

	chats := make([]model.Chat, 0)
	for rows.Next() {
		var chat model.Chat
		var name sql.NullString
		var participants pq.StringArray
		if err := rows.Scan(
			&chat.ID,
			&name,
			&chat.IsGroup,
			&participants,
			&chat.CreatedBy,
			&chat.CreatedAt,
			&chat.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		if name.Valid {
			chat.Name = &name.String
		}
		ids, err := parseUUIDs(participants)
		if err != nil {
			return nil, fmt.Errorf("failed to parse participants: %w", err)
		}
		chat.Participants = ids
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chats: %w", err)
	}
	return chats, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
