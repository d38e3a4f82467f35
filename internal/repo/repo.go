package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bizchat/server/internal/model"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique key (phone number, id) is already taken.
	ErrConflict = errors.New("record already exists")
)

// UserRepo defines the interface for user repository operations
type UserRepo interface {
	Create(ctx context.Context, user model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (model.User, error)
	SetPresence(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error
}

// ProfileUpdate carries the editable user fields; nil leaves a field unchanged.
type ProfileUpdate struct {
	Name     *string
	Location *string
	Avatar   *string
}

// ChatRepo defines the interface for chat repository operations
type ChatRepo interface {
	Create(ctx context.Context, chat model.Chat) error
	GetByID(ctx context.Context, id uuid.UUID) (model.Chat, error)
	// ListByParticipant returns the chats containing userID ordered by creation time, then id.
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]model.Chat, error)
	Touch(ctx context.Context, id uuid.UUID, updatedAt time.Time) error
}

// MessageRepo defines the interface for message repository operations
type MessageRepo interface {
	Create(ctx context.Context, msg model.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (model.Message, error)
	// ListByChat returns messages ordered by timestamp; equal timestamps keep insertion order.
	ListByChat(ctx context.Context, chatID uuid.UUID) ([]model.Message, error)
}

// StoryRepo defines the interface for story repository operations
type StoryRepo interface {
	Create(ctx context.Context, story model.Story) error
	// ListActiveByLocation returns unexpired stories for location, newest first.
	ListActiveByLocation(ctx context.Context, location string, now time.Time) ([]model.Story, error)
	// AddView records viewerID as a viewer of an unexpired story. Repeat views are not counted twice.
	AddView(ctx context.Context, storyID, viewerID uuid.UUID, now time.Time) (model.Story, error)
}

// Directory is the system of record for users, chats, messages and stories.
type Directory struct {
	Users    UserRepo
	Chats    ChatRepo
	Messages MessageRepo
	Stories  StoryRepo
}

// NewMemoryDirectory returns a volatile, process-local directory.
func NewMemoryDirectory() *Directory {
	return &Directory{
		Users:    NewMemoryUserRepo(),
		Chats:    NewMemoryChatRepo(),
		Messages: NewMemoryMessageRepo(),
		Stories:  NewMemoryStoryRepo(),
	}
}

// NewPostgresDirectory returns a directory backed by PostgreSQL. The schema
// must already be migrated (see db.Migrate).
func NewPostgresDirectory(db *sql.DB) *Directory {
	return &Directory{
		Users:    NewUserRepo(db),
		Chats:    NewChatRepo(db),
		Messages: NewMessageRepo(db),
		Stories:  NewStoryRepo(db),
	}
}
