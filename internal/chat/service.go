// Package chat implements the read and write operations over chats, messages
// and stories for an already authenticated caller.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bizchat/server/internal/apperr"
	"github.com/bizchat/server/internal/model"
	"github.com/bizchat/server/internal/repo"
)

const maxContentLength = 4000

// Notifier announces a newly persisted message to the live connections of
// the chat's participants
type Notifier interface {
	NotifyNewMessage(participants []uuid.UUID, msg model.Message)
}

// Service serves chats, messages and stories on top of the directory
type Service struct {
	dir      *repo.Directory
	notifier Notifier
	storyTTL time.Duration
	now      func() time.Time
}

// NewService creates a chat service. storyTTL is applied to every new story.
func NewService(dir *repo.Directory, notifier Notifier, storyTTL time.Duration) *Service {
	return &Service{
		dir:      dir,
		notifier: notifier,
		storyTTL: storyTTL,
		now:      time.Now,
	}
}

// ListChats returns every chat userID participates in.
func (s *Service) ListChats(ctx context.Context, userID uuid.UUID) ([]model.Chat, error) {
	chats, err := s.dir.Chats.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// ListMessages returns the messages of chatID. Callers outside the participant
// set get ErrNotFound, the same as for a chat that does not exist.
func (s *Service) ListMessages(ctx context.Context, userID, chatID uuid.UUID) ([]model.Message, error) {
	if _, err := s.participantChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	msgs, err := s.dir.Messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// CreateChat opens a conversation created by userID. The creator is always a
// participant; a direct (non-group) chat has exactly two participants.
func (s *Service) CreateChat(ctx context.Context, userID uuid.UUID, name string, isGroup bool, participants []uuid.UUID) (*model.Chat, error) {
	members := []uuid.UUID{userID}
	seen := map[uuid.UUID]bool{userID: true}
	for _, p := range participants {
		if seen[p] {
			continue
		}
		seen[p] = true
		members = append(members, p)
	}

	if !isGroup && len(members) != 2 {
		return nil, fmt.Errorf("%w: a direct chat needs exactly one other participant", apperr.ErrInvalidInput)
	}
	if isGroup && len(members) < 2 {
		return nil, fmt.Errorf("%w: a group chat needs at least one other participant", apperr.ErrInvalidInput)
	}
	for _, id := range members[1:] {
		if _, err := s.dir.Users.GetByID(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, fmt.Errorf("%w: participant %s does not exist", apperr.ErrInvalidInput, id)
			}
			return nil, fmt.Errorf("look up participant: %w", err)
		}
	}

	now := s.now().UTC()
	chat := model.Chat{
		ID:           uuid.New(),
		IsGroup:      isGroup,
		Participants: members,
		CreatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if name = strings.TrimSpace(name); name != "" {
		chat.Name = &name
	}
	if err := s.dir.Chats.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return &chat, nil
}

// SendMessage appends a message from userID to chatID and announces it.
func (s *Service) SendMessage(ctx context.Context, userID, chatID uuid.UUID, content string, msgType model.MessageType, replyTo *uuid.UUID) (*model.Message, error) {
	if msgType == "" {
		msgType = model.MessageText
	}
	if !msgType.Valid() {
		return nil, fmt.Errorf("%w: unknown messageType %q", apperr.ErrInvalidInput, msgType)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", apperr.ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, fmt.Errorf("%w: content is too long", apperr.ErrInvalidInput)
	}

	chat, err := s.participantChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if replyTo != nil {
		parent, err := s.dir.Messages.GetByID(ctx, *replyTo)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("look up reply target: %w", err)
		}
		if err != nil || parent.ChatID != chatID {
			return nil, fmt.Errorf("%w: replyTo must reference a message in this chat", apperr.ErrInvalidInput)
		}
	}

	now := s.now().UTC()
	msg := model.Message{
		ID:          uuid.New(),
		ChatID:      chatID,
		SenderID:    userID,
		Content:     content,
		MessageType: msgType,
		ReplyTo:     replyTo,
		Timestamp:   now,
		IsDelivered: true,
	}
	if err := s.dir.Messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := s.dir.Chats.Touch(ctx, chatID, now); err != nil {
		return nil, fmt.Errorf("touch chat: %w", err)
	}

	s.notifier.NotifyNewMessage(chat.Participants, msg)
	return &msg, nil
}

// ListStories returns unexpired stories posted for location. No session is needed.
func (s *Service) ListStories(ctx context.Context, location string) ([]model.Story, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", apperr.ErrInvalidInput)
	}
	stories, err := s.dir.Stories.ListActiveByLocation(ctx, location, s.now())
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return stories, nil
}

// CreateStory posts a story that expires after the configured TTL. An empty
// location falls back to the author's profile location.
func (s *Service) CreateStory(ctx context.Context, userID uuid.UUID, content string, mediaURL *string, location string) (*model.Story, error) {
	content = strings.TrimSpace(content)
	if content == "" && (mediaURL == nil || strings.TrimSpace(*mediaURL) == "") {
		return nil, fmt.Errorf("%w: content or mediaUrl is required", apperr.ErrInvalidInput)
	}

	location = strings.TrimSpace(location)
	if location == "" {
		author, err := s.dir.Users.GetByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user does not exist", apperr.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("look up author: %w", err)
		}
		location = author.Location
	}

	now := s.now().UTC()
	story := model.Story{
		ID:        uuid.New(),
		UserID:    userID,
		Location:  location,
		Content:   content,
		MediaURL:  mediaURL,
		CreatedAt: now,
		ExpiresAt: now.Add(s.storyTTL),
		Viewers:   []uuid.UUID{},
	}
	if err := s.dir.Stories.Create(ctx, story); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}
	return &story, nil
}

// ViewStory records userID as a viewer; expired stories are not found.
func (s *Service) ViewStory(ctx context.Context, userID, storyID uuid.UUID) (*model.Story, error) {
	story, err := s.dir.Stories.AddView(ctx, storyID, userID, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: story does not exist or has expired", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("view story: %w", err)
	}
	return &story, nil
}

func (s *Service) participantChat(ctx context.Context, userID, chatID uuid.UUID) (model.Chat, error) {
	chat, err := s.dir.Chats.GetByID(ctx, chatID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return model.Chat{}, fmt.Errorf("get chat: %w", err)
	}
	if err != nil || !chat.HasParticipant(userID) {
		return model.Chat{}, fmt.Errorf("%w: chat does not exist", apperr.ErrNotFound)
	}
	return chat, nil
}
