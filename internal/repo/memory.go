package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bizchat/server/internal/model"
)

// Memory repos keep values, never pointers handed out to callers: every read
// returns a copy and slices are cloned, so callers cannot mutate stored state.

type memUserRepo struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]model.User
	byPhone map[string]uuid.UUID
}

// NewMemoryUserRepo creates an in-memory UserRepo
func NewMemoryUserRepo() UserRepo {
	return &memUserRepo{
		users:   make(map[uuid.UUID]model.User),
		byPhone: make(map[string]uuid.UUID),
	}
}

func (r *memUserRepo) Create(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byPhone[user.PhoneNumber]; taken {
		return ErrConflict
	}
	if _, taken := r.users[user.ID]; taken {
		return ErrConflict
	}
	r.users[user.ID] = cloneUser(user)
	r.byPhone[user.PhoneNumber] = user.ID
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *memUserRepo) GetByPhone(_ context.Context, phone string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPhone[phone]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return cloneUser(r.users[id]), nil
}

func (r *memUserRepo) UpdateProfile(_ context.Context, id uuid.UUID, update ProfileUpdate) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Location != nil {
		user.Location = *update.Location
	}
	if update.Avatar != nil {
		avatar := *update.Avatar
		user.Avatar = &avatar
	}
	r.users[id] = user
	return cloneUser(user), nil
}

func (r *memUserRepo) SetPresence(_ context.Context, id uuid.UUID, online bool, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.IsOnline = online
	user.LastSeen = lastSeen
	r.users[id] = user
	return nil
}

func cloneUser(u model.User) model.User {
	if u.Avatar != nil {
		avatar := *u.Avatar
		u.Avatar = &avatar
	}
	return u
}

type memChatRepo struct {
	mu    sync.RWMutex
	chats map[uuid.UUID]model.Chat
}

// NewMemoryChatRepo creates an in-memory ChatRepo
func NewMemoryChatRepo() ChatRepo {
	return &memChatRepo{chats: make(map[uuid.UUID]model.Chat)}
}

func (r *memChatRepo) Create(_ context.Context, chat model.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.chats[chat.ID]; taken {
		return ErrConflict
	}
	r.chats[chat.ID] = cloneChat(chat)
	return nil
}

func (r *memChatRepo) GetByID(_ context.Context, id uuid.UUID) (model.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chat, ok := r.chats[id]
	if !ok {
		return model.Chat{}, ErrNotFound
	}
	return cloneChat(chat), nil
}

func (r *memChatRepo) ListByParticipant(_ context.Context, userID uuid.UUID) ([]model.Chat, error) {
	r.mu.RLock()
	chats := make([]model.Chat, 0)
	for _, chat := range r.chats {
		if chat.HasParticipant(userID) {
			chats = append(chats, cloneChat(chat))
		}
	}
	r.mu.RUnlock()

	sort.Slice(chats, func(i, j int) bool {
		if !chats[i].CreatedAt.Equal(chats[j].CreatedAt) {
			return chats[i].CreatedAt.Before(chats[j].CreatedAt)
		}
		return chats[i].ID.String() < chats[j].ID.String()
	})
	return chats, nil
}

func (r *memChatRepo) Touch(_ context.Context, id uuid.UUID, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[id]
	if !ok {
		return ErrNotFound
	}
	chat.UpdatedAt = updatedAt
	r.chats[id] = chat
	return nil
}

func cloneChat(c model.Chat) model.Chat {
	c.Participants = append([]uuid.UUID(nil), c.Participants...)
	if c.Name != nil {
		name := *c.Name
		c.Name = &name
	}
	return c
}

type memMessageRepo struct {
	mu     sync.RWMutex
	byChat map[uuid.UUID][]model.Message // insertion order
	byID   map[uuid.UUID]model.Message
}

// NewMemoryMessageRepo creates an in-memory MessageRepo
func NewMemoryMessageRepo() MessageRepo {
	return &memMessageRepo{
		byChat: make(map[uuid.UUID][]model.Message),
		byID:   make(map[uuid.UUID]model.Message),
	}
}

func (r *memMessageRepo) Create(_ context.Context, msg model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byID[msg.ID]; taken {
		return ErrConflict
	}
	r.byChat[msg.ChatID] = append(r.byChat[msg.ChatID], msg)
	r.byID[msg.ID] = msg
	return nil
}

func (r *memMessageRepo) GetByID(_ context.Context, id uuid.UUID) (model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, ok := r.byID[id]
	if !ok {
		return model.Message{}, ErrNotFound
	}
	return msg, nil
}

func (r *memMessageRepo) ListByChat(_ context.Context, chatID uuid.UUID) ([]model.Message, error) {
	r.mu.RLock()
	msgs := append(make([]model.Message, 0, len(r.byChat[chatID])), r.byChat[chatID]...)
	r.mu.RUnlock()

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	return msgs, nil
}

type memStoryRepo struct {
	mu      sync.RWMutex
	stories map[uuid.UUID]model.Story
}

// NewMemoryStoryRepo creates an in-memory StoryRepo
func NewMemoryStoryRepo() StoryRepo {
	return &memStoryRepo{stories: make(map[uuid.UUID]model.Story)}
}

func (r *memStoryRepo) Create(_ context.Context, story model.Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.stories[story.ID]; taken {
		return ErrConflict
	}
	r.stories[story.ID] = cloneStory(story)
	return nil
}

func (r *memStoryRepo) ListActiveByLocation(_ context.Context, location string, now time.Time) ([]model.Story, error) {
	r.mu.RLock()
	stories := make([]model.Story, 0)
	for _, story := range r.stories {
		if story.Location == location && story.ActiveAt(now) {
			stories = append(stories, cloneStory(story))
		}
	}
	r.mu.RUnlock()

	sort.Slice(stories, func(i, j int) bool {
		if !stories[i].CreatedAt.Equal(stories[j].CreatedAt) {
			return stories[i].CreatedAt.After(stories[j].CreatedAt)
		}
		return stories[i].ID.String() < stories[j].ID.String()
	})
	return stories, nil
}

func (r *memStoryRepo) AddView(_ context.Context, storyID, viewerID uuid.UUID, now time.Time) (model.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	story, ok := r.stories[storyID]
	if !ok || !story.ActiveAt(now) {
		return model.Story{}, ErrNotFound
	}
	for _, v := range story.Viewers {
		if v == viewerID {
			return cloneStory(story), nil
		}
	}
	story.Viewers = append(story.Viewers, viewerID)
	story.ViewCount = len(story.Viewers)
	r.stories[storyID] = story
	return cloneStory(story), nil
}

func cloneStory(s model.Story) model.Story {
	s.Viewers = append(make([]uuid.UUID, 0, len(s.Viewers)), s.Viewers...)
	if s.MediaURL != nil {
		media := *s.MediaURL
		s.MediaURL = &media
	}
	return s
}
