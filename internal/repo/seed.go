package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bizchat/server/internal/model"
)

const demoPhone = "+213555123456"

// demoID derives a stable id so restarts against a persistent directory seed the same rows.
func demoID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("bizchat:"+name))
}

// SeedDemo loads the demo user, chat, welcome message and story. It is a no-op
// when the demo user already exists.
func SeedDemo(ctx context.Context, dir *Directory, storyTTL time.Duration) error {
	if _, err := dir.Users.GetByPhone(ctx, demoPhone); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("look up demo user: %w", err)
	}

	now := time.Now().UTC()
	avatar := "https://images.pexels.com/photos/220453/pexels-photo-220453.jpeg?auto=compress&cs=tinysrgb&w=150"
	user := model.User{
		ID:          demoID("demo-user-1"),
		Name:        "أحمد محمد",
		PhoneNumber: demoPhone,
		Location:    "تندوف",
		Avatar:      &avatar,
		IsVerified:  true,
		IsOnline:    true,
		LastSeen:    now,
		CreatedAt:   now,
	}
	if err := dir.Users.Create(ctx, user); err != nil {
		return fmt.Errorf("create demo user: %w", err)
	}

	chatName := "محادثة تجريبية"
	chat := model.Chat{
		ID:           demoID("demo-chat-1"),
		Name:         &chatName,
		Participants: []uuid.UUID{user.ID},
		CreatedBy:    user.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := dir.Chats.Create(ctx, chat); err != nil {
		return fmt.Errorf("create demo chat: %w", err)
	}

	msg := model.Message{
		ID:          demoID("msg-1"),
		ChatID:      chat.ID,
		SenderID:    user.ID,
		Content:     "مرحباً! هذه رسالة تجريبية",
		MessageType: model.MessageText,
		Timestamp:   now,
		IsDelivered: true,
	}
	if err := dir.Messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("create demo message: %w", err)
	}

	story := model.Story{
		ID:        uuid.New(),
		UserID:    user.ID,
		Location:  user.Location,
		Content:   "أهلاً بكم في بيزشات",
		CreatedAt: now,
		ExpiresAt: now.Add(storyTTL),
	}
	if err := dir.Stories.Create(ctx, story); err != nil {
		return fmt.Errorf("create demo story: %w", err)
	}
	return nil
}
