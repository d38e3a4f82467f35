package chat

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizchat/server/internal/apperr"
	"github.com/bizchat/server/internal/model"
	"github.com/bizchat/server/internal/repo"
)

type recordingNotifier struct {
	mu         sync.Mutex
	msgs       []model.Message
	recipients [][]uuid.UUID
}

func (n *recordingNotifier) NotifyNewMessage(participants []uuid.UUID, msg model.Message) {
	n.mu.Lock()
	n.msgs = append(n.msgs, msg)
	n.recipients = append(n.recipients, participants)
	n.mu.Unlock()
}

type fixture struct {
	svc      *Service
	dir      *repo.Directory
	notifier *recordingNotifier
	alice    model.User
	bob      model.User
	carol    model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := repo.NewMemoryDirectory()
	notifier := &recordingNotifier{}
	f := &fixture{svc: NewService(dir, notifier, time.Hour), dir: dir, notifier: notifier}

	for i, u := range []*model.User{&f.alice, &f.bob, &f.carol} {
		*u = model.User{
			ID:          uuid.New(),
			Name:        []string{"Alice", "Bob", "Carol"}[i],
			PhoneNumber: []string{"+213555000001", "+213555000002", "+213555000003"}[i],
			Location:    "Tindouf",
			CreatedAt:   time.Now(),
		}
		require.NoError(t, dir.Users.Create(ctx, *u))
	}
	return f
}

func TestListChats_onlyParticipantChats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ab, err := f.svc.CreateChat(ctx, f.alice.ID, "", false, []uuid.UUID{f.bob.ID})
	require.NoError(t, err)
	bc, err := f.svc.CreateChat(ctx, f.bob.ID, "team", true, []uuid.UUID{f.carol.ID})
	require.NoError(t, err)

	chats, err := f.svc.ListChats(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, ab.ID, chats[0].ID)
	for _, c := range chats {
		assert.True(t, c.HasParticipant(f.alice.ID))
		assert.NotEqual(t, bc.ID, c.ID)
	}

	chats, err = f.svc.ListChats(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Len(t, chats, 2)
}

func TestCreateChat_validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateChat(ctx, f.alice.ID, "", false, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput, "direct chat with nobody")
	_, err = f.svc.CreateChat(ctx, f.alice.ID, "", false, []uuid.UUID{f.bob.ID, f.carol.ID})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput, "direct chat with two others")
	_, err = f.svc.CreateChat(ctx, f.alice.ID, "", true, []uuid.UUID{f.alice.ID})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput, "group with only the creator")
	_, err = f.svc.CreateChat(ctx, f.alice.ID, "", false, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput, "unknown participant")

	chat, err := f.svc.CreateChat(ctx, f.alice.ID, "  Family ", true, []uuid.UUID{f.bob.ID, f.bob.ID, f.carol.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.alice.ID, f.bob.ID, f.carol.ID}, chat.Participants)
	require.NotNil(t, chat.Name)
	assert.Equal(t, "Family", *chat.Name)
	assert.Equal(t, f.alice.ID, chat.CreatedBy)
}

func TestListMessages_nonParticipantGetsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	chat, err := f.svc.CreateChat(ctx, f.alice.ID, "", false, []uuid.UUID{f.bob.ID})
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, f.alice.ID, chat.ID, "hi", model.MessageText, nil)
	require.NoError(t, err)

	_, err = f.svc.ListMessages(ctx, f.carol.ID, chat.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.ListMessages(ctx, f.alice.ID, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	msgs, err := f.svc.ListMessages(ctx, f.bob.ID, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	chat, err := f.svc.CreateChat(ctx, f.alice.ID, "", false, []uuid.UUID{f.bob.ID})
	require.NoError(t, err)

	first, err := f.svc.SendMessage(ctx, f.alice.ID, chat.ID, "hello", "", nil)
	require.NoError(t, err)
	assert.Equal(t, model.MessageText, first.MessageType, "type defaults to text")

	reply, err := f.svc.SendMessage(ctx, f.bob.ID, chat.ID, "https://cdn.example/p.jpg", model.MessageImage, &first.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyTo)
	assert.Equal(t, first.ID, *reply.ReplyTo)

	assert.Len(t, f.notifier.msgs, 2)
	for _, to := range f.notifier.recipients {
		assert.ElementsMatch(t, []uuid.UUID{f.alice.ID, f.bob.ID}, to, "only participants are notified")
	}

	stored, err := f.dir.Chats.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.False(t, stored.UpdatedAt.Before(reply.Timestamp), "chat updatedAt follows the latest message")

	_, err = f.svc.SendMessage(ctx, f.carol.ID, chat.ID, "intruder", model.MessageText, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.SendMessage(ctx, f.alice.ID, chat.ID, "  ", model.MessageText, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.svc.SendMessage(ctx, f.alice.ID, chat.ID, "x", model.MessageType("gif"), nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	missing := uuid.New()
	_, err = f.svc.SendMessage(ctx, f.alice.ID, chat.ID, "x", model.MessageText, &missing)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	assert.Len(t, f.notifier.msgs, 2, "rejected messages are not announced")
}

func TestSendMessage_contentLimitCountsCharacters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	chat, err := f.svc.CreateChat(ctx, f.alice.ID, "", false, []uuid.UUID{f.bob.ID})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, f.alice.ID, chat.ID, strings.Repeat("م", maxContentLength), model.MessageText, nil)
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, f.alice.ID, chat.ID, strings.Repeat("م", maxContentLength+1), model.MessageText, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestStories(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Now()
	f.svc.now = func() time.Time { return now }

	_, err := f.svc.ListStories(ctx, " ")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	story, err := f.svc.CreateStory(ctx, f.alice.ID, "sunset", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Tindouf", story.Location, "defaults to the author's location")
	assert.True(t, story.ExpiresAt.Equal(story.CreatedAt.Add(time.Hour)))

	_, err = f.svc.CreateStory(ctx, f.alice.ID, " ", nil, "Oran")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	stories, err := f.svc.ListStories(ctx, "Tindouf")
	require.NoError(t, err)
	require.Len(t, stories, 1)

	viewed, err := f.svc.ViewStory(ctx, f.bob.ID, story.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.ViewCount)

	now = now.Add(time.Hour)
	stories, err = f.svc.ListStories(ctx, "Tindouf")
	require.NoError(t, err)
	assert.Empty(t, stories, "expired stories drop out without deletion")
	_, err = f.svc.ViewStory(ctx, f.carol.ID, story.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListFeatures(t *testing.T) {
	f := newFixture(t)
	features := f.svc.ListFeatures()
	require.Len(t, features, 3)
	assert.Equal(t, "messaging", features[0].ID)

	features[0].IsEnabled = false
	assert.True(t, f.svc.ListFeatures()[0].IsEnabled, "catalog is not mutable through the returned slice")
}
