package tests

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizchat/server/internal/db"
	"github.com/bizchat/server/internal/model"
	"github.com/bizchat/server/internal/repo"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	database, err := db.Open(ctx, databaseURL)
	require.NoError(t, err, "database open must succeed; check DATABASE_URL and that test DB exists")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.Migrate(database), "migrations must run successfully")
	require.NoError(t, TruncateDirectoryTables(ctx, database))
	return database
}

func TestPostgresDirectory(t *testing.T) {
	database := openTestDB(t)
	dir := repo.NewPostgresDirectory(database)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	alice := model.User{ID: uuid.New(), Name: "Alice", PhoneNumber: "+213555700001", Location: "Algiers", CreatedAt: now, LastSeen: now}
	bob := model.User{ID: uuid.New(), Name: "Bob", PhoneNumber: "+213555700002", Location: "Algiers", CreatedAt: now, LastSeen: now}

	t.Run("A_Users", func(t *testing.T) {
		require.NoError(t, dir.Users.Create(ctx, alice))
		require.NoError(t, dir.Users.Create(ctx, bob))

		dup := alice
		dup.ID = uuid.New()
		assert.ErrorIs(t, dir.Users.Create(ctx, dup), repo.ErrConflict)

		got, err := dir.Users.GetByPhone(ctx, alice.PhoneNumber)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)

		_, err = dir.Users.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, repo.ErrNotFound)

		avatar := "https://cdn.example/a.png"
		updated, err := dir.Users.UpdateProfile(ctx, alice.ID, repo.ProfileUpdate{Avatar: &avatar})
		require.NoError(t, err)
		require.NotNil(t, updated.Avatar)
		assert.Equal(t, avatar, *updated.Avatar)
		assert.Equal(t, "Alice", updated.Name)

		require.NoError(t, dir.Users.SetPresence(ctx, bob.ID, true, now))
		got, err = dir.Users.GetByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.True(t, got.IsOnline)
	})

	var chatID uuid.UUID
	t.Run("B_ChatsAndMessages", func(t *testing.T) {
		chat := model.Chat{ID: uuid.New(), Participants: []uuid.UUID{alice.ID, bob.ID}, CreatedBy: alice.ID, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, dir.Chats.Create(ctx, chat))
		chatID = chat.ID

		chats, err := dir.Chats.ListByParticipant(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, chats, 1)
		assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, chats[0].Participants)

		outsider, err := dir.Chats.ListByParticipant(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, outsider)

		// Equal timestamps keep insertion order.
		ids := make([]uuid.UUID, 3)
		for i := range ids {
			ids[i] = uuid.New()
			require.NoError(t, dir.Messages.Create(ctx, model.Message{
				ID: ids[i], ChatID: chat.ID, SenderID: alice.ID, Content: "m", MessageType: model.MessageText, Timestamp: now,
			}))
		}
		msgs, err := dir.Messages.ListByChat(ctx, chat.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		for i, m := range msgs {
			assert.Equal(t, ids[i], m.ID)
		}

		require.NoError(t, dir.Chats.Touch(ctx, chat.ID, now.Add(time.Minute)))
		assert.ErrorIs(t, dir.Chats.Touch(ctx, uuid.New(), now), repo.ErrNotFound)
	})

	t.Run("B2_TouchKeepsChatAndMessages", func(t *testing.T) {
		require.NotEqual(t, uuid.Nil, chatID)

		touched, err := dir.Chats.GetByID(ctx, chatID)
		require.NoError(t, err)
		assert.WithinDuration(t, now.Add(time.Minute), touched.UpdatedAt, time.Millisecond)
		assert.WithinDuration(t, now, touched.CreatedAt, time.Millisecond)

		msgs, err := dir.Messages.ListByChat(ctx, chatID)
		require.NoError(t, err)
		assert.Len(t, msgs, 3)
	})

	t.Run("C_Stories", func(t *testing.T) {
		live := model.Story{ID: uuid.New(), UserID: alice.ID, Location: "Algiers", Content: "live", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
		expired := model.Story{ID: uuid.New(), UserID: alice.ID, Location: "Algiers", Content: "old", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
		require.NoError(t, dir.Stories.Create(ctx, live))
		require.NoError(t, dir.Stories.Create(ctx, expired))

		stories, err := dir.Stories.ListActiveByLocation(ctx, "Algiers", now)
		require.NoError(t, err)
		require.Len(t, stories, 1)
		assert.Equal(t, live.ID, stories[0].ID)

		for i := 0; i < 2; i++ {
			_, err = dir.Stories.AddView(ctx, live.ID, bob.ID, now)
			require.NoError(t, err)
		}
		viewed, err := dir.Stories.AddView(ctx, live.ID, alice.ID, now)
		require.NoError(t, err)
		assert.Equal(t, 2, viewed.ViewCount)
		assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, viewed.Viewers)

		_, err = dir.Stories.AddView(ctx, expired.ID, bob.ID, now)
		assert.ErrorIs(t, err, repo.ErrNotFound)
	})

	t.Run("D_SeedIsIdempotent", func(t *testing.T) {
		require.NoError(t, repo.SeedDemo(ctx, dir, 24*time.Hour))
		require.NoError(t, repo.SeedDemo(ctx, dir, 24*time.Hour))
	})
}

// TestPostgresAPIE2E runs the signup scenario over the Postgres directory.
func TestPostgresAPIE2E(t *testing.T) {
	database := openTestDB(t)
	ts := newTestServer(t, repo.NewPostgresDirectory(database), serverOptions{devMode: true})

	user, token := ts.signup(t, testPhone, "Test", "X")

	resp, body := ts.do(t, http.MethodGet, "/api/user/current", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)
	var current model.User
	require.NoError(t, json.Unmarshal([]byte(body), &current))
	assert.Equal(t, user.ID, current.ID)
	assert.True(t, current.IsVerified)

	// A second signup attempt for the same number is rejected.
	code := ts.sendOtp(t, testPhone)
	resp, body = ts.do(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"phoneNumber": testPhone, "otpCode": code})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)
	resp, _ = ts.do(t, http.MethodPost, "/api/auth/create-user", "", map[string]string{
		"phoneNumber": testPhone, "name": "Dup", "location": "Y",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
