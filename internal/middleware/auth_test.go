package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSessions map[string]uuid.UUID

func (s staticSessions) Resolve(token string) (uuid.UUID, bool) {
	id, ok := s[token]
	return id, ok
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	sessions := staticSessions{"good-token": userID}

	var gotID uuid.UUID
	var gotToken string
	handler := AuthMiddleware(sessions, "bizchat_session")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserID(r.Context())
		gotToken, _ = GetToken(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(r *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec
	}

	t.Run("A_BearerHeader", func(t *testing.T) {
		gotID, gotToken = uuid.Nil, ""
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer good-token")

		rec := serve(r)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, userID, gotID)
		assert.Equal(t, "good-token", gotToken)
	})

	t.Run("B_Cookie", func(t *testing.T) {
		gotID = uuid.Nil
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "bizchat_session", Value: "good-token"})

		rec := serve(r)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, userID, gotID)
	})

	t.Run("C_Missing", func(t *testing.T) {
		rec := serve(httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["message"])
	})

	t.Run("D_UnknownToken", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer forged")
		assert.Equal(t, http.StatusUnauthorized, serve(r).Code)
	})

	t.Run("E_MalformedHeaderDoesNotFallBackToCookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Basic abc")
		r.AddCookie(&http.Cookie{Name: "bizchat_session", Value: "good-token"})
		assert.Equal(t, http.StatusUnauthorized, serve(r).Code)
	})
}

func TestGetUserID_Empty(t *testing.T) {
	_, ok := GetUserID(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
