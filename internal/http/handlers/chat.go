package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bizchat/server/internal/apperr"
	"github.com/bizchat/server/internal/chat"
	"github.com/bizchat/server/internal/middleware"
	"github.com/bizchat/server/internal/model"
)

// ChatHandler handles chat and message endpoints
type ChatHandler struct {
	chatService *chat.Service
}

func NewChatHandler(chatService *chat.Service) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type createChatRequest struct {
	Name         string      `json:"name"`
	IsGroup      bool        `json:"isGroup"`
	Participants []uuid.UUID `json:"participants"`
}

type sendMessageRequest struct {
	Content     string            `json:"content"`
	MessageType model.MessageType `json:"messageType"`
	ReplyTo     *uuid.UUID        `json:"replyTo"`
}

// HandleList handles GET /api/chats
func (h *ChatHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}

	chats, err := h.chatService.ListChats(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(chats))
}

// HandleCreate handles POST /api/chats
func (h *ChatHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}

	var req createChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.chatService.CreateChat(r.Context(), userID, req.Name, req.IsGroup, req.Participants)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleListMessages handles GET /api/chats/{chatId}/messages
func (h *ChatHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}
	chatID, err := pathUUID(r, "chatId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	messages, err := h.chatService.ListMessages(r.Context(), userID, chatID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(messages))
}

// HandleSendMessage handles POST /api/chats/{chatId}/messages
func (h *ChatHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}
	chatID, err := pathUUID(r, "chatId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	msg, err := h.chatService.SendMessage(r.Context(), userID, chatID, req.Content, req.MessageType, req.ReplyTo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// pathUUID parses a URL parameter. A malformed id cannot name an entity, so it is NotFound.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: unknown %s", apperr.ErrNotFound, name)
	}
	return id, nil
}
