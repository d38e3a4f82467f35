package handlers

import (
	"net/http"

	"github.com/bizchat/server/internal/apperr"
	"github.com/bizchat/server/internal/chat"
	"github.com/bizchat/server/internal/middleware"
)

// StoryHandler handles story endpoints
type StoryHandler struct {
	chatService *chat.Service
}

func NewStoryHandler(chatService *chat.Service) *StoryHandler {
	return &StoryHandler{chatService: chatService}
}

type createStoryRequest struct {
	Content  string  `json:"content"`
	MediaURL *string `json:"mediaUrl"`
	Location string  `json:"location"`
}

// HandleList handles GET /api/stories?location= (public)
func (h *StoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	stories, err := h.chatService.ListStories(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(stories))
}

// HandleCreate handles POST /api/stories
func (h *StoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}

	var req createStoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	story, err := h.chatService.CreateStory(r.Context(), userID, req.Content, req.MediaURL, req.Location)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, story)
}

// HandleView handles POST /api/stories/{storyId}/view
func (h *StoryHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}
	storyID, err := pathUUID(r, "storyId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	story, err := h.chatService.ViewStory(r.Context(), userID, storyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, story)
}
