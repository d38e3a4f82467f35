package handlers

import (
	"net/http"

	"github.com/bizchat/server/internal/chat"
)

// FeatureHandler serves the static feature catalog
type FeatureHandler struct {
	chatService *chat.Service
}

func NewFeatureHandler(chatService *chat.Service) *FeatureHandler {
	return &FeatureHandler{chatService: chatService}
}

// HandleList handles GET /api/features
func (h *FeatureHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chatService.ListFeatures())
}
