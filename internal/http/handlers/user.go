package handlers

import (
	"net/http"

	"github.com/bizchat/server/internal/apperr"
	"github.com/bizchat/server/internal/auth"
	"github.com/bizchat/server/internal/middleware"
)

// UserHandler serves the authenticated user's own record
type UserHandler struct {
	authService *auth.Service
}

func NewUserHandler(authService *auth.Service) *UserHandler {
	return &UserHandler{authService: authService}
}

// updateProfileRequest is the request body for PATCH /api/user/current; absent fields are unchanged
type updateProfileRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Avatar   *string `json:"avatar"`
}

// HandleCurrent handles GET /api/user/current
func (h *UserHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate handles PATCH /api/user/current
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), userID, req.Name, req.Location, req.Avatar)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
